package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/crontabber/internal/constants"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report jobs whose last run failed",
	Long: `Nagios style health check. Prints OK and exits 0 when no configured job
is failing, otherwise lists the failing jobs and exits 2.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.close()

		failing, err := a.scheduler.Check()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(failing) == 0 {
			fmt.Fprint(out, constants.MsgCheckOK)
			return nil
		}

		fmt.Fprintf(out, constants.MsgCheckCritical, len(failing))
		for _, st := range failing {
			e := st.State.LastError
			fmt.Fprintf(out, constants.MsgCheckJob, st.Descriptor.ID, e.Type, e.Message, st.State.ErrorCount)
		}
		return &exitError{code: constants.ExitCodeCheckFailed}
	},
}
