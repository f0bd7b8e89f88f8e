package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/crontabber/internal/constants"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset <job>",
	Short: "Forget a job's state",
	Long: `Remove the recorded state of a job so it is treated as never run and
becomes due on the next cycle. Jobs that depend on it wait until it succeeds
again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.close()

		unlock, err := a.lock(cmd.Context())
		if err != nil {
			return err
		}
		defer unlock()

		removed, err := a.scheduler.ResetJob(args[0])
		if err != nil {
			fmt.Fprint(cmd.OutOrStdout(), constants.MsgJobNotFoundHint)
			return err
		}
		if removed {
			fmt.Fprintf(cmd.OutOrStdout(), constants.MsgJobReset, args[0])
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), constants.MsgJobResetNoState, args[0])
		}
		return nil
	},
}
