package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/crontabber/internal/constants"
	"github.com/aatumaykin/crontabber/internal/cron"
)

var (
	runJob   string
	runForce bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one cycle",
	Long: `Run every job that is due and whose dependencies are satisfied, then
record the results in the state file.

With --job only that job is considered. --force runs it even when it is
not due or its dependencies are not met.`,
	Args: cobra.NoArgs,
	RunE: runHandler,
}

func runHandler(cmd *cobra.Command, args []string) error {
	if runForce && runJob == "" {
		return fmt.Errorf("--force requires --job")
	}

	// Stop between jobs on SIGINT/SIGTERM; state so far is still saved.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	if runJob != "" {
		return runSingle(ctx, a, out)
	}

	report, err := a.cycle(ctx)
	if err != nil {
		return err
	}
	if len(report.Outcomes) == 0 {
		fmt.Fprint(out, constants.MsgNothingToRun)
	}
	for _, o := range report.Outcomes {
		printOutcome(out, o)
	}
	return nil
}

func runSingle(ctx context.Context, a *app, out io.Writer) error {
	unlock, err := a.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	outcome, err := a.scheduler.RunJob(ctx, runJob, runForce)
	if errors.Is(err, cron.ErrUnknownJob) {
		fmt.Fprint(out, constants.MsgJobNotFoundHint)
	}
	if err != nil {
		return err
	}

	printOutcome(out, outcome)
	if !outcome.Succeeded() {
		return &exitError{code: 1}
	}
	return nil
}

func printOutcome(out io.Writer, o cron.Outcome) {
	if o.Succeeded() {
		fmt.Fprintf(out, constants.MsgJobRan, o.Job, o.Duration.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(out, constants.MsgJobFailed, o.Job, o.Err.Err)
}

func init() {
	runCmd.Flags().StringVarP(&runJob, "job", "j", "", "Run only this job (name or alias)")
	runCmd.Flags().BoolVarP(&runForce, "force", "f", false, "Run the job even if it is not due or its dependencies are not met")
}
