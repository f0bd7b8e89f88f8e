package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aatumaykin/crontabber/internal/constants"
	"github.com/aatumaykin/crontabber/internal/cron"
	"github.com/aatumaykin/crontabber/internal/jobspec"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured jobs and their state",
	Long:  `Show every configured job with its last success, last error and whether it would run now.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.close()

		statuses, err := a.scheduler.Jobs()
		if err != nil {
			return err
		}
		return writeJobs(cmd.OutOrStdout(), statuses, listFormat)
	},
}

var listFormat string

// jobView is the machine readable form of a cron.JobStatus.
type jobView struct {
	Name        string            `json:"name" yaml:"name"`
	Frequency   string            `json:"frequency" yaml:"frequency"`
	At          string            `json:"at,omitempty" yaml:"at,omitempty"`
	DependsOn   []string          `json:"depends_on" yaml:"depends_on"`
	Eligible    bool              `json:"eligible" yaml:"eligible"`
	Reason      string            `json:"reason,omitempty" yaml:"reason,omitempty"`
	LastRun     *time.Time        `json:"last_run" yaml:"last_run"`
	LastSuccess *time.Time        `json:"last_success" yaml:"last_success"`
	NextRun     *time.Time        `json:"next_run" yaml:"next_run"`
	ErrorCount  int               `json:"error_count" yaml:"error_count"`
	LastError   *cron.ErrorRecord `json:"last_error" yaml:"last_error"`
}

func newJobView(st cron.JobStatus) jobView {
	d := st.Descriptor
	v := jobView{
		Name:      d.ID,
		Frequency: jobspec.FormatFrequency(d.Frequency),
		DependsOn: append([]string{}, d.DependsOn...),
		Eligible:  st.Eligible,
		Reason:    st.Reason,
	}
	if d.At != nil {
		v.At = d.At.String()
	}
	if st.State != nil {
		v.LastRun = st.State.LastRun
		v.LastSuccess = st.State.LastSuccess
		v.NextRun = st.State.NextRun
		v.ErrorCount = st.State.ErrorCount
		v.LastError = st.State.LastError
	}
	return v
}

func writeJobs(out io.Writer, statuses []cron.JobStatus, format string) error {
	views := make([]jobView, 0, len(statuses))
	for _, st := range statuses {
		views = append(views, newJobView(st))
	}

	switch format {
	case "", "text":
		printJobs(out, statuses)
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (expected: text, json, yaml)", format)
	}
}

func printJobs(out io.Writer, statuses []cron.JobStatus) {
	fmt.Fprint(out, constants.MsgJobsListHeader)
	for _, st := range statuses {
		d := st.Descriptor
		fmt.Fprintf(out, "%s\n", d.ID)
		fmt.Fprintf(out, "   Frequency:    %s\n", formatFrequency(d))
		fmt.Fprintf(out, "   Depends on:   %s\n", orDash(strings.Join(d.DependsOn, ", ")))

		if st.State == nil {
			fmt.Fprintf(out, "   Last success: never\n")
		} else {
			fmt.Fprintf(out, "   Last success: %s\n", formatTime(st.State.LastSuccess))
			fmt.Fprintf(out, "   Next run:     %s\n", formatTime(st.State.NextRun))
			if e := st.State.LastError; e != nil {
				fmt.Fprintf(out, "   Last error:   %s: %s (%d consecutive)\n", e.Type, e.Message, st.State.ErrorCount)
			}
		}

		if st.Eligible {
			fmt.Fprintf(out, "   Status:       due\n")
		} else {
			fmt.Fprintf(out, "   Status:       waiting, %s\n", st.Reason)
		}
		fmt.Fprint(out, constants.MsgJobsListSep)
	}
	fmt.Fprintf(out, constants.MsgJobsTotal, len(statuses))
}

func formatFrequency(d jobspec.Descriptor) string {
	freq := jobspec.FormatFrequency(d.Frequency)
	if d.At != nil {
		freq += " at " + d.At.String() + " UTC"
	}
	return freq
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	listCmd.Flags().StringVarP(&listFormat, "format", "o", "text", "Output format: text, json or yaml")
}
