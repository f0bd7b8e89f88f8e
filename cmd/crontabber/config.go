package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/crontabber/internal/config"
	"github.com/aatumaykin/crontabber/internal/constants"
	"github.com/aatumaykin/crontabber/internal/cron"
	"github.com/aatumaykin/crontabber/internal/jobs"
	"github.com/aatumaykin/crontabber/internal/jobspec"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Validate crontabber configuration.`,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Long: `Validate the configuration file and the job list it names. Every job must
be known and the dependency graph must be acyclic. The database is not
contacted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			configPath = args[0]
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		descs, err := configuredJobs(cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, constants.MsgConfigValid)
		fmt.Fprintf(out, "   State file: %s\n", cfg.Crontabber.StateFile)
		if cfg.Database.Enabled() {
			fmt.Fprintf(out, "   Database:   %s\n", config.MaskDSN(cfg.Database.DSN))
		}
		for _, d := range descs {
			fmt.Fprintf(out, "   Job:        %s\n", d)
		}
		return nil
	},
}

// configuredJobs resolves the job list against the registry without a
// database.
func configuredJobs(cfg *config.Config) ([]jobspec.Descriptor, error) {
	jobList, err := cfg.JobList()
	if err != nil {
		return nil, err
	}
	parsed, err := jobspec.Parse(jobList)
	if err != nil {
		return nil, err
	}

	registry := cron.NewRegistry()
	if err := jobs.Register(registry, noDatabase{}, nil); err != nil {
		return nil, err
	}
	return registry.Configure(parsed)
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}
