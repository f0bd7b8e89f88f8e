package main

import (
	"github.com/spf13/cobra"

	"github.com/aatumaykin/crontabber/internal/constants"
)

var (
	configPath string
	envPath    string
	debug      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "crontabber",
	Short: "crontabber - dependency aware cron job runner",
	Long: `crontabber runs periodic jobs that depend on each other.

Each invocation runs one cycle: every job whose frequency has elapsed and
whose dependencies have recently succeeded runs once. Run it from system
cron, or keep it resident with "crontabber daemon".`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", constants.DefaultConfigPath, "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", constants.DefaultEnvPath, "Path to .env file loaded before the configuration (ignored when missing)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(daemonCmd)
}
