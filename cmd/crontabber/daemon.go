package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/crontabber/internal/constants"
	"github.com/aatumaykin/crontabber/internal/cron"
	"github.com/aatumaykin/crontabber/internal/daemon"
	"github.com/aatumaykin/crontabber/internal/logger"
	"github.com/aatumaykin/crontabber/internal/version"
)

var daemonImmediate bool

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run cycles on a schedule",
	Long: `Stay resident and run a cycle whenever daemon.schedule fires. A trigger
that arrives while the previous cycle is still running is skipped.

When daemon.metrics_addr is set, Prometheus metrics are served on /metrics.`,
	Args: cobra.NoArgs,
	RunE: daemonHandler,
}

func daemonHandler(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := daemon.NewRegistry()
	metrics := cron.NewMetrics(constants.MetricsNamespace, registry)

	a, err := newApp(ctx, metrics)
	if err != nil {
		return err
	}
	defer a.close()

	fields := []logger.Field{{Key: "message", Value: version.FormatStartupMessage()}}
	for k, v := range version.Info() {
		fields = append(fields, logger.Field{Key: k, Value: v})
	}
	a.log.Info("🚀 Starting crontabber daemon", fields...)

	d, err := daemon.New(daemon.Config{
		Schedule:    a.cfg.Daemon.Schedule,
		MetricsAddr: a.cfg.Daemon.MetricsAddr,
		Immediate:   daemonImmediate,
		Registry:    registry,
	}, func(ctx context.Context) error {
		_, err := a.cycle(ctx)
		return err
	}, a.log)
	if err != nil {
		return err
	}

	if err := d.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	a.log.Info("⏳ Received shutdown signal")

	if err := d.Stop(); err != nil {
		return err
	}
	a.log.Info("👋 crontabber stopped gracefully")
	return nil
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonImmediate, "now", false, "Run a cycle immediately instead of waiting for the first trigger")
}
