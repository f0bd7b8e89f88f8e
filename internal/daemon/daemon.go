// Package daemon keeps crontabber resident: it triggers a cycle on a cron
// expression and exposes Prometheus metrics over HTTP.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	robfig "github.com/robfig/cron/v3"

	"github.com/aatumaykin/crontabber/internal/logger"
)

// CycleFunc runs one crontabber cycle.
type CycleFunc func(ctx context.Context) error

// Config configures a Daemon.
type Config struct {
	// Schedule is a standard five field cron expression or descriptor.
	Schedule string
	// MetricsAddr is the listen address for /metrics. Empty disables it.
	MetricsAddr string
	// Immediate runs a cycle as soon as the daemon starts.
	Immediate bool
	// Registry is served on /metrics.
	Registry *prometheus.Registry
}

// Daemon triggers cycles on a schedule. Overlapping triggers are skipped
// while a cycle is still running.
type Daemon struct {
	cfg    Config
	cron   *robfig.Cron
	entry  robfig.EntryID
	cycle  CycleFunc
	logger *logger.Logger
	server *http.Server

	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	mu      sync.Mutex
	wg      sync.WaitGroup
}

// NewRegistry returns a Prometheus registry carrying the Go runtime and
// process collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry
}

// New validates the schedule and prepares the daemon without starting it.
func New(cfg Config, cycle CycleFunc, log *logger.Logger) (*Daemon, error) {
	if log == nil {
		log = logger.Nop()
	}
	adapter := cronLogger{log: log}

	c := robfig.New(
		robfig.WithLocation(time.UTC),
		robfig.WithLogger(adapter),
		robfig.WithChain(robfig.Recover(adapter), robfig.SkipIfStillRunning(adapter)),
	)

	d := &Daemon{cfg: cfg, cron: c, cycle: cycle, logger: log}
	entry, err := c.AddFunc(cfg.Schedule, d.trigger)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}
	d.entry = entry

	if cfg.MetricsAddr != "" {
		d.server = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           Handler(cfg.Registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return d, nil
}

// Handler serves registry on /metrics and a liveness probe on /healthz.
func Handler(registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	if registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// Next returns when the next cycle is due, or the zero time before Start.
func (d *Daemon) Next() time.Time {
	return d.cron.Entry(d.entry).Next
}

// Start starts the schedule and the metrics listener. It returns
// immediately; cancelling ctx or calling Stop shuts the daemon down.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return fmt.Errorf("daemon already started")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.started = true

	if d.server != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.logger.Info("metrics listener started", logger.Field{Key: "addr", Value: d.cfg.MetricsAddr})
			if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				d.logger.Error("metrics listener failed", err, logger.Field{Key: "addr", Value: d.cfg.MetricsAddr})
			}
		}()
	}

	d.cron.Start()
	d.logger.Info("daemon started",
		logger.Field{Key: "schedule", Value: d.cfg.Schedule},
		logger.Field{Key: "next", Value: d.Next()})

	if d.cfg.Immediate {
		// Through the chain, so a scheduled trigger is skipped while this runs.
		job := d.cron.Entry(d.entry).WrappedJob
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			job.Run()
		}()
	}

	return nil
}

// Stop stops scheduling, waits for a running cycle to finish and closes
// the metrics listener.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return fmt.Errorf("daemon not started")
	}
	d.started = false

	d.cancel()
	<-d.cron.Stop().Done()

	var err error
	if d.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = d.server.Shutdown(shutdownCtx)
	}
	d.wg.Wait()

	d.logger.Info("daemon stopped")
	return err
}

func (d *Daemon) trigger() {
	if err := d.cycle(d.ctx); err != nil {
		d.logger.Error("cycle failed", err)
	}
}

// cronLogger adapts logger.Logger to robfig/cron's logging interface.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, pairs(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, err, pairs(keysAndValues)...)
}

func pairs(keysAndValues []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logger.Field{Key: fmt.Sprint(keysAndValues[i]), Value: keysAndValues[i+1]})
	}
	return fields
}
