package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aatumaykin/crontabber/internal/config"
	"github.com/aatumaykin/crontabber/internal/constants"
	"github.com/aatumaykin/crontabber/internal/cron"
	"github.com/aatumaykin/crontabber/internal/jobs"
	"github.com/aatumaykin/crontabber/internal/logger"
	"github.com/aatumaykin/crontabber/internal/postgres"
)

// database is what the CLI needs from PostgreSQL.
type database interface {
	jobs.ProcedureCaller
	TryLock(ctx context.Context, name string) (func() error, error)
	Close()
}

var errNoDatabase = errors.New("database.dsn is not configured")

// noDatabase backs the procedure jobs when no DSN is configured.
type noDatabase struct{}

func (noDatabase) CallProcedure(context.Context, string, ...any) error {
	return errNoDatabase
}

// openDatabase is replaced in tests.
var openDatabase = func(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (database, error) {
	db, err := postgres.New(ctx, postgres.Config{
		DSN:             cfg.DSN,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		ConnectAttempts: cfg.ConnectAttempts,
	}, log)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// validationError lists every configuration problem.
type validationError struct {
	errs []error
}

func (e *validationError) Error() string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(constants.MsgConfigValidationError, "\n"))
	for _, err := range e.errs {
		b.WriteString("\n")
		b.WriteString(strings.TrimSuffix(fmt.Sprintf(constants.MsgConfigValidatePrefix, err), "\n"))
	}
	return b.String()
}

// app is everything a command needs, built from the configuration file.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	db        database // nil without a DSN
	scheduler *cron.Scheduler
}

// loadConfig reads the .env and configuration files named by the global
// flags and validates the result.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvOptional(envPath); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if debug {
		cfg.Logging.Level = "debug"
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &validationError{errs: errs}
	}
	return cfg, nil
}

// newApp wires the configuration, logger, database, job registry and
// scheduler. metrics may be nil.
func newApp(ctx context.Context, metrics *cron.Metrics) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetDefault(log)

	jobList, err := cfg.JobList()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log}

	var caller jobs.ProcedureCaller = noDatabase{}
	if cfg.Database.Enabled() {
		log.Debug("connecting to database", logger.Field{Key: "dsn", Value: config.MaskDSN(cfg.Database.DSN)})
		db, err := openDatabase(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db
		caller = db
	} else {
		log.Warn("database.dsn is not set, procedure jobs will fail")
	}

	registry := cron.NewRegistry()
	if err := jobs.Register(registry, caller, nil); err != nil {
		a.close()
		return nil, err
	}

	storage := cron.NewStorage(cfg.Crontabber.StateFile, log)
	a.scheduler, err = cron.NewScheduler(cron.Options{
		Jobs:       jobList,
		JobTimeout: cfg.Crontabber.JobTimeout(),
		Metrics:    metrics,
	}, registry, storage, log)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("invalid job list: %w", err)
	}

	return a, nil
}

// lock takes the cross-process advisory lock when a database is configured.
func (a *app) lock(ctx context.Context) (func(), error) {
	if a.db == nil {
		return func() {}, nil
	}
	release, err := a.db.TryLock(ctx, constants.LockName)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := release(); err != nil {
			a.log.Error("failed to release lock", err)
		}
	}, nil
}

// cycle runs one locked cycle. Another process holding the lock is not an
// error; the cycle is simply skipped.
func (a *app) cycle(ctx context.Context) (cron.CycleReport, error) {
	unlock, err := a.lock(ctx)
	if errors.Is(err, postgres.ErrLocked) {
		a.log.Info("another crontabber holds the lock, skipping cycle")
		return cron.CycleReport{}, nil
	}
	if err != nil {
		return cron.CycleReport{}, err
	}
	defer unlock()

	return a.scheduler.RunAll(ctx)
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}
