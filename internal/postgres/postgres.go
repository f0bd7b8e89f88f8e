// Package postgres provides the database capability crontabber jobs use:
// calling stored procedures by name, and a session-level advisory lock
// that keeps two crontabber processes from running cycles at once.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aatumaykin/crontabber/internal/logger"
	"github.com/aatumaykin/crontabber/internal/retry"
)

// ErrLocked is returned by TryLock when another session holds the lock.
var ErrLocked = errors.New("advisory lock held by another session")

// Config holds connection settings.
type Config struct {
	DSN      string
	MaxConns int32
	MinConns int32
	// ConnectAttempts is how many times the initial ping is tried.
	ConnectAttempts int
}

// DB wraps a pgxpool.Pool.
type DB struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// New connects to Postgres and verifies the connection, retrying transient
// failures.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	if log == nil {
		log = logger.Nop()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	} else {
		poolCfg.MaxConns = 4
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	err = retry.Do(ctx, retry.Config{
		MaxAttempts: cfg.ConnectAttempts,
		OnRetry: func(attempt int, err error) {
			log.Warn("database ping failed, retrying", logger.Field{Key: "attempt", Value: attempt},
				logger.Field{Key: "error", Value: err.Error()})
		},
	}, pool.Ping)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool, logger: log}, nil
}

// Close releases every pooled connection.
func (db *DB) Close() {
	db.pool.Close()
}

// CallProcedure runs SELECT name($1, ...) and discards the result.
func (db *DB) CallProcedure(ctx context.Context, name string, args ...any) error {
	query := ProcedureQuery(name, len(args))
	db.logger.Debug("calling procedure", logger.Field{Key: "procedure", Value: name},
		logger.Field{Key: "args", Value: len(args)})

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("calling %s: %w", name, err)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("calling %s: %w", name, err)
	}
	return nil
}

// ProcedureQuery builds the statement CallProcedure executes. The name is
// quoted as an identifier; a dotted name is treated as schema.function.
func ProcedureQuery(name string, nargs int) string {
	ident := pgx.Identifier(strings.Split(name, ".")).Sanitize()
	placeholders := make([]string, nargs)
	for i := range placeholders {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	return "SELECT " + ident + "(" + strings.Join(placeholders, ", ") + ")"
}

// TryLock takes the advisory lock named name without blocking. The lock
// lives on one pooled connection until the returned release func is called.
func (db *DB) TryLock(ctx context.Context, name string) (func() error, error) {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for lock %q: %w", name, err)
	}

	key := LockKey(name)
	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&locked); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquiring advisory lock %q: %w", name, err)
	}
	if !locked {
		conn.Release()
		return nil, fmt.Errorf("%w: %q", ErrLocked, name)
	}

	release := func() error {
		defer conn.Release()
		if _, err := conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", key); err != nil {
			return fmt.Errorf("releasing advisory lock %q: %w", name, err)
		}
		return nil
	}
	return release, nil
}

// LockKey maps a lock name onto Postgres's 64-bit advisory lock space.
func LockKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64())
}
