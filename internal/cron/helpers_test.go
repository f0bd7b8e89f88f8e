package cron

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aatumaykin/crontabber/internal/logger"
)

var epoch = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: epoch} }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// testLogger creates a quiet logger for tests.
func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "discard"})
	require.NoError(t, err)
	return log
}

// countingJob records how often it ran and fails while fail is set.
type countingJob struct {
	name string
	deps []string
	runs int
	fail error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) DependsOn() []string { return j.deps }
func (j *countingJob) Run(context.Context) error {
	j.runs++
	return j.fail
}

func newStorage(t *testing.T) *Storage {
	t.Helper()
	return NewStorage(filepath.Join(t.TempDir(), "crontabber.json"), testLogger(t))
}

func newTestScheduler(t *testing.T, jobs string, clock *fakeClock, storage *Storage, registered ...Job) *Scheduler {
	t.Helper()
	reg := NewRegistry()
	for _, j := range registered {
		require.NoError(t, reg.Register(j))
	}
	s, err := NewScheduler(Options{Jobs: jobs, Clock: clock.Now}, reg, storage, testLogger(t))
	require.NoError(t, err)
	return s
}

var errBoom = errors.New("boom")
