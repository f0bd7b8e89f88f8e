package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aatumaykin/crontabber/internal/jobspec"
)

func noop(context.Context) error { return nil }

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Func{ID: "duplicates", Fn: noop}, "socorro.cron.jobs.duplicates.DuplicatesCronApp"))
	require.NoError(t, reg.Register(Func{ID: "reports-clean", Deps: []string{"duplicates"}, Fn: noop}))

	job, ok := reg.Lookup("duplicates")
	require.True(t, ok)
	assert.Equal(t, "duplicates", job.Name())

	job, ok = reg.Lookup("socorro.cron.jobs.duplicates.DuplicatesCronApp")
	require.True(t, ok)
	assert.Equal(t, "duplicates", job.Name())

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"duplicates", "reports-clean"}, reg.Names())
}

func TestRegistry_RegisterErrors(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Func{ID: "duplicates", Fn: noop}, "dup"))

	assert.Error(t, reg.Register(Func{ID: "", Fn: noop}))
	assert.Error(t, reg.Register(Func{ID: "duplicates", Fn: noop}), "name taken")
	assert.Error(t, reg.Register(Func{ID: "dup", Fn: noop}), "name taken by alias")
	assert.Error(t, reg.Register(Func{ID: "other", Fn: noop}, "duplicates"), "alias taken by name")
	assert.Error(t, reg.Register(Func{ID: "loop", Deps: []string{"loop"}, Fn: noop}))
}

func TestRegistry_Configure(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Func{ID: "duplicates", Fn: noop}, "duplicates.DuplicatesCronApp"))
	require.NoError(t, reg.Register(Func{ID: "reports-clean", Deps: []string{"duplicates"}, Fn: noop}))

	parsed, err := jobspec.Parse("duplicates.DuplicatesCronApp|1h\nreports-clean|1d")
	require.NoError(t, err)

	descs, err := reg.Configure(parsed)
	require.NoError(t, err)
	require.Len(t, descs, 2)
	assert.Equal(t, "duplicates", descs[0].ID)
	assert.Empty(t, descs[0].DependsOn)
	assert.Equal(t, time.Hour, descs[0].Frequency)
	assert.Equal(t, "reports-clean", descs[1].ID)
	assert.Equal(t, []string{"duplicates"}, descs[1].DependsOn)

	assert.Equal(t, "duplicates.DuplicatesCronApp", parsed[0].ID, "input must not be modified")
}

func TestRegistry_Configure_Errors(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Func{ID: "a", Deps: []string{"b"}, Fn: noop}, "alias-a"))
	require.NoError(t, reg.Register(Func{ID: "b", Deps: []string{"c"}, Fn: noop}))
	require.NoError(t, reg.Register(Func{ID: "c", Deps: []string{"a"}, Fn: noop}))

	tests := []struct {
		name string
		list string
		is   error
	}{
		{name: "unknown", list: "a|1h\nnope|1h", is: ErrUnknownJob},
		{name: "cycle", list: "a|1h\nb|1h\nc|1h", is: ErrDependencyCycle},
		{name: "listed twice via alias", list: "a|1h\nalias-a|1d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := jobspec.Parse(tt.list)
			require.NoError(t, err)

			_, err = reg.Configure(parsed)
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is), "got %v", err)
			}
		})
	}

	parsed, err := jobspec.Parse("a|1h\nb|1h")
	require.NoError(t, err)
	_, err = reg.Configure(parsed)
	assert.NoError(t, err, "a loop through an unconfigured job is not a cycle")
}
