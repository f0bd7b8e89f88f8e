package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func restore(t *testing.T) {
	t.Helper()
	v, bt, gc, gv := Version, BuildTime, GitCommit, GoVersion
	t.Cleanup(func() {
		Version, BuildTime, GitCommit, GoVersion = v, bt, gc, gv
	})
}

func TestSetInfo(t *testing.T) {
	restore(t)

	SetInfo("1.0.0", "2024-01-01T00:00:00Z", "abc123", "go1.21")

	assert.Equal(t, "1.0.0", Version)
	assert.Equal(t, "2024-01-01T00:00:00Z", BuildTime)
	assert.Equal(t, "abc123", GitCommit)
	assert.Equal(t, "go1.21", GoVersion)
	assert.Equal(t, map[string]string{
		"version":    "1.0.0",
		"build_time": "2024-01-01T00:00:00Z",
		"git_commit": "abc123",
		"go_version": "go1.21",
	}, Info())
}

func TestSetInfoEmptyValues(t *testing.T) {
	restore(t)

	Version = "test-version"
	SetInfo("", "", "", "")

	assert.Equal(t, "test-version", Version, "version should not change with empty value")
}

func TestFormatStartupMessage(t *testing.T) {
	restore(t)

	Version = "1.2.3"
	BuildTime = "2024-06-15T10:30:00Z"
	GitCommit = "deadbeef"

	assert.Equal(t, "crontabber 1.2.3 started (build 2024-06-15T10:30:00Z, commit deadbeef)", FormatStartupMessage())
}
