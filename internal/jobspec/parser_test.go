package jobspec

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	text := `
# nightly maintenance
socorro.cron.jobs.duplicates.DuplicatesCronApp|1h
  reports-clean | 1d | 03:00
weekly-report|2w
`
	descs, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, descs, 3)

	assert.Equal(t, "socorro.cron.jobs.duplicates.DuplicatesCronApp", descs[0].ID)
	assert.Equal(t, time.Hour, descs[0].Frequency)
	assert.Nil(t, descs[0].At)
	assert.Empty(t, descs[0].DependsOn)

	assert.Equal(t, "reports-clean", descs[1].ID)
	assert.Equal(t, 24*time.Hour, descs[1].Frequency)
	require.NotNil(t, descs[1].At)
	assert.Equal(t, TimeOfDay{Hour: 3}, *descs[1].At)

	assert.Equal(t, "weekly-report", descs[2].ID)
	assert.Equal(t, 14*24*time.Hour, descs[2].Frequency)
}

func TestParse_Empty(t *testing.T) {
	descs, err := Parse("\n  \n# nothing\n")
	require.NoError(t, err)
	assert.Empty(t, descs)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		line int
	}{
		{name: "missing frequency", text: "duplicates", line: 1},
		{name: "too many fields", text: "duplicates|1h|03:00|x", line: 1},
		{name: "empty identifier", text: "|1h", line: 1},
		{name: "unknown unit", text: "duplicates|1y", line: 1},
		{name: "no number", text: "duplicates|h", line: 1},
		{name: "zero frequency", text: "duplicates|0h", line: 1},
		{name: "negative frequency", text: "duplicates|-1d", line: 1},
		{name: "overflowing weeks", text: "duplicates|20000w", line: 1},
		{name: "overflowing minutes", text: "duplicates|9223372036854775807m", line: 1},
		{name: "bad time", text: "duplicates|1d|25:00", line: 1},
		{name: "time on hourly job", text: "duplicates|1h|03:00", line: 1},
		{name: "duplicate job", text: "duplicates|1h\nreports-clean|1h\nduplicates|1d", line: 3},
		{name: "error on later line", text: "# header\n\nduplicates|1x", line: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			descs, err := Parse(tt.text)
			require.Error(t, err)
			assert.Nil(t, descs)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.line, perr.Line)
			assert.NotEmpty(t, perr.Reason)
		})
	}
}

func TestParseFrequency(t *testing.T) {
	tests := map[string]time.Duration{
		"30m": 30 * time.Minute,
		"1h":  time.Hour,
		"12h": 12 * time.Hour,
		"1d":  24 * time.Hour,
		"1w":  7 * 24 * time.Hour,
	}
	for in, want := range tests {
		got, err := ParseFrequency(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"20000w", "9223372036854775807m", "3000000h"} {
		_, err := ParseFrequency(in)
		require.Error(t, err, in)
		assert.Contains(t, err.Error(), "frequency too large", in)
	}

	// 15250w is the largest whole number of weeks a Duration holds.
	got, err := ParseFrequency("15250w")
	require.NoError(t, err)
	assert.Positive(t, got)
}

func TestFormatFrequency(t *testing.T) {
	tests := map[time.Duration]string{
		30 * time.Minute:    "30m",
		90 * time.Minute:    "90m",
		time.Hour:           "1h",
		36 * time.Hour:      "36h",
		24 * time.Hour:      "1d",
		14 * 24 * time.Hour: "2w",
		90 * time.Second:    "1m30s",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatFrequency(in))
	}

	descs, err := Parse("reports-clean|1d|03:00\nduplicates|60m")
	require.NoError(t, err)
	assert.Equal(t, "reports-clean|1d|03:00", descs[0].String())
	assert.Equal(t, "duplicates|1h", descs[1].String())
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("23:59")
	require.NoError(t, err)
	assert.Equal(t, "23:59", tod.String())

	for _, bad := range []string{"", "3", "24:00", "03:60", "03:5", "aa:bb"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, bad)
	}
}

func TestDescriptor_NextRun(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	hourly := Descriptor{ID: "duplicates", Frequency: time.Hour}
	assert.True(t, hourly.NextRun(time.Time{}, now).IsZero())
	assert.Equal(t, now.Add(time.Hour), hourly.NextRun(now, now))

	at := TimeOfDay{Hour: 3}
	daily := Descriptor{ID: "reports-clean", Frequency: 24 * time.Hour, At: &at}
	assert.Equal(t, time.Date(2024, 5, 10, 3, 0, 0, 0, time.UTC), daily.NextRun(time.Time{}, now))

	last := time.Date(2024, 5, 10, 3, 0, 7, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 11, 3, 0, 0, 0, time.UTC), daily.NextRun(last, now))
}
