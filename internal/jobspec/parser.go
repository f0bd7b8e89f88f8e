// Package jobspec parses crontabber job lists.
//
// A job list is newline-delimited text, one job per line:
//
//	# comments and blank lines are ignored
//	socorro.cron.jobs.duplicates.DuplicatesCronApp|1h
//	reports-clean|1d|03:00
//
// The first field names the job, the second is its frequency (a positive
// integer followed by m, h, d or w) and the optional third field pins
// day-based jobs to a UTC wall-clock time.
package jobspec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	fieldSeparator = "|"
	day            = 24 * time.Hour
)

var units = map[byte]time.Duration{
	'm': time.Minute,
	'h': time.Hour,
	'd': day,
	'w': 7 * day,
}

// TimeOfDay is a UTC wall-clock time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// String formats t as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On returns the instant at t on the UTC calendar day of ref.
func (t TimeOfDay) On(ref time.Time) time.Time {
	ref = ref.UTC()
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour, t.Minute, 0, 0, time.UTC)
}

// Descriptor is one configured job.
type Descriptor struct {
	ID        string
	Frequency time.Duration
	At        *TimeOfDay
	DependsOn []string
}

// NextRun returns when the job is next due after a success at last.
// A zero last means the job never succeeded.
func (d Descriptor) NextRun(last time.Time, now time.Time) time.Time {
	if last.IsZero() {
		if d.At != nil {
			return d.At.On(now)
		}
		return time.Time{}
	}
	next := last.Add(d.Frequency)
	if d.At != nil {
		next = d.At.On(next)
	}
	return next
}

// ParseError reports a malformed job list line.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("job list line %d %q: %s", e.Line, e.Text, e.Reason)
}

// Parse parses a job list into descriptors, preserving line order.
func Parse(text string) ([]Descriptor, error) {
	var descriptors []Descriptor
	seen := make(map[string]int)

	for i, raw := range strings.Split(text, "\n") {
		lineNum := i + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		desc, reason := parseLine(line)
		if reason != "" {
			return nil, &ParseError{Line: lineNum, Text: line, Reason: reason}
		}
		if prev, ok := seen[desc.ID]; ok {
			return nil, &ParseError{
				Line:   lineNum,
				Text:   line,
				Reason: fmt.Sprintf("job %q already listed on line %d", desc.ID, prev),
			}
		}
		seen[desc.ID] = lineNum
		descriptors = append(descriptors, desc)
	}

	return descriptors, nil
}

func parseLine(line string) (Descriptor, string) {
	parts := strings.Split(line, fieldSeparator)
	if len(parts) < 2 || len(parts) > 3 {
		return Descriptor{}, "expected <job>|<frequency>[|<HH:MM>]"
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	id := parts[0]
	if id == "" {
		return Descriptor{}, "empty job identifier"
	}

	freq, err := ParseFrequency(parts[1])
	if err != nil {
		return Descriptor{}, err.Error()
	}
	desc := Descriptor{ID: id, Frequency: freq}

	if len(parts) == 3 {
		at, err := ParseTimeOfDay(parts[2])
		if err != nil {
			return Descriptor{}, err.Error()
		}
		if freq%day != 0 {
			return Descriptor{}, fmt.Sprintf("time %s requires a frequency in whole days, got %s", at, parts[1])
		}
		desc.At = &at
	}

	return desc, ""
}

// ParseFrequency parses values such as "30m", "1h", "1d" or "2w".
func ParseFrequency(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid frequency %q", s)
	}
	unit, ok := units[s[len(s)-1]]
	if !ok {
		return 0, fmt.Errorf("unrecognised frequency unit %q in %q (expected m, h, d, w)", s[len(s)-1:], s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid frequency %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("frequency must be positive, got %q", s)
	}
	if int64(n) > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("frequency too large: %q", s)
	}
	return time.Duration(n) * unit, nil
}

// FormatFrequency renders d in the largest unit ParseFrequency accepts
// that divides it evenly, so "1d" rather than "24h".
func FormatFrequency(d time.Duration) string {
	for _, u := range []byte{'w', 'd', 'h', 'm'} {
		if d >= units[u] && d%units[u] == 0 {
			return strconv.FormatInt(int64(d/units[u]), 10) + string(u)
		}
	}
	return d.String()
}

// String renders d as a job list line.
func (d Descriptor) String() string {
	line := d.ID + fieldSeparator + FormatFrequency(d.Frequency)
	if d.At != nil {
		line += fieldSeparator + d.At.String()
	}
	return line
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("invalid time %q (expected HH:MM)", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in time %q", s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 || len(mm) != 2 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in time %q", s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}
