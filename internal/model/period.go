package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrBadPeriod marks a malformed period key so callers can distinguish bad
// input from internal failures.
var ErrBadPeriod = errors.New("period: invalid key")

// Period is one fiscal quarter. Start and End bound the window inclusively;
// End is the last instant of the quarter's final day in UTC.
type Period struct {
	Key   string    `json:"key"` // e.g. "2026Q1"
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

var periodKeyRe = regexp.MustCompile(`^(\d{4})[Qq]([1-4])$`)

// ParsePeriod parses a "YYYYQn" key into a calendar-quarter Period.
func ParsePeriod(key string) (Period, error) {
	m := periodKeyRe.FindStringSubmatch(key)
	if m == nil {
		return Period{}, fmt.Errorf("%w %q (want YYYYQn)", ErrBadPeriod, key)
	}
	year, _ := strconv.Atoi(m[1])
	q, _ := strconv.Atoi(m[2])

	startMonth := time.Month((q-1)*3 + 1)
	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0).Add(-time.Nanosecond)

	return Period{
		Key:   fmt.Sprintf("%dQ%d", year, q),
		Start: start,
		End:   end,
	}, nil
}

// Prev returns the immediately preceding quarter.
func (p Period) Prev() Period {
	start := p.Start.AddDate(0, -3, 0)
	q := (int(start.Month())-1)/3 + 1
	return Period{
		Key:   fmt.Sprintf("%dQ%d", start.Year(), q),
		Start: start,
		End:   p.Start.Add(-time.Nanosecond),
	}
}

// Contains reports whether t falls within [Start, End].
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}
