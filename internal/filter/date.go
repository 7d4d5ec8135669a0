package filter

import (
	"context"
	"errors"
	"fmt"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/araddon/dateparse"
)

const DateLayout = "2006-01-02"

var ErrDateParse = errors.New("date format not recognized")

// ParseDate parses a loosely formatted timestamp. Any timezone embedded in the value is ignored:
// the wall clock time is taken as UTC.
func ParseDate(value string) (time.Time, error) {
	parsed, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", ErrDateParse, value, err)
	}

	return time.Date(
		parsed.Year(), parsed.Month(), parsed.Day(),
		parsed.Hour(), parsed.Minute(), parsed.Second(), parsed.Nanosecond(),
		time.UTC), nil
}

// FormatDate renders the canonical YYYY-MM-DD form of a loosely formatted timestamp.
func FormatDate(value string) (string, error) {
	date, err := ParseDate(value)
	if err != nil {
		return "", err
	}
	return date.Format(DateLayout), nil
}

// Window is the recency window entries must fall into.
type Window struct {
	Days int
}

// Cutoff returns the window start: now minus Days, in UTC. Timestamps equal to it are not recent.
func (w Window) Cutoff(now time.Time) time.Time {
	return now.UTC().AddDate(0, 0, -w.Days)
}

// IsRecent reports whether the timestamp is newer than the window start. Unparseable timestamps are
// logged and treated as not recent.
func (w Window) IsRecent(ctx context.Context, value string, now time.Time) bool {
	date, err := ParseDate(value)
	if err != nil {
		logging.L(ctx).Errorf("%s.", err)
		return false
	}
	return date.After(w.Cutoff(now))
}
