package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/cybernews/internal/testutil"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	for value, expected := range map[string]time.Time{
		"Mon, 15 Jan 2024 10:30:00 +0000": time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		"Mon, 15 Jan 2024 10:30:00 GMT":   time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		"2024-01-15T23:30:00-05:00":       time.Date(2024, 1, 15, 23, 30, 0, 0, time.UTC),
		"2024-01-15T01:00:00+09:00":       time.Date(2024, 1, 15, 1, 0, 0, 0, time.UTC),
		"2024-01-15":                      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		"2024-01-15 08:00:00":             time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC),
	} {
		date, err := ParseDate(value)
		require.NoError(t, err, value)
		require.Equal(t, expected, date, value)
	}
}

func TestParseDateInvalid(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"", "yesterday-ish", "not a date at all"} {
		_, err := ParseDate(value)
		require.ErrorIs(t, err, ErrDateParse, value)
	}
}

func TestFormatDate(t *testing.T) {
	t.Parallel()

	// The offset is dropped rather than converted, so the day does not roll over.
	date, err := FormatDate("Tue, 16 Jan 2024 23:59:00 -0800")
	require.NoError(t, err)
	require.Equal(t, "2024-01-16", date)
}

func TestWindowIsRecent(t *testing.T) {
	t.Parallel()

	ctx := testutil.Context(t)
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	window := Window{Days: 30}

	require.True(t, window.IsRecent(ctx, "2024-01-27T12:00:00Z", now))
	require.True(t, window.IsRecent(ctx, "Thu, 01 Feb 2024 11:00:00 GMT", now))
	require.True(t, window.IsRecent(ctx, "2024-01-02T12:00:01Z", now))

	require.False(t, window.IsRecent(ctx, "2024-01-02T12:00:00Z", now))
	require.False(t, window.IsRecent(ctx, "2023-12-01T00:00:00Z", now))
	require.False(t, window.IsRecent(ctx, "garbage", now))

	berlin := time.FixedZone("CET", 3600)
	require.Equal(t, time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC), window.Cutoff(now.In(berlin)))
}

func TestMatcher(t *testing.T) {
	t.Parallel()

	matcher, err := NewMatcher([]string{"ransomware", "zero-day", "cross-site scripting (XSS)", "APT"})
	require.NoError(t, err)

	require.True(t, matcher.Match("New RANSOMWARE strain"))
	require.True(t, matcher.Match("A Zero-Day in the wild"))
	require.True(t, matcher.Match("cross-site scripting (xss) in a plugin"))
	require.True(t, matcher.Match("Chaptered release notes"))

	require.False(t, matcher.Match("Quarterly earnings report"))
	require.False(t, matcher.Match("cross-site scripting XSS"))
	require.False(t, matcher.Match(""))
}

func TestMatcherInvalid(t *testing.T) {
	t.Parallel()

	_, err := NewMatcher(nil)
	require.Error(t, err)

	_, err = NewMatcher([]string{"malware", "  "})
	require.Error(t, err)
}
