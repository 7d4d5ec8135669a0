package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanTitle(t *testing.T) {
	t.Parallel()

	for raw, expected := range map[string]string{
		"2024-01-01 Breaking: Big Hack":        "Big Hack",
		"#123 - Weekly roundup":                "Weekly roundup",
		"2024-03-05 #7 Alert: Patch now":       "Patch now",
		"Exclusive: Threat actor leaks data":   "Threat actor leaks data",
		"Ransomware hits hospital":             "Ransomware hits hospital",
		"CVE-2024-1234 exploited: Patch today": "Patch today",
		"":                                     "",
		"2024-01-01":                           "",
		"42":                                   "",
		"No Title":                             "No Title",
	} {
		require.Equal(t, expected, CleanTitle(raw), "%q", raw)
	}
}

func TestCleanTitleOrder(t *testing.T) {
	t.Parallel()

	// The date rule runs first and needs the trailing space, so a date glued to a label only
	// loses its digits and hyphens, and the label rule then takes the rest up to the colon.
	require.Equal(t, "Big Hack", CleanTitle("2024-01-01Breaking: Big Hack"))

	// Only the first colon-delimited label is removed.
	require.Equal(t, "b: c", CleanTitle("a: b: c"))
}

func TestCleanTitleIdempotent(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"2024-01-01 Breaking: Big Hack",
		"#5 Phishing wave",
		"Botnet takedown",
	} {
		once := CleanTitle(raw)
		require.Equal(t, once, CleanTitle(once), "%q", raw)
	}
}

func TestExtractText(t *testing.T) {
	t.Parallel()

	for markup, expected := range map[string]string{
		"plain text":                                     "plain text",
		"<p>New <b>ransomware</b> strain</p>":            "New ransomware strain",
		"<p>First</p><p>Second</p>":                      "FirstSecond",
		`<a href="https://example.com">link</a> &amp; x`: "link & x",
		"<div><p>unclosed <i>tags":                       "unclosed tags",
		"5 < 6 & 7 > 3</div></span>":                     "5 < 6 & 7 > 3",
		"":                                               "",
		"No Summary":                                     "No Summary",
	} {
		require.Equal(t, expected, ExtractText(markup), "%q", markup)
	}
}
