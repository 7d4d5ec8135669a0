// Package normalize cleans feed titles and turns HTML-bearing summaries into plain text.
package normalize

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	leadingDateRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} `)
	leadingNumberRe = regexp.MustCompile(`^[#\d\s-]+`)
	leadingLabelRe  = regexp.MustCompile(`^[^:]+:\s*`)
)

// CleanTitle strips a leading date, then a leading run of hashes, digits, spaces or hyphens, then a
// leading "label: " prefix. Every rule is applied once and in that order.
func CleanTitle(title string) string {
	title = leadingDateRe.ReplaceAllString(title, "")
	title = leadingNumberRe.ReplaceAllString(title, "")
	title = leadingLabelRe.ReplaceAllString(title, "")
	return title
}

// ExtractText returns the visible text of an HTML fragment with all tags removed.
func ExtractText(markup string) string {
	node, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return markup
	}
	return goquery.NewDocumentFromNode(node).Text()
}
