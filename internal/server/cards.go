package server

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/cybernews/internal/store"
)

const summaryWords = 25

type card struct {
	Published string
	Heading   template.HTML
	Summary   string
	ReadMore  template.HTML
}

// cardRenderer renders article headings and links from markdown, so titles keep their inline
// formatting, and sanitizes the result since titles come from arbitrary feeds.
type cardRenderer struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

func newCardRenderer() *cardRenderer {
	policy := bluemonday.UGCPolicy()
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &cardRenderer{
		markdown: goldmark.New(),
		policy:   policy,
	}
}

func (r *cardRenderer) render(ctx context.Context, article store.Article) card {
	return card{
		Published: article.Published,
		Heading:   r.renderMarkdown(ctx, "### "+article.Title),
		Summary:   truncateWords(article.Summary, summaryWords),
		ReadMore:  r.renderMarkdown(ctx, fmt.Sprintf("[Read More](<%s>)", article.Link)),
	}
}

func (r *cardRenderer) renderMarkdown(ctx context.Context, text string) template.HTML {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(text), &buf); err != nil {
		logging.L(ctx).Errorf("Failed to render %q: %s.", text, err)
		return template.HTML(template.HTMLEscapeString(text)) //nolint:gosec
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes())) //nolint:gosec
}

// truncateWords keeps the first limit whitespace-separated words, marking the cut with "...".
func truncateWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:limit], " ") + "..."
}
