// Package feed turns raw RSS/Atom payloads into entries, tolerating broken feeds as long as
// something can be recovered from them.
package feed

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	"github.com/mmcdole/gofeed/rss"
	"github.com/samber/mo"
)

const (
	NoTitle   = "No Title"
	NoLink    = "No Link"
	NoSummary = "No Summary"
)

var ErrParse = errors.New("unable to parse the feed")

// Entry is one raw feed item. Absent title, link and summary are replaced with sentinels, an absent
// publish date is kept as None.
type Entry struct {
	Title     string
	Link      string
	Summary   string
	Published mo.Option[string]
}

type Feed struct {
	Title   string
	Entries []*Entry

	// Malformed holds the parser error when the entries were recovered from a broken document.
	Malformed error
}

// Parse parses RSS 0.9x/1.0/2.0 and Atom documents. When the document is malformed the complete
// entries preceding the fault are recovered; ErrParse is returned only if there are none.
func Parse(data []byte) (*Feed, error) {
	parser := gofeed.NewParser()
	parser.RSSTranslator = &rssTranslator{}
	parser.AtomTranslator = &atomTranslator{}

	parsed, err := parser.Parse(bytes.NewReader(data))
	if err == nil {
		feed := &Feed{
			Title:   strings.TrimSpace(parsed.Title),
			Entries: make([]*Entry, 0, len(parsed.Items)),
		}
		for _, item := range parsed.Items {
			feed.Entries = append(feed.Entries, fromItem(item))
		}
		return feed, nil
	}

	feed := recoverEntries(data)
	if len(feed.Entries) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	feed.Malformed = err
	return feed, nil
}

func fromItem(item *gofeed.Item) *Entry {
	summary := item.Description
	if strings.TrimSpace(summary) == "" {
		summary = item.Content
	}
	return newEntry(item.Title, item.Link, summary, item.Published)
}

// rssTranslator and atomTranslator take the publish date from <pubDate> and <published> only. The
// default translators fill a missing one from dc:date or <updated>.
type rssTranslator struct {
	gofeed.DefaultRSSTranslator
}

func (t *rssTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	result, err := t.DefaultRSSTranslator.Translate(feed)
	if err != nil {
		return nil, err
	}
	for i, item := range feed.(*rss.Feed).Items {
		result.Items[i].Published = item.PubDate
	}
	return result, nil
}

type atomTranslator struct {
	gofeed.DefaultAtomTranslator
}

func (t *atomTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	result, err := t.DefaultAtomTranslator.Translate(feed)
	if err != nil {
		return nil, err
	}
	for i, entry := range feed.(*atom.Feed).Entries {
		result.Items[i].Published = entry.Published
	}
	return result, nil
}

func newEntry(title, link, summary, published string) *Entry {
	entry := &Entry{
		Title:   orDefault(title, NoTitle),
		Link:    orDefault(link, NoLink),
		Summary: orDefault(summary, NoSummary),
	}
	if published = strings.TrimSpace(published); published != "" {
		entry.Published = mo.Some(published)
	}
	return entry
}

func orDefault(value string, fallback string) string {
	if value = strings.TrimSpace(value); value == "" {
		return fallback
	}
	return value
}
