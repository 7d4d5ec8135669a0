package collect

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"

	"github.com/TobiSchelling/cybernews/internal/config"
	"github.com/TobiSchelling/cybernews/internal/feed"
	"github.com/TobiSchelling/cybernews/internal/fetch"
	"github.com/TobiSchelling/cybernews/internal/filter"
	"github.com/TobiSchelling/cybernews/internal/metrics"
	"github.com/TobiSchelling/cybernews/internal/normalize"
	"github.com/TobiSchelling/cybernews/internal/store"
)

type source struct {
	url  string
	name string
}

func newSource(feed config.Feed) source {
	name := strings.TrimSpace(feed.Name)
	if name == "" {
		name = extractSourceName(feed.URL)
	}
	return source{url: feed.URL, name: name}
}

type sourceResult struct {
	found    int
	articles []store.Article
	err      error
}

func (c *Collector) collectSource(ctx context.Context, source source, now time.Time) *sourceResult {
	ctx = logging.WithLogger(ctx, logging.L(ctx).With("source", source.name))

	if err := ctx.Err(); err != nil {
		logging.L(ctx).Warnf("Skipping %s: %s.", source.url, err)
		return &sourceResult{err: err}
	}

	logging.L(ctx).Infof("Fetching RSS feed from: %s", source.url)

	payload, err := c.fetcher.Fetch(fetch.WithObserver(ctx, c.metrics.FetchDuration(source.name)), source.url)
	if err != nil {
		status := metrics.FeedStatusError
		switch {
		case errors.Is(err, fetch.ErrTimeout):
			status = metrics.FeedStatusUnavailable
			logging.L(ctx).Errorf("Timeout reached while fetching feed from %s: %s.", source.url, err)
		case fetch.IsTemporary(err):
			status = metrics.FeedStatusUnavailable
			logging.L(ctx).Errorf("Network error while fetching feed from %s: %s.", source.url, err)
		default:
			logging.L(ctx).Errorf("Failed to retrieve feed %s: %s.", source.url, err)
		}
		c.metrics.FeedStatus(source.name, status)
		return &sourceResult{err: err}
	}

	parsed, err := feed.Parse(payload.Body)
	if err != nil {
		logging.L(ctx).Errorf("Error parsing feed %s: %s.", source.url, err)
		c.metrics.FeedStatus(source.name, metrics.FeedStatusError)
		return &sourceResult{err: err}
	}
	if parsed.Malformed != nil {
		logging.L(ctx).Warnf("%s is malformed, recovered %d entries: %s.",
			source.url, len(parsed.Entries), parsed.Malformed)
	}

	result := &sourceResult{found: len(parsed.Entries)}
	outcomes := make(map[string]int)

	for _, entry := range parsed.Entries {
		article, outcome := c.processEntry(ctx, entry, now)
		outcomes[outcome]++
		if outcome == metrics.EntryRelevant {
			result.articles = append(result.articles, article)
		}
	}

	for outcome, count := range outcomes {
		c.metrics.FeedEntries(source.name, outcome, count)
	}
	c.metrics.FeedStatus(source.name, metrics.FeedStatusSuccess)

	logging.L(ctx).Infof("Found %d relevant entries in %s.", len(result.articles), source.url)
	return result
}

func (c *Collector) processEntry(ctx context.Context, entry *feed.Entry, now time.Time) (store.Article, string) {
	published, ok := entry.Published.Get()
	if !ok {
		return store.Article{}, metrics.EntryUndated
	}

	if !c.window.IsRecent(ctx, published, now) {
		return store.Article{}, metrics.EntryOutdated
	}

	date, err := filter.FormatDate(published)
	if err != nil {
		logging.L(ctx).Errorf("%s.", err)
		return store.Article{}, metrics.EntryOutdated
	}

	title := normalize.CleanTitle(entry.Title)
	summary := normalize.ExtractText(entry.Summary)

	if !c.matcher.Match(title + " " + summary) {
		return store.Article{}, metrics.EntryIrrelevant
	}

	return store.Article{
		Title:     title,
		Link:      entry.Link,
		Summary:   summary,
		Published: date,
	}, metrics.EntryRelevant
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds.", "feed."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		host = parts[len(parts)-2]
	}
	if host == "" {
		return feedURL
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
