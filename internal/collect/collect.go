// Package collect runs the ingestion pipeline over all configured feeds.
package collect

import (
	"context"
	"fmt"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/cybernews/internal/config"
	"github.com/TobiSchelling/cybernews/internal/fetch"
	"github.com/TobiSchelling/cybernews/internal/filter"
	"github.com/TobiSchelling/cybernews/internal/metrics"
	"github.com/TobiSchelling/cybernews/internal/store"
)

const defaultWorkers = 4

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Payload, error)
}

type Options struct {
	Feeds   []config.Feed
	Matcher *filter.Matcher
	Window  filter.Window
	Fetcher Fetcher
	Workers int              // Default: 4
	Metrics *metrics.Metrics // Optional
}

// Result holds the results of a collection run.
type Result struct {
	Articles   store.ArticleSet
	TotalFound int // Entries in all successfully parsed feeds
	Relevant   int // Relevant entries before deduplication
	Duplicates int

	// Relevant entries per source name and failures per source URL.
	Sources map[string]int
	Failed  map[string]error

	// Err is set when the run was cancelled before all sources finished.
	// Articles are then incomplete and must not replace a cache.
	Err error
}

// Collector fetches, filters and normalizes articles from RSS/Atom feeds.
type Collector struct {
	sources []source
	matcher *filter.Matcher
	window  filter.Window
	fetcher Fetcher
	workers int
	metrics *metrics.Metrics
}

// New creates a new article collector.
func New(options Options) *Collector {
	sources := make([]source, len(options.Feeds))
	for i, feed := range options.Feeds {
		sources[i] = newSource(feed)
	}

	workers := options.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	collectorMetrics := options.Metrics
	if collectorMetrics == nil {
		collectorMetrics = metrics.New()
	}

	return &Collector{
		sources: sources,
		matcher: options.Matcher,
		window:  options.Window,
		fetcher: options.Fetcher,
		workers: workers,
		metrics: collectorMetrics,
	}
}

// Collect processes all sources and returns the deduplicated article set. Failing sources are
// logged and contribute no articles.
//
// Sources are processed concurrently, but their results are merged in the configured order.
func (c *Collector) Collect(ctx context.Context, now time.Time) *Result {
	results := make([]*sourceResult, len(c.sources))

	var group errgroup.Group
	group.SetLimit(c.workers)

	for i, source := range c.sources {
		group.Go(func() error {
			results[i] = c.collectSource(ctx, source, now)
			return nil
		})
	}
	_ = group.Wait()

	r := &Result{
		Sources: make(map[string]int),
		Failed:  make(map[string]error),
	}

	var articles []store.Article
	for i, result := range results {
		source := c.sources[i]

		if result.err != nil {
			r.Failed[source.url] = result.err
			continue
		}

		r.TotalFound += result.found
		r.Sources[source.name] += len(result.articles)
		articles = append(articles, result.articles...)
	}

	r.Articles = Dedupe(articles)
	r.Relevant = len(articles)
	r.Duplicates = r.Relevant - len(r.Articles)

	if err := ctx.Err(); err != nil {
		r.Err = fmt.Errorf("collection interrupted: %w", err)
		logging.L(ctx).Warnf("Collection interrupted after %d relevant articles: %v", r.Relevant, err)
		return r
	}

	logging.L(ctx).Infof(
		"Collection complete: %d found, %d relevant, %d duplicates, %d failed sources.",
		r.TotalFound, r.Relevant, r.Duplicates, len(r.Failed))

	return r
}

// Dedupe removes articles with the same title and link. The last occurrence wins, but it takes
// the position of the first one.
func Dedupe(articles []store.Article) store.ArticleSet {
	positions := make(map[store.ArticleKey]int, len(articles))
	deduped := make(store.ArticleSet, 0, len(articles))

	for _, article := range articles {
		key := article.Key()
		if position, ok := positions[key]; ok {
			deduped[position] = article
			continue
		}
		positions[key] = len(deduped)
		deduped = append(deduped, article)
	}

	return deduped
}
