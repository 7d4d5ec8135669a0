// Package pipeline runs the ingestion steps against the cache file and reports their outcome.
package pipeline

import (
	"context"
	"fmt"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	"github.com/google/uuid"

	"github.com/TobiSchelling/cybernews/internal/collect"
	"github.com/TobiSchelling/cybernews/internal/config"
	"github.com/TobiSchelling/cybernews/internal/fetch"
	"github.com/TobiSchelling/cybernews/internal/filter"
	"github.com/TobiSchelling/cybernews/internal/metrics"
	"github.com/TobiSchelling/cybernews/internal/store"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a pipeline run.
type Result struct {
	RunID string
	Steps []StepResult

	// Collected is set when the feeds have been processed. Articles stay available even if they
	// couldn't be saved.
	Collected bool
	Articles  store.ArticleSet
}

// Pipeline regenerates the cache file from the configured feeds.
type Pipeline struct {
	store     *store.Store
	collector *collect.Collector
	metrics   *metrics.Metrics
	feeds     int
}

// New creates a new pipeline. Metrics are optional.
func New(cfg *config.Config, pipelineMetrics *metrics.Metrics) (*Pipeline, error) {
	matcher, err := filter.NewMatcher(cfg.Keywords)
	if err != nil {
		return nil, err
	}

	if pipelineMetrics == nil {
		pipelineMetrics = metrics.New()
	}

	fetcher := fetch.New(fetch.Config{
		Timeout:   cfg.Fetch.Timeout,
		UserAgent: cfg.Fetch.UserAgent,
		Referer:   cfg.Fetch.Referer,
		MaxBytes:  cfg.Fetch.MaxBytes,
	})

	collector := collect.New(collect.Options{
		Feeds:   cfg.Sources.Feeds,
		Matcher: matcher,
		Window:  filter.Window{Days: cfg.Filter.WindowDays},
		Fetcher: fetcher,
		Workers: cfg.Fetch.Workers,
		Metrics: pipelineMetrics,
	})

	return &Pipeline{
		store:     store.New(cfg.GetCachePath()),
		collector: collector,
		metrics:   pipelineMetrics,
		feeds:     len(cfg.Sources.Feeds),
	}, nil
}

func (p *Pipeline) Store() *store.Store {
	return p.store
}

// Run unconditionally collects the articles and replaces the cache file.
func (p *Pipeline) Run(ctx context.Context, now time.Time) *Result {
	r := newResult()
	ctx = withRunID(ctx, r.RunID)

	unlock := p.store.Lock()
	defer unlock()

	p.run(ctx, now, r)
	return r
}

// Refresh regenerates the cache file if it's stale or if force is set. It blocks until the
// regeneration completes.
func (p *Pipeline) Refresh(ctx context.Context, now time.Time, force bool) *Result {
	r := newResult()
	ctx = withRunID(ctx, r.RunID)

	// Concurrent refreshes wait here and then see the fresh file.
	unlock := p.store.Lock()
	defer unlock()

	stale := p.store.IsStale(now)

	step := StepResult{Name: "Check cache"}
	switch {
	case stale:
		step.Summary = fmt.Sprintf("%s is outdated or missing", p.store.Path())
	case force:
		step.Summary = fmt.Sprintf("%s is up to date, refresh is forced", p.store.Path())
	default:
		step.Summary = fmt.Sprintf("%s is up to date", p.store.Path())
	}
	r.Steps = append(r.Steps, step)
	logging.L(ctx).Infof("%s.", step.Summary)

	if stale || force {
		p.run(ctx, now, r)
	}

	return r
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun(now time.Time) *Result {
	r := newResult()

	state := "up to date"
	if p.store.IsStale(now) {
		state = "outdated or missing"
	}
	if modTime, ok := p.store.ModTime(); ok {
		state += fmt.Sprintf(" (modified %s)", modTime.Format(time.DateTime))
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Check cache",
		Summary: fmt.Sprintf("[dry-run] %s is %s", p.store.Path(), state),
	})

	articles, err := p.store.Load()
	r.Steps = append(r.Steps, StepResult{
		Name:    "Collect",
		Summary: fmt.Sprintf("[dry-run] %d articles cached, would fetch %d feeds", len(articles), p.feeds),
		Err:     err,
	})

	r.Steps = append(r.Steps, StepResult{
		Name:    "Save",
		Summary: fmt.Sprintf("[dry-run] Would replace %s", p.store.Path()),
	})

	return r
}

func (p *Pipeline) run(ctx context.Context, now time.Time, r *Result) {
	startTime := time.Now()

	step, articles := p.runCollect(ctx, now)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		logging.L(ctx).Warnf("Keeping %s as is: %s.", p.store.Path(), step.Err)
		return
	}
	r.Collected, r.Articles = true, articles

	r.Steps = append(r.Steps, p.runSave(ctx, articles))

	p.metrics.RunCompleted(len(articles), time.Since(startTime).Seconds())
}

func (p *Pipeline) runCollect(ctx context.Context, now time.Time) (StepResult, store.ArticleSet) {
	logging.L(ctx).Info("Step 1/2: Collecting articles...")
	result := p.collector.Collect(ctx, now)
	if result.Err != nil {
		return StepResult{Name: "Collect", Err: result.Err}, nil
	}
	return StepResult{
		Name: "Collect",
		Summary: fmt.Sprintf("Found %d articles (%d entries, %d relevant, %d duplicates, %d failed feeds)",
			len(result.Articles), result.TotalFound, result.Relevant, result.Duplicates, len(result.Failed)),
	}, result.Articles
}

func (p *Pipeline) runSave(ctx context.Context, articles store.ArticleSet) StepResult {
	logging.L(ctx).Info("Step 2/2: Saving articles...")
	if err := p.store.Save(articles); err != nil {
		logging.L(ctx).Errorf("Error saving JSON file %s: %s.", p.store.Path(), err)
		return StepResult{Name: "Save", Err: err}
	}
	return StepResult{
		Name:    "Save",
		Summary: fmt.Sprintf("Saved %d articles to %s", len(articles), p.store.Path()),
	}
}

func newResult() *Result {
	return &Result{RunID: uuid.NewString()}
}

func withRunID(ctx context.Context, runID string) context.Context {
	return logging.WithLogger(ctx, logging.L(ctx).With("run", runID))
}
