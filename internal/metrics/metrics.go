// Package metrics holds the prometheus collectors of the ingestion pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	FeedStatusSuccess     = "success"
	FeedStatusUnavailable = "unavailable"
	FeedStatusError       = "error"
)

const (
	EntryRelevant   = "relevant"
	EntryUndated    = "undated"
	EntryOutdated   = "outdated"
	EntryIrrelevant = "irrelevant"
)

type Metrics struct {
	lastRunTime   prometheus.Gauge
	articles      prometheus.Gauge
	feedStatus    *prometheus.CounterVec
	feedEntries   *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	runDuration   prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		lastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cybernews_last_run_time",
			Help: "Time of the last completed ingestion run",
		}),

		articles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cybernews_articles",
			Help: "Number of articles produced by the last ingestion run",
		}),

		feedStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cybernews_feed_status",
			Help: "Feed ingestion status",
		}, []string{"name", "status"}),

		feedEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cybernews_feed_entries",
			Help: "Feed entries by filtering outcome",
		}, []string{"name", "outcome"}),

		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cybernews_fetch_duration",
			Help:    "Feed fetch duration",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"name"}),

		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cybernews_run_duration",
			Help:    "Ingestion run duration",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}

// FetchDuration returns the fetch duration observer for a feed.
func (m *Metrics) FetchDuration(name string) prometheus.Observer {
	return m.fetchDuration.WithLabelValues(name)
}

func (m *Metrics) FeedStatus(name string, status string) {
	m.feedStatus.WithLabelValues(name, status).Inc()
}

func (m *Metrics) FeedEntries(name string, outcome string, count int) {
	m.feedEntries.WithLabelValues(name, outcome).Add(float64(count))
}

func (m *Metrics) RunCompleted(articles int, seconds float64) {
	m.lastRunTime.SetToCurrentTime()
	m.articles.Set(float64(articles))
	m.runDuration.Observe(seconds)
}

var _ prometheus.Collector = &Metrics{}

func (m *Metrics) Describe(descs chan<- *prometheus.Desc) {
	m.lastRunTime.Describe(descs)
	m.articles.Describe(descs)
	m.feedStatus.Describe(descs)
	m.feedEntries.Describe(descs)
	m.fetchDuration.Describe(descs)
	m.runDuration.Describe(descs)
}

func (m *Metrics) Collect(metrics chan<- prometheus.Metric) {
	m.lastRunTime.Collect(metrics)
	m.articles.Collect(metrics)
	m.feedStatus.Collect(metrics)
	m.feedEntries.Collect(metrics)
	m.fetchDuration.Collect(metrics)
	m.runDuration.Collect(metrics)
}
