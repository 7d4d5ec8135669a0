package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/stretchr/testify/require"
)

func TestParseDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg, err := parse(DefaultConfigYAML)
	require.NoError(t, err)

	require.Len(t, cfg.Sources.Feeds, 9)
	require.Equal(t, "https://krebsonsecurity.com/feed/", cfg.Sources.Feeds[0].URL)
	require.Len(t, cfg.Keywords, 65)
	require.Contains(t, cfg.Keywords, "zero-day")

	require.Equal(t, 30, cfg.Filter.WindowDays)
	require.Equal(t, 10*time.Second, cfg.Fetch.Timeout)
	require.Equal(t, 4, cfg.Fetch.Workers)
	require.Equal(t, DefaultUserAgent, cfg.Fetch.UserAgent)
	require.Equal(t, DefaultReferer, cfg.Fetch.Referer)
	require.Equal(t, 8501, cfg.Server.Port)
}

func TestParseMinimalConfig(t *testing.T) {
	t.Parallel()

	cfg, err := parse([]byte(heredoc.Doc(`
		sources:
		  feeds:
		    - url: https://example.com/feed
		keywords: [malware]
		fetch:
		  timeout: 3s
		  workers: 1
		server:
		  port: 9000
	`)))
	require.NoError(t, err)

	require.Equal(t, 3*time.Second, cfg.Fetch.Timeout)
	require.Equal(t, 1, cfg.Fetch.Workers)
	require.Equal(t, 9000, cfg.Server.Port)

	// Defaults should still be set for unspecified fields
	require.Equal(t, 30, cfg.Filter.WindowDays)
	require.Equal(t, DefaultUserAgent, cfg.Fetch.UserAgent)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestParseInvalidConfig(t *testing.T) {
	t.Parallel()

	for name, data := range map[string]string{
		"no feeds": `keywords: [malware]`,
		"blank url": heredoc.Doc(`
			sources:
			  feeds:
			    - url: " "
			keywords: [malware]
		`),
		"no keywords": heredoc.Doc(`
			sources:
			  feeds:
			    - url: https://example.com/feed
		`),
		"blank keyword": heredoc.Doc(`
			sources:
			  feeds:
			    - url: https://example.com/feed
			keywords: [malware, ""]
		`),
		"bad window": heredoc.Doc(`
			sources:
			  feeds:
			    - url: https://example.com/feed
			keywords: [malware]
			filter:
			  window_days: 0
		`),
		"bad workers": heredoc.Doc(`
			sources:
			  feeds:
			    - url: https://example.com/feed
			keywords: [malware]
			fetch:
			  workers: -1
		`),
		"bad yaml": `sources: [`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parse([]byte(data))
			require.Error(t, err)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, DefaultConfigYAML, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Sources.Feeds)
}

func TestLoadEmbeddedDefault(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Keywords)
}

func TestResolveExplicitMissing(t *testing.T) {
	t.Parallel()

	_, err := ResolveConfigPath(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestGetCachePath(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	require.Equal(t, filepath.Join(DataDir(), DefaultCacheFile), cfg.GetCachePath())

	cfg.Cache.Path = "/custom/news.json"
	require.Equal(t, "/custom/news.json", cfg.GetCachePath())
}
