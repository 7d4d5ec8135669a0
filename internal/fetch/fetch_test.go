package fetch

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	ctxutil "github.com/TobiSchelling/cybernews/internal/testutil"
)

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	headers := make(chan http.Header, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		_, _ = w.Write([]byte("<rss/>"))
	}))
	defer server.Close()

	fetcher := New(Config{
		Timeout:   time.Second,
		UserAgent: "Mozilla/5.0 test",
		Referer:   "https://www.google.com/",
	})

	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "test_fetch_duration"})
	ctx := WithObserver(ctxutil.Context(t), histogram)

	payload, err := fetcher.Fetch(ctx, server.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, payload.StatusCode)
	require.Equal(t, "<rss/>", string(payload.Body))
	require.Equal(t, server.URL, payload.URL)

	header := <-headers
	require.Equal(t, "Mozilla/5.0 test", header.Get("User-Agent"))
	require.Equal(t, "https://www.google.com/", header.Get("Referer"))
	require.Equal(t, 1, testutil.CollectAndCount(histogram))
}

func TestFetchStatusError(t *testing.T) {
	t.Parallel()

	for _, code := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusNoContent, http.StatusBadGateway} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))

		_, err := New(Config{}).Fetch(ctxutil.Context(t), server.URL)
		server.Close()

		require.ErrorIs(t, err, ErrHTTPStatus)

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, code, statusErr.Code)
		require.Equal(t, code >= 500, IsTemporary(err))
	}
}

func TestFetchTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := New(Config{Timeout: 50 * time.Millisecond}).Fetch(ctxutil.Context(t), server.URL)
	require.ErrorIs(t, err, ErrTimeout)
	require.True(t, IsTemporary(err))
}

func TestFetchNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := New(Config{Timeout: time.Second}).Fetch(ctxutil.Context(t), url)
	require.ErrorIs(t, err, ErrNetwork)
	require.NotErrorIs(t, err, ErrTimeout)
	require.True(t, IsTemporary(err))
}

func TestFetchBodyLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	payload, err := New(Config{MaxBytes: 4}).Fetch(ctxutil.Context(t), server.URL)
	require.NoError(t, err)
	require.Equal(t, "0123", string(payload.Body))
}

func TestFetchRedirects(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hop, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/"))
		if r.URL.Query().Get("loop") == "" && hop >= 15 {
			_, _ = w.Write([]byte("<rss/>"))
			return
		}
		http.Redirect(w, r, fmt.Sprintf("/%d?%s", hop+1, r.URL.RawQuery), http.StatusFound)
	}))
	defer server.Close()

	fetcher := New(Config{Timeout: time.Second})

	payload, err := fetcher.Fetch(ctxutil.Context(t), server.URL+"/0")
	require.NoError(t, err)
	require.Equal(t, "<rss/>", string(payload.Body))

	_, err = fetcher.Fetch(ctxutil.Context(t), server.URL+"/0?loop=1")
	require.ErrorIs(t, err, ErrNetwork)
	require.ErrorContains(t, err, "stopped after 30 redirects")
}
