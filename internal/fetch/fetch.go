package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"
)

// Payload is the raw body of a successfully fetched feed.
type Payload struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Config configures the fetcher.
type Config struct {
	Timeout   time.Duration // Per request. Default: 10s.
	UserAgent string
	Referer   string
	MaxBytes  int64 // Max response body size. Default: 10MB.
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024
	}
}

const maxRedirects = 30

// Fetcher downloads feeds over HTTP, presenting itself as a browser since some feed providers
// reject unidentified clients.
type Fetcher struct {
	client *http.Client
	config Config
}

// New creates a new fetcher.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		config: cfg,
	}
}

// Fetch issues a single GET request. Non-200 responses yield *StatusError, timeouts ErrTimeout
// and any other transport fault ErrNetwork.
func (f *Fetcher) Fetch(ctx context.Context, url string) (_ *Payload, retErr error) {
	defer func() {
		if retErr != nil {
			retErr = fmt.Errorf("failed to fetch %s: %w", url, retErr)
		}
	}()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	if f.config.UserAgent != "" {
		request.Header.Set("User-Agent", f.config.UserAgent)
	}
	if f.config.Referer != "" {
		request.Header.Set("Referer", f.config.Referer)
	}

	logging.L(ctx).Debugf("Fetching %s...", url)

	startTime := time.Now()
	if observer, ok := getObserver(ctx); ok {
		defer func() {
			observer.Observe(time.Since(startTime).Seconds())
		}()
	}

	response, err := f.client.Do(request)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.L(ctx).Errorf("Failed to close HTTP client body: %s.", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: response.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, f.config.MaxBytes))
	if err != nil {
		return nil, classify(ctx, err)
	}

	logging.L(ctx).Debugf("Fetched %s: %d bytes in %s.", url, len(body), time.Since(startTime).Round(time.Millisecond))

	return &Payload{
		URL:        url,
		StatusCode: response.StatusCode,
		Body:       body,
	}, nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %w", ErrNetwork, err)
}
