package fetch

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

type contextKey struct{}

// WithObserver attaches a fetch duration observer to the context.
func WithObserver(ctx context.Context, duration prometheus.Observer) context.Context {
	return context.WithValue(ctx, contextKey{}, duration)
}

func getObserver(ctx context.Context) (prometheus.Observer, bool) {
	observer, ok := ctx.Value(contextKey{}).(prometheus.Observer)
	return observer, ok
}
