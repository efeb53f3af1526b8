package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/gymsession/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type routeCtxKey struct{}

// withRoute tags the request context with the route template, so metrics
// are not labelled with raw exercise names and ids.
func withRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeCtxKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if route, ok := ctx.Value(routeCtxKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}

type metricsTransport struct {
	next           http.RoundTripper
	metricsManager *metrics.Manager
}

func (t *metricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	begin := time.Now()
	resp, err := t.next.RoundTrip(req)

	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}

	t.metricsManager.HistBackendRequestDuration.With(
		prometheus.Labels{
			"route":       routeFromContext(req.Context()),
			"method":      req.Method,
			"status_code": status,
		},
	).Observe(time.Since(begin).Seconds())
	t.metricsManager.CounterBackendRequests.With(
		prometheus.Labels{
			"method": req.Method,
			"status": status,
		},
	).Inc()

	return resp, err
}

// NewHTTPClient returns a client that traces and measures every backend request.
func NewHTTPClient(timeout time.Duration, metricsManager *metrics.Manager) *http.Client {
	var transport http.RoundTripper = http.DefaultTransport
	if metricsManager != nil {
		transport = &metricsTransport{
			next:           transport,
			metricsManager: metricsManager,
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(transport),
	}
}
