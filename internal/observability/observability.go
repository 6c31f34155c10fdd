package observability

import (
	"net/http"
	"time"

	"bankgate/internal/config"
	"bankgate/internal/httputils"
	"bankgate/internal/observability/logging"
	"bankgate/internal/observability/metrics"
)

// TraceHeader carries the request trace id back to the client
const TraceHeader = "X-Trace-ID"

// Provider provides observability capabilities
type Provider struct {
	Logger  *logging.Logger
	Metrics *metrics.Collector
}

// RouteNamer maps a request to the name of the route serving it. Metrics are
// labelled with route names rather than raw paths.
type RouteNamer interface {
	RouteName(r *http.Request) string
}

// NewProvider creates a new observability provider
func NewProvider(cfg *config.Config) (*Provider, error) {
	logger, err := logging.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, err
	}

	return &Provider{
		Logger:  logger,
		Metrics: metrics.NewCollector(),
	}, nil
}

// Middleware creates an HTTP middleware for request observation. It attaches
// a trace-scoped logger to the request context and records one metric sample
// per request.
func (p *Provider) Middleware(next http.Handler, routes RouteNamer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ctx := r.Context()
		traceID := logging.GetTraceIDFromContext(ctx)
		if traceID == "" {
			traceID = logging.NewTraceID()
			ctx = logging.ContextWithTraceID(ctx, traceID)
		}

		logger := p.Logger.WithTracing(traceID)
		ctx = logging.ContextWithLogger(ctx, logger)

		route := "unmatched"
		if routes != nil {
			route = routes.RouteName(r)
		}

		wrapper := httputils.NewResponseWriter(w)
		wrapper.Header().Set(TraceHeader, traceID)

		logger.Debug("Request started",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(wrapper, r.WithContext(ctx))

		duration := time.Since(startTime)
		p.Metrics.RecordRequest(r.Method, route, wrapper.StatusCode, duration)

		logger.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", wrapper.StatusCode,
			"duration_ms", duration.Milliseconds(),
			"bytes_written", wrapper.BytesWritten,
		)
	})
}

// MetricsHandler returns an HTTP handler for exposing metrics
func (p *Provider) MetricsHandler() http.Handler {
	return metrics.Handler()
}
