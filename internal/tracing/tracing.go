// Package tracing provides opt-in OpenTelemetry trace propagation.
//
// When enabled, it installs an OTLP HTTP exporter, a TracerProvider, and
// W3C TraceContext + Baggage propagation. When disabled, everything is a
// pass-through no-op.
package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config holds the OTel settings for one tier.
type Config struct {
	Enabled     bool
	Endpoint    string // OTLP HTTP endpoint, e.g. "localhost:4318"
	ServiceName string // e.g. "optiroute-gateway" or "optiroute-agent"
}

// Setup initializes the global TracerProvider with an OTLP HTTP exporter.
// The returned shutdown function flushes pending spans; call it on server
// close. When cfg.Enabled is false it returns a no-op shutdown.
func Setup(cfg Config) (shutdown func(context.Context) error, err error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	ctx := context.Background()

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(cfg.ServiceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// Middleware wraps an HTTP handler with otelhttp server instrumentation
// when tracing is enabled; otherwise it returns the handler unchanged.
func Middleware(enabled bool, operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return otelhttp.NewHandler(next, operation)
	}
}

// Client returns an *http.Client whose transport records client spans and
// injects trace headers when tracing is enabled.
func Client(enabled bool) *http.Client {
	if !enabled {
		return &http.Client{}
	}
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}
