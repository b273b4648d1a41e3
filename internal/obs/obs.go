// internal/obs/obs.go
package obs

import (
	"context"
	"log"
	"net/http"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// InitTracer wires an OTLP/HTTP exporter into the global tracer provider and
// returns a shutdown function for the caller to defer. The exporter endpoint
// comes from OTEL_EXPORTER_OTLP_ENDPOINT; tracing is skipped when unset.
func InitTracer(serviceName string) func(context.Context) error {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return func(context.Context) error { return nil }
	}

	exp, err := otlptracehttp.New(context.Background())
	if err != nil {
		log.Printf("otlp exporter init failed, tracing disabled: %v", err)
		return func(context.Context) error { return nil }
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String("0.1.0"),
		),
	)
	if err != nil {
		log.Printf("otel resource create: %v", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))

	return tp.Shutdown
}

// RequestCounter counts inbound requests per route via the global meter.
// Without a metric SDK installed this is a no-op, so services can always
// attach it.
func RequestCounter(serviceName string) func(http.Handler) http.Handler {
	meter := otel.Meter("rentnexus/" + serviceName)
	counter, err := meter.Int64Counter("http.server.requests")
	if err != nil {
		log.Printf("request counter init: %v", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if counter != nil {
				counter.Add(r.Context(), 1, metric.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.route", r.URL.Path),
				))
			}
			next.ServeHTTP(w, r)
		})
	}
}
