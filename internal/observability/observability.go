// Package observability is the engine's logging/metrics/tracing surface:
// a gorm-backed Logger and MetricsCollector for structured, queryable
// records, and an OpenTelemetry pipeline whose spans resolve spec.md's
// suspension points (each upstream fetch, each C5/C6 compose step) into
// actual span boundaries around orchestrator.CalculateFee's fan-out.
package observability

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("locate-pricing-engine")

// StartSpan starts a span named name, parented to whatever span ctx already
// carries (if any). Callers End the returned span when the step it covers
// — an upstream fetch, a rateengine/feeengine compose call — completes.
func StartSpan(ctx context.Context, name string) (context.Context, oteltrace.Span) {
	return tracer.Start(ctx, name)
}

// SetupOTelSDK bootstraps the OpenTelemetry pipeline. Completed spans go to
// two exporters: stdouttrace for local visibility during development, and a
// gormSpanExporter that persists each span as a ServiceSpan row so a
// request's upstream-call and compose-step timings survive past the
// process that produced them.
func SetupOTelSDK(ctx context.Context, db *gorm.DB) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	shutdown = func(ctx context.Context) error {
		for _, fn := range shutdownFuncs {
			if err := fn(ctx); err != nil {
				log.Printf("Error shutting down: %v", err)
			}
		}
		shutdownFuncs = nil
		return nil
	}

	handleErr := func(inErr error) {
		err = inErr
		if err != nil {
			shutdown(ctx)
		}
	}

	traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		handleErr(err)
		return
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("locate-pricing-engine"),
		),
	)
	if err != nil {
		handleErr(err)
		return
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithBatcher(newGormSpanExporter(db)),
		sdktrace.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
	otel.SetTracerProvider(tracerProvider)

	return
}
