package telemetry

import (
	"context"
	"fmt"

	"github.com/benvon/todo-pet/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InitTracer initializes the OpenTelemetry tracer provider and installs it globally.
// An empty endpoint uses the exporter default (localhost:4318).
func InitTracer(ctx context.Context, serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithInsecure(), // collector is expected on the local machine
	}
	if endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)

	return tp, nil
}

// Setup initializes tracing when enabled and returns a shutdown func that flushes it.
// The shutdown func is never nil.
func Setup(ctx context.Context, enabled bool, serviceName, endpoint string, zapLogger *zap.Logger) (func(context.Context) error, error) {
	zapLogger = logger.OrNop(zapLogger)
	if !enabled {
		zapLogger.Debug("tracing_disabled")
		return func(context.Context) error { return nil }, nil
	}

	tp, err := InitTracer(ctx, serviceName, endpoint)
	if err != nil {
		return func(context.Context) error { return nil }, err
	}
	zapLogger.Debug("tracing_enabled", zap.String("endpoint", endpoint))

	return func(ctx context.Context) error {
		return Shutdown(ctx, tp)
	}, nil
}

// Tracer returns a tracer from the global provider. Until a provider is installed
// it is a no-op.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// Shutdown gracefully shuts down the tracer provider
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}
