package kvstore

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used for kvstore spans
const TracerName = "github.com/benvon/todo-pet/internal/kvstore"

type tracingStore struct {
	next   Store
	tracer trace.Tracer
}

// WithTracing wraps next so every operation runs inside a span
func WithTracing(next Store, tracer trace.Tracer) Store {
	return &tracingStore{next: next, tracer: tracer}
}

func (s *tracingStore) start(ctx context.Context, op, key string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "kvstore."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("kv.key", key)),
	)
}

func finish(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *tracingStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := s.start(ctx, "get", key)
	value, err := s.next.Get(ctx, key)
	span.SetAttributes(
		attribute.Bool("kv.found", err == nil),
		attribute.Int("kv.size", len(value)),
	)
	finish(span, err)
	return value, err
}

func (s *tracingStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := s.start(ctx, "set", key)
	span.SetAttributes(attribute.Int("kv.size", len(value)))
	err := s.next.Set(ctx, key, value)
	finish(span, err)
	return err
}

func (s *tracingStore) Delete(ctx context.Context, key string) error {
	ctx, span := s.start(ctx, "delete", key)
	err := s.next.Delete(ctx, key)
	finish(span, err)
	return err
}

func (s *tracingStore) Close() error {
	return s.next.Close()
}
