// Package tracing wraps a [cache.Cache] with OpenTelemetry spans. It is
// entirely optional; nothing else in the module depends on it.
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Keksclan/gencache/cache"
)

const instrumentation = "github.com/Keksclan/gencache/tracing"

// TracingConfig holds the OpenTelemetry configuration used by [Wrap].
type TracingConfig struct {
	// TracerProvider supplies the Tracer used to create spans. When nil the
	// global otel.GetTracerProvider() is used.
	TracerProvider trace.TracerProvider

	// Name is recorded as the cache.name attribute on every span.
	Name string
}

// tracer returns a configured [trace.Tracer].
func (c *TracingConfig) tracer() trace.Tracer {
	tp := c.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(instrumentation)
}

// Wrap returns a [cache.Cache] that creates a span for every call on next.
// If cfg is nil next is returned unchanged.
func Wrap(next cache.Cache, cfg *TracingConfig) cache.Cache {
	if cfg == nil {
		return next
	}
	return &traced{next: next, cfg: cfg, tracer: cfg.tracer()}
}

type traced struct {
	next   cache.Cache
	cfg    *TracingConfig
	tracer trace.Tracer
}

func (t *traced) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := t.start(ctx, "get")
	defer span.End()

	val, ok, err := t.next.Get(ctx, key)
	span.SetAttributes(attribute.Bool("cache.hit", ok))
	recordStatus(span, err)
	return val, ok, err
}

func (t *traced) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	ctx, span := t.start(ctx, "set")
	defer span.End()

	span.SetAttributes(attribute.Int64("cache.ttl_ms", ttl.Milliseconds()))
	err := t.next.Set(ctx, key, val, ttl)
	recordStatus(span, err)
	return err
}

func (t *traced) Delete(ctx context.Context, key string) error {
	ctx, span := t.start(ctx, "delete")
	defer span.End()

	err := t.next.Delete(ctx, key)
	recordStatus(span, err)
	return err
}

// GetOrSet records whether the loader ran as the inverse of cache.hit.
func (t *traced) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	ctx, span := t.start(ctx, "get_or_set")
	defer span.End()

	span.SetAttributes(attribute.Int64("cache.ttl_ms", ttl.Milliseconds()))
	loaded := false
	val, err := t.next.GetOrSet(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		loaded = true
		lctx, lspan := t.tracer.Start(ctx, "cache.load", trace.WithSpanKind(trace.SpanKindInternal))
		defer lspan.End()
		v, err := loader(lctx)
		recordStatus(lspan, err)
		return v, err
	})
	span.SetAttributes(attribute.Bool("cache.hit", !loaded))
	recordStatus(span, err)
	return val, err
}

func (t *traced) start(ctx context.Context, op string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("cache.operation", op)}
	if t.cfg.Name != "" {
		attrs = append(attrs, attribute.String("cache.name", t.cfg.Name))
	}
	return t.tracer.Start(ctx, "cache."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// recordStatus sets the span status from err.
func recordStatus(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
