package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/Keksclan/gencache/cache"
)

// newTestCache returns an L1 wrapped with a tracer backed by an in-memory
// span recorder.
func newTestCache(t *testing.T) (cache.Cache, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	l1, err := cache.NewL1(100)
	if err != nil {
		t.Fatalf("NewL1: %v", err)
	}
	return Wrap(l1, &TracingConfig{TracerProvider: tp, Name: "test"}), rec
}

func TestWrap_GetMissThenHit(t *testing.T) {
	c, rec := newTestCache(t)
	ctx := t.Context()

	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("expected miss")
	}
	_ = c.Set(ctx, "k", []byte("v"), 1500*time.Millisecond)
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("expected hit")
	}

	spans := rec.Ended()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}

	miss, set, hit := spans[0], spans[1], spans[2]
	if miss.Name() != "cache.get" {
		t.Fatalf("expected span name %q, got %q", "cache.get", miss.Name())
	}
	if miss.SpanKind() != trace.SpanKindInternal {
		t.Fatalf("expected SpanKindInternal, got %v", miss.SpanKind())
	}
	assertAttr(t, miss.Attributes(), "cache.operation", attribute.StringValue("get"))
	assertAttr(t, miss.Attributes(), "cache.name", attribute.StringValue("test"))
	assertAttr(t, miss.Attributes(), "cache.hit", attribute.BoolValue(false))

	assertAttr(t, set.Attributes(), "cache.operation", attribute.StringValue("set"))
	assertAttr(t, set.Attributes(), "cache.ttl_ms", attribute.Int64Value(1500))

	assertAttr(t, hit.Attributes(), "cache.hit", attribute.BoolValue(true))
	if hit.Status().Code != codes.Ok {
		t.Fatalf("expected Ok status, got %v", hit.Status().Code)
	}
}

func TestWrap_GetOrSetRecordsLoad(t *testing.T) {
	c, rec := newTestCache(t)
	ctx := t.Context()

	loader := func(context.Context) ([]byte, error) { return []byte("v"), nil }
	if _, err := c.GetOrSet(ctx, "k", time.Minute, loader); err != nil {
		t.Fatalf("GetOrSet: %v", err)
	}
	if _, err := c.GetOrSet(ctx, "k", time.Minute, loader); err != nil {
		t.Fatalf("GetOrSet: %v", err)
	}

	spans := rec.Ended()
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(spans))
	}
	load, first, second := spans[0], spans[1], spans[2]
	if load.Name() != "cache.load" {
		t.Fatalf("expected span name %q, got %q", "cache.load", load.Name())
	}
	if load.Parent().SpanID() != first.SpanContext().SpanID() {
		t.Fatal("load span is not a child of the get_or_set span")
	}
	assertAttr(t, first.Attributes(), "cache.hit", attribute.BoolValue(false))
	assertAttr(t, second.Attributes(), "cache.hit", attribute.BoolValue(true))
	assertAttr(t, second.Attributes(), "cache.ttl_ms", attribute.Int64Value(60000))
}

func TestWrap_RecordsError(t *testing.T) {
	c, rec := newTestCache(t)

	boom := errors.New("boom")
	_, err := c.GetOrSet(t.Context(), "k", 0, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want %v", err, boom)
	}

	for _, span := range rec.Ended() {
		if span.Status().Code != codes.Error {
			t.Fatalf("span %q: expected Error status, got %v", span.Name(), span.Status().Code)
		}
	}
}

func TestWrap_NilConfig_Passthrough(t *testing.T) {
	l1, err := cache.NewL1(10)
	if err != nil {
		t.Fatalf("NewL1: %v", err)
	}
	if got := Wrap(l1, nil); got != cache.Cache(l1) {
		t.Fatal("expected next to be returned unchanged")
	}
}

func TestWrap_DeleteSpan(t *testing.T) {
	c, rec := newTestCache(t)

	if err := c.Delete(t.Context(), "missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	assertAttr(t, spans[0].Attributes(), "cache.operation", attribute.StringValue("delete"))
}

func assertAttr(t *testing.T, attrs []attribute.KeyValue, key string, want attribute.Value) {
	t.Helper()
	for _, a := range attrs {
		if string(a.Key) == key {
			if a.Value != want {
				t.Errorf("attribute %q = %v, want %v", key, a.Value.Emit(), want.Emit())
			}
			return
		}
	}
	t.Errorf("attribute %q not found", key)
}
