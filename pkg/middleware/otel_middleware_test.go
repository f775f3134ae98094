package middleware

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/auralens/auralens/pkg/server"
	"github.com/auralens/auralens/pkg/upload"
)

func newRecorder(t *testing.T) (*tracetest.SpanRecorder, trace.TracerProvider) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr, tp
}

func attrMap(kvs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(kvs))
	for _, kv := range kvs {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestOpenTelemetryMiddleware_RecordsEventSpan(t *testing.T) {
	sr, tp := newRecorder(t)
	e := dropEvent(&upload.Blob{Filename: "secret-name.png", ContentType: "image/png"})

	mw := OpenTelemetry(
		WithTracerProvider(tp),
		WithAttributeExtractor(func(*server.Ctx) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	)

	err := dispatch(t, e, 3, func() error {
		if !trace.SpanContextFromContext(e.Context()).IsValid() {
			t.Error("handler does not see the span through Event.Context")
		}
		return nil
	}, mw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "auralens.drop" {
		t.Errorf("span name = %q", span.Name())
	}
	if span.SpanKind() != trace.SpanKindServer {
		t.Errorf("span kind = %v", span.SpanKind())
	}
	if span.Status().Code != codes.Ok {
		t.Errorf("status = %v", span.Status())
	}

	attrs := attrMap(span.Attributes())
	if got := attrs["auralens.event_target"].AsString(); got != "h9" {
		t.Errorf("event_target = %q", got)
	}
	if got := attrs["auralens.patch_count"].AsInt64(); got != 3 {
		t.Errorf("patch_count = %d, want 3", got)
	}
	if got := attrs["auralens.file_count"].AsInt64(); got != 1 {
		t.Errorf("file_count = %d, want 1", got)
	}
	if got := attrs["test.attr"].AsString(); got != "ok" {
		t.Errorf("test.attr = %q", got)
	}
	for _, kv := range span.Attributes() {
		if kv.Value.Emit() == "secret-name.png" {
			t.Errorf("file name leaked into attribute %s", kv.Key)
		}
	}
}

func TestOpenTelemetryMiddleware_ErrorSetsStatus(t *testing.T) {
	sr, tp := newRecorder(t)

	wantErr := errors.New("boom")
	err := dispatch(t, clickEvent(), 0, func() error { return wantErr }, OpenTelemetry(WithTracerProvider(tp)))
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected error %v, got %v", wantErr, err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status())
	}
	if len(spans[0].Events()) == 0 {
		t.Error("expected the error to be recorded as a span event")
	}
}

func TestOpenTelemetryMiddleware_FilterSkipsTracing(t *testing.T) {
	sr, tp := newRecorder(t)
	e := &server.Event{Type: "dragover", HID: "h2"}

	nextCalled := false
	err := dispatch(t, e, 0, func() error {
		nextCalled = true
		if trace.SpanContextFromContext(e.Context()).IsValid() {
			t.Error("expected no span when filter skips tracing")
		}
		return nil
	}, OpenTelemetry(
		WithTracerProvider(tp),
		WithEventFilter(func(c *server.Ctx) bool { return c.Event().Type != "dragover" }),
	))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !nextCalled {
		t.Fatal("expected next to be called")
	}
	if len(sr.Ended()) != 0 {
		t.Errorf("ended spans = %d, want 0", len(sr.Ended()))
	}
}
