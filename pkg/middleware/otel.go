package middleware

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/auralens/auralens/pkg/server"
)

// Default tracer name.
const defaultTracerName = "auralens"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "auralens").
	TracerName string

	// TracerProvider resolves the tracer. Default: the global provider.
	TracerProvider trace.TracerProvider

	// IncludeFiles records the number and declared media types of files
	// carried by the event. File names are never recorded.
	IncludeFiles bool

	// Filter determines which events to trace.
	// Return true to trace the event, false to skip.
	// If nil, all events are traced.
	Filter func(c *server.Ctx) bool

	// AttributeExtractor extracts custom attributes from the context.
	// Called for each traced event.
	AttributeExtractor func(c *server.Ctx) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeFiles enables file attributes on spans.
func WithIncludeFiles(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeFiles = include
	}
}

// WithEventFilter sets a filter function for events.
func WithEventFilter(filter func(c *server.Ctx) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(c *server.Ctx) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// defaultOTelConfig returns the default OpenTelemetry configuration.
func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName:   defaultTracerName,
		IncludeFiles: true,
	}
}

// OpenTelemetry creates middleware that traces every event.
//
// The middleware:
//   - Creates a span per event with type, target and session ID
//   - Replaces the dispatch context so handlers see the span through
//     Event.Context
//   - Records errors and sets span status
//   - Records patch count as a span attribute
//
// Example:
//
//	srv := server.New(cfg, factory,
//	    server.WithMiddleware(middleware.OpenTelemetry()))
//
// The tracer uses the global OpenTelemetry tracer provider unless one is
// passed with WithTracerProvider; internal/telemetry installs it.
func OpenTelemetry(opts ...OTelOption) server.Middleware {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(config.TracerName)

	return func(c *server.Ctx, next func() error) error {
		if config.Filter != nil && !config.Filter(c) {
			return next()
		}

		spanName := "auralens.event"
		var attrs []attribute.KeyValue

		if sess := c.Session(); sess != nil {
			attrs = append(attrs, attribute.String("auralens.session_id", sess.ID()))
		}

		if e := c.Event(); e != nil {
			attrs = append(attrs,
				attribute.String("auralens.event_type", e.Type),
				attribute.String("auralens.event_target", e.HID),
				attribute.Int64("auralens.event_seq", int64(e.Seq)),
			)
			spanName = fmt.Sprintf("auralens.%s", e.Type)

			if config.IncludeFiles && len(e.Files) > 0 {
				types := make([]string, len(e.Files))
				for i, f := range e.Files {
					types[i] = f.MediaType()
				}
				attrs = append(attrs,
					attribute.Int("auralens.file_count", len(e.Files)),
					attribute.StringSlice("auralens.file_types", types),
				)
			}
		}

		if config.AttributeExtractor != nil {
			attrs = append(attrs, config.AttributeExtractor(c)...)
		}

		spanCtx, span := tracer.Start(
			c.Context(),
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attrs...),
			trace.WithTimestamp(time.Now()),
		)
		defer span.End()

		c.SetContext(spanCtx)

		err := next()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		span.SetAttributes(attribute.Int("auralens.patch_count", c.PatchCount()))

		return err
	}
}
