// Package middleware provides event middleware and observers for live
// sessions.
//
// This package includes:
//   - OpenTelemetry tracing of every client event
//   - Prometheus metrics for events, sessions, uploads and previews
//
// # OpenTelemetry Middleware
//
// The OpenTelemetry middleware traces every event dispatch. Spans carry the
// session ID, event type, target HID, file count and patch count. File
// names are never recorded.
//
//	srv := server.New(cfg, factory,
//	    server.WithMiddleware(middleware.OpenTelemetry()),
//	)
//
// Configure with options:
//
//	middleware.OpenTelemetry(
//	    middleware.WithTracerName("auralens-web"),
//	    middleware.WithEventFilter(func(c *server.Ctx) bool {
//	        return c.Event().Type != "dragover"
//	    }),
//	)
//
// # Prometheus Metrics
//
// A Metrics value is the event middleware and the observer of sessions,
// the upload widget and the preview registry:
//
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	previews := preview.NewRegistry(preview.WithObserver(m))
//	srv := server.New(cfg, factory,
//	    server.WithMiddleware(m.Middleware()),
//	    server.WithObserver(m),
//	    server.WithMetricsHandler(m.Handler()),
//	)
//
// # Context Propagation
//
// The tracing middleware replaces the dispatch context, so handlers reach
// the span through Event.Context:
//
//	func (w *Widget) onDrop(e *server.Event) error {
//	    trace.SpanFromContext(e.Context()).AddEvent("drop received")
//	    ...
//	}
package middleware
