package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/auralens/auralens/pkg/upload"
	"github.com/auralens/auralens/pkg/vdom"
)

// Handler is the internal event handler function type.
type Handler func(event *Event) error

// Event is a decoded client event.
type Event struct {
	// Seq is the client's sequence number.
	Seq uint64

	// HID is the hydration ID of the target element.
	HID string

	// Type is the DOM event name ("click", "input", "drop", …).
	Type string

	// Value is the target's value for input and change events.
	Value string

	// Files are the files carried by drop and picker change events, in
	// the order the browser listed them.
	Files []upload.Candidate

	// Session is the session that received the event.
	Session *Session

	// Time is when the event was received by the server.
	Time time.Time

	ctx context.Context
}

// Context returns the context of the dispatch. Middleware may have
// replaced it, e.g. with one carrying a trace span.
func (e *Event) Context() context.Context {
	if e == nil || e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// discardFiles drops temp uploads of an event nobody handled.
func (e *Event) discardFiles() {
	for _, f := range e.Files {
		_ = upload.Discard(f)
	}
}

// WrapHandler converts a handler bound in the view to a Handler.
// ModifiedHandler wrappers are removed first; their flags only matter to
// the client. Unsupported shapes are logged and become no-ops.
func WrapHandler(value any, logger *slog.Logger) Handler {
	if logger == nil {
		logger = slog.Default()
	}
	switch h := vdom.Unwrap(value).(type) {
	case func():
		return func(*Event) error { h(); return nil }

	case func() error:
		return func(*Event) error { return h() }

	// Input/change handlers receive the target value.
	case func(string):
		return func(e *Event) error { h(e.Value); return nil }

	case func(*Event):
		return func(e *Event) error { h(e); return nil }

	case func(*Event) error:
		return h

	case Handler:
		return h

	default:
		logger.Warn("unrecognized handler type; handler will not be called",
			"type", fmt.Sprintf("%T", value))
		return func(*Event) error { return nil }
	}
}

// Ctx is the context an event is dispatched in. Middleware receives it
// before and after the handler and the resulting render.
type Ctx struct {
	std     context.Context
	session *Session
	event   *Event
	patches int
}

// Context returns the standard context of the dispatch. It is cancelled when
// the session closes.
func (c *Ctx) Context() context.Context {
	if c.std == nil {
		return context.Background()
	}
	return c.std
}

// SetContext replaces the standard context, e.g. with one carrying a span.
// The handler sees it through Event.Context.
func (c *Ctx) SetContext(ctx context.Context) {
	c.std = ctx
	if c.event != nil {
		c.event.ctx = ctx
	}
}

// Session returns the session handling the event.
func (c *Ctx) Session() *Session { return c.session }

// Event returns the event being dispatched.
func (c *Ctx) Event() *Event { return c.event }

// PatchCount returns the number of patches sent for this event. It is only
// meaningful after next() returned.
func (c *Ctx) PatchCount() int { return c.patches }

// Middleware wraps event dispatch. It must call next exactly once unless it
// wants to drop the event.
type Middleware func(c *Ctx, next func() error) error

// Dispatch runs handler for e inside mws without a session, the way a
// session dispatches a live event. handler returns the number of patches
// its render produced. It serves middleware tests and offline replays.
func Dispatch(std context.Context, e *Event, mws []Middleware, handler func() (patches int, err error)) error {
	c := &Ctx{std: std, event: e}
	if e != nil {
		c.session = e.Session
		e.ctx = std
	}
	return chain(mws, func() error {
		n, err := handler()
		c.patches = n
		return err
	}, c)
}

// chain composes middleware so the first one is outermost.
func chain(mws []Middleware, final func() error, c *Ctx) error {
	if len(mws) == 0 {
		return final()
	}
	return mws[0](c, func() error {
		return chain(mws[1:], final, c)
	})
}
