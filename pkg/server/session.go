package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/auralens/auralens/internal/errors"
	"github.com/auralens/auralens/pkg/render"
	"github.com/auralens/auralens/pkg/upload"
	"github.com/auralens/auralens/pkg/vdom"
)

// Mount is what a root component sees of its session.
type Mount interface {
	// ID returns the session ID.
	ID() string

	// Emit queues a named client event. Queued events are sent after the
	// patches of the current dispatch.
	Emit(name string, detail any)

	// Invalidate marks the view dirty. The session re-renders after the
	// current handler, or on its own loop when called from elsewhere.
	Invalidate()

	// Logger returns the session logger.
	Logger() *slog.Logger
}

// Factory builds the root component of a new session. A component that
// implements io.Closer is closed when the session ends.
type Factory func(m Mount) vdom.Component

// Observer is told about session lifecycle and patch traffic.
type Observer interface {
	SessionOpened()
	SessionClosed()
	PatchesSent(n int)
}

// Session is one mounted root component and, once claimed, its socket.
type Session struct {
	id        string
	CreatedAt time.Time

	lastActive atomic.Int64

	// Connection
	conn    Conn
	mu      sync.Mutex // Protects conn writes
	closed  atomic.Bool
	started atomic.Bool

	// Sequence numbers
	sendSeq atomic.Uint64
	recvSeq atomic.Uint64

	// Rendering; only touched on the event loop after Mount.
	root        vdom.Component
	currentTree *vdom.VNode
	hidGen      *vdom.HIDGenerator
	renderer    *render.Renderer
	dirty       atomic.Bool

	emitMu sync.Mutex
	emits  []ServerFrame

	// Channels
	events   chan *Event
	renderCh chan struct{}
	done     chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	disposeOnce sync.Once

	config     *SessionConfig
	uploads    upload.Store
	middleware []Middleware
	observer   Observer
	logger     *slog.Logger

	eventCount atomic.Uint64
	patchCount atomic.Uint64
}

// sessionDeps are the server-wide collaborators every session shares.
type sessionDeps struct {
	config     *SessionConfig
	uploads    upload.Store
	middleware []Middleware
	observer   Observer
	logger     *slog.Logger
}

// newSession creates an unmounted session.
func newSession(deps sessionDeps) *Session {
	if deps.config == nil {
		deps.config = DefaultSessionConfig()
	}
	if deps.logger == nil {
		deps.logger = slog.Default()
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()

	s := &Session{
		id:         id,
		CreatedAt:  now,
		hidGen:     vdom.NewHIDGenerator(),
		renderer:   render.NewRenderer(),
		events:     make(chan *Event, deps.config.MaxEventQueue),
		renderCh:   make(chan struct{}, 1),
		done:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
		config:     deps.config,
		uploads:    deps.uploads,
		middleware: deps.middleware,
		observer:   deps.observer,
		logger:     deps.logger.With("session_id", id),
	}
	s.lastActive.Store(now.UnixNano())
	return s
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Context returns a context that is cancelled when the session closes.
func (s *Session) Context() context.Context { return s.ctx }

// Mount builds the root component and renders the initial tree with a
// hydration ID on every element.
func (s *Session) Mount(factory Factory) *vdom.VNode {
	s.root = factory(s)
	tree := s.render()
	vdom.AssignAllHIDs(tree, s.hidGen)
	s.currentTree = tree
	s.dirty.Store(false)

	s.logger.Debug("mounted root component", "hid_counter", s.hidGen.Current())
	return tree
}

// Tree returns the last rendered tree.
func (s *Session) Tree() *vdom.VNode { return s.currentTree }

// render produces a fresh expanded tree from the root component.
func (s *Session) render() *vdom.VNode {
	if s.root == nil {
		return nil
	}
	return vdom.Expand(s.root.Render())
}

// Emit implements Mount.
func (s *Session) Emit(name string, detail any) {
	if s.closed.Load() {
		return
	}
	s.emitMu.Lock()
	s.emits = append(s.emits, ServerFrame{Type: FrameEmit, Name: name, Detail: detail})
	s.emitMu.Unlock()
	s.signal()
}

// Invalidate implements Mount.
func (s *Session) Invalidate() {
	s.dirty.Store(true)
	s.signal()
}

// signal wakes the event loop without blocking.
func (s *Session) signal() {
	select {
	case s.renderCh <- struct{}{}:
	default:
	}
}

// handleEvent processes a single event from the client.
func (s *Session) handleEvent(event *Event) {
	s.recvSeq.Store(event.Seq)
	s.eventCount.Add(1)

	node := vdom.FindByHID(s.currentTree, event.HID)
	raw := node.Handler(event.Type)
	if raw == nil {
		s.logger.Warn("handler not found", "hid", event.HID, "type", event.Type)
		event.discardFiles()
		s.sendError("E124", "Handler not found: "+event.HID+"_on"+event.Type)
		return
	}
	handler := WrapHandler(raw, s.logger)

	event.ctx = s.ctx
	c := &Ctx{std: s.ctx, session: s, event: event}
	err := chain(s.middleware, func() error {
		herr := s.safeExecute(handler, event)
		c.patches = s.flush(event)
		return herr
	}, c)
	if err != nil {
		s.logger.Debug("handler returned error", "hid", event.HID, "type", event.Type, "error", err)
	}
}

// safeExecute runs a handler with panic recovery.
func (s *Session) safeExecute(handler Handler, event *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			s.logger.Error("handler panic",
				"panic", r,
				"hid", event.HID,
				"type", event.Type,
				"stack", string(stack))

			err = NewHandlerError(s.id, event.HID, event.Type, r, stack)
			s.sendError("internal", "Internal error")
		}
	}()

	return handler(event)
}

// flush re-renders when the view is dirty, sends the patches and then the
// queued client events. It returns the number of patches sent. Value
// patches for the element origin came from are not sent; origin may be nil.
func (s *Session) flush(origin *Event) (sent int) {
	if s.dirty.Swap(false) && s.root != nil {
		sent = s.rerender(origin)
	}

	s.emitMu.Lock()
	emits := s.emits
	s.emits = nil
	s.emitMu.Unlock()

	for _, f := range emits {
		if err := s.writeFrame(f); err != nil {
			s.logger.Debug("emit dropped", "name", f.Name, "error", err)
		}
	}
	return sent
}

// rerender diffs a fresh tree against the current one and sends the
// patches. A render panic leaves the client out of sync, so it is told to
// reload.
func (s *Session) rerender(origin *Event) (sent int) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("render panic", "panic", r, "stack", string(debug.Stack()))
			_ = s.writeFrame(ServerFrame{Type: FrameReload})
			sent = 0
		}
	}()

	next := s.render()
	patches := vdom.Diff(s.currentTree, next)
	vdom.AssignMissingHIDs(next, s.hidGen)
	s.currentTree = next
	if origin != nil {
		patches = vdom.DropValueEcho(patches, origin.HID)
	}

	if len(patches) == 0 {
		return 0
	}
	if err := s.sendPatches(patches); err != nil {
		s.logger.Warn("send patches failed", "error", err)
		return 0
	}
	return len(patches)
}

// sendPatches encodes and sends a patches frame.
func (s *Session) sendPatches(patches []vdom.Patch) error {
	frames, err := encodePatches(s.renderer, patches)
	if err != nil {
		return err
	}
	seq := s.sendSeq.Add(1)
	if err := s.writeFrame(ServerFrame{Type: FramePatches, Seq: seq, Patches: frames}); err != nil {
		return err
	}
	s.patchCount.Add(uint64(len(patches)))
	if s.observer != nil {
		s.observer.PatchesSent(len(patches))
	}
	return nil
}

// sendError sends an error frame. Codes registered in internal/errors carry
// their registered message.
func (s *Session) sendError(code, message string) {
	if e := errors.New(code); e.Message != "Unknown error" {
		message = e.Message + ": " + message
	}
	if err := s.writeFrame(ServerFrame{Type: FrameError, Code: code, Message: message}); err != nil {
		s.logger.Debug("error frame dropped", "code", code, "error", err)
	}
}

// writeFrame marshals and writes one frame under the write lock.
func (s *Session) writeFrame(f ServerFrame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return NewSessionError(s.id, "encode", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrNoConnection
	}
	if s.closed.Load() {
		return ErrSessionClosed
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return NewSessionError(s.id, "write", err)
	}
	return nil
}

// QueueEvent queues an event for the event loop without blocking.
func (s *Session) QueueEvent(event *Event) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.events <- event:
		return nil
	default:
		return ErrEventQueueFull
	}
}

// touch records client activity.
func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// LastActive returns the time of the last client frame.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// IsClosed reports whether Close was called.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done returns a channel closed when the session closes.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close ends the session. The root component is disposed by the event loop
// on its way out, or right here when the session was never claimed.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	close(s.done)
	s.cancel()

	if !s.started.Load() {
		s.dispose()
	}

	s.mu.Lock()
	if s.conn != nil {
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		_ = s.conn.Close()
	}
	s.mu.Unlock()

	if s.started.Load() && s.observer != nil {
		s.observer.SessionClosed()
	}
	s.logger.Debug("session closed",
		"events", s.eventCount.Load(),
		"patches", s.patchCount.Load())
}

// dispose closes the root component and drops queued events.
func (s *Session) dispose() {
	s.disposeOnce.Do(func() {
	drain:
		for {
			select {
			case ev := <-s.events:
				ev.discardFiles()
			default:
				break drain
			}
		}
		if c, ok := s.root.(io.Closer); ok {
			if err := c.Close(); err != nil {
				s.logger.Warn("root component close failed", "error", err)
			}
		}
		if s.uploads != nil {
			if n := s.uploads.DiscardOwner(s.id); n > 0 {
				s.logger.Debug("discarded unclaimed uploads", "count", n)
			}
		}
	})
}

// Stats is a snapshot of session counters.
type Stats struct {
	ID         string
	CreatedAt  time.Time
	LastActive time.Time
	Events     uint64
	Patches    uint64
	HIDs       uint32
}

// Stats returns session statistics.
func (s *Session) Stats() Stats {
	return Stats{
		ID:         s.id,
		CreatedAt:  s.CreatedAt,
		LastActive: s.LastActive(),
		Events:     s.eventCount.Load(),
		Patches:    s.patchCount.Load(),
		HIDs:       s.hidGen.Current(),
	}
}
