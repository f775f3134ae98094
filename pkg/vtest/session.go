package vtest

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/auralens/auralens/pkg/server"
	"github.com/auralens/auralens/pkg/upload"
	"github.com/auralens/auralens/pkg/vdom"
)

// Emit is a client event recorded by a Harness.
type Emit struct {
	Name   string
	Detail any
}

// Harness mounts a root component and drives it with synthetic events.
// It implements server.Mount.
type Harness struct {
	tb     testing.TB
	id     string
	logger *slog.Logger

	root    vdom.Component
	tree    *vdom.VNode
	hids    *vdom.HIDGenerator
	dirty   bool
	patches []vdom.Patch
	emits   []Emit
	seq     uint64
	closed  bool
}

// HarnessOption configures a Harness.
type HarnessOption func(*Harness)

// WithLogger sets the logger handed to the component.
func WithLogger(l *slog.Logger) HarnessOption {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithSessionID sets the ID the component sees.
func WithSessionID(id string) HarnessOption {
	return func(h *Harness) { h.id = id }
}

// Mount builds the root component with factory and renders it. The root is
// closed when the test ends.
//
// Example:
//
//	h := vtest.Mount(t, landing.New(cfg, previews))
//	require.NoError(t, h.Click("header-start"))
//	assert.Len(t, h.TakeEmits(), 1)
func Mount(tb testing.TB, factory server.Factory, opts ...HarnessOption) *Harness {
	tb.Helper()
	h := &Harness{
		tb:     tb,
		id:     "test-session",
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		hids:   vdom.NewHIDGenerator(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.root = factory(h)
	h.tree = vdom.Expand(h.root.Render())
	vdom.AssignAllHIDs(h.tree, h.hids)
	h.dirty = false

	tb.Cleanup(func() { _ = h.Close() })
	return h
}

// ID implements server.Mount.
func (h *Harness) ID() string { return h.id }

// Emit implements server.Mount.
func (h *Harness) Emit(name string, detail any) {
	if h.closed {
		return
	}
	h.emits = append(h.emits, Emit{Name: name, Detail: detail})
}

// Invalidate implements server.Mount.
func (h *Harness) Invalidate() { h.dirty = true }

// Logger implements server.Mount.
func (h *Harness) Logger() *slog.Logger { return h.logger }

// Root returns the mounted component.
func (h *Harness) Root() vdom.Component { return h.root }

// Tree returns the last rendered tree.
func (h *Harness) Tree() *vdom.VNode { return h.tree }

// HTML renders the last tree.
func (h *Harness) HTML() string { return RenderToString(h.tree) }

// Find returns the element with the given id attribute, or nil.
func (h *Harness) Find(id string) *vdom.VNode {
	return vdom.FindByID(h.tree, id)
}

// Patches returns the patches of the last dispatch.
func (h *Harness) Patches() []vdom.Patch { return h.patches }

// TakeEmits returns the recorded client events and forgets them.
func (h *Harness) TakeEmits() []Emit {
	out := h.emits
	h.emits = nil
	return out
}

// Fire dispatches an event of type eventType to the element with the given
// id and returns the handler's error. The test fails when the element or
// its handler does not exist. e may be nil.
func (h *Harness) Fire(id, eventType string, e *server.Event) error {
	h.tb.Helper()

	node := h.Find(id)
	if node == nil {
		h.tb.Fatalf("vtest: no element #%s", id)
		return nil
	}
	raw := node.Handler(eventType)
	if raw == nil {
		h.tb.Fatalf("vtest: #%s has no %s handler", id, eventType)
		return nil
	}

	if e == nil {
		e = &server.Event{}
	}
	h.seq++
	e.Seq = h.seq
	e.HID = node.HID
	e.Type = eventType
	e.Time = time.Now()

	err := server.WrapHandler(raw, h.logger)(e)
	h.flush(node.HID)
	return err
}

// Click fires a click.
func (h *Harness) Click(id string) error {
	h.tb.Helper()
	return h.Fire(id, "click", nil)
}

// Input fires an input event carrying value.
func (h *Harness) Input(id, value string) error {
	h.tb.Helper()
	return h.Fire(id, "input", &server.Event{Value: value})
}

// Change fires a change event carrying files, as a file picker does.
func (h *Harness) Change(id string, files ...upload.Candidate) error {
	h.tb.Helper()
	return h.Fire(id, "change", &server.Event{Files: files})
}

// DragOver fires a dragover.
func (h *Harness) DragOver(id string) error {
	h.tb.Helper()
	return h.Fire(id, "dragover", nil)
}

// DragLeave fires a dragleave.
func (h *Harness) DragLeave(id string) error {
	h.tb.Helper()
	return h.Fire(id, "dragleave", nil)
}

// Drop fires a drop carrying files.
func (h *Harness) Drop(id string, files ...upload.Candidate) error {
	h.tb.Helper()
	return h.Fire(id, "drop", &server.Event{Files: files})
}

// flush re-renders an invalidated view and records the diff the way a live
// session sends it: without value echoes to the source element.
func (h *Harness) flush(source string) {
	h.patches = nil
	if !h.dirty || h.closed {
		return
	}
	h.dirty = false

	next := vdom.Expand(h.root.Render())
	patches := vdom.Diff(h.tree, next)
	vdom.AssignMissingHIDs(next, h.hids)
	h.tree = next
	h.patches = vdom.DropValueEcho(patches, source)
}

// Close closes the root component if it implements io.Closer. Later calls
// do nothing.
func (h *Harness) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if c, ok := h.root.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var _ server.Mount = (*Harness)(nil)
