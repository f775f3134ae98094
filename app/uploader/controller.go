// Package uploader implements the image upload widget: drag-and-drop and
// file-picker selection, image type validation, the preview reference
// lifecycle and the free-text editing prompt.
//
// A Controller is owned by one live session and is only touched from that
// session's event loop, so it does no locking of its own.
package uploader

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/auralens/auralens/internal/errors"
	"github.com/auralens/auralens/pkg/preview"
	"github.com/auralens/auralens/pkg/toast"
	"github.com/auralens/auralens/pkg/upload"
)

// Messages shown by Submit and by the rejection toasts.
const (
	MsgUploadFirst    = "Lade ein Bild hoch, um zu starten."
	MsgReadyFormat    = "„%s“ ist bereit zur Bearbeitung mit Wunsch: \"%s\""
	PromptPlaceholder = "—"

	MsgRejectedType = "„%s“ ist kein Bild. Bitte wähle eine Bilddatei (PNG, JPG, WebP, …)."
	MsgEmptyDrop    = "Keine Datei erkannt. Ziehe ein Bild in das Feld."
	MsgUnreadable   = "„%s“ konnte nicht gelesen werden oder ist zu groß."
)

// PreviewRef is a revocable handle a display element can load the selected
// image from.
type PreviewRef interface {
	URL() string
	Release() error
}

// Previewer creates preview references.
type Previewer interface {
	CreatePreview(name, mediaType string, data []byte) PreviewRef
}

// PreviewerFunc adapts a function to Previewer.
type PreviewerFunc func(name, mediaType string, data []byte) PreviewRef

// CreatePreview calls f.
func (f PreviewerFunc) CreatePreview(name, mediaType string, data []byte) PreviewRef {
	return f(name, mediaType, data)
}

// FromRegistry serves previews from a preview.Registry.
func FromRegistry(reg *preview.Registry) Previewer {
	return PreviewerFunc(func(name, mediaType string, data []byte) PreviewRef {
		return reg.Create(name, mediaType, data)
	})
}

// Observer is told about accepted and rejected selections.
type Observer interface {
	FileAccepted(mediaType string)
	FileRejected(reason string)
}

// State is the widget's upload state.
type State struct {
	// SelectedFile is the accepted candidate, nil until the first
	// successful selection.
	SelectedFile upload.Candidate

	// Preview is non-nil exactly when SelectedFile is.
	Preview PreviewRef

	// PromptText is the free-text editing wish.
	PromptText string

	// DragActive is true while a file drag hovers the drop zone.
	DragActive bool
}

// Event is a host event that carries files and a suppressible default
// action.
type Event struct {
	Files []upload.Candidate

	defaultPrevented bool
}

// PreventDefault marks the browser's default action as suppressed.
func (e *Event) PreventDefault() {
	if e != nil {
		e.defaultPrevented = true
	}
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool {
	return e != nil && e.defaultPrevented
}

func (e *Event) files() []upload.Candidate {
	if e == nil {
		return nil
	}
	return e.Files
}

// Controller owns the upload state machine.
type Controller struct {
	previews Previewer
	emitter  toast.Emitter
	observer Observer
	logger   *slog.Logger

	state     State
	listeners map[int]func()
	nextID    int
	closed    bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithEmitter sets where toasts are sent.
func WithEmitter(e toast.Emitter) Option {
	return func(c *Controller) { c.emitter = e }
}

// WithObserver sets the selection observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Controller with empty state.
func New(previews Previewer, opts ...Option) *Controller {
	c := &Controller{
		previews:  previews,
		logger:    slog.Default(),
		listeners: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	return c.state
}

// OnChange registers fn to run after every state change and returns a
// function that removes it.
func (c *Controller) OnChange(fn func()) (unsubscribe func()) {
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() { delete(c.listeners, id) }
}

func (c *Controller) notify() {
	for _, fn := range c.listeners {
		fn()
	}
}

// AcceptFiles considers the first candidate of a selection. Non-image
// candidates, unreadable ones and empty selections leave the state
// unchanged and return a coded error (E200, E203, E201), and a closed
// controller refuses everything with E204. On success the
// previous preview is released before the new one is created.
//
// Every candidate that does not become the selected file is discarded.
func (c *Controller) AcceptFiles(candidates []upload.Candidate) error {
	if c.closed {
		c.discard(candidates)
		return errors.New("E204")
	}
	if len(candidates) == 0 {
		return errors.New("E201")
	}

	first := candidates[0]
	c.discard(candidates[1:])

	if !isImage(first.MediaType()) {
		c.reject(first, "type")
		return errors.New("E200").
			WithDetail(fmt.Sprintf("%q declares media type %q", first.Name(), first.MediaType()))
	}

	data, err := first.Bytes()
	if err != nil {
		c.reject(first, "unreadable")
		return errors.New("E203").Wrap(err)
	}

	c.releasePreview()
	if old := c.state.SelectedFile; old != nil {
		c.discardOne(old)
	}

	c.state.SelectedFile = first
	c.state.Preview = c.previews.CreatePreview(first.Name(), first.MediaType(), data)

	if c.observer != nil {
		c.observer.FileAccepted(first.MediaType())
	}
	c.logger.Debug("file accepted", "name", first.Name(), "media_type", first.MediaType(), "size", len(data))
	c.notify()
	return nil
}

// HandleDrop suppresses the browser's default, ends the drag and forwards
// the dropped files to AcceptFiles. Failures are shown as a warning toast.
func (c *Controller) HandleDrop(e *Event) error {
	e.PreventDefault()

	wasActive := c.state.DragActive
	c.state.DragActive = false

	err := c.AcceptFiles(e.files())
	if err != nil {
		if wasActive {
			c.notify()
		}
		c.surface(err, e.files(), true)
	}
	return err
}

// HandleDragOver suppresses the browser's default and marks the drag as
// active. Repeated calls are no-ops.
func (c *Controller) HandleDragOver(e *Event) {
	e.PreventDefault()
	if c.state.DragActive || c.closed {
		return
	}
	c.state.DragActive = true
	c.notify()
}

// HandleDragLeave suppresses the browser's default and ends the drag.
func (c *Controller) HandleDragLeave(e *Event) {
	e.PreventDefault()
	if !c.state.DragActive {
		return
	}
	c.state.DragActive = false
	c.notify()
}

// HandlePickerChange forwards the file picker's selection to AcceptFiles.
// An empty change means the dialog was cancelled and stays silent.
func (c *Controller) HandlePickerChange(e *Event) error {
	err := c.AcceptFiles(e.files())
	if err != nil {
		c.surface(err, e.files(), false)
	}
	return err
}

// SetPromptText replaces the prompt.
func (c *Controller) SetPromptText(text string) {
	if c.state.PromptText == text {
		return
	}
	c.state.PromptText = text
	c.notify()
}

// Submit shows and returns the summary message. This is where a request
// to an editing service would be issued.
func (c *Controller) Submit() string {
	msg := SubmitMessage(c.state)
	if c.state.SelectedFile != nil {
		c.logger.Info("edit requested",
			"name", c.state.SelectedFile.Name(),
			"prompt_length", len([]rune(c.state.PromptText)))
	}
	toast.Info(c.emitter, msg)
	return msg
}

// SubmitMessage returns the message Submit shows for state s.
func SubmitMessage(s State) string {
	if s.SelectedFile == nil {
		return MsgUploadFirst
	}
	prompt := s.PromptText
	if prompt == "" {
		prompt = PromptPlaceholder
	}
	return fmt.Sprintf(MsgReadyFormat, s.SelectedFile.Name(), prompt)
}

// Close tears the widget down: the live preview is released and the state
// discarded. Later calls do nothing.
func (c *Controller) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	c.releasePreview()
	if c.state.SelectedFile != nil {
		c.discardOne(c.state.SelectedFile)
	}
	c.state = State{}
	c.listeners = make(map[int]func())
	return nil
}

func (c *Controller) releasePreview() {
	if c.state.Preview == nil {
		return
	}
	if err := c.state.Preview.Release(); err != nil {
		c.logger.Error("preview release failed", "error", err)
	}
	c.state.Preview = nil
}

func (c *Controller) reject(cand upload.Candidate, reason string) {
	c.discardOne(cand)
	if c.observer != nil {
		c.observer.FileRejected(reason)
	}
	c.logger.Debug("file rejected", "name", cand.Name(), "media_type", cand.MediaType(), "reason", reason)
}

func (c *Controller) discard(cands []upload.Candidate) {
	for _, cand := range cands {
		c.discardOne(cand)
	}
}

func (c *Controller) discardOne(cand upload.Candidate) {
	if err := upload.Discard(cand); err != nil {
		c.logger.Warn("discard failed", "name", cand.Name(), "error", err)
	}
}

// surface turns an AcceptFiles error into a toast.
func (c *Controller) surface(err error, files []upload.Candidate, fromDrop bool) {
	name := ""
	if len(files) > 0 {
		name = files[0].Name()
	}

	switch errors.Code(err) {
	case "E200":
		toast.Warning(c.emitter, fmt.Sprintf(MsgRejectedType, name))
	case "E203":
		toast.Warning(c.emitter, fmt.Sprintf(MsgUnreadable, name))
	case "E201":
		if fromDrop {
			toast.Warning(c.emitter, MsgEmptyDrop)
		}
	}
}

// isImage reports whether a declared media type is in the image category.
func isImage(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}
