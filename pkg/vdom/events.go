package vdom

// event creates an EventHandler with the given name and handler.
// The name is prefixed with "on" (e.g., "click" becomes "onclick").
func event(name string, handler any) EventHandler {
	return EventHandler{Event: "on" + name, Handler: handler}
}

// OnClick handles click events.
func OnClick(handler any) EventHandler { return event("click", handler) }

// OnInput handles input events (fired when value changes).
func OnInput(handler any) EventHandler { return event("input", handler) }

// OnChange handles change events (fired when value is committed).
func OnChange(handler any) EventHandler { return event("change", handler) }

// OnSubmit handles form submit events.
func OnSubmit(handler any) EventHandler { return event("submit", handler) }

// Drag events

// OnDragEnter handles dragenter events.
func OnDragEnter(handler any) EventHandler { return event("dragenter", handler) }

// OnDragOver handles dragover events.
func OnDragOver(handler any) EventHandler { return event("dragover", handler) }

// OnDragLeave handles dragleave events.
func OnDragLeave(handler any) EventHandler { return event("dragleave", handler) }

// OnDrop handles drop events.
func OnDrop(handler any) EventHandler { return event("drop", handler) }

// ModifiedHandler wraps a handler with modifier flags.
// The browser needs to cancel default actions synchronously, so the flags
// are rendered as data-prevent-*/data-stop-* markers the client reads before
// the event is forwarded.
type ModifiedHandler struct {
	Handler any

	PreventDefault  bool // Prevent default browser behavior
	StopPropagation bool // Stop event bubbling
}

// Unwrap returns the innermost handler, unwrapping any nested ModifiedHandlers.
func (m ModifiedHandler) Unwrap() any {
	if inner, ok := m.Handler.(ModifiedHandler); ok {
		return inner.Unwrap()
	}
	return m.Handler
}

// PreventDefault wraps a handler to prevent the default browser behavior.
//
// Example:
//
//	OnDrop(vdom.PreventDefault(func(e *server.Event) {
//	    // The browser will not open the dropped file
//	}))
func PreventDefault(handler any) ModifiedHandler {
	if mh, ok := handler.(ModifiedHandler); ok {
		mh.PreventDefault = true
		return mh
	}
	return ModifiedHandler{Handler: handler, PreventDefault: true}
}

// StopPropagation wraps a handler to stop event bubbling.
func StopPropagation(handler any) ModifiedHandler {
	if mh, ok := handler.(ModifiedHandler); ok {
		mh.StopPropagation = true
		return mh
	}
	return ModifiedHandler{Handler: handler, StopPropagation: true}
}

// Unwrap returns the innermost function of a handler value that may be wrapped.
func Unwrap(handler any) any {
	if mh, ok := handler.(ModifiedHandler); ok {
		return mh.Unwrap()
	}
	return handler
}
