// Package vtest provides testing helpers for live components.
//
// A Harness mounts a root component the way a live session does, but runs
// everything synchronously on the test goroutine: synthetic events go
// straight to the bound handler, and an invalidated view is re-rendered and
// diffed before the call returns.
//
// # Quick Start
//
//	func TestWidgetShowsFileName(t *testing.T) {
//	    h := vtest.Mount(t, func(m server.Mount) vdom.Component {
//	        return uploader.NewWidget(uploader.New(previews))
//	    })
//	    require.NoError(t, h.Drop("upload-zone", vtest.Image("cat.png")))
//	    vtest.ExpectContains(t, h.Tree(), "cat.png")
//	}
//
// # Events
//
// Fire dispatches any event type to the element with the given id.
// Click, Input, Change, DragOver, DragLeave and Drop are shorthands.
//
// # Render Assertions
//
// Assert on rendered HTML output:
//
//	vtest.ExpectContains(t, h.Tree(), "Jetzt starten")
//	vtest.ExpectNotContains(t, h.Tree(), "upload-preview")
//	vtest.ExpectAttribute(t, h.Tree(), "data-drag-active", "true")
//
// # Client Events
//
// Emits made through the Mount are recorded and can be taken with
// TakeEmits, e.g. to assert on toasts.
package vtest
