// Package toast shows short notifications in the browser.
//
// Toasts ride on the generic emit frame of the live connection instead of a
// protocol message of their own. The embedded client turns the frame into a
// CustomEvent on window and renders it:
//
//	window.addEventListener("auralens:toast", (e) => {
//	    const { level, message } = e.detail;
//	    …
//	});
package toast

// EventName is the event name dispatched for toasts.
const EventName = "auralens:toast"

// Emitter sends a named client event with a JSON-encodable detail.
// Live sessions implement it.
type Emitter interface {
	Emit(name string, detail any)
}

// Type represents the toast notification type.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Show displays a toast notification to the user.
//
// The client receives a CustomEvent with:
//   - event.type = "auralens:toast"
//   - event.detail = { level: "success|error|warning|info", message: "..." }
func Show(e Emitter, level Type, message string) {
	if e == nil {
		return
	}
	e.Emit(EventName, map[string]any{
		"level":   string(level),
		"message": message,
	})
}

// Success shows a success toast.
func Success(e Emitter, message string) { Show(e, TypeSuccess, message) }

// Error shows an error toast.
func Error(e Emitter, message string) { Show(e, TypeError, message) }

// Warning shows a warning toast.
//
//	toast.Warning(sess, "Bitte wähle eine Bilddatei.")
func Warning(e Emitter, message string) { Show(e, TypeWarning, message) }

// Info shows an info toast.
func Info(e Emitter, message string) { Show(e, TypeInfo, message) }
