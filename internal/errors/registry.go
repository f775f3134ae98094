package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be read or is not valid JSON.",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		Detail:   "A configuration value is out of range or malformed.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "An AURALENS_* environment variable could not be parsed.",
	},

	// ============================================
	// Server Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryServer,
		Message:  "Server failed to start",
		Detail:   "The HTTP listener could not be opened.",
	},
	"E121": {
		Category: CategoryProtocol,
		Message:  "Invalid client frame",
		Detail:   "A WebSocket frame from the client could not be decoded.",
	},
	"E122": {
		Category: CategoryServer,
		Message:  "Session not found",
		Detail:   "The session ID is invalid or the pending session has expired.",
	},
	"E123": {
		Category: CategoryServer,
		Message:  "Event queue full",
		Detail:   "The client sent events faster than the session could process them.",
	},
	"E124": {
		Category: CategoryServer,
		Message:  "Handler not found",
		Detail:   "No handler is bound to the event target. The view may have re-rendered.",
	},
	"E125": {
		Category: CategoryServer,
		Message:  "Telemetry setup failed",
		Detail:   "The OpenTelemetry exporter or tracer provider could not be created.",
	},

	// ============================================
	// Upload Widget Errors (E200-E219)
	// ============================================

	"E200": {
		Category: CategoryValidation,
		Message:  "Rejected file type",
		Detail:   "The selected file does not declare an image media type.",
	},
	"E201": {
		Category: CategoryValidation,
		Message:  "Empty selection",
		Detail:   "The drop or picker change did not contain any file.",
	},
	"E202": {
		Category: CategoryResource,
		Message:  "Preview already released",
		Detail:   "A preview reference was released twice.",
	},
	"E203": {
		Category: CategoryValidation,
		Message:  "Unreadable file",
		Detail:   "The selected file could not be read or exceeds the size limit.",
	},
	"E204": {
		Category: CategoryResource,
		Message:  "Upload widget closed",
		Detail:   "The view owning the upload state has been torn down.",
	},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for a code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
