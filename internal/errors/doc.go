// Package errors provides coded, structured errors for Auralens.
//
// Every error condition that reaches a user or an operator has a registered
// code (e.g. "E200") with a category, a short message and a longer detail.
// Codes are grouped by range:
//
//	E100-E119  configuration
//	E120-E139  server and transport
//	E200-E219  upload widget
//
// Use New to create an error from a code and the With* methods to attach
// context:
//
//	return errors.New("E200").
//	    WithDetail("got text/plain for notes.txt").
//	    WithSuggestion("Choose a PNG, JPEG, GIF or WebP image")
//
// Errors compare equal under errors.Is when their codes match, so callers
// can test for a condition without holding the original value:
//
//	if errors.Is(err, errors.New("E200")) { ... }
//
// Format renders an error for terminal output with colors, which the CLI
// uses for fatal startup errors.
package errors
