package server

import (
	"errors"
	"fmt"
)

var (
	ErrSessionClosed      = errors.New("server: session closed")
	ErrSessionNotFound    = errors.New("server: unknown session")
	ErrSessionClaimed     = errors.New("server: session already claimed")
	ErrEventQueueFull     = errors.New("server: event queue full")
	ErrMaxSessionsReached = errors.New("server: session limit reached")

	// ErrNoConnection is returned for writes to a session that was never
	// claimed by a socket.
	ErrNoConnection = errors.New("server: session has no socket")
)

// SessionError is a failed frame operation ("encode", "write") of a
// session.
type SessionError struct {
	SessionID string
	Op        string
	Err       error
}

func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return "server: " + e.Op + ": " + e.Err.Error()
	}
	return fmt.Sprintf("server: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// NewSessionError wraps err as a failed op of session sessionID.
func NewSessionError(sessionID, op string, err error) *SessionError {
	return &SessionError{SessionID: sessionID, Op: op, Err: err}
}

// HandlerError is a recovered panic of an event handler. The session keeps
// running after it.
type HandlerError struct {
	SessionID string
	HID       string
	EventType string
	Panic     any
	Stack     []byte
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("server: %s handler on %s panicked (session %s): %v",
		e.EventType, e.HID, e.SessionID, e.Panic)
}

// Unwrap returns the panic value when it was an error.
func (e *HandlerError) Unwrap() error {
	err, _ := e.Panic.(error)
	return err
}

// NewHandlerError records a handler panic.
func NewHandlerError(sessionID, hid, eventType string, panicVal any, stack []byte) *HandlerError {
	return &HandlerError{
		SessionID: sessionID,
		HID:       hid,
		EventType: eventType,
		Panic:     panicVal,
		Stack:     stack,
	}
}
