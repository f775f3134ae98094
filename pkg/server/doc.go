// Package server provides the live session runtime behind the Auralens
// landing page.
//
// The page is rendered on the server. A thin client script forwards DOM
// events over a WebSocket as JSON frames; the server runs the bound Go
// handler, re-renders the component, diffs the result against the previous
// tree and answers with DOM patches.
//
// # Architecture
//
//   - Server: chi router with the page, live socket, upload, preview,
//     client script, health and metrics routes
//   - SessionManager: pending and live sessions, pending expiry, shutdown
//   - Session: one mounted root component, its current tree and the
//     per-connection loops
//   - Middleware: wraps every event dispatch (metrics, tracing)
//
// # Session Lifecycle
//
//  1. GET / creates a Session, renders the root component to HTML and
//     parks the session as pending.
//  2. The client script connects to /_live?sid=<id> and claims it.
//  3. ReadLoop decodes frames and queues events. EventLoop runs handlers,
//     renders and sends patches and flushes emitted client events.
//  4. When the socket closes the session is closed and the root component
//     disposed. Pending sessions that are never claimed expire.
//
// # Example Usage
//
//	srv := server.New(server.DefaultServerConfig(), func(m server.Mount) vdom.Component {
//	    return landing.New(m, content)
//	})
//	srv.Run()
//
// # Thread Safety
//
// Handlers and renders of one session only run on its event loop, so
// components need no locking. Session.mu serializes socket writes and
// SessionManager guards its maps with an RWMutex.
package server
