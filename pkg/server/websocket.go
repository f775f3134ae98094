package server

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/auralens/auralens/pkg/upload"
)

// Conn is the part of *websocket.Conn a session uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Serve attaches conn and runs the session until the socket or the session
// closes. The event loop runs on its own goroutine; the read loop runs on
// the caller's.
func (s *Session) Serve(conn Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.started.Store(true)

	if s.observer != nil {
		s.observer.SessionOpened()
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		s.EventLoop()
	}()

	s.ReadLoop()
	s.Close()
	<-loopDone
}

// ReadLoop reads frames until the connection fails or the session closes.
// It only decodes and queues; handlers run on the event loop.
func (s *Session) ReadLoop() {
	for {
		select {
		case <-s.done:
			return
		default:
		}

		_ = s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", "error", err)
			} else {
				s.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		s.touch()

		frame, err := DecodeClientFrame(data)
		if err != nil {
			s.logger.Warn("invalid client frame", "error", err, "size", len(data))
			s.sendError("E121", err.Error())
			continue
		}

		switch frame.Type {
		case FramePing:
			if err := s.writeFrame(ServerFrame{Type: FramePong}); err != nil {
				s.logger.Debug("pong failed", "error", err)
			}

		case FrameEvent:
			s.handleEventFrame(frame)

		default:
			s.logger.Warn("unknown frame type", "type", frame.Type)
			s.sendError("E121", "unknown frame type "+frame.Type)
		}
	}
}

// handleEventFrame converts an event frame and queues it.
func (s *Session) handleEventFrame(frame *ClientFrame) {
	event := &Event{
		Seq:     frame.Seq,
		HID:     frame.HID,
		Type:    frame.Event,
		Value:   frame.Value,
		Session: s,
		Time:    time.Now(),
	}
	for _, desc := range frame.Files {
		event.Files = append(event.Files, upload.NewPending(s.uploads, desc))
	}

	if err := s.QueueEvent(event); err != nil {
		event.discardFiles()
		if err == ErrEventQueueFull {
			s.logger.Warn("event queue full, dropping event", "hid", event.HID, "type", event.Type)
			s.sendError("E123", event.Type)
		}
	}
}

// EventLoop runs queued events, render requests from outside the loop and
// emitted client events until the session closes. It disposes the root
// component on exit.
func (s *Session) EventLoop() {
	defer s.dispose()

	// Anything emitted or invalidated before the socket was attached.
	s.flush(nil)

	for {
		select {
		case <-s.done:
			return

		case event := <-s.events:
			s.handleEvent(event)

		case <-s.renderCh:
			s.flush(nil)
		}
	}
}
