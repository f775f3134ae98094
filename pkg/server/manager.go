package server

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// SessionManager tracks pending sessions (rendered, waiting for their
// socket) and live ones. Pending sessions that are never claimed are closed
// after SessionConfig.PendingTTL.
type SessionManager struct {
	pending map[string]*Session
	live    map[string]*Session
	mu      sync.RWMutex

	deps        sessionDeps
	maxSessions int

	cleanupInterval time.Duration
	done            chan struct{}
	cleanupDone     chan struct{}
	shutdownOnce    sync.Once

	totalCreated atomic.Uint64
	totalClosed  atomic.Uint64
	peakSessions int

	logger *slog.Logger
}

// NewSessionManager creates a SessionManager and starts its pending
// session janitor.
func NewSessionManager(config *SessionConfig, logger *slog.Logger) *SessionManager {
	return newSessionManager(sessionDeps{config: config, logger: logger}, 0, 15*time.Second)
}

func newSessionManager(deps sessionDeps, maxSessions int, cleanupInterval time.Duration) *SessionManager {
	if deps.config == nil {
		deps.config = DefaultSessionConfig()
	}
	if deps.logger == nil {
		deps.logger = slog.Default()
	}
	if cleanupInterval <= 0 {
		cleanupInterval = 15 * time.Second
	}

	sm := &SessionManager{
		pending:         make(map[string]*Session),
		live:            make(map[string]*Session),
		deps:            deps,
		maxSessions:     maxSessions,
		cleanupInterval: cleanupInterval,
		done:            make(chan struct{}),
		cleanupDone:     make(chan struct{}),
		logger:          deps.logger.With("component", "session_manager"),
	}
	go sm.cleanupLoop()
	return sm
}

// Create makes a new pending session.
func (sm *SessionManager) Create() (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	total := len(sm.pending) + len(sm.live)
	if sm.maxSessions > 0 && total >= sm.maxSessions {
		return nil, ErrMaxSessionsReached
	}

	s := newSession(sm.deps)
	sm.pending[s.ID()] = s
	sm.totalCreated.Add(1)
	if total+1 > sm.peakSessions {
		sm.peakSessions = total + 1
	}
	return s, nil
}

// Claim moves a pending session to the live set. Each session can be
// claimed once.
func (sm *SessionManager) Claim(id string) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if s, ok := sm.pending[id]; ok {
		delete(sm.pending, id)
		sm.live[id] = s
		return s, nil
	}
	if _, ok := sm.live[id]; ok {
		return nil, ErrSessionClaimed
	}
	return nil, ErrSessionNotFound
}

// Get returns a pending or live session, or nil.
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if s, ok := sm.live[id]; ok {
		return s
	}
	return sm.pending[id]
}

// Close removes and closes a session.
func (sm *SessionManager) Close(id string) {
	sm.mu.Lock()
	s := sm.removeLocked(id)
	sm.mu.Unlock()

	if s != nil {
		s.Close()
		sm.totalClosed.Add(1)
	}
}

func (sm *SessionManager) removeLocked(id string) *Session {
	if s, ok := sm.pending[id]; ok {
		delete(sm.pending, id)
		return s
	}
	if s, ok := sm.live[id]; ok {
		delete(sm.live, id)
		return s
	}
	return nil
}

// PendingCount returns the number of unclaimed sessions.
func (sm *SessionManager) PendingCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.pending)
}

// LiveCount returns the number of claimed sessions.
func (sm *SessionManager) LiveCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.live)
}

// cleanupLoop periodically closes expired pending sessions.
func (sm *SessionManager) cleanupLoop() {
	defer close(sm.cleanupDone)

	ticker := time.NewTicker(sm.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sm.cleanupExpired(time.Now())
		case <-sm.done:
			return
		}
	}
}

// cleanupExpired closes pending sessions older than the pending TTL.
func (sm *SessionManager) cleanupExpired(now time.Time) int {
	ttl := sm.deps.config.PendingTTL

	sm.mu.Lock()
	var expired []*Session
	for id, s := range sm.pending {
		if now.Sub(s.CreatedAt) > ttl {
			expired = append(expired, s)
			delete(sm.pending, id)
		}
	}
	remaining := len(sm.pending)
	sm.mu.Unlock()

	for _, s := range expired {
		s.Close()
		sm.totalClosed.Add(1)
	}
	if len(expired) > 0 {
		sm.logger.Info("closed expired pending sessions",
			"count", len(expired),
			"remaining", remaining)
	}
	return len(expired)
}

// Shutdown stops the janitor and closes every session. It returns early
// with ctx's error when ctx ends first.
func (sm *SessionManager) Shutdown(ctx context.Context) error {
	sm.shutdownOnce.Do(func() { close(sm.done) })
	<-sm.cleanupDone

	sm.mu.Lock()
	sessions := make([]*Session, 0, len(sm.pending)+len(sm.live))
	for _, s := range sm.pending {
		sessions = append(sessions, s)
	}
	for _, s := range sm.live {
		sessions = append(sessions, s)
	}
	sm.pending = make(map[string]*Session)
	sm.live = make(map[string]*Session)
	sm.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.Close()
			sm.totalClosed.Add(1)
		}(s)
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		sm.logger.Info("session manager shutdown", "closed_sessions", len(sessions))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ManagerStats is a snapshot of session manager counters.
type ManagerStats struct {
	Pending      int
	Live         int
	TotalCreated uint64
	TotalClosed  uint64
	Peak         int
}

// Stats returns aggregated session statistics.
func (sm *SessionManager) Stats() ManagerStats {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return ManagerStats{
		Pending:      len(sm.pending),
		Live:         len(sm.live),
		TotalCreated: sm.totalCreated.Load(),
		TotalClosed:  sm.totalClosed.Load(),
		Peak:         sm.peakSessions,
	}
}
