package server

import (
	"sync"
	"time"

	"resumelens/internal/config"
	"resumelens/internal/engine"
	"resumelens/internal/errors"
)

// SessionStore holds the active analysis sessions for the HTTP API. Sessions
// that see no activity for the configured TTL are evicted by a background
// cleanup goroutine.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*engine.Session

	ttl         time.Duration
	maxSessions int
	done        chan struct{}
	closeOnce   sync.Once
	logger      *errors.Logger
}

// NewSessionStore creates a session store and starts its cleanup goroutine.
func NewSessionStore(cfg config.SessionsConfig, logger *errors.Logger) *SessionStore {
	s := &SessionStore{
		sessions:    make(map[string]*engine.Session),
		ttl:         cfg.TTL,
		maxSessions: cfg.MaxSessions,
		done:        make(chan struct{}),
		logger:      logger,
	}

	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go s.cleanupRoutine(interval)
	return s
}

// Put stores a session, enforcing the configured session cap.
func (s *SessionStore) Put(sess *engine.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		return errors.NewConflictError(errors.ErrCodeSessionLimit,
			"session limit reached, try again later", nil).
			WithContext("max_sessions", s.maxSessions)
	}
	s.sessions[sess.ID()] = sess
	return nil
}

// Get retrieves a session by ID, returning a typed not-found error when the
// session does not exist or has been evicted.
func (s *SessionStore) Get(id string) (*engine.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeSessionNotFound,
			"session not found", nil).WithContext("session_id", id)
	}
	return sess, nil
}

// Delete removes a session by ID.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of active sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Stats returns store statistics for the stats endpoint.
func (s *SessionStore) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"active_sessions": len(s.sessions),
		"ttl":             s.ttl.String(),
		"max_sessions":    s.maxSessions,
	}
}

// cleanupRoutine periodically evicts idle sessions
func (s *SessionStore) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

// cleanup removes sessions whose last activity is older than the TTL.
// Sessions with an analysis in flight are skipped.
func (s *SessionStore) cleanup() {
	if s.ttl <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	evicted := 0
	for id, sess := range s.sessions {
		if sess.Analyzing() {
			continue
		}
		if now.Sub(sess.LastActivity()) > s.ttl {
			delete(s.sessions, id)
			evicted++
		}
	}

	if evicted > 0 && s.logger != nil {
		s.logger.Debug("Session cleanup completed",
			"evicted", evicted,
			"remaining_sessions", len(s.sessions))
	}
}

// Close stops the cleanup goroutine. Should be called when shutting down the server.
func (s *SessionStore) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
