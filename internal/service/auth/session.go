package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the explicit authorization context passed to every mutation.
// The zero value is an anonymous viewer.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Anonymous is the session of a viewer that never logged in.
var Anonymous = Session{}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionManager tracks issued sessions by token.
type SessionManager struct {
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
}

// NewSessionManager creates a manager issuing sessions valid for ttl.
// A non-positive ttl means sessions never expire.
func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Issue creates and stores a new admin session for username. Sessions that
// expired without being looked up again are dropped at the same time.
func (sm *SessionManager) Issue(username string) Session {
	now := sm.now()
	sess := Session{
		Token:    uuid.NewString(),
		Username: username,
		IsAdmin:  true,
	}
	if sm.ttl > 0 {
		sess.ExpiresAt = now.Add(sm.ttl).UTC()
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	for token, existing := range sm.sessions {
		if existing.Expired(now) {
			delete(sm.sessions, token)
		}
	}
	sm.sessions[sess.Token] = sess
	return sess
}

// Lookup returns the live session for token. Expired sessions are dropped.
func (sm *SessionManager) Lookup(token string) (Session, bool) {
	if token == "" {
		return Anonymous, false
	}

	sm.mu.RLock()
	sess, exists := sm.sessions[token]
	sm.mu.RUnlock()
	if !exists {
		return Anonymous, false
	}

	if sess.Expired(sm.now()) {
		sm.Revoke(token)
		return Anonymous, false
	}
	return sess, true
}

// Revoke removes a session.
func (sm *SessionManager) Revoke(token string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, token)
}

// Len returns the number of stored sessions.
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}
