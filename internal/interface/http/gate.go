package http

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// PARENT GATE SESSIONS
// A successful PIN verification mints a short-lived token so the dashboard
// can be read without re-sending the PIN on every request. Tokens are
// per-learner and expire server-side; losing them on restart only means
// the parent types the PIN again.
// ══════════════════════════════════════════════════════════════════════════════

type gateSession struct {
	learnerID string
	expiresAt time.Time
}

type gateSessions struct {
	mu       sync.Mutex
	sessions map[string]gateSession
	ttl      time.Duration
}

func newGateSessions(ttl time.Duration) *gateSessions {
	return &gateSessions{
		sessions: make(map[string]gateSession),
		ttl:      ttl,
	}
}

// Mint creates a new session token for the learner's gate.
func (g *gateSessions) Mint(learnerID string) (token string, expiresAt time.Time) {
	token = uuid.NewString()
	expiresAt = time.Now().Add(g.ttl)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.sweepLocked()
	g.sessions[token] = gateSession{learnerID: learnerID, expiresAt: expiresAt}
	return token, expiresAt
}

// Valid reports whether the token is a live session for this learner.
func (g *gateSessions) Valid(token, learnerID string) bool {
	if token == "" {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	sess, ok := g.sessions[token]
	if !ok {
		return false
	}
	if time.Now().After(sess.expiresAt) {
		delete(g.sessions, token)
		return false
	}
	return sess.learnerID == learnerID
}

// sweepLocked drops expired sessions. Caller holds the mutex.
func (g *gateSessions) sweepLocked() {
	now := time.Now()
	for token, sess := range g.sessions {
		if now.After(sess.expiresAt) {
			delete(g.sessions, token)
		}
	}
}
