// Package auth holds the role model and the admin gate: a single shared
// passphrase that unlocks destructive and management actions for the
// admin role.
package auth

import (
	"sync"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/util"

	"github.com/google/uuid"
)

// Gate validates the shared admin passphrase and tracks issued session
// tokens. Tokens are process-local; the shop runs one server.
type Gate struct {
	passphrase string
	ttl        time.Duration

	mu       sync.Mutex
	sessions map[string]time.Time
}

// NewGate creates a gate with the configured passphrase and session TTL.
func NewGate(passphrase string, ttl time.Duration) *Gate {
	return &Gate{
		passphrase: passphrase,
		ttl:        ttl,
		sessions:   map[string]time.Time{},
	}
}

// Authenticate checks the passphrase and, on success, issues a session
// token valid for the configured TTL.
func (g *Gate) Authenticate(passphrase string) (string, error) {
	if passphrase != g.passphrase {
		util.AdminLoginsTotal.WithLabelValues("rejected").Inc()
		return "", &models.ValidationError{Field: "passphrase", Reason: "invalid passphrase"}
	}

	token := uuid.New().String()
	g.mu.Lock()
	g.sessions[token] = time.Now().Add(g.ttl)
	g.mu.Unlock()

	util.AdminLoginsTotal.WithLabelValues("accepted").Inc()
	return token, nil
}

// Check reports whether a token is a live admin session. Expired tokens
// are pruned as they are seen.
func (g *Gate) Check(token string) bool {
	if token == "" {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	expiry, ok := g.sessions[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(g.sessions, token)
		return false
	}
	return true
}

// Logout invalidates a session token.
func (g *Gate) Logout(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, token)
}
