package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lavilla/almacen/internal/config"
	"github.com/lavilla/almacen/internal/domain/models"
)

// Gate checks the operator credentials and hands out admin sessions.
type Gate struct {
	username     string
	password     string
	passwordHash []byte
	sessions     *SessionManager
	logger       *zap.Logger
}

// NewGate wires a gate for the single configured administrator.
func NewGate(cfg config.AdminConfig, sessions *SessionManager, logger *zap.Logger) (*Gate, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessions == nil {
		sessions = NewSessionManager(cfg.SessionTTL)
	}
	if cfg.Username == "" {
		return nil, errors.New("admin username must not be empty")
	}
	if cfg.Password == "" && cfg.PasswordHash == "" {
		return nil, errors.New("admin password or password hash must be provided")
	}

	g := &Gate{
		username: cfg.Username,
		password: cfg.Password,
		sessions: sessions,
		logger:   logger,
	}
	if cfg.PasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
			return nil, fmt.Errorf("invalid admin password hash: %w", err)
		}
		g.passwordHash = []byte(cfg.PasswordHash)
	}
	return g, nil
}

// Authenticate validates the credentials and returns a fresh admin session.
// Rejected credentials yield ErrAuth and leave existing sessions untouched.
func (g *Gate) Authenticate(username, password string) (Session, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1

	var passOK bool
	if g.passwordHash != nil {
		passOK = bcrypt.CompareHashAndPassword(g.passwordHash, []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
	}

	if !userOK || !passOK {
		g.logger.Warn("admin login rejected", zap.String("username", username))
		return Anonymous, models.ErrAuth
	}

	sess := g.sessions.Issue(username)
	g.logger.Info("admin login accepted", zap.String("username", username), zap.Time("expires_at", sess.ExpiresAt))
	return sess, nil
}

// Session resolves a bearer token into its session. Unknown tokens map to Anonymous.
func (g *Gate) Session(token string) Session {
	sess, _ := g.sessions.Lookup(token)
	return sess
}

// Logout revokes the session behind token.
func (g *Gate) Logout(token string) {
	g.sessions.Revoke(token)
}

// RequireAdmin returns ErrUnauthorized unless sess is a live admin session.
func RequireAdmin(sess Session) error {
	if !sess.IsAdmin || sess.Expired(time.Now()) {
		return models.ErrUnauthorized
	}
	return nil
}
