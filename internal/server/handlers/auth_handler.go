package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lavilla/almacen/internal/service/auth"
)

// Authenticator issues and revokes admin sessions.
type Authenticator interface {
	Authenticate(username, password string) (auth.Session, error)
	Logout(token string)
}

// AuthHandler exposes login and logout.
type AuthHandler struct {
	gate   Authenticator
	logger *zap.Logger
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	Username  string     `json:"username"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// NewAuthHandler constructs the HTTP handler adapter.
func NewAuthHandler(gate Authenticator, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{gate: gate, logger: logger}
}

// Login exchanges the admin credentials for a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess, err := h.gate.Authenticate(req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, "login failed", err)
		return
	}

	resp := loginResponse{Token: sess.Token, Username: sess.Username}
	if !sess.ExpiresAt.IsZero() {
		resp.ExpiresAt = &sess.ExpiresAt
	}
	c.JSON(http.StatusOK, resp)
}

// Logout revokes the caller's token. It succeeds even without one.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := bearerToken(c.GetHeader("Authorization")); token != "" {
		h.gate.Logout(token)
	}
	c.Status(http.StatusNoContent)
}
