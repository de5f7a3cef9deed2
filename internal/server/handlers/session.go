package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lavilla/almacen/internal/service/auth"
)

const sessionContextKey = "almacen.session"

// SessionResolver maps a bearer token to its session.
type SessionResolver interface {
	Session(token string) auth.Session
}

// SessionMiddleware attaches the caller's session to the request. Requests
// without a valid token carry auth.Anonymous and are rejected by the services
// when they attempt a mutation.
func SessionMiddleware(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := auth.Anonymous
		if token := bearerToken(c.GetHeader("Authorization")); token != "" && resolver != nil {
			sess = resolver.Session(token)
		}
		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// CurrentSession returns the session attached by SessionMiddleware.
func CurrentSession(c *gin.Context) auth.Session {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return auth.Anonymous
	}
	sess, ok := v.(auth.Session)
	if !ok {
		return auth.Anonymous
	}
	return sess
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
