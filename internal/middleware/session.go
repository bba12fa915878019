package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/trainease/booking-service/internal/service"
)

const (
	callerKey = "caller"
	tokenKey  = "session_token"
)

// SessionResolver turns a session token into the stored session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*service.Session, error)
}

// Session resolves the caller of every request. The token is read from the
// named cookie first and from an Authorization bearer header otherwise.
// Requests without a valid session continue anonymously; protected
// operations reject them further down. A failing session store aborts the
// request with 500.
func Session(resolver SessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c, cookieName)
		if token == "" {
			c.Next()
			return
		}

		c.Set(tokenKey, token)
		session, err := resolver.Resolve(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(callerKey, session.Caller())
		case !errors.Is(err, service.ErrUnauthenticated):
			slog.ErrorContext(c.Request.Context(), "failed to resolve session",
				"path", c.Request.URL.Path, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}

	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// CallerFromContext returns the resolved caller, or nil when the request is
// anonymous.
func CallerFromContext(c *gin.Context) *service.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(*service.Caller); ok {
			return caller
		}
	}
	return nil
}

// TokenFromContext returns the raw session token presented with the request,
// whether or not it resolved.
func TokenFromContext(c *gin.Context) string {
	return c.GetString(tokenKey)
}
