// Package middleware provides HTTP middleware for the booking service.
package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// CSRFConfig holds configuration for CSRF protection middleware.
type CSRFConfig struct {
	// AllowedOrigins should match the CORS allowed origins.
	AllowedOrigins []string
	// SessionCookie is the cookie that authenticates browser requests. Only
	// requests carrying it are checked; bearer-token clients are not exposed
	// to cross-site forgery.
	SessionCookie string
}

// CSRF returns middleware that validates Origin/Referer headers of
// state-changing requests authenticated by the session cookie.
func CSRF(config CSRFConfig) gin.HandlerFunc {
	allowedSet := make(map[string]bool, len(config.AllowedOrigins))
	for _, origin := range config.AllowedOrigins {
		allowedSet[normalizeOrigin(origin)] = true
	}

	return func(c *gin.Context) {
		method := c.Request.Method
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			c.Next()
			return
		}
		if config.SessionCookie != "" {
			if _, err := c.Cookie(config.SessionCookie); err != nil {
				c.Next()
				return
			}
		}

		if origin := c.GetHeader("Origin"); origin != "" {
			if !allowedSet[normalizeOrigin(origin)] {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "CSRF validation failed: invalid origin",
				})
				return
			}
			c.Next()
			return
		}

		if referer := c.GetHeader("Referer"); referer != "" {
			if !allowedSet[normalizeOrigin(extractOrigin(referer))] {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "CSRF validation failed: invalid referer",
				})
				return
			}
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "CSRF validation failed: missing origin",
		})
	}
}

func normalizeOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(origin), "/")
}

// extractOrigin returns scheme://host[:port] of a URL, or "" when the URL
// has no scheme or host.
func extractOrigin(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
