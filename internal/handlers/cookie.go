package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session_token"

// CookieConfig holds the attributes of the session cookie.
type CookieConfig struct {
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// CookieHelper manages the session cookie.
type CookieHelper struct {
	config CookieConfig
}

// NewCookieHelper creates a new cookie helper with the given configuration.
func NewCookieHelper(config CookieConfig) *CookieHelper {
	if config.Path == "" {
		config.Path = "/"
	}
	return &CookieHelper{config: config}
}

// SetSessionCookie stores the session token for the given lifetime.
func (h *CookieHelper) SetSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	h.setCookie(c, token, int(ttl.Seconds()))
}

// ClearSessionCookie removes the session cookie.
func (h *CookieHelper) ClearSessionCookie(c *gin.Context) {
	h.setCookie(c, "", -1)
}

func (h *CookieHelper) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(h.config.SameSite)
	c.SetCookie(
		SessionCookie,
		value,
		maxAge,
		h.config.Path,
		h.config.Domain,
		h.config.Secure,
		true, // httpOnly
	)
}
