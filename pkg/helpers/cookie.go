package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Manager writes the refresh-token cookie. The cookie is http-only so
// scripts cannot read it, and its max-age follows the stored record.
type Manager struct {
	Name   string
	Domain string
	Secure bool
}

func NewCookie(name, domain string, secure bool) *Manager {
	if name == "" {
		name = "refresh_token"
	}
	return &Manager{Name: name, Domain: domain, Secure: secure}
}

func (m *Manager) SetRefresh(c *gin.Context, refresh string, exp time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.Name, refresh, maxAgeFrom(exp), "/", m.Domain, m.Secure, true)
}

func (m *Manager) ClearRefresh(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.Name, "", -1, "/", m.Domain, m.Secure, true)
}

// Refresh returns the presented refresh cookie, empty when absent.
func (m *Manager) Refresh(c *gin.Context) string {
	v, err := c.Cookie(m.Name)
	if err != nil {
		return ""
	}
	return v
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Seconds())
	if sec < 0 {
		return 0
	}
	return sec
}
