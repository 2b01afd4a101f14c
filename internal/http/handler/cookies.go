package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/conny0506/jira-lite/internal/config"
)

// RefreshCookieName carries the refresh secret between browser and /auth
// endpoints. HTTP-only and path-scoped so scripts and non-auth routes never
// see it.
const RefreshCookieName = "jid"

type CookieSettings struct {
	Secure   bool
	SameSite http.SameSite
	Domain   string
	MaxAge   time.Duration
}

// NewCookieSettings resolves cookie attributes: environment overrides win,
// otherwise production gets secure + SameSite=None (cross-site SPA), other
// environments get Lax over plain HTTP.
func NewCookieSettings(cfg *config.Config) CookieSettings {
	s := CookieSettings{
		Secure:   cfg.Production(),
		SameSite: http.SameSiteLaxMode,
		Domain:   cfg.Cookie.Domain,
		MaxAge:   cfg.Auth.RefreshTokenTTL(),
	}
	if cfg.Production() {
		s.SameSite = http.SameSiteNoneMode
	}
	switch strings.ToLower(cfg.Cookie.SameSite) {
	case "lax":
		s.SameSite = http.SameSiteLaxMode
	case "strict":
		s.SameSite = http.SameSiteStrictMode
	case "none":
		s.SameSite = http.SameSiteNoneMode
	}
	if cfg.Cookie.Secure != nil {
		s.Secure = *cfg.Cookie.Secure
	}
	return s
}

func (s CookieSettings) set(w http.ResponseWriter, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    refreshToken,
		Path:     "/auth",
		Domain:   s.Domain,
		MaxAge:   int(s.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: s.SameSite,
	})
}

func (s CookieSettings) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/auth",
		Domain:   s.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: s.SameSite,
	})
}
