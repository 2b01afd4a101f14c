package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/conny0506/jira-lite/internal/config"
)

func boolPtr(b bool) *bool { return &b }

func TestNewCookieSettingsDefaults(t *testing.T) {
	cfg := &config.Config{Env: "local"}
	cfg.Auth.RefreshTokenTTLDays = 14

	s := NewCookieSettings(cfg)
	if s.Secure {
		t.Fatal("local env must not force secure cookies")
	}
	if s.SameSite != http.SameSiteLaxMode {
		t.Fatalf("samesite = %v, want Lax", s.SameSite)
	}
}

func TestNewCookieSettingsProduction(t *testing.T) {
	cfg := &config.Config{Env: "production"}
	cfg.Auth.RefreshTokenTTLDays = 14

	s := NewCookieSettings(cfg)
	if !s.Secure {
		t.Fatal("production must default to secure cookies")
	}
	if s.SameSite != http.SameSiteNoneMode {
		t.Fatalf("samesite = %v, want None", s.SameSite)
	}
}

func TestNewCookieSettingsOverrides(t *testing.T) {
	cfg := &config.Config{Env: "production"}
	cfg.Auth.RefreshTokenTTLDays = 14
	cfg.Cookie.SameSite = "strict"
	cfg.Cookie.Secure = boolPtr(false)
	cfg.Cookie.Domain = "tracker.example.com"

	s := NewCookieSettings(cfg)
	if s.Secure {
		t.Fatal("explicit COOKIE_SECURE=false must win over the production default")
	}
	if s.SameSite != http.SameSiteStrictMode {
		t.Fatalf("samesite = %v, want Strict", s.SameSite)
	}
	if s.Domain != "tracker.example.com" {
		t.Fatalf("domain = %q", s.Domain)
	}
}

func TestCookieSetAndClear(t *testing.T) {
	cfg := &config.Config{Env: "local"}
	cfg.Auth.RefreshTokenTTLDays = 14
	s := NewCookieSettings(cfg)

	rec := httptest.NewRecorder()
	s.set(rec, "refresh-secret")
	res := rec.Result()
	cookies := res.Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != RefreshCookieName || c.Value != "refresh-secret" {
		t.Fatalf("unexpected cookie: %+v", c)
	}
	if !c.HttpOnly {
		t.Fatal("refresh cookie must be http-only")
	}
	if c.Path != "/auth" {
		t.Fatalf("path = %q, want /auth", c.Path)
	}
	if c.MaxAge != 14*24*3600 {
		t.Fatalf("max-age = %d", c.MaxAge)
	}

	rec = httptest.NewRecorder()
	s.clear(rec)
	cookies = rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c = cookies[0]
	if c.Value != "" || c.MaxAge != -1 {
		t.Fatalf("clear must expire the cookie: %+v", c)
	}
}
