package config

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "abcdefghijklmnopqrstuvwxyz123456"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Env != "local" || cfg.Production() {
		t.Fatalf("unexpected env: %q", cfg.Env)
	}
	if cfg.HTTP.Addr() != "0.0.0.0:8080" {
		t.Fatalf("addr = %q", cfg.HTTP.Addr())
	}
	if cfg.Auth.AccessTokenTTL() != 5*time.Minute {
		t.Fatalf("access ttl = %v", cfg.Auth.AccessTokenTTL())
	}
	if cfg.Auth.RefreshTokenTTL() != 14*24*time.Hour {
		t.Fatalf("refresh ttl = %v", cfg.Auth.RefreshTokenTTL())
	}
	if cfg.Auth.PasswordResetTTL() != 30*time.Minute {
		t.Fatalf("reset ttl = %v", cfg.Auth.PasswordResetTTL())
	}
	if !cfg.Auth.OneSessionPerUser {
		t.Fatal("single-session policy must default on")
	}
	if cfg.RateLimit.UseRedis || cfg.RateLimit.FailOpen {
		t.Fatalf("rate limit defaults: %+v", cfg.RateLimit)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(""); err == nil {
		t.Fatal("startup must fail without a signing secret")
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "tooshort")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("ENV", "production")
	t.Setenv("ACCESS_TOKEN_TTL_SECONDS", "600")
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "7")
	t.Setenv("ONE_SESSION_PER_USER", "false")
	t.Setenv("COOKIE_SAME_SITE", "strict")
	t.Setenv("DATABASE_DSN", "postgres://app@db/jira")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Production() {
		t.Fatal("ENV=production must report production")
	}
	if cfg.Auth.AccessTokenTTL() != 10*time.Minute {
		t.Fatalf("access ttl = %v", cfg.Auth.AccessTokenTTL())
	}
	if cfg.Auth.RefreshTokenTTL() != 7*24*time.Hour {
		t.Fatalf("refresh ttl = %v", cfg.Auth.RefreshTokenTTL())
	}
	if cfg.Auth.OneSessionPerUser {
		t.Fatal("single-session policy must be overridable")
	}
	if !cfg.DB.IsPostgres() {
		t.Fatal("postgres DSN not recognized")
	}
}

func TestLoadRejectsBadTTLAndSameSite(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("ACCESS_TOKEN_TTL_SECONDS", "0")
	if _, err := Load(""); err == nil {
		t.Fatal("zero access ttl must fail validation")
	}

	t.Setenv("ACCESS_TOKEN_TTL_SECONDS", "300")
	t.Setenv("COOKIE_SAME_SITE", "bogus")
	if _, err := Load(""); err == nil {
		t.Fatal("unknown samesite must fail validation")
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Fatal("explicit missing config file must fail")
	}
}
