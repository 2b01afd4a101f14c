package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/conny0506/jira-lite/internal/config"
	"github.com/conny0506/jira-lite/internal/domain"
	"github.com/conny0506/jira-lite/internal/http/handler"
	"github.com/conny0506/jira-lite/internal/http/router"
	"github.com/conny0506/jira-lite/internal/ratelimit"
	"github.com/conny0506/jira-lite/internal/repository"
	"github.com/conny0506/jira-lite/internal/security"
	"github.com/conny0506/jira-lite/internal/service"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	testJWTSecret    = "abcdefghijklmnopqrstuvwxyz123456"
	testPepper       = "integration-pepper"
	testLoginLimit   = 5
	testForgotLimit  = 3
	testWindow       = time.Minute
	defaultPassword  = "Valid#Pass1234"
	refreshTokenTTL  = 14 * 24 * time.Hour
	passwordResetTTL = 30 * time.Minute
)

type mailRecorder struct {
	mu   sync.Mutex
	sent []struct{ To, Subject, Body string }
}

func (m *mailRecorder) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, struct{ To, Subject, Body string }{to, subject, body})
	return nil
}

func (m *mailRecorder) last(t *testing.T) struct{ To, Subject, Body string } {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no mail was sent")
	}
	return m.sent[len(m.sent)-1]
}

func (m *mailRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type testServer struct {
	baseURL string
	client  *http.Client
	members repository.MemberRepository
	mail    *mailRecorder
}

func newAuthTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	codec, err := security.NewTokenCodec("jira-lite-test", testJWTSecret)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	members := repository.NewMemberRepository(db)
	sessions := repository.NewSessionRepository(db)
	projects := repository.NewProjectRepository(db)
	tickets := repository.NewTicketRepository(db)
	meetings := repository.NewMeetingRepository(db)
	mail := &mailRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	authSvc := service.NewAuthService(members, sessions, repository.NewAtomic(db), codec, mail, logger, service.AuthConfig{
		AccessTokenTTL:    5 * time.Minute,
		RefreshTokenTTL:   refreshTokenTTL,
		PasswordResetTTL:  passwordResetTTL,
		OneSessionPerUser: true,
		RefreshPepper:     testPepper,
		ResetBaseURL:      "http://localhost:5173",
	})
	ticketSvc := service.NewTicketService(projects, tickets, nil)
	meetingSvc := service.NewMeetingService(meetings, members, mail, logger, time.Hour)

	cfg := &config.Config{Env: "test"}
	cfg.Auth.RefreshTokenTTLDays = 14
	cookies := handler.NewCookieSettings(cfg)

	h := router.New(router.Dependencies{
		AuthHandler:     handler.NewAuthHandler(authSvc, cookies),
		TicketHandler:   handler.NewTicketHandler(authSvc, ticketSvc),
		MeetingHandler:  handler.NewMeetingHandler(authSvc, meetingSvc),
		TokenCodec:      codec,
		Limiter:         ratelimit.NewMemoryLimiter(),
		LoginRateLimit:  testLoginLimit,
		ForgotRateLimit: testForgotLimit,
		RateLimitWindow: testWindow,
	})

	srv := httptest.NewServer(h)
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	ts := &testServer{
		baseURL: srv.URL,
		client:  &http.Client{Jar: jar},
		members: members,
		mail:    mail,
	}
	return ts, srv.Close
}

func (ts *testServer) seedMember(t *testing.T, email, password string, role domain.Role) *domain.Member {
	t.Helper()
	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	m := &domain.Member{Email: email, Name: "Integration Member", PasswordHash: hash, Role: role, Active: true}
	if err := ts.members.Create(m); err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return m
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (ts *testServer) doJSON(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, envelope) {
	t.Helper()
	return doRaw(t, ts.client, method, ts.baseURL+path, body, headers, nil)
}

func doRaw(t *testing.T, client *http.Client, method, rawURL string, body any, headers map[string]string, cookies []*http.Cookie) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, rawURL, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, rawURL, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode envelope from %s: %v (%s)", rawURL, err, raw)
		}
	}
	return resp, env
}

func (ts *testServer) cookieValue(t *testing.T, name string) string {
	t.Helper()
	u, err := url.Parse(ts.baseURL + "/auth")
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	for _, c := range ts.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
