package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/conny0506/jira-lite/internal/config"
	"github.com/conny0506/jira-lite/internal/http/handler"
	"github.com/conny0506/jira-lite/internal/http/router"
	"github.com/conny0506/jira-lite/internal/observability"
	"github.com/conny0506/jira-lite/internal/ratelimit"
	"github.com/conny0506/jira-lite/internal/repository"
	"github.com/conny0506/jira-lite/internal/security"
	"github.com/conny0506/jira-lite/internal/service"
	"github.com/conny0506/jira-lite/internal/storage"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime

	meetings *service.MeetingService
	sessions repository.SessionRepository
}

// New wires the whole service from configuration. Everything here is
// constructor injection; no component reads the environment on its own.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	runtime, logger, err := observability.InitRuntime(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}
	slog.SetDefault(logger)

	codec, err := security.NewTokenCodec(cfg.Auth.TokenIssuer, cfg.Auth.JWTSecret)
	if err != nil {
		return nil, err
	}

	db, err := repository.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	members := repository.NewMemberRepository(db)
	sessions := repository.NewSessionRepository(db)
	projects := repository.NewProjectRepository(db)
	tickets := repository.NewTicketRepository(db)
	meetings := repository.NewMeetingRepository(db)
	atomic := repository.NewAtomic(db)

	var limiter ratelimit.Limiter
	if cfg.RateLimit.UseRedis {
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Redis.DialTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("rate limit store unreachable: %w", err)
		}
		limiter = ratelimit.NewRedisLimiter(client, "jira-lite")
		logger.Info("rate limiter using shared redis counters", "addr", cfg.Redis.Addr)
	} else {
		limiter = ratelimit.NewMemoryLimiter()
		logger.Info("rate limiter using in-process counters (single instance only)")
	}

	var mailer service.Mailer = service.NoopMailer{}
	if cfg.SMTP.Host != "" {
		smtp, err := service.NewSMTPMailer(cfg.SMTP)
		if err != nil {
			return nil, err
		}
		mailer = smtp
	} else {
		logger.Warn("no SMTP host configured, outbound mail is discarded")
	}

	var deliverables service.DeliverableStore
	if cfg.S3.Endpoint != "" {
		store, err := storage.NewObjectStore(cfg.S3)
		if err != nil {
			return nil, err
		}
		deliverables = store
	}

	authService := service.NewAuthService(members, sessions, atomic, codec, mailer, logger, service.AuthConfig{
		AccessTokenTTL:    cfg.Auth.AccessTokenTTL(),
		RefreshTokenTTL:   cfg.Auth.RefreshTokenTTL(),
		PasswordResetTTL:  cfg.Auth.PasswordResetTTL(),
		OneSessionPerUser: cfg.Auth.OneSessionPerUser,
		RefreshPepper:     cfg.Auth.RefreshTokenPepper,
		ResetBaseURL:      cfg.HTTP.PublicBaseURL,
	})
	ticketService := service.NewTicketService(projects, tickets, deliverables)
	meetingService := service.NewMeetingService(meetings, members, mailer, logger, cfg.Meetings.ReminderLead)

	cookies := handler.NewCookieSettings(cfg)
	deps := router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, cookies),
		TicketHandler:     handler.NewTicketHandler(authService, ticketService),
		MeetingHandler:    handler.NewMeetingHandler(authService, meetingService),
		TokenCodec:        codec,
		Limiter:           limiter,
		LoginRateLimit:    cfg.Auth.LoginRateLimit,
		ForgotRateLimit:   cfg.Auth.ForgotRateLimit,
		RateLimitWindow:   cfg.Auth.RateLimitWindow,
		RateLimitFailOpen: cfg.RateLimit.FailOpen,
		EnableOTelHTTP:    cfg.OTel.Enabled,
	}

	server := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           router.New(deps),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		Server:        server,
		Observability: runtime,
		meetings:      meetingService,
		sessions:      sessions,
	}, nil
}

// Run serves HTTP and the background loops until the context is cancelled or
// a signal arrives, then drains.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		a.meetings.RunReminderLoop(ctx, a.Config.Meetings.ReminderPollInterval)
		return nil
	})

	g.Go(func() error {
		a.runSessionCleanup(ctx)
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(drainCtx); err != nil {
			a.Logger.Warn("http drain failed", "error", err)
		}
		if err := a.Observability.Shutdown(drainCtx); err != nil {
			a.Logger.Warn("observability shutdown failed", "error", err)
		}
		return nil
	})

	return g.Wait()
}

// runSessionCleanup hard-deletes long-expired session rows once an hour so
// the table does not grow without bound. Soft revocation stays untouched.
func (a *App) runSessionCleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := a.sessions.CleanupExpired(); err != nil {
				a.Logger.Warn("session cleanup failed", "error", err)
			} else if n > 0 {
				a.Logger.Info("expired sessions removed", "count", n)
			}
		}
	}
}
