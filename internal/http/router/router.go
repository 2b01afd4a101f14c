package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/conny0506/jira-lite/internal/http/handler"
	"github.com/conny0506/jira-lite/internal/http/middleware"
	"github.com/conny0506/jira-lite/internal/http/response"
	"github.com/conny0506/jira-lite/internal/ratelimit"
	"github.com/conny0506/jira-lite/internal/security"
)

type Dependencies struct {
	AuthHandler    *handler.AuthHandler
	TicketHandler  *handler.TicketHandler
	MeetingHandler *handler.MeetingHandler
	TokenCodec     *security.TokenCodec

	Limiter           ratelimit.Limiter
	LoginRateLimit    int64
	ForgotRateLimit   int64
	RateLimitWindow   time.Duration
	RateLimitFailOpen bool

	EnableOTelHTTP bool
}

func New(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)

	loginLimiter := middleware.RateLimit(dep.Limiter, "login", dep.LoginRateLimit, dep.RateLimitWindow, dep.RateLimitFailOpen)
	forgotLimiter := middleware.RateLimit(dep.Limiter, "forgot_password", dep.ForgotRateLimit, dep.RateLimitWindow, dep.RateLimitFailOpen)
	authed := middleware.AuthMiddleware(dep.TokenCodec)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.With(loginLimiter).Post("/login", dep.AuthHandler.Login)
		r.With(authed).Get("/me", dep.AuthHandler.Me)
		r.Post("/refresh", dep.AuthHandler.Refresh)
		r.Post("/logout", dep.AuthHandler.Logout)
		r.With(forgotLimiter).Post("/forgot-password", dep.AuthHandler.ForgotPassword)
		r.Post("/reset-password", dep.AuthHandler.ResetPassword)
		r.With(authed).Patch("/change-password", dep.AuthHandler.ChangePassword)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authed)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", dep.TicketHandler.ListProjects)
			r.Post("/", dep.TicketHandler.CreateProject)
			r.Get("/{project_id}/tickets", dep.TicketHandler.ListProjectTickets)
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Post("/", dep.TicketHandler.CreateTicket)
			r.Get("/mine", dep.TicketHandler.ListMyTickets)
			r.Get("/{ticket_id}", dep.TicketHandler.GetTicket)
			r.Post("/{ticket_id}/assign", dep.TicketHandler.AssignTicket)
			r.Post("/{ticket_id}/deliverable/upload-url", dep.TicketHandler.RequestUpload)
			r.Post("/{ticket_id}/deliverable", dep.TicketHandler.Submit)
		})

		r.Route("/submissions", func(r chi.Router) {
			r.Post("/{submission_id}/review", dep.TicketHandler.Review)
			r.Get("/{submission_id}/download", dep.TicketHandler.Download)
		})

		r.Route("/meetings", func(r chi.Router) {
			r.Get("/", dep.MeetingHandler.List)
			r.Post("/", dep.MeetingHandler.Create)
			r.Delete("/{meeting_id}", dep.MeetingHandler.Delete)
		})
	})

	if dep.EnableOTelHTTP {
		return otelhttp.NewHandler(r, "jira-lite")
	}
	return r
}
