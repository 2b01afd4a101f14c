package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/conny0506/jira-lite/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
	Meta    meta        `json:"meta"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type meta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data, Meta: buildMeta(r)})
}

func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: &apiError{Code: code, Message: message, Details: details}, Meta: buildMeta(r)})
}

// ServiceError maps the service error taxonomy onto status codes. Unknown
// errors become an opaque 500; their detail goes to the log, not the wire.
func ServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var badReq *service.BadRequestError
	var unavailable *service.ServiceUnavailableError
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials", nil)
	case errors.As(err, &badReq):
		Error(w, r, http.StatusBadRequest, "BAD_REQUEST", badReq.Message, nil)
	case errors.Is(err, service.ErrBadRequest):
		Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "bad request", nil)
	case errors.Is(err, service.ErrRateLimited):
		Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
	case errors.As(err, &unavailable):
		Error(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", unavailable.Error(), nil)
	case errors.Is(err, service.ErrServiceUnavailable):
		Error(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "service unavailable", nil)
	default:
		Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}

func buildMeta(r *http.Request) meta {
	id := chimiddleware.GetReqID(r.Context())
	if id == "" {
		id = r.Header.Get("X-Request-Id")
	}
	if id == "" {
		id = "req-unknown"
	}
	return meta{RequestID: id, Timestamp: time.Now().UTC()}
}
