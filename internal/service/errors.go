package service

import (
	"errors"
	"fmt"
)

// The four error categories the HTTP boundary maps to status codes.
// Credential and token failures collapse into ErrUnauthorized with a fixed
// message so callers can never tell which check failed.
var (
	ErrUnauthorized       = errors.New("invalid credentials")
	ErrBadRequest         = errors.New("bad request")
	ErrRateLimited        = errors.New("too many requests")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// BadRequestError carries a user-facing message specific enough to guide
// correction without revealing whether an account exists.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string { return e.Message }
func (e *BadRequestError) Unwrap() error { return ErrBadRequest }

func badRequest(message string) error {
	return &BadRequestError{Message: message}
}

// ServiceUnavailableError is the one category where a downstream detail may
// be attached: the user has to know the operation did not happen so they can
// retry.
type ServiceUnavailableError struct {
	Detail string
}

func (e *ServiceUnavailableError) Error() string {
	if e.Detail == "" {
		return "service unavailable"
	}
	return fmt.Sprintf("service unavailable: %s", e.Detail)
}

func (e *ServiceUnavailableError) Unwrap() error { return ErrServiceUnavailable }

func serviceUnavailable(detail string) error {
	return &ServiceUnavailableError{Detail: detail}
}
