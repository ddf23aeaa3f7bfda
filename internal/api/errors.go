package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	domainerrors "github.com/photogram/photogram-server/internal/errors"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`

	// detail is internal cause text, rendered only in development.
	detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return fromDomain(domainErr)
			}
		}

		// Request validation failures are plain bad requests to clients.
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
			message = validationMessage(message, errs)
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
	}
}

// validationMessage prefers the first field-level message huma reports.
func validationMessage(fallback string, errs []error) string {
	for _, err := range errs {
		var detail *huma.ErrorDetail
		if errors.As(err, &detail) && detail.Message != "" {
			if detail.Location != "" {
				return detail.Location + ": " + detail.Message
			}
			return detail.Message
		}
	}
	return fallback
}

func fromDomain(err *domainerrors.Error) *APIError {
	return &APIError{
		status:  err.HTTPStatus(),
		Code:    string(err.Code),
		Message: err.Message,
		Details: err.Details,
	}
}

// fail converts a service error into the response error for a route.
// Internal failures use the route's fallback message; cause text is only
// attached in development.
func (s *Server) fail(err error, fallback string) error {
	var apiErr *APIError
	var domainErr *domainerrors.Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &domainErr) && domainErr.Code != domainerrors.CodeInternal:
		apiErr = fromDomain(domainErr)
	default:
		apiErr = &APIError{
			status:  http.StatusInternalServerError,
			Code:    string(domainerrors.CodeInternal),
			Message: fallback,
		}
	}

	if apiErr.status >= http.StatusInternalServerError {
		s.logger.Error(fallback, "error", err)
	}
	if s.development {
		apiErr.detail = err.Error()
	}
	return apiErr
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthorized)
	case http.StatusForbidden:
		return string(domainerrors.CodeForbidden)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeConflict)
	case http.StatusTooManyRequests:
		return string(domainerrors.CodeRateLimited)
	case http.StatusServiceUnavailable:
		return string(domainerrors.CodeUnavailable)
	case http.StatusGatewayTimeout:
		return string(domainerrors.CodeTimeout)
	default:
		return string(domainerrors.CodeInternal)
	}
}
