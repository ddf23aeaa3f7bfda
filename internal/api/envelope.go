package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"
)

// Envelope is the body of every successful response.
type Envelope[T any] struct {
	Success bool   `json:"success" doc:"Whether the request succeeded"`
	Message string `json:"message" doc:"Human-readable outcome"`
	Data    T      `json:"data,omitzero" doc:"Response payload"`
}

func (Envelope[T]) enveloped() {}

// ErrorEnvelope is the body of every failed response.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

type enveloper interface {
	enveloped()
}

// ok wraps data in a successful envelope.
func ok[T any](message string, data T) Envelope[T] {
	return Envelope[T]{Success: true, Message: message, Data: data}
}

// EnvelopeTransformer wraps response bodies that handlers did not already
// wrap, and renders errors as ErrorEnvelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, _ := strconv.Atoi(status)

	switch body := v.(type) {
	case enveloper:
		return v, nil
	case *APIError:
		return ErrorEnvelope{
			Success: false,
			Message: body.Message,
			Code:    body.Code,
			Error:   body.detail,
			Details: body.Details,
		}, nil
	case error:
		return ErrorEnvelope{Success: false, Message: body.Error()}, nil
	}

	return Envelope[any]{Success: code > 0 && code < 400, Data: v}, nil
}
