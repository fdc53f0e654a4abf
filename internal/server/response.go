package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/desertthunder/raff/internal/services"
	"github.com/desertthunder/raff/internal/shared"
	json "github.com/goccy/go-json"
)

// SuccessResponse is the envelope for every 2xx body.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Meta    any  `json:"meta,omitempty"`
}

// ErrorResponse is the envelope for every error body.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   ErrorResponseBody `json:"error"`
}

type ErrorResponseBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, data, meta any) {
	writeJSON(w, status, SuccessResponse{Success: true, Data: data, Meta: meta})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorResponseBody{Code: code, Message: message}})
}

// statusFor maps a sentinel error to an HTTP status and error code.
func statusFor(err error) (int, string) {
	var statusErr *services.StatusError
	switch {
	case errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, shared.ErrServiceUnavailable),
		errors.Is(err, shared.ErrMissingCredentials):
		return http.StatusServiceUnavailable, "UNAVAILABLE"
	case errors.Is(err, shared.ErrFetch),
		errors.Is(err, shared.ErrClientResponse),
		errors.Is(err, shared.ErrGeneration):
		return http.StatusBadGateway, "UPSTREAM_ERROR"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// writeErr writes err with the status chosen by [statusFor].
// 5xx responses hide the error text.
func writeErr(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	writeError(w, status, code, message)
}
