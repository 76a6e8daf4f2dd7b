// Package response renders JSON bodies and errors for the report API.
package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fieldradar/fieldradar/internal/store"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HTTPError is an error that carries its own status code
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       errorCodeFromStatus(statusCode),
	}
}

// RenderError renders a standard error response
func RenderError(w http.ResponseWriter, statusCode int, err error) {
	RenderErrorWithCode(w, statusCode, err, "")
}

// RenderErrorWithCode renders an error with a specific error code
func RenderErrorWithCode(w http.ResponseWriter, statusCode int, err error, code string) {
	if code == "" {
		code = errorCodeFromStatus(statusCode)
	}

	resp := &ErrorResponse{
		Error:     "error",
		Message:   err.Error(),
		Code:      code,
		RequestID: w.Header().Get("X-Request-ID"),
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// RenderBadRequest renders a 400 Bad Request error
func RenderBadRequest(w http.ResponseWriter, message string) {
	RenderError(w, http.StatusBadRequest, fmt.Errorf("%s", message))
}

// RenderNotFound renders a 404 Not Found error
func RenderNotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RenderError(w, http.StatusNotFound, fmt.Errorf("%s", message))
}

// RenderServiceUnavailable renders a 503 Service Unavailable error
func RenderServiceUnavailable(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	RenderError(w, http.StatusServiceUnavailable, fmt.Errorf("%s", message))
}

// RenderFailure maps err to a status and renders it. Storage failures are
// fatal for the request and render as 500; a missing table or denied
// permission gets its own code so a misconfiguration reads differently
// from an outage.
func RenderFailure(w http.ResponseWriter, err error) {
	var httpErr *HTTPError
	switch {
	case errors.As(err, &httpErr):
		RenderErrorWithCode(w, httpErr.StatusCode, httpErr, httpErr.Code)
	case errors.Is(err, context.DeadlineExceeded):
		RenderError(w, http.StatusGatewayTimeout, fmt.Errorf("request timed out"))
	case errors.Is(err, context.Canceled):
		RenderErrorWithCode(w, 499, fmt.Errorf("request canceled"), "client_closed_request")
	case errors.Is(err, store.ErrMissingTable):
		RenderErrorWithCode(w, http.StatusInternalServerError, err, "missing_table")
	case errors.Is(err, store.ErrPermission):
		RenderErrorWithCode(w, http.StatusInternalServerError, err, "storage_permission_denied")
	case errors.Is(err, store.ErrNotFound):
		RenderNotFound(w, err.Error())
	default:
		RenderErrorWithCode(w, http.StatusInternalServerError, err, "storage_error")
	}
}

// errorCodeFromStatus maps HTTP status codes to error codes
func errorCodeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusInternalServerError:
		return "internal_error"
	case http.StatusServiceUnavailable:
		return "service_unavailable"
	case http.StatusGatewayTimeout:
		return "gateway_timeout"
	default:
		return "error"
	}
}
