// Package httputil centralizes JSON response writing and request decoding so
// every endpoint shares one error envelope.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "agentdir/pkg/domain-errors"
)

// ErrorResponse is the service-wide error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error to its HTTP status and writes the error
// envelope. Messages for server-side failures are replaced with fixed generic
// text; the underlying detail is for logs only and never reaches the client.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, statusOf(code), ErrorResponse{Error: publicMessage(code, err)})
}

// DecodeJSON decodes the request body into v. Decode failures are returned as
// domain errors ready for WriteError.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return dErrors.New(dErrors.CodeBadRequest, "Request body too large")
		}
		return dErrors.New(dErrors.CodeBadRequest, "Invalid JSON in request body")
	}
	return nil
}

// Validatable is implemented by request types that validate themselves after
// decoding.
type Validatable interface {
	Validate() error
}

// DecodeAndPrepare decodes the request body into T, runs its validation, and
// writes the error response itself when either step fails. Handlers check the
// returned ok and bail out without further writes.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := DecodeJSON(r, &req); err != nil {
		logger.WarnContext(ctx, "request decode failed",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	if v, ok := any(&req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			logger.WarnContext(ctx, "request validation failed",
				"request_id", requestID,
				"error", err,
			)
			WriteError(w, err)
			return nil, false
		}
	}
	return &req, true
}

func statusOf(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage picks the client-visible text. 4xx errors expose their domain
// message; 5xx errors collapse to a stable generic string per code.
func publicMessage(code dErrors.Code, err error) string {
	switch code {
	case dErrors.CodeDatabase:
		return "Database error"
	case dErrors.CodeInternal, dErrors.CodeInvariantViolation:
		return "Internal server error"
	}
	if msg := dErrors.MessageOf(err); msg != "" {
		return msg
	}
	return http.StatusText(statusOf(code))
}
