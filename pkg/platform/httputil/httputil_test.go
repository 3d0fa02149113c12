package httputil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "agentdir/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("database error suppresses detail", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeDatabase, "pq: connection refused"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "Database error" {
			t.Fatalf("expected generic database text, got %q", body["error"])
		}
	})

	t.Run("internal error suppresses detail", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "nil pointer in shaper"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "Internal server error" {
			t.Fatalf("expected generic internal text, got %q", body["error"])
		}
	})

	t.Run("bad request exposes its message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Agents must be a list"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "Agents must be a list" {
			t.Fatalf("expected validation message, got %q", body["error"])
		}
	})

	t.Run("uncoded error is treated as internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, http.ErrAbortHandler)

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "Internal server error" {
			t.Fatalf("expected generic internal text, got %q", body["error"])
		}
	})
}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid body decodes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"agents":["alice"]}`))
		var payload struct {
			Agents []string `json:"agents"`
		}
		if err := DecodeJSON(req, &payload); err != nil {
			t.Fatalf("unexpected decode error: %v", err)
		}
		if len(payload.Agents) != 1 || payload.Agents[0] != "alice" {
			t.Fatalf("unexpected payload: %+v", payload)
		}
	})

	t.Run("malformed body yields bad request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"agents": [`))
		var payload map[string]any
		err := DecodeJSON(req, &payload)
		if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
			t.Fatalf("expected bad_request, got %v", err)
		}
		if dErrors.MessageOf(err) != "Invalid JSON in request body" {
			t.Fatalf("unexpected message %q", dErrors.MessageOf(err))
		}
	})
}

type preparableRequest struct {
	Name string `json:"name"`
}

func (r *preparableRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "name is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("valid body passes validation", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ops"}`))

		parsed, ok := DecodeAndPrepare[preparableRequest](w, req, logger, req.Context(), "req-1")
		if !ok {
			t.Fatalf("expected ok, response was %d %s", w.Code, w.Body.String())
		}
		if parsed.Name != "ops" {
			t.Fatalf("unexpected parsed request: %+v", parsed)
		}
	})

	t.Run("decode failure writes the response", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))

		_, ok := DecodeAndPrepare[preparableRequest](w, req, logger, req.Context(), "req-2")
		if ok {
			t.Fatal("expected decode to fail")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "Invalid JSON in request body" {
			t.Fatalf("unexpected error %q", body["error"])
		}
	})

	t.Run("validation failure writes the response", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":""}`))

		_, ok := DecodeAndPrepare[preparableRequest](w, req, logger, req.Context(), "req-3")
		if ok {
			t.Fatal("expected validation to fail")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "name is required" {
			t.Fatalf("unexpected error %q", body["error"])
		}
	})
}
