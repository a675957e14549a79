package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// nullLogger keeps this package's tests free of testutil, which imports it.
func nullLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type failingResponseWriter struct {
	http.ResponseWriter
}

func (f *failingResponseWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name           string
		statusCode     int
		message        string
		errors         []string
		expectedErrors []string
	}{
		{
			name:           "not found",
			statusCode:     http.StatusNotFound,
			message:        MsgNotFound,
			errors:         []string{"numeroCredito: CR-1"},
			expectedErrors: []string{"numeroCredito: CR-1"},
		},
		{
			name:           "nil errors become an empty list",
			statusCode:     http.StatusInternalServerError,
			message:        MsgInternal,
			errors:         nil,
			expectedErrors: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.statusCode, tt.message, tt.errors, nullLogger())

			if w.Code != tt.statusCode {
				t.Errorf("expected status code %d, got %d", tt.statusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Errorf("unexpected content type %q", ct)
			}

			var response ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, response.Message)
			}
			if len(response.Errors) != len(tt.expectedErrors) {
				t.Fatalf("expected %d errors, got %d", len(tt.expectedErrors), len(response.Errors))
			}
			for i, e := range tt.expectedErrors {
				if response.Errors[i] != e {
					t.Errorf("expected error[%d] %q, got %q", i, e, response.Errors[i])
				}
			}
		})
	}
}

func TestWriteError_WithNilLogger(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusBadRequest, MsgBadRequest, []string{"valor"}, nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status code %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestWriteJSON_EncodingFailureDoesNotPanic(t *testing.T) {
	w := &failingResponseWriter{ResponseWriter: httptest.NewRecorder()}
	WriteJSON(w, http.StatusOK, map[string]string{"a": "b"}, nullLogger())
}
