package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	httperrors "exemplo.com.br/creditos/internal/infrastructure/http"
)

// DecodeJSON checks the recorded status and unmarshals the body into v.
func DecodeJSON(t testing.TB, w *httptest.ResponseRecorder, wantStatus int, v any) {
	t.Helper()
	if w.Code != wantStatus {
		t.Fatalf("expected status %d, got %d (body: %s)", wantStatus, w.Code, w.Body.String())
	}
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
}

// DecodeError reads the standard error envelope.
func DecodeError(t testing.TB, w *httptest.ResponseRecorder, wantStatus int) httperrors.ErrorResponse {
	t.Helper()
	var resp httperrors.ErrorResponse
	DecodeJSON(t, w, wantStatus, &resp)
	return resp
}

// NewFormRequest builds a urlencoded POST as sent by the consultation page.
func NewFormRequest(path string, form url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}
