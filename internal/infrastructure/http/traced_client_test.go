package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	ctxutil "exemplo.com.br/creditos/internal/infrastructure/context"
)

func newBufferedLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func TestTracedClientDo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(CorrelationHeader); got != "test-correlation-123" {
			t.Errorf("expected correlation header test-correlation-123, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[{"numeroCredito":"CR-1","cpfCnpj":"12345678000195"}]`))
	}))
	defer server.Close()

	log, buf := newBufferedLogger()
	client := NewTracedClient(&TracedClientConfig{
		LogResponseBody: true,
		MaxBodySize:     1024,
	}, log, "creditos-api")

	ctx := ctxutil.WithCorrelationID(context.Background(), "test-correlation-123")
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/creditos/NFS-1", nil)

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "12345678000195") {
		t.Error("response body not properly restored for the caller")
	}

	logged := buf.String()
	if !strings.Contains(logged, "upstream_response") {
		t.Errorf("expected upstream_response log, got %s", logged)
	}
	if strings.Contains(logged, "12345678000195") {
		t.Error("taxpayer document leaked into the logs")
	}
	if !strings.Contains(logged, "operation=QueryByInvoice") {
		t.Errorf("expected operation name in logs, got %s", logged)
	}
}

func TestTracedClientDo_GeneratesCorrelationID(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Get(CorrelationHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	log, _ := newBufferedLogger()
	client := NewTracedClient(&TracedClientConfig{}, log, "creditos-api")

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if _, err := uuid.Parse(received); err != nil {
		t.Errorf("expected a generated UUID, got %q", received)
	}
}

func TestTracedClientDoWithRequestBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "test_data") {
			t.Error("request body not properly forwarded")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	log, _ := newBufferedLogger()
	client := NewTracedClient(&TracedClientConfig{LogRequestBody: true}, log, "creditos-api")

	req, _ := http.NewRequest(http.MethodPost, server.URL, strings.NewReader(`{"test_data":"value"}`))
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
}

func TestTracedClientDo_LogsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	log, buf := newBufferedLogger()
	client := NewTracedClient(&TracedClientConfig{}, log, "creditos-api")

	req, _ := http.NewRequest(http.MethodGet, url, nil)
	if _, err := client.Do(req); err == nil {
		t.Fatal("expected an error from a closed server")
	}
	if !strings.Contains(buf.String(), "upstream_request_failed") {
		t.Errorf("expected failure log, got %s", buf.String())
	}
}

func TestTracedClientExtractOperation(t *testing.T) {
	client := NewTracedClient(&TracedClientConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)), "creditos-api")

	tests := []struct {
		path string
		want string
	}{
		{"/api/creditos/NFS-2024-001", "QueryByInvoice"},
		{"/api/creditos/credito/CR-1", "QueryByCredit"},
		{"/api/creditos/credito", "QueryByInvoice"},
		{"/health", "GET_creditos-api"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if got := client.extractOperation(req); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
