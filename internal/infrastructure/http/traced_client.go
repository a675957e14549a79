package http

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ctxutil "exemplo.com.br/creditos/internal/infrastructure/context"
	"exemplo.com.br/creditos/internal/infrastructure/security"
)

// CorrelationHeader is propagated on every outbound request.
const CorrelationHeader = "X-Correlation-ID"

// TracedClient wraps an HTTP client to log every outbound request and
// response with its correlation ID. Logged bodies are sanitized.
type TracedClient struct {
	client      *http.Client
	log         *slog.Logger
	upstream    string
	logReqBody  bool
	logRespBody bool
	maxBodySize int
}

// TracedClientConfig holds configuration for the traced HTTP client.
type TracedClientConfig struct {
	Timeout         time.Duration
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
	MaxConnsPerHost int
	// Transport overrides the pooled transport, mostly for tests.
	Transport http.RoundTripper
}

// NewTracedClient creates a traced client with its own connection pool.
func NewTracedClient(cfg *TracedClientConfig, log *slog.Logger, upstream string) *TracedClient {
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = 102400
	}
	maxConnsPerHost := cfg.MaxConnsPerHost
	if maxConnsPerHost == 0 {
		maxConnsPerHost = 50
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   maxConnsPerHost,
			MaxConnsPerHost:       maxConnsPerHost,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}

	return &TracedClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		log:         log,
		upstream:    upstream,
		logReqBody:  cfg.LogRequestBody,
		logRespBody: cfg.LogResponseBody,
		maxBodySize: cfg.MaxBodySize,
	}
}

// Do executes req. The correlation ID is taken from the request context,
// or generated when absent, and sent in CorrelationHeader.
func (c *TracedClient) Do(req *http.Request) (*http.Response, error) {
	correlationID := ctxutil.GetCorrelationID(req.Context())
	if correlationID == "" {
		correlationID = ctxutil.NewCorrelationID()
	}
	req.Header.Set(CorrelationHeader, correlationID)

	operation := c.extractOperation(req)
	start := time.Now()

	var requestBody []byte
	if req.Body != nil {
		var err error
		requestBody, err = io.ReadAll(req.Body)
		if err != nil {
			c.log.Error("Failed to read request body for tracing",
				"error", err,
				"correlation_id", correlationID,
			)
		}
		req.Body = io.NopCloser(bytes.NewReader(requestBody))
	}

	c.logRequest(correlationID, operation, req, requestBody)

	resp, err := c.client.Do(req)
	duration := time.Since(start)

	var responseBody []byte
	if resp != nil && resp.Body != nil {
		var readErr error
		responseBody, readErr = io.ReadAll(resp.Body)
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(responseBody))
		if readErr != nil && err == nil {
			err = readErr
		}
	}

	c.logResponse(correlationID, operation, req, resp, err, duration, responseBody)
	return resp, err
}

func (c *TracedClient) logRequest(correlationID, operation string, req *http.Request, body []byte) {
	attrs := []any{
		"correlation_id", correlationID,
		"upstream", c.upstream,
		"operation", operation,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
	}
	if c.logReqBody && len(body) > 0 {
		attrs = append(attrs, "request_body", string(security.SanitizeBody(body, c.maxBodySize)))
	}
	c.log.Info("upstream_request", attrs...)
}

func (c *TracedClient) logResponse(correlationID, operation string, req *http.Request, resp *http.Response, err error, duration time.Duration, body []byte) {
	attrs := []any{
		"correlation_id", correlationID,
		"upstream", c.upstream,
		"operation", operation,
		"method", req.Method,
		"url", security.SanitizeURL(req.URL.String()),
		"duration_ms", duration.Milliseconds(),
	}

	if err != nil {
		attrs = append(attrs, "error", err.Error())
		c.log.Error("upstream_request_failed", attrs...)
		return
	}

	attrs = append(attrs, "status", resp.StatusCode, "response_size_bytes", len(body))
	if c.logRespBody && len(body) > 0 {
		attrs = append(attrs, "response_body", string(security.SanitizeBody(body, c.maxBodySize)))
	}

	switch {
	case resp.StatusCode >= 500:
		c.log.Error("upstream_response", attrs...)
	case resp.StatusCode >= 400:
		c.log.Warn("upstream_response", attrs...)
	default:
		c.log.Info("upstream_response", attrs...)
	}
}

// extractOperation names the call after its route shape, never after the
// looked-up key.
func (c *TracedClient) extractOperation(req *http.Request) string {
	parts := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	for i := len(parts) - 2; i >= 0; i-- {
		if parts[i] == "credito" {
			return "QueryByCredit"
		}
		if parts[i] == "creditos" {
			return "QueryByInvoice"
		}
	}
	return req.Method + "_" + c.upstream
}

// Client returns the underlying HTTP client.
func (c *TracedClient) Client() *http.Client {
	return c.client
}
