package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"exemplo.com.br/creditos/internal/core/credit"
	ctxutil "exemplo.com.br/creditos/internal/infrastructure/context"
	httpinfra "exemplo.com.br/creditos/internal/infrastructure/http"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8080/api"

// Doer is satisfied by *http.Client and the traced client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements credit.QueryService over the credits REST API.
// It never retries; each call carries a fresh correlation ID.
type Client struct {
	baseURL string
	client  Doer
	log     *slog.Logger
	now     func() time.Time
}

// NewClient creates a credits API client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, client Doer, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     log,
		now:     time.Now,
	}
}

var _ credit.QueryService = (*Client)(nil)

// QueryByInvoice calls GET {base}/creditos/{invoiceNumber}.
func (c *Client) QueryByInvoice(ctx context.Context, invoiceNumber string) (*credit.QueryResult, error) {
	return c.query(ctx, "/creditos/"+url.PathEscape(invoiceNumber))
}

// QueryByCredit calls GET {base}/creditos/credito/{creditNumber}. The single
// credit is returned as a one-element result.
func (c *Client) QueryByCredit(ctx context.Context, creditNumber string) (*credit.QueryResult, error) {
	return c.query(ctx, "/creditos/credito/"+url.PathEscape(creditNumber))
}

func (c *Client) query(ctx context.Context, path string) (*credit.QueryResult, error) {
	parentID := ctxutil.GetCorrelationID(ctx)
	correlationID := ctxutil.NewCorrelationID()
	ctx = ctxutil.WithCorrelationID(ctx, correlationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &credit.QueryError{Kind: credit.KindNetwork, CorrelationID: correlationID, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(httpinfra.CorrelationHeader, correlationID)

	c.log.Debug("Querying credits API",
		"correlation_id", correlationID,
		"request_correlation_id", parentID,
		"path", path,
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &credit.QueryError{Kind: transportKind(ctx, err), CorrelationID: correlationID, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &credit.QueryError{Kind: transportKind(ctx, err), Status: resp.StatusCode, CorrelationID: correlationID, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &credit.QueryError{
			Kind:          credit.KindForStatus(resp.StatusCode),
			Status:        resp.StatusCode,
			CorrelationID: correlationID,
			Err:           upstreamError(resp.StatusCode, body),
		}
	}

	records, err := decodeCredits(body)
	if err != nil {
		c.log.Warn("Failed to parse credits API response",
			"correlation_id", correlationID,
			"error", err,
		)
		return nil, &credit.QueryError{Kind: credit.KindNetwork, CorrelationID: correlationID, Err: err}
	}

	return credit.NewQueryResult(records, c.now()), nil
}

func transportKind(ctx context.Context, err error) credit.ErrorKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return credit.KindTimeout
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return credit.KindCanceled
	default:
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return credit.KindTimeout
		}
		return credit.KindNetwork
	}
}

func upstreamError(status int, body []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("credits API returned status %d: %s", status, apiErr.Message)
	}
	return fmt.Errorf("credits API returned status %d", status)
}
