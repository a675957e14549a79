package credit

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// QueryKind selects which key a lookup uses.
type QueryKind string

const (
	ByInvoice QueryKind = "nfse"
	ByCredit  QueryKind = "credito"
)

// Valid reports whether k is one of the supported lookup keys.
func (k QueryKind) Valid() bool {
	return k == ByInvoice || k == ByCredit
}

const (
	MinValueLength = 3
	MaxValueLength = 50
)

var valuePattern = regexp.MustCompile(`^[a-zA-Z0-9\-./]+$`)

// ValidValue reports whether v (already trimmed) matches the allowed key charset.
func ValidValue(v string) bool {
	return valuePattern.MatchString(v)
}

// QueryRequest is a validated lookup emitted by the form.
type QueryRequest struct {
	Kind  QueryKind
	Value string
}

// NewQueryRequest trims the value and checks it against the lookup rules.
func NewQueryRequest(kind QueryKind, value string) (QueryRequest, error) {
	value = strings.TrimSpace(value)
	switch {
	case !kind.Valid():
		return QueryRequest{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidQuery, kind)
	case len(value) < MinValueLength:
		return QueryRequest{}, fmt.Errorf("%w: value shorter than %d", ErrInvalidQuery, MinValueLength)
	case len(value) > MaxValueLength:
		return QueryRequest{}, fmt.Errorf("%w: value longer than %d", ErrInvalidQuery, MaxValueLength)
	case !ValidValue(value):
		return QueryRequest{}, fmt.Errorf("%w: value has invalid characters", ErrInvalidQuery)
	}
	return QueryRequest{Kind: kind, Value: value}, nil
}

// ErrInvalidQuery is returned when a lookup key fails validation.
var ErrInvalidQuery = errors.New("invalid query")

// QueryService answers credit lookups against the credits API.
type QueryService interface {
	// QueryByInvoice returns every credit linked to the NFS-e number.
	QueryByInvoice(ctx context.Context, invoiceNumber string) (*QueryResult, error)
	// QueryByCredit returns the single credit with that number.
	QueryByCredit(ctx context.Context, creditNumber string) (*QueryResult, error)
}

// Dispatch routes a request to exactly one lookup of svc.
func Dispatch(ctx context.Context, svc QueryService, req QueryRequest) (*QueryResult, error) {
	switch req.Kind {
	case ByInvoice:
		return svc.QueryByInvoice(ctx, req.Value)
	case ByCredit:
		return svc.QueryByCredit(ctx, req.Value)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidQuery, req.Kind)
	}
}
