package context

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	// CorrelationIDKey carries the id that follows a consultation from the
	// browser request down to the credits API.
	CorrelationIDKey contextKey = "correlation_id"
	// SessionIDKey carries the browser session the request belongs to.
	SessionIDKey contextKey = "session_id"
)

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

// GetCorrelationID returns an empty string if no correlation ID is present.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// NewCorrelationID returns a random version-4 UUID.
func NewCorrelationID() string {
	return uuid.NewString()
}

// WithSessionID adds the browser session ID to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// GetSessionID returns an empty string outside a browser session.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(SessionIDKey).(string); ok {
		return id
	}
	return ""
}
