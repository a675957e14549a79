package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"exemplo.com.br/creditos/internal/core/event"
)

// DefaultStream is the stream consultation events are appended to.
const DefaultStream = "consulta-creditos"

// Publisher appends consultation events to a Redis stream.
type Publisher struct {
	rdb    goredis.UniversalClient
	stream string
	maxLen int64
	log    *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithStream overrides the destination stream name.
func WithStream(name string) Option {
	return func(p *Publisher) {
		if name != "" {
			p.stream = name
		}
	}
}

// WithMaxLen caps the stream length (approximate trimming). Zero disables it.
func WithMaxLen(n int64) Option {
	return func(p *Publisher) { p.maxLen = n }
}

// NewPublisher creates a stream publisher over an existing client.
func NewPublisher(rdb goredis.UniversalClient, log *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		rdb:    rdb,
		stream: DefaultStream,
		log:    log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ event.Publisher = (*Publisher)(nil)

// Publish appends one entry; the entry ID is assigned by Redis.
func (p *Publisher) Publish(ctx context.Context, c event.Consultation) error {
	args := &goredis.XAddArgs{
		Stream: p.stream,
		Values: values(c),
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.rdb.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("publish consultation to %s: %w", p.stream, err)
	}

	p.log.Debug("Consultation event published",
		"stream", p.stream,
		"entry_id", id,
		"key", c.Key(),
	)
	return nil
}

// Ping verifies the Redis connection. Used by the health check.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

// Name identifies the dependency in health reports.
func (p *Publisher) Name() string {
	return "redis"
}

func values(c event.Consultation) map[string]any {
	return map[string]any{
		"key":          c.Key(),
		"tipoConsulta": string(c.Type),
		"valor":        c.Value,
		"quantidade":   strconv.Itoa(c.ResultCount),
		"timestamp":    c.Timestamp.UTC().Format(time.RFC3339Nano),
		"ip":           c.ClientIP,
		"userAgent":    c.UserAgent,
	}
}

// NewClient parses a redis:// URL into a client.
func NewClient(rawURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return goredis.NewClient(opts), nil
}
