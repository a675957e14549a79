package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"exemplo.com.br/creditos/internal/core/event"
	ctxutil "exemplo.com.br/creditos/internal/infrastructure/context"
)

// AuditEntry is a stored consultation together with the request that caused it.
type AuditEntry struct {
	ID            int64
	CorrelationID string
	Consultation  event.Consultation
	CreatedAt     time.Time
}

// Recorder keeps an audit trail of consultations in PostgreSQL. It is an
// event.Publisher so it can sit next to the stream publisher.
type Recorder struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRecorder creates a PostgreSQL consultation recorder.
func NewRecorder(pool *pgxpool.Pool, log *slog.Logger) *Recorder {
	return &Recorder{pool: pool, log: log}
}

var _ event.Publisher = (*Recorder)(nil)

// Publish stores c. The correlation ID is read from ctx.
func (r *Recorder) Publish(ctx context.Context, c event.Consultation) error {
	correlationID := ctxutil.GetCorrelationID(ctx)

	_, err := r.pool.Exec(ctx, `
		INSERT INTO consulta_auditoria (
			correlation_id, tipo_consulta, valor, quantidade, ip, user_agent, consultado_em
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		correlationID,
		string(c.Type),
		c.Value,
		c.ResultCount,
		c.ClientIP,
		c.UserAgent,
		c.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert consultation audit: %w", err)
	}

	r.log.Debug("Consultation audit saved",
		"correlation_id", correlationID,
		"type", c.Type,
		"results", c.ResultCount,
	)
	return nil
}

// FindByCorrelationID returns the consultations recorded for one request, newest first.
func (r *Recorder) FindByCorrelationID(ctx context.Context, correlationID string) ([]AuditEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, correlation_id, tipo_consulta, valor, quantidade, ip, user_agent, consultado_em, created_at
		FROM consulta_auditoria
		WHERE correlation_id = $1
		ORDER BY consultado_em DESC, id DESC`, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query consultation audit: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var consultationType string
		if err := rows.Scan(
			&e.ID,
			&e.CorrelationID,
			&consultationType,
			&e.Consultation.Value,
			&e.Consultation.ResultCount,
			&e.Consultation.ClientIP,
			&e.Consultation.UserAgent,
			&e.Consultation.Timestamp,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan consultation audit: %w", err)
		}
		e.Consultation.Type = event.ConsultationType(consultationType)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consultation audit: %w", err)
	}
	return entries, nil
}
