package credit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	corecredit "exemplo.com.br/creditos/internal/core/credit"
	"exemplo.com.br/creditos/internal/core/event"
	ctxutil "exemplo.com.br/creditos/internal/infrastructure/context"
)

const publishTimeout = 5 * time.Second

// Origin identifies the client that asked for a lookup.
type Origin struct {
	ClientIP  string
	UserAgent string
}

// Service answers credit lookups from storage and records each one as a
// consultation event. Event delivery never affects the lookup result.
type Service struct {
	repo      corecredit.Repository
	publisher event.Publisher
	log       *slog.Logger
	now       func() time.Time
	pending   sync.WaitGroup
}

// NewService creates a lookup service. A nil publisher disables events.
func NewService(repo corecredit.Repository, publisher event.Publisher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// ListByInvoice returns every credit of an NFS-e, newest first. No match
// is an empty slice, not an error.
func (s *Service) ListByInvoice(ctx context.Context, invoiceNumber string, origin Origin) ([]corecredit.Record, error) {
	req, err := corecredit.NewQueryRequest(corecredit.ByInvoice, invoiceNumber)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.FindByInvoiceNumber(ctx, req.Value)
	if err != nil {
		return nil, fmt.Errorf("find credits by invoice %s: %w", req.Value, err)
	}
	if records == nil {
		records = []corecredit.Record{}
	}

	s.publish(ctx, req, len(records), origin)
	return records, nil
}

// GetByCredit returns corecredit.ErrNotFound when the credit does not exist.
func (s *Service) GetByCredit(ctx context.Context, creditNumber string, origin Origin) (*corecredit.Record, error) {
	req, err := corecredit.NewQueryRequest(corecredit.ByCredit, creditNumber)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.FindByCreditNumber(ctx, req.Value)
	if err != nil {
		return nil, fmt.Errorf("find credit %s: %w", req.Value, err)
	}

	s.publish(ctx, req, 1, origin)
	return record, nil
}

// Wait blocks until every pending event publication finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) publish(ctx context.Context, req corecredit.QueryRequest, count int, origin Origin) {
	if s.publisher == nil {
		return
	}

	consultationType, err := event.ToConsultationType(req.Kind)
	if err != nil {
		s.log.Error("Unsupported consultation type", "kind", req.Kind, "error", err)
		return
	}
	consultation := event.Consultation{
		Type:        consultationType,
		Value:       req.Value,
		ResultCount: count,
		Timestamp:   s.now(),
		ClientIP:    origin.ClientIP,
		UserAgent:   origin.UserAgent,
	}
	correlationID := ctxutil.GetCorrelationID(ctx)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("Panic while publishing consultation event",
					"panic", r,
					"correlation_id", correlationID,
				)
			}
		}()

		// The request context ends with the response; publication outlives it.
		pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		pubCtx = ctxutil.WithCorrelationID(pubCtx, correlationID)

		if err := s.publisher.Publish(pubCtx, consultation); err != nil {
			s.log.Error("Failed to publish consultation event",
				"error", err,
				"correlation_id", correlationID,
				"type", consultation.Type,
				"key", consultation.Key(),
			)
			return
		}
		s.log.Debug("Consultation event published",
			"correlation_id", correlationID,
			"type", consultation.Type,
			"results", consultation.ResultCount,
		)
	}()
}
