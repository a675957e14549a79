package credit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corecredit "exemplo.com.br/creditos/internal/core/credit"
	"exemplo.com.br/creditos/internal/core/event"
	ctxutil "exemplo.com.br/creditos/internal/infrastructure/context"
	"exemplo.com.br/creditos/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Consultation
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, c event.Consultation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, c)
	return p.err
}

func (p *recordingPublisher) published() []event.Consultation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.Consultation(nil), p.events...)
}

var origin = Origin{ClientIP: "10.0.0.1", UserAgent: "test-agent"}

func TestNewService(t *testing.T) {
	repo := &testutil.MockRepository{}
	service := NewService(repo, nil, testutil.NewNullLogger())

	if service == nil {
		t.Fatal("expected service to be created, got nil")
	}
	if service.repo != repo {
		t.Error("expected service to have the provided repository")
	}
}

func TestService_ListByInvoice(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	repo := &testutil.MockRepository{
		FindByInvoiceNumberFunc: func(_ context.Context, n string) ([]corecredit.Record, error) {
			assert.Equal(t, "NFS-2024-001", n)
			return testutil.SampleRecords(3), nil
		},
	}
	pub := &recordingPublisher{}
	service := NewService(repo, pub, testutil.NewNullLogger())
	service.now = func() time.Time { return now }

	records, err := service.ListByInvoice(context.Background(), " NFS-2024-001 ", origin)
	service.Wait()

	require.NoError(t, err)
	assert.Len(t, records, 3)

	events := pub.published()
	require.Len(t, events, 1)
	assert.Equal(t, event.Consultation{
		Type:        event.ConsultationByInvoice,
		Value:       "NFS-2024-001",
		ResultCount: 3,
		Timestamp:   now,
		ClientIP:    "10.0.0.1",
		UserAgent:   "test-agent",
	}, events[0])
}

func TestService_ListByInvoiceEmptyIsNotAnError(t *testing.T) {
	repo := &testutil.MockRepository{
		FindByInvoiceNumberFunc: func(context.Context, string) ([]corecredit.Record, error) {
			return nil, nil
		},
	}
	pub := &recordingPublisher{}
	service := NewService(repo, pub, testutil.NewNullLogger())

	records, err := service.ListByInvoice(context.Background(), "NFS-404", origin)
	service.Wait()

	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
	require.Len(t, pub.published(), 1)
	assert.Zero(t, pub.published()[0].ResultCount)
}

func TestService_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "too short", value: "ab"},
		{name: "invalid characters", value: "NFS 1"},
		{name: "too long", value: "123456789012345678901234567890123456789012345678901"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			repo := &testutil.MockRepository{
				FindByInvoiceNumberFunc: func(context.Context, string) ([]corecredit.Record, error) {
					called = true
					return nil, nil
				},
				FindByCreditNumberFunc: func(context.Context, string) (*corecredit.Record, error) {
					called = true
					return nil, nil
				},
			}
			pub := &recordingPublisher{}
			service := NewService(repo, pub, testutil.NewNullLogger())

			_, err := service.ListByInvoice(context.Background(), tt.value, origin)
			assert.ErrorIs(t, err, corecredit.ErrInvalidQuery)
			_, err = service.GetByCredit(context.Background(), tt.value, origin)
			assert.ErrorIs(t, err, corecredit.ErrInvalidQuery)
			service.Wait()

			assert.False(t, called)
			assert.Empty(t, pub.published())
		})
	}
}

func TestService_GetByCredit(t *testing.T) {
	record := testutil.SampleRecord(7)
	repo := &testutil.MockRepository{
		FindByCreditNumberFunc: func(_ context.Context, n string) (*corecredit.Record, error) {
			if n == "CR-0007" {
				return &record, nil
			}
			return nil, corecredit.ErrNotFound
		},
	}
	pub := &recordingPublisher{}
	service := NewService(repo, pub, testutil.NewNullLogger())

	got, err := service.GetByCredit(context.Background(), "CR-0007", origin)
	require.NoError(t, err)
	assert.Equal(t, "CR-0007", got.CreditNumber)

	_, err = service.GetByCredit(context.Background(), "CR-9999", origin)
	assert.ErrorIs(t, err, corecredit.ErrNotFound)

	service.Wait()
	events := pub.published()
	require.Len(t, events, 1, "only successful lookups are recorded")
	assert.Equal(t, event.ConsultationByCredit, events[0].Type)
	assert.Equal(t, 1, events[0].ResultCount)
}

func TestService_RepositoryFailure(t *testing.T) {
	repo := &testutil.MockRepository{
		FindByInvoiceNumberFunc: func(context.Context, string) ([]corecredit.Record, error) {
			return nil, errors.New("connection refused")
		},
	}
	service := NewService(repo, &recordingPublisher{}, testutil.NewNullLogger())

	_, err := service.ListByInvoice(context.Background(), "NFS-1", origin)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NotErrorIs(t, err, corecredit.ErrNotFound)
}

func TestService_PublishFailureDoesNotFailLookup(t *testing.T) {
	repo := &testutil.MockRepository{
		FindByInvoiceNumberFunc: func(context.Context, string) ([]corecredit.Record, error) {
			return testutil.SampleRecords(1), nil
		},
	}
	pub := &recordingPublisher{err: errors.New("redis down")}
	service := NewService(repo, pub, testutil.NewNullLogger())

	records, err := service.ListByInvoice(context.Background(), "NFS-1", origin)
	service.Wait()

	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, pub.published(), 1)
}

func TestService_NilPublisher(t *testing.T) {
	repo := &testutil.MockRepository{
		FindByInvoiceNumberFunc: func(context.Context, string) ([]corecredit.Record, error) {
			return testutil.SampleRecords(1), nil
		},
	}
	service := NewService(repo, nil, testutil.NewNullLogger())

	_, err := service.ListByInvoice(context.Background(), "NFS-1", origin)
	service.Wait()

	assert.NoError(t, err)
}

func TestService_FanoutReachesEveryPublisher(t *testing.T) {
	repo := &testutil.MockRepository{
		FindByCreditNumberFunc: func(context.Context, string) (*corecredit.Record, error) {
			record := testutil.SampleRecord(1)
			return &record, nil
		},
	}
	var correlationID string
	failing := &testutil.MockPublisher{
		PublishFunc: func(ctx context.Context, _ event.Consultation) error {
			correlationID = ctxutil.GetCorrelationID(ctx)
			return errors.New("stream unavailable")
		},
	}
	audit := &recordingPublisher{}
	service := NewService(repo, event.Fanout{failing, audit}, testutil.NewNullLogger())

	ctx := ctxutil.WithCorrelationID(context.Background(), "corr-123")
	_, err := service.GetByCredit(ctx, "CR-0001", origin)
	service.Wait()

	require.NoError(t, err)
	assert.Equal(t, "corr-123", correlationID, "publication keeps the request correlation ID")
	assert.Len(t, audit.published(), 1)
}
