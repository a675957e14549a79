package testutil

import (
	"context"

	"exemplo.com.br/creditos/internal/core/credit"
	"exemplo.com.br/creditos/internal/core/event"
)

// MockQueryService is a mock implementation of credit.QueryService for testing.
type MockQueryService struct {
	QueryByInvoiceFunc func(ctx context.Context, invoiceNumber string) (*credit.QueryResult, error)
	QueryByCreditFunc  func(ctx context.Context, creditNumber string) (*credit.QueryResult, error)
}

// QueryByInvoice calls the mock function if set, otherwise returns an empty result.
func (m *MockQueryService) QueryByInvoice(ctx context.Context, invoiceNumber string) (*credit.QueryResult, error) {
	if m.QueryByInvoiceFunc != nil {
		return m.QueryByInvoiceFunc(ctx, invoiceNumber)
	}
	return &credit.QueryResult{Records: []credit.Record{}}, nil
}

// QueryByCredit calls the mock function if set, otherwise returns an empty result.
func (m *MockQueryService) QueryByCredit(ctx context.Context, creditNumber string) (*credit.QueryResult, error) {
	if m.QueryByCreditFunc != nil {
		return m.QueryByCreditFunc(ctx, creditNumber)
	}
	return &credit.QueryResult{Records: []credit.Record{}}, nil
}

// Ensure MockQueryService implements credit.QueryService interface.
var _ credit.QueryService = (*MockQueryService)(nil)

// MockRepository is a mock implementation of credit.Repository for testing.
type MockRepository struct {
	FindByInvoiceNumberFunc func(ctx context.Context, invoiceNumber string) ([]credit.Record, error)
	FindByCreditNumberFunc  func(ctx context.Context, creditNumber string) (*credit.Record, error)
}

// FindByInvoiceNumber calls the mock function if set, otherwise returns an empty slice.
func (m *MockRepository) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) ([]credit.Record, error) {
	if m.FindByInvoiceNumberFunc != nil {
		return m.FindByInvoiceNumberFunc(ctx, invoiceNumber)
	}
	return []credit.Record{}, nil
}

// FindByCreditNumber calls the mock function if set, otherwise returns credit.ErrNotFound.
func (m *MockRepository) FindByCreditNumber(ctx context.Context, creditNumber string) (*credit.Record, error) {
	if m.FindByCreditNumberFunc != nil {
		return m.FindByCreditNumberFunc(ctx, creditNumber)
	}
	return nil, credit.ErrNotFound
}

// Ensure MockRepository implements credit.Repository interface.
var _ credit.Repository = (*MockRepository)(nil)

// MockPublisher is a mock implementation of event.Publisher for testing.
type MockPublisher struct {
	PublishFunc func(ctx context.Context, c event.Consultation) error
}

// Publish calls the mock function if set, otherwise returns nil.
func (m *MockPublisher) Publish(ctx context.Context, c event.Consultation) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, c)
	}
	return nil
}

// Ensure MockPublisher implements event.Publisher interface.
var _ event.Publisher = (*MockPublisher)(nil)
