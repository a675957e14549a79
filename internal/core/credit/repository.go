package credit

import "context"

// Repository defines the read operations over stored credits.
type Repository interface {
	// FindByInvoiceNumber returns the credits of an NFS-e, newest constitution date first.
	// An empty slice means no match.
	FindByInvoiceNumber(ctx context.Context, invoiceNumber string) ([]Record, error)

	// FindByCreditNumber returns ErrNotFound when no credit has that number.
	FindByCreditNumber(ctx context.Context, creditNumber string) (*Record, error)
}
