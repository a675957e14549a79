package credit

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the settlement situation of a tax credit.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusPaid     Status = "PAID"
	StatusOverdue  Status = "OVERDUE"
	StatusCanceled Status = "CANCELED"
	StatusUnknown  Status = "UNKNOWN"
)

// ParseStatus normalizes the situation string returned by the credits API.
// Both the English and the Portuguese spellings are accepted.
func ParseStatus(raw string) Status {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PENDING", "PENDENTE":
		return StatusPending
	case "PAID", "PAGO":
		return StatusPaid
	case "OVERDUE", "VENCIDO":
		return StatusOverdue
	case "CANCELED", "CANCELLED", "CANCELADO":
		return StatusCanceled
	default:
		return StatusUnknown
	}
}

// Portuguese returns the spelling used on the wire and in the database.
func (s Status) Portuguese() string {
	switch s {
	case StatusPending:
		return "PENDENTE"
	case StatusPaid:
		return "PAGO"
	case StatusOverdue:
		return "VENCIDO"
	case StatusCanceled:
		return "CANCELADO"
	default:
		return ""
	}
}

// Detail carries the ISSQN breakdown of a credit. It is optional on the wire.
type Detail struct {
	ConstitutedAt   time.Time
	ISSQNAmount     decimal.Decimal
	CreditType      string
	SimplesNacional bool
	Rate            decimal.Decimal
	InvoicedAmount  decimal.Decimal
	Deduction       decimal.Decimal
	CalculationBase decimal.Decimal
}

// Record is one tax credit linked to an NFS-e.
type Record struct {
	ID               string
	CreditNumber     string
	InvoiceNumber    string
	TaxpayerDocument string
	TaxpayerName     string
	DueDate          time.Time
	Amount           decimal.Decimal
	Status           Status
	QueriedAt        time.Time
	Detail           *Detail
}

// QueryResult is a normalized answer from the credits API.
type QueryResult struct {
	Records   []Record
	Total     int
	Timestamp time.Time
}

// NewQueryResult stamps every record with the normalization instant.
func NewQueryResult(records []Record, now time.Time) *QueryResult {
	out := make([]Record, len(records))
	for i, r := range records {
		r.QueriedAt = now
		out[i] = r
	}
	return &QueryResult{
		Records:   out,
		Total:     len(out),
		Timestamp: now,
	}
}
