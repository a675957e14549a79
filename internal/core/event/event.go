package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"exemplo.com.br/creditos/internal/core/credit"
)

// ConsultationType identifies which key a consultation used.
type ConsultationType string

const (
	// ConsultationByInvoice is a lookup by NFS-e number.
	ConsultationByInvoice ConsultationType = "NUMERO_NFSE"
	// ConsultationByCredit is a lookup by credit number.
	ConsultationByCredit ConsultationType = "NUMERO_CREDITO"
)

// Consultation records one credit lookup served by the API.
type Consultation struct {
	Type        ConsultationType
	Value       string
	ResultCount int
	Timestamp   time.Time
	ClientIP    string
	UserAgent   string
}

// ToConsultationType translates a query kind to its event type.
func ToConsultationType(kind credit.QueryKind) (ConsultationType, error) {
	switch kind {
	case credit.ByInvoice:
		return ConsultationByInvoice, nil
	case credit.ByCredit:
		return ConsultationByCredit, nil
	default:
		return "", fmt.Errorf("invalid query kind: %s", kind)
	}
}

// Key returns the partition key used when publishing: type and epoch millis.
func (c Consultation) Key() string {
	return fmt.Sprintf("%s_%d", c.Type, c.Timestamp.UnixMilli())
}

// Publisher delivers consultation events to the audit stream.
type Publisher interface {
	Publish(ctx context.Context, c Consultation) error
}

// Fanout delivers each consultation to every publisher. A failing
// publisher does not stop the others; their errors are joined.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, c Consultation) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
