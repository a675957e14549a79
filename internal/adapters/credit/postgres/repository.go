package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"exemplo.com.br/creditos/internal/core/credit"
)

// Numeric columns are read as text so that decimal values keep their scale.
const selectColumns = `
	SELECT id, numero_credito, numero_nfse, data_constituicao,
	       valor_issqn::text, tipo_credito, simples_nacional, aliquota::text,
	       valor_faturado::text, valor_deducao::text, base_calculo::text,
	       cpf_cnpj, razao_social, data_vencimento, situacao
	  FROM credito`

// Repository implements the credit.Repository interface using PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository creates a new PostgreSQL credit repository.
func NewRepository(pool *pgxpool.Pool, log *slog.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

var _ credit.Repository = (*Repository)(nil)

// FindByInvoiceNumber lists the credits of an NFS-e, newest constitution date first.
func (r *Repository) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) ([]credit.Record, error) {
	rows, err := r.pool.Query(ctx, selectColumns+`
	 WHERE numero_nfse = $1
	 ORDER BY data_constituicao DESC, id DESC`, invoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("query credits by invoice: %w", err)
	}
	defer rows.Close()

	records := make([]credit.Record, 0)
	for rows.Next() {
		var row creditRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("scan credit: %w", err)
		}
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credits: %w", err)
	}

	r.log.Debug("Credits loaded by invoice",
		"numero_nfse", invoiceNumber,
		"count", len(records),
	)
	return records, nil
}

// FindByCreditNumber returns credit.ErrNotFound when no row matches.
func (r *Repository) FindByCreditNumber(ctx context.Context, creditNumber string) (*credit.Record, error) {
	var row creditRow
	err := r.pool.QueryRow(ctx, selectColumns+`
	 WHERE numero_credito = $1`, creditNumber).Scan(row.dest()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, credit.ErrNotFound
		}
		return nil, fmt.Errorf("query credit by number: %w", err)
	}

	rec, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type creditRow struct {
	id               int64
	creditNumber     string
	invoiceNumber    string
	constitutedAt    time.Time
	issqnAmount      string
	creditType       string
	simplesNacional  bool
	rate             string
	invoicedAmount   string
	deduction        string
	calculationBase  string
	taxpayerDocument string
	taxpayerName     string
	dueDate          *time.Time
	status           string
}

func (c *creditRow) dest() []any {
	return []any{
		&c.id, &c.creditNumber, &c.invoiceNumber, &c.constitutedAt,
		&c.issqnAmount, &c.creditType, &c.simplesNacional, &c.rate,
		&c.invoicedAmount, &c.deduction, &c.calculationBase,
		&c.taxpayerDocument, &c.taxpayerName, &c.dueDate, &c.status,
	}
}

func (c *creditRow) toDomain() (credit.Record, error) {
	amounts := make([]decimal.Decimal, 5)
	for i, raw := range []string{c.issqnAmount, c.rate, c.invoicedAmount, c.deduction, c.calculationBase} {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return credit.Record{}, fmt.Errorf("credit %s: parse numeric %q: %w", c.creditNumber, raw, err)
		}
		amounts[i] = d
	}

	rec := credit.Record{
		ID:               strconv.FormatInt(c.id, 10),
		CreditNumber:     c.creditNumber,
		InvoiceNumber:    c.invoiceNumber,
		TaxpayerDocument: c.taxpayerDocument,
		TaxpayerName:     c.taxpayerName,
		Amount:           amounts[0],
		Status:           credit.ParseStatus(c.status),
		Detail: &credit.Detail{
			ConstitutedAt:   c.constitutedAt,
			ISSQNAmount:     amounts[0],
			CreditType:      c.creditType,
			SimplesNacional: c.simplesNacional,
			Rate:            amounts[1],
			InvoicedAmount:  amounts[2],
			Deduction:       amounts[3],
			CalculationBase: amounts[4],
		},
	}
	if c.dueDate != nil {
		rec.DueDate = *c.dueDate
	}
	return rec, nil
}
