package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"exemplo.com.br/creditos/internal/core/credit"
)

// creditResponse is one credit as served by the credits API. Several
// fields have historical aliases; the first non-empty one wins.
type creditResponse struct {
	ID                   json.RawMessage     `json:"id"`
	NumeroCredito        string              `json:"numeroCredito"`
	NumeroNfse           string              `json:"numeroNfse"`
	CpfCnpj              string              `json:"cpfCnpj"`
	CnpjPrestador        string              `json:"cnpjPrestador"`
	RazaoSocial          string              `json:"razaoSocial"`
	RazaoSocialPrestador string              `json:"razaoSocialPrestador"`
	Contribuinte         string              `json:"contribuinte"`
	DataVencimento       string              `json:"dataVencimento"`
	Valor                decimal.NullDecimal `json:"valor"`
	Situacao             string              `json:"situacao"`
	Status               string              `json:"status"`

	DataConstituicao string              `json:"dataConstituicao"`
	ValorIssqn       decimal.NullDecimal `json:"valorIssqn"`
	TipoCredito      string              `json:"tipoCredito"`
	SimplesNacional  json.RawMessage     `json:"simplesNacional"`
	Aliquota         decimal.NullDecimal `json:"aliquota"`
	ValorFaturado    decimal.NullDecimal `json:"valorFaturado"`
	ValorDeducao     decimal.NullDecimal `json:"valorDeducao"`
	BaseCalculo      decimal.NullDecimal `json:"baseCalculo"`
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// parseDate accepts the layouts the API has used over time. Unparseable
// values yield the zero time, which renders as an empty cell.
func parseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseID accepts numeric and string identifiers.
func parseID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// parseFlag accepts JSON booleans and the "S"/"N", "Sim"/"Não" spellings.
func parseFlag(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "S", "SIM", "TRUE", "1":
		return true
	default:
		return false
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (c creditResponse) hasDetail() bool {
	return c.DataConstituicao != "" || c.ValorIssqn.Valid || c.TipoCredito != "" ||
		c.Aliquota.Valid || c.BaseCalculo.Valid || c.ValorFaturado.Valid
}

func (c creditResponse) toDomain() (credit.Record, error) {
	amount := c.Valor.Decimal
	if amount.IsNegative() {
		return credit.Record{}, fmt.Errorf("credit %s has negative amount %s", c.NumeroCredito, amount)
	}

	record := credit.Record{
		ID:               parseID(c.ID),
		CreditNumber:     c.NumeroCredito,
		InvoiceNumber:    c.NumeroNfse,
		TaxpayerDocument: firstNonEmpty(c.CpfCnpj, c.CnpjPrestador),
		TaxpayerName:     firstNonEmpty(c.RazaoSocial, c.RazaoSocialPrestador, c.Contribuinte),
		DueDate:          parseDate(c.DataVencimento),
		Amount:           amount,
		Status:           credit.ParseStatus(firstNonEmpty(c.Situacao, c.Status)),
	}

	if c.hasDetail() {
		record.Detail = &credit.Detail{
			ConstitutedAt:   parseDate(c.DataConstituicao),
			ISSQNAmount:     c.ValorIssqn.Decimal,
			CreditType:      c.TipoCredito,
			SimplesNacional: parseFlag(c.SimplesNacional),
			Rate:            c.Aliquota.Decimal,
			InvoicedAmount:  c.ValorFaturado.Decimal,
			Deduction:       c.ValorDeducao.Decimal,
			CalculationBase: c.BaseCalculo.Decimal,
		}
	}
	return record, nil
}

// decodeCredits reads either a JSON array or a single object.
func decodeCredits(body []byte) ([]credit.Record, error) {
	body = bytes.TrimSpace(body)

	var raw []creditResponse
	switch {
	case len(body) == 0 || bytes.Equal(body, []byte("null")):
		return []credit.Record{}, nil
	case body[0] == '[':
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("decode credit list: %w", err)
		}
	default:
		var single creditResponse
		if err := json.Unmarshal(body, &single); err != nil {
			return nil, fmt.Errorf("decode credit: %w", err)
		}
		raw = []creditResponse{single}
	}

	records := make([]credit.Record, 0, len(raw))
	for _, r := range raw {
		rec, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// errorResponse mirrors the API error body.
type errorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}
