package credit

import (
	corecredit "exemplo.com.br/creditos/internal/core/credit"
)

const dateLayout = "2006-01-02"

// CreditDTO is the wire shape of a credit. Amounts are decimal strings
// with fixed scale.
type CreditDTO struct {
	ID               string `json:"id"`
	NumeroCredito    string `json:"numeroCredito"`
	NumeroNfse       string `json:"numeroNfse"`
	CpfCnpj          string `json:"cpfCnpj"`
	RazaoSocial      string `json:"razaoSocial"`
	DataVencimento   string `json:"dataVencimento,omitempty"`
	Valor            string `json:"valor"`
	Situacao         string `json:"situacao"`
	DataConstituicao string `json:"dataConstituicao,omitempty"`
	ValorIssqn       string `json:"valorIssqn,omitempty"`
	TipoCredito      string `json:"tipoCredito,omitempty"`
	SimplesNacional  string `json:"simplesNacional,omitempty"`
	Aliquota         string `json:"aliquota,omitempty"`
	ValorFaturado    string `json:"valorFaturado,omitempty"`
	ValorDeducao     string `json:"valorDeducao,omitempty"`
	BaseCalculo      string `json:"baseCalculo,omitempty"`
}

// ToDTO converts a domain record. Simples Nacional is rendered as "Sim"/"Não".
func ToDTO(r corecredit.Record) CreditDTO {
	dto := CreditDTO{
		ID:            r.ID,
		NumeroCredito: r.CreditNumber,
		NumeroNfse:    r.InvoiceNumber,
		CpfCnpj:       r.TaxpayerDocument,
		RazaoSocial:   r.TaxpayerName,
		Valor:         r.Amount.StringFixed(2),
		Situacao:      r.Status.Portuguese(),
	}
	if !r.DueDate.IsZero() {
		dto.DataVencimento = r.DueDate.Format(dateLayout)
	}

	if d := r.Detail; d != nil {
		if !d.ConstitutedAt.IsZero() {
			dto.DataConstituicao = d.ConstitutedAt.Format(dateLayout)
		}
		dto.ValorIssqn = d.ISSQNAmount.StringFixed(2)
		dto.TipoCredito = d.CreditType
		dto.SimplesNacional = "Não"
		if d.SimplesNacional {
			dto.SimplesNacional = "Sim"
		}
		dto.Aliquota = d.Rate.StringFixed(2)
		dto.ValorFaturado = d.InvoicedAmount.StringFixed(2)
		dto.ValorDeducao = d.Deduction.StringFixed(2)
		dto.BaseCalculo = d.CalculationBase.StringFixed(2)
	}
	return dto
}
