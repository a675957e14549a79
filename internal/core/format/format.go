// Package format renders credit fields the way the Brazilian tax office prints them.
// None of the functions fail: malformed input is shown as received.
package format

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"exemplo.com.br/creditos/internal/core/credit"
)

const (
	dateLayout     = "02/01/2006"
	dateTimeLayout = "02/01/2006 15:04:05"
)

// CurrencyBRL formats an amount as "R$ 1.234,50".
func CurrencyBRL(amount decimal.Decimal) string {
	sign := ""
	if amount.Round(2).Sign() < 0 {
		sign = "-"
	}
	return sign + "R$ " + groupDecimal(amount.Abs().StringFixed(2))
}

// Percent formats a rate as "5,00%".
func Percent(rate decimal.Decimal) string {
	s := rate.StringFixed(2)
	if strings.HasPrefix(s, "-") {
		return "-" + groupDecimal(s[1:]) + "%"
	}
	return groupDecimal(s) + "%"
}

// groupDecimal turns "1234567.89" into "1.234.567,89".
func groupDecimal(fixed string) string {
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(intPart[i : i+3])
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}

// Date formats t as dd/MM/yyyy. The zero time renders empty.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// DateTime formats t as dd/MM/yyyy HH:mm:ss. The zero time renders empty.
func DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeLayout)
}

// MaskDocument punctuates a CPF (11 digits) or CNPJ (14 digits).
// Any other digit count returns the input unchanged.
func MaskDocument(doc string) string {
	digits := onlyDigits(doc)
	switch len(digits) {
	case 11:
		return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
	case 14:
		return digits[0:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:14]
	default:
		return doc
	}
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsOverdue reports whether due lies strictly before now.
func IsOverdue(due, now time.Time) bool {
	if due.IsZero() {
		return false
	}
	return due.Before(now)
}

// ColorTag is the theme palette entry used to paint a status chip.
type ColorTag string

const (
	ColorPrimary ColorTag = "primary"
	ColorAccent  ColorTag = "accent"
	ColorWarn    ColorTag = "warn"
)

// StatusColor maps a status to its chip color.
func StatusColor(s credit.Status) ColorTag {
	switch s {
	case credit.StatusPaid:
		return ColorPrimary
	case credit.StatusOverdue:
		return ColorWarn
	case credit.StatusPending:
		return ColorAccent
	default:
		return ColorAccent
	}
}

// StatusLabel is the text shown inside a status chip.
func StatusLabel(s credit.Status) string {
	switch s {
	case credit.StatusPending:
		return "PENDENTE"
	case credit.StatusPaid:
		return "PAGO"
	case credit.StatusOverdue:
		return "VENCIDO"
	case credit.StatusCanceled:
		return "CANCELADO"
	default:
		return "DESCONHECIDO"
	}
}

// StatusIcon is the Material icon name shown next to the label.
func StatusIcon(s credit.Status) string {
	switch s {
	case credit.StatusPending:
		return "schedule"
	case credit.StatusPaid:
		return "check_circle"
	case credit.StatusOverdue:
		return "error"
	case credit.StatusCanceled:
		return "cancel"
	default:
		return "help"
	}
}
