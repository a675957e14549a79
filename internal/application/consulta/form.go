package consulta

import (
	"errors"
	"strings"
	"sync"

	"exemplo.com.br/creditos/internal/core/credit"
)

// Form field names, as posted by the page.
const (
	FieldKind  = "tipoConsulta"
	FieldValue = "valor"
)

// Reason explains why a field failed validation.
type Reason string

const (
	ReasonRequired    Reason = "required"
	ReasonTooShort    Reason = "too-short"
	ReasonTooLong     Reason = "too-long"
	ReasonPattern     Reason = "pattern"
	ReasonInvalidKind Reason = "invalid-kind"
)

var (
	// ErrInvalidForm is returned by Submit when the draft fails validation.
	ErrInvalidForm = errors.New("invalid form")
	// ErrSubmitting is returned by Submit while a previous query is unresolved.
	ErrSubmitting = errors.New("query already in progress")
)

// FieldError is a validation failure bound to one form field.
type FieldError struct {
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of Form.Validate.
type ValidationResult struct {
	Valid       bool                  `json:"valid"`
	FieldErrors map[string]FieldError `json:"fieldErrors,omitempty"`
}

var fieldMessages = map[Reason]string{
	ReasonRequired:    "Campo obrigatório",
	ReasonTooShort:    "Mínimo de 3 caracteres",
	ReasonTooLong:     "Máximo de 50 caracteres",
	ReasonPattern:     "Apenas letras, números, hífen, ponto e barra são permitidos",
	ReasonInvalidKind: "Tipo de consulta inválido",
}

// Form holds the draft query typed by the user.
type Form struct {
	mu         sync.Mutex
	kind       credit.QueryKind
	value      string
	submitting bool
}

// NewForm returns a form defaulting to lookup by NFS-e.
func NewForm() *Form {
	return &Form{kind: credit.ByInvoice}
}

// Set replaces the draft. An empty kind keeps the default.
func (f *Form) Set(kind credit.QueryKind, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if kind == "" {
		kind = credit.ByInvoice
	}
	f.kind = kind
	f.value = value
}

// Draft returns the current kind and raw value.
func (f *Form) Draft() (credit.QueryKind, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kind, f.value
}

// Submitting reports whether a submitted query has not resolved yet.
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Validate checks the draft without changing it.
func (f *Form) Validate() ValidationResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return validate(f.kind, f.value)
}

func validate(kind credit.QueryKind, raw string) ValidationResult {
	errs := make(map[string]FieldError)

	if !kind.Valid() {
		errs[FieldKind] = fieldError(ReasonInvalidKind)
	}

	value := strings.TrimSpace(raw)
	switch {
	case value == "":
		errs[FieldValue] = fieldError(ReasonRequired)
	case len(value) < credit.MinValueLength:
		errs[FieldValue] = fieldError(ReasonTooShort)
	case len(value) > credit.MaxValueLength:
		errs[FieldValue] = fieldError(ReasonTooLong)
	case !credit.ValidValue(value):
		errs[FieldValue] = fieldError(ReasonPattern)
	}

	if len(errs) == 0 {
		return ValidationResult{Valid: true}
	}
	return ValidationResult{Valid: false, FieldErrors: errs}
}

func fieldError(r Reason) FieldError {
	return FieldError{Reason: r, Message: fieldMessages[r]}
}

// Submit validates the draft and, when valid and idle, emits the trimmed
// request and marks the form as submitting. Nothing is emitted on error.
func (f *Form) Submit() (credit.QueryRequest, ValidationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := validate(f.kind, f.value)
	if !result.Valid {
		return credit.QueryRequest{}, result, ErrInvalidForm
	}
	if f.submitting {
		return credit.QueryRequest{}, result, ErrSubmitting
	}

	f.submitting = true
	return credit.QueryRequest{Kind: f.kind, Value: strings.TrimSpace(f.value)}, result, nil
}

// Begin marks the form as submitting without emitting the draft, for
// re-running a query already sent. It fails with ErrSubmitting while busy.
func (f *Form) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.submitting {
		return ErrSubmitting
	}
	f.submitting = true
	return nil
}

// Release clears the submitting flag once the query resolved.
func (f *Form) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false
}

// Reset restores the defaults.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kind = credit.ByInvoice
	f.value = ""
	f.submitting = false
}
