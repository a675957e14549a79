package consulta

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exemplo.com.br/creditos/internal/core/credit"
)

func TestNewForm_Defaults(t *testing.T) {
	f := NewForm()

	kind, value := f.Draft()
	assert.Equal(t, credit.ByInvoice, kind)
	assert.Empty(t, value)
	assert.False(t, f.Submitting())
}

func TestForm_Validate(t *testing.T) {
	tests := []struct {
		name       string
		kind       credit.QueryKind
		value      string
		wantValid  bool
		wantField  string
		wantReason Reason
	}{
		{name: "valid invoice number", kind: credit.ByInvoice, value: "NFS-2024/001.A", wantValid: true},
		{name: "valid credit number", kind: credit.ByCredit, value: "CR123", wantValid: true},
		{name: "exactly three characters", kind: credit.ByInvoice, value: "abc", wantValid: true},
		{name: "empty", kind: credit.ByInvoice, value: "", wantField: FieldValue, wantReason: ReasonRequired},
		{name: "blank", kind: credit.ByInvoice, value: "   ", wantField: FieldValue, wantReason: ReasonRequired},
		{name: "too short after trim", kind: credit.ByInvoice, value: " ab ", wantField: FieldValue, wantReason: ReasonTooShort},
		{name: "too long", kind: credit.ByInvoice, value: strings.Repeat("9", 51), wantField: FieldValue, wantReason: ReasonTooLong},
		{name: "space inside", kind: credit.ByInvoice, value: "12 345", wantField: FieldValue, wantReason: ReasonPattern},
		{name: "symbol", kind: credit.ByInvoice, value: "123#45", wantField: FieldValue, wantReason: ReasonPattern},
		{name: "accented letter", kind: credit.ByInvoice, value: "crédito", wantField: FieldValue, wantReason: ReasonPattern},
		{name: "unknown kind", kind: credit.QueryKind("cnpj"), value: "12345", wantField: FieldKind, wantReason: ReasonInvalidKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewForm()
			f.Set(tt.kind, tt.value)

			got := f.Validate()

			assert.Equal(t, tt.wantValid, got.Valid)
			if tt.wantValid {
				assert.Empty(t, got.FieldErrors)
				return
			}
			require.Contains(t, got.FieldErrors, tt.wantField)
			assert.Equal(t, tt.wantReason, got.FieldErrors[tt.wantField].Reason)
			assert.NotEmpty(t, got.FieldErrors[tt.wantField].Message)
		})
	}
}

func TestForm_SubmitInvalidEmitsNothing(t *testing.T) {
	f := NewForm()
	f.Set(credit.ByInvoice, "12")

	req, result, err := f.Submit()

	assert.ErrorIs(t, err, ErrInvalidForm)
	assert.False(t, result.Valid)
	assert.Equal(t, credit.QueryRequest{}, req)
	assert.False(t, f.Submitting())
}

func TestForm_SubmitEmitsTrimmedRequestOnce(t *testing.T) {
	f := NewForm()
	f.Set(credit.ByCredit, "  CR-001  ")

	req, result, err := f.Submit()
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, credit.QueryRequest{Kind: credit.ByCredit, Value: "CR-001"}, req)
	assert.True(t, f.Submitting())

	_, _, err = f.Submit()
	assert.ErrorIs(t, err, ErrSubmitting, "second submission while in flight must be blocked")

	f.Release()
	assert.False(t, f.Submitting())

	again, _, err := f.Submit()
	require.NoError(t, err)
	assert.Equal(t, req, again)
}

func TestForm_BeginSharesTheSubmittingGuard(t *testing.T) {
	f := NewForm()
	f.Set(credit.ByInvoice, "NFS-1")

	require.NoError(t, f.Begin())
	assert.True(t, f.Submitting())
	assert.ErrorIs(t, f.Begin(), ErrSubmitting)
	_, _, err := f.Submit()
	assert.ErrorIs(t, err, ErrSubmitting)

	f.Release()
	_, _, err = f.Submit()
	require.NoError(t, err)
	assert.ErrorIs(t, f.Begin(), ErrSubmitting)
}

func TestForm_SetEmptyKindKeepsDefault(t *testing.T) {
	f := NewForm()
	f.Set("", "12345")

	kind, _ := f.Draft()
	assert.Equal(t, credit.ByInvoice, kind)
}

func TestForm_Reset(t *testing.T) {
	f := NewForm()
	f.Set(credit.ByCredit, "CR-001")
	_, _, err := f.Submit()
	require.NoError(t, err)

	f.Reset()

	kind, value := f.Draft()
	assert.Equal(t, credit.ByInvoice, kind)
	assert.Empty(t, value)
	assert.False(t, f.Submitting())
}
