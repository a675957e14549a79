package testutil

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"exemplo.com.br/creditos/internal/core/credit"
)

// SampleRecord returns a pending credit whose numbers derive from i.
func SampleRecord(i int) credit.Record {
	return credit.Record{
		ID:               fmt.Sprintf("%d", i),
		CreditNumber:     fmt.Sprintf("CR-%04d", i),
		InvoiceNumber:    "NFS-2024-001",
		TaxpayerDocument: "12345678000195",
		TaxpayerName:     fmt.Sprintf("Empresa %02d Ltda", i),
		DueDate:          time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
		Amount:           decimal.NewFromInt(int64(100 * i)),
		Status:           credit.StatusPending,
	}
}

// SampleRecords returns n records numbered from 1.
func SampleRecords(n int) []credit.Record {
	records := make([]credit.Record, 0, n)
	for i := 1; i <= n; i++ {
		records = append(records, SampleRecord(i))
	}
	return records
}

// SampleResult wraps n sample records in a query result stamped at now.
func SampleResult(n int, now time.Time) *credit.QueryResult {
	return credit.NewQueryResult(SampleRecords(n), now)
}
