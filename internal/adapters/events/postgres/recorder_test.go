package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exemplo.com.br/creditos/internal/core/event"
	ctxutil "exemplo.com.br/creditos/internal/infrastructure/context"
	"exemplo.com.br/creditos/internal/testutil"
)

// TestRecorderIntegration runs against the database named by
// CREDITOS_TEST_DATABASE_URL, with migrations already applied.
func TestRecorderIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	dsn := os.Getenv("CREDITOS_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CREDITOS_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	correlationID := ctxutil.NewCorrelationID()
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM consulta_auditoria WHERE correlation_id = $1`, correlationID)
	})

	recorder := NewRecorder(pool, testutil.NewNullLogger())
	at := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	consultation := event.Consultation{
		Type:        event.ConsultationByInvoice,
		Value:       "NFS-IT",
		ResultCount: 2,
		Timestamp:   at,
		ClientIP:    "10.0.0.1",
		UserAgent:   "go-test",
	}

	require.NoError(t, recorder.Publish(ctxutil.WithCorrelationID(ctx, correlationID), consultation))

	entries, err := recorder.FindByCorrelationID(ctx, correlationID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, correlationID, entries[0].CorrelationID)
	assert.Equal(t, event.ConsultationByInvoice, entries[0].Consultation.Type)
	assert.Equal(t, "NFS-IT", entries[0].Consultation.Value)
	assert.Equal(t, 2, entries[0].Consultation.ResultCount)
	assert.True(t, at.Equal(entries[0].Consultation.Timestamp))
}
