package credit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	appcredit "exemplo.com.br/creditos/internal/application/credit"
	corecredit "exemplo.com.br/creditos/internal/core/credit"
	"exemplo.com.br/creditos/internal/core/event"
	httperrors "exemplo.com.br/creditos/internal/infrastructure/http"
	"exemplo.com.br/creditos/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Consultation
}

func (p *recordingPublisher) Publish(_ context.Context, c event.Consultation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, c)
	return nil
}

func newRouter(repo corecredit.Repository, pub event.Publisher) (http.Handler, *appcredit.Service) {
	service := appcredit.NewService(repo, pub, testutil.NewNullLogger())
	handler := NewHandler(service, testutil.NewNullLogger())
	r := chi.NewRouter()
	r.Route("/api", handler.Routes)
	return r, service
}

func detailedRecord() corecredit.Record {
	rec := testutil.SampleRecord(1)
	rec.Detail = &corecredit.Detail{
		ConstitutedAt:   time.Date(2024, 2, 25, 0, 0, 0, 0, time.UTC),
		ISSQNAmount:     decimal.RequireFromString("1500.75"),
		CreditType:      "ISSQN",
		SimplesNacional: true,
		Rate:            decimal.NewFromInt(5),
		InvoicedAmount:  decimal.NewFromInt(30000),
		Deduction:       decimal.NewFromInt(5000),
		CalculationBase: decimal.NewFromInt(25000),
	}
	return rec
}

func TestHandler_ListByInvoice(t *testing.T) {
	var gotNumber string
	repo := &testutil.MockRepository{
		FindByInvoiceNumberFunc: func(_ context.Context, n string) ([]corecredit.Record, error) {
			gotNumber = n
			return []corecredit.Record{detailedRecord(), testutil.SampleRecord(2)}, nil
		},
	}
	pub := &recordingPublisher{}
	router, service := newRouter(repo, pub)

	req := httptest.NewRequest(http.MethodGet, "/api/creditos/7891011", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("User-Agent", "test-agent")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)
	service.Wait()

	var body []CreditDTO
	testutil.DecodeJSON(t, w, http.StatusOK, &body)

	if gotNumber != "7891011" {
		t.Errorf("expected repository to receive 7891011, got %q", gotNumber)
	}
	if len(body) != 2 {
		t.Fatalf("expected 2 credits, got %d", len(body))
	}
	first := body[0]
	if first.Valor != "100.00" || first.ValorIssqn != "1500.75" || first.Aliquota != "5.00" {
		t.Errorf("unexpected amounts: %+v", first)
	}
	if first.SimplesNacional != "Sim" {
		t.Errorf("expected simplesNacional Sim, got %q", first.SimplesNacional)
	}
	if first.DataConstituicao != "2024-02-25" || first.DataVencimento != "2030-01-02" {
		t.Errorf("unexpected dates: %+v", first)
	}
	if first.Situacao != "PENDENTE" {
		t.Errorf("expected situacao PENDENTE, got %q", first.Situacao)
	}
	if body[1].TipoCredito != "" || body[1].SimplesNacional != "" {
		t.Errorf("record without detail must omit detail fields: %+v", body[1])
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Type != event.ConsultationByInvoice || ev.ResultCount != 2 {
		t.Errorf("unexpected event %+v", ev)
	}
	if ev.ClientIP != "10.1.2.3" || ev.UserAgent != "test-agent" {
		t.Errorf("origin not forwarded: %+v", ev)
	}
}

func TestHandler_ListByInvoiceEmpty(t *testing.T) {
	router, _ := newRouter(&testutil.MockRepository{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/creditos/0000000", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Body.String(); got != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", got)
	}
}

func TestHandler_GetByCredit(t *testing.T) {
	repo := &testutil.MockRepository{
		FindByCreditNumberFunc: func(_ context.Context, n string) (*corecredit.Record, error) {
			if n != "123456" {
				return nil, corecredit.ErrNotFound
			}
			rec := detailedRecord()
			return &rec, nil
		},
	}
	router, _ := newRouter(repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/creditos/credito/123456", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body CreditDTO
	testutil.DecodeJSON(t, w, http.StatusOK, &body)
	if body.NumeroCredito != "CR-0001" {
		t.Errorf("unexpected credit number %q", body.NumeroCredito)
	}
}

func TestHandler_EscapedSlashInNumber(t *testing.T) {
	var gotInvoice, gotCredit string
	repo := &testutil.MockRepository{
		FindByInvoiceNumberFunc: func(_ context.Context, n string) ([]corecredit.Record, error) {
			gotInvoice = n
			return nil, nil
		},
		FindByCreditNumberFunc: func(_ context.Context, n string) (*corecredit.Record, error) {
			gotCredit = n
			rec := testutil.SampleRecord(1)
			return &rec, nil
		},
	}
	router, _ := newRouter(repo, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/creditos/NFS%2F2024%2F1", nil))
	var list []CreditDTO
	testutil.DecodeJSON(t, w, http.StatusOK, &list)
	if gotInvoice != "NFS/2024/1" {
		t.Errorf("expected unescaped invoice number, got %q", gotInvoice)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/creditos/credito/CR%2F2024%2F7", nil))
	var one CreditDTO
	testutil.DecodeJSON(t, w, http.StatusOK, &one)
	if gotCredit != "CR/2024/7" {
		t.Errorf("expected unescaped credit number, got %q", gotCredit)
	}
}

func TestHandler_Errors(t *testing.T) {
	failing := &testutil.MockRepository{
		FindByInvoiceNumberFunc: func(context.Context, string) ([]corecredit.Record, error) {
			return nil, errors.New("connection reset")
		},
	}

	tests := []struct {
		name        string
		repo        corecredit.Repository
		path        string
		wantStatus  int
		wantMessage string
	}{
		{name: "credit not found", repo: &testutil.MockRepository{}, path: "/api/creditos/credito/999999", wantStatus: http.StatusNotFound, wantMessage: httperrors.MsgNotFound},
		{name: "value too short", repo: &testutil.MockRepository{}, path: "/api/creditos/ab", wantStatus: http.StatusBadRequest, wantMessage: httperrors.MsgBadRequest},
		{name: "invalid characters", repo: &testutil.MockRepository{}, path: "/api/creditos/credito/12%2345", wantStatus: http.StatusBadRequest, wantMessage: httperrors.MsgBadRequest},
		{name: "repository failure", repo: failing, path: "/api/creditos/7891011", wantStatus: http.StatusInternalServerError, wantMessage: httperrors.MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newRouter(tt.repo, nil)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			resp := testutil.DecodeError(t, w, tt.wantStatus)
			if resp.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, resp.Message)
			}
			if resp.Errors == nil {
				t.Error("errors must be an array, never null")
			}
		})
	}
}
