package credit

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	appcredit "exemplo.com.br/creditos/internal/application/credit"
	corecredit "exemplo.com.br/creditos/internal/core/credit"
	ctxutil "exemplo.com.br/creditos/internal/infrastructure/context"
	httperrors "exemplo.com.br/creditos/internal/infrastructure/http"
)

const msgInvalidValue = "O valor deve ter entre 3 e 50 caracteres, apenas letras, números, hífen, ponto ou barra"

// Handler serves the credit lookup endpoints of the API.
type Handler struct {
	service *appcredit.Service
	log     *slog.Logger
}

// NewHandler creates a new credit HTTP handler.
func NewHandler(service *appcredit.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Routes mounts the handler under /creditos.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/creditos/{numeroNfse}", h.ListByInvoice)
	r.Get("/creditos/credito/{numeroCredito}", h.GetByCredit)
}

// ListByInvoice handles GET /api/creditos/{numeroNfse}. No match is 200 with [].
func (h *Handler) ListByInvoice(w http.ResponseWriter, r *http.Request) {
	number, ok := h.pathParam(w, r, "numeroNfse")
	if !ok {
		return
	}
	records, err := h.service.ListByInvoice(r.Context(), number, originOf(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	out := make([]CreditDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, ToDTO(rec))
	}
	httperrors.WriteJSON(w, http.StatusOK, out, h.log)
}

// GetByCredit handles GET /api/creditos/credito/{numeroCredito}.
func (h *Handler) GetByCredit(w http.ResponseWriter, r *http.Request) {
	number, ok := h.pathParam(w, r, "numeroCredito")
	if !ok {
		return
	}
	record, err := h.service.GetByCredit(r.Context(), number, originOf(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, ToDTO(*record), h.log)
}

// pathParam returns the unescaped URL parameter. chi matches on the raw
// path, so a number containing "/" arrives as %2F.
func (h *Handler) pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.MsgBadRequest, []string{msgInvalidValue}, h.log)
		return "", false
	}
	return value, true
}

// handleError maps domain errors to HTTP status codes.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, corecredit.ErrInvalidQuery):
		httperrors.WriteError(w, http.StatusBadRequest, httperrors.MsgBadRequest, []string{msgInvalidValue}, h.log)
	case errors.Is(err, corecredit.ErrNotFound):
		httperrors.WriteError(w, http.StatusNotFound, httperrors.MsgNotFound, nil, h.log)
	default:
		h.log.Error("Credit lookup failed",
			"correlation_id", ctxutil.GetCorrelationID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		httperrors.WriteError(w, http.StatusInternalServerError, httperrors.MsgInternal, nil, h.log)
	}
}

// originOf relies on middleware.RealIP having rewritten RemoteAddr.
func originOf(r *http.Request) appcredit.Origin {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return appcredit.Origin{ClientIP: ip, UserAgent: r.UserAgent()}
}
