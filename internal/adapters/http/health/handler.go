package health

import (
	"net/http"

	apphealth "exemplo.com.br/creditos/internal/application/health"
	httperrors "exemplo.com.br/creditos/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the health application service.
type Handler struct {
	service *apphealth.Service
}

func NewHandler(service *apphealth.Service) *Handler {
	return &Handler{service: service}
}

// Status answers 200 when every dependency is reachable and 503 otherwise.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	response := h.service.Status(r.Context())

	code := http.StatusOK
	if !response.Healthy() {
		code = http.StatusServiceUnavailable
	}
	httperrors.WriteJSON(w, code, response, nil)
}
