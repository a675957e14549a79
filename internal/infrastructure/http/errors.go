package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// User-facing messages shared by both servers.
const (
	MsgNotFound         = "Nenhum crédito encontrado para os parâmetros informados"
	MsgBadRequest       = "Parâmetros de consulta inválidos"
	MsgInternal         = "Erro interno do servidor"
	MsgTooManyRequests  = "Muitas requisições. Aguarde alguns instantes e tente novamente"
	MsgMethodNotAllowed = "Método não permitido"
)

// ErrorResponse represents a standardized error response format.
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// WriteError writes a standardized JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string, errors []string, log *slog.Logger) {
	if errors == nil {
		errors = []string{}
	}
	WriteJSON(w, statusCode, ErrorResponse{Message: message, Errors: errors}, log)
}

// WriteJSON encodes v with the given status. Encoding failures can only be
// logged because the status line is already sent.
func WriteJSON(w http.ResponseWriter, statusCode int, v any, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil && log != nil {
		log.Error("failed to encode JSON response", "error", err)
	}
}
