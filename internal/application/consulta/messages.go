package consulta

import (
	"fmt"

	"exemplo.com.br/creditos/internal/core/credit"
)

// MessageNoResults is shown when a lookup succeeds with zero records.
const MessageNoResults = "Nenhum crédito encontrado. Verifique os dados informados e tente novamente."

// ErrorMessage maps a failed lookup to the single text shown to the user.
func ErrorMessage(err error) string {
	switch credit.KindOf(err) {
	case credit.KindNotFound:
		return "Nenhum crédito encontrado para os parâmetros informados."
	case credit.KindBadRequest:
		return "Parâmetros de consulta inválidos."
	case credit.KindServer:
		return "Erro interno do servidor. Tente novamente mais tarde."
	case credit.KindTimeout:
		return "A consulta excedeu o tempo limite. Tente novamente."
	case credit.KindCanceled:
		return "A consulta foi cancelada."
	default:
		if status := credit.StatusOf(err); status != 0 {
			return fmt.Sprintf("Erro inesperado (status %d). Tente novamente mais tarde.", status)
		}
		return "Não foi possível conectar ao serviço de créditos. Tente novamente mais tarde."
	}
}
