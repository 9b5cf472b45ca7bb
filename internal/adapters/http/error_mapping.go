package httpadapter

import (
	"net/http"

	"github.com/dlopezav/recibos/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput), domain.IsKind(err, domain.ErrValidation):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrReceiptNotFound), domain.IsKind(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrWorkerBusy):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
