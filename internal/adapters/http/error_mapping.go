package httpadapter

import (
	"net/http"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput),
		domain.IsKind(err, domain.ErrValidation):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrDocumentNotFound),
		domain.IsKind(err, domain.ErrGapAnalysisNotFound),
		domain.IsKind(err, domain.ErrTaskNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrInvalidTransition),
		domain.IsKind(err, domain.ErrContentMissing),
		domain.IsKind(err, domain.ErrClassificationMissing),
		domain.IsKind(err, domain.ErrNotRelevant):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary),
		domain.IsKind(err, domain.ErrEngine):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
