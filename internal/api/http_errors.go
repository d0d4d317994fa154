package api

import (
	"errors"
	"net/http"

	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
)

func httpStatusForDomainError(err error) (int, bool) {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return 0, false
	}

	switch domErr.Category {
	case core.ErrCatValidation, core.ErrCatTypeMismatch:
		return http.StatusUnprocessableEntity, true
	case core.ErrCatNotFound:
		return http.StatusNotFound, true
	case core.ErrCatDuplicate, core.ErrCatState:
		return http.StatusConflict, true
	default:
		return http.StatusInternalServerError, true
	}
}

// respondDomainError maps err to a status and writes it with its code.
func respondDomainError(w http.ResponseWriter, err error) {
	status, ok := httpStatusForDomainError(err)
	if !ok {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var domErr *core.DomainError
	errors.As(err, &domErr)
	respondJSON(w, status, errorResponse{
		Error:    domErr.Message,
		Code:     domErr.Code,
		Category: string(domErr.Category),
		Details:  domErr.Details,
	})
}

type errorResponse struct {
	Error    string                 `json:"error"`
	Code     string                 `json:"code,omitempty"`
	Category string                 `json:"category,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
}
