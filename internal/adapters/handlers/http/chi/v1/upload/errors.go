package upload

import (
	"errors"
	"fmt"
	"net/http"
	"upload-coordinator/internal/core/domain"
)

// V1PartsInvalidResponse is the 422 body of a rejected commit
type V1PartsInvalidResponse struct {
	Error      string `json:"error"`
	Missing    []int  `json:"missing"`
	Mismatched []int  `json:"mismatched"`
}

// writeError maps core errors to HTTP statuses
func (h *HandlerV1) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var invalid *domain.PartsInvalidError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &invalid):
		h.writeJSON(w, http.StatusUnprocessableEntity, V1PartsInvalidResponse{
			Error:      domain.ErrPartsInvalid.Error(),
			Missing:    invalid.Missing,
			Mismatched: invalid.Mismatched,
		})
	case errors.As(err, &tooLarge):
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrSessionNotFound):
		http.Error(w, "upload session not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrStrategyMismatch), errors.Is(err, domain.ErrSessionClosed), errors.Is(err, domain.ErrConcurrentUpdate):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrUpstream):
		h.logger.Error("upstream failure", "op", op, "path", r.URL.Path, "error", err)
		http.Error(w, "upstream storage failure", http.StatusBadGateway)
	default:
		h.logger.Error("unexpected error", "op", op, "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// asValidation turns a body decoding error into a validation error, oversized bodies excepted
func asValidation(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return fmt.Errorf("%w: malformed request body: %v", domain.ErrValidation, err)
}
