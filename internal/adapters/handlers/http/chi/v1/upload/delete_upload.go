package upload

import "net/http"

// DeleteUploadV1 drops the session record
func (h *HandlerV1) DeleteUploadV1(w http.ResponseWriter, r *http.Request) {
	id, ok := uploadIDParam(w, r)
	if !ok {
		return
	}

	if err := h.uploadService.DeleteSession(r.Context(), id); err != nil {
		h.writeError(w, r, "delete upload", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
