package upload

import (
	"net/http"
	"upload-coordinator/internal/core/domain"

	"github.com/google/uuid"
)

type V1AbortResponse struct {
	UploadID uuid.UUID           `json:"uploadId"`
	Status   domain.UploadStatus `json:"status"`
}

// AbortUploadV1 cancels the session and releases the multipart upload
func (h *HandlerV1) AbortUploadV1(w http.ResponseWriter, r *http.Request) {
	id, ok := uploadIDParam(w, r)
	if !ok {
		return
	}

	if err := h.uploadService.AbortSession(r.Context(), id); err != nil {
		h.writeError(w, r, "abort upload", err)
		return
	}

	h.writeJSON(w, http.StatusOK, V1AbortResponse{UploadID: id, Status: domain.UploadStatusAborted})
}
