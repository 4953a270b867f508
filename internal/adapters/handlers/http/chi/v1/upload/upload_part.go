package upload

import (
	"io"
	"net/http"
)

type V1UploadPartResponse struct {
	Index    int    `json:"index"`
	ETag     string `json:"etag"`
	Checksum string `json:"checksum"`
}

// UploadPartV1 proxies the raw request body to the object store as one part
func (h *HandlerV1) UploadPartV1(w http.ResponseWriter, r *http.Request) {
	id, ok := uploadIDParam(w, r)
	if !ok {
		return
	}
	index, ok := indexParam(w, r)
	if !ok {
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, r, "upload part", asValidation(err))
		return
	}

	receipt, err := h.uploadService.UploadPart(r.Context(), id, index, data)
	if err != nil {
		h.writeError(w, r, "upload part", err)
		return
	}

	h.writeJSON(w, http.StatusOK, V1UploadPartResponse{
		Index:    receipt.Index,
		ETag:     receipt.ETag,
		Checksum: receipt.Checksum,
	})
}
