package upload

import (
	"net/http"
	"upload-coordinator/internal/core/domain"

	"github.com/goccy/go-json"
)

type V1ClaimedPart struct {
	Index    int    `json:"index"`
	Checksum string `json:"checksum"`
}

type V1CommitRequest struct {
	Parts []V1ClaimedPart `json:"parts"`
}

type V1CommitResponse struct {
	FileID   string `json:"fileId"`
	Location string `json:"location,omitempty"`
	ETag     string `json:"etag,omitempty"`
}

// CommitUploadV1 checks the claimed parts and finalizes the object
func (h *HandlerV1) CommitUploadV1(w http.ResponseWriter, r *http.Request) {
	id, ok := uploadIDParam(w, r)
	if !ok {
		return
	}

	var req V1CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, "commit upload", asValidation(err))
		return
	}

	claims := make([]domain.ClaimedPart, 0, len(req.Parts))
	for _, p := range req.Parts {
		claims = append(claims, domain.ClaimedPart{Index: p.Index, Checksum: p.Checksum})
	}

	result, err := h.uploadService.CommitSession(r.Context(), id, claims)
	if err != nil {
		h.writeError(w, r, "commit upload", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, V1CommitResponse{
		FileID:   result.FileID,
		Location: result.Location,
		ETag:     result.ETag,
	})
}
