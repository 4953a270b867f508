package upload

import (
	"net/http"
	"time"
	"upload-coordinator/internal/core/domain"

	"github.com/goccy/go-json"
)

type V1PresignPartResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type V1PresignPartsRequest struct {
	Indices []int `json:"indices"`
}

type V1PresignedPart struct {
	Index     int       `json:"index"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type V1PresignPartsResponse struct {
	Parts []V1PresignedPart `json:"parts"`
}

// PresignPartV1 issues a direct upload URL for one part
func (h *HandlerV1) PresignPartV1(w http.ResponseWriter, r *http.Request) {
	id, ok := uploadIDParam(w, r)
	if !ok {
		return
	}
	index, ok := indexParam(w, r)
	if !ok {
		return
	}

	part, err := h.uploadService.PresignPart(r.Context(), id, index)
	if err != nil {
		h.writeError(w, r, "presign part", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, V1PresignPartResponse{URL: part.URL, ExpiresAt: part.ExpiresAt})
}

// PresignPartsV1 issues direct upload URLs for several parts
func (h *HandlerV1) PresignPartsV1(w http.ResponseWriter, r *http.Request) {
	id, ok := uploadIDParam(w, r)
	if !ok {
		return
	}

	var req V1PresignPartsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, "presign parts", asValidation(err))
		return
	}
	if len(req.Indices) == 0 {
		http.Error(w, "indices are required", http.StatusBadRequest)
		return
	}

	parts, err := h.uploadService.PresignParts(r.Context(), id, req.Indices)
	if err != nil {
		h.writeError(w, r, "presign parts", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, V1PresignPartsResponse{Parts: toPresignedParts(parts)})
}

func toPresignedParts(parts []domain.PresignedPart) []V1PresignedPart {
	out := make([]V1PresignedPart, 0, len(parts))
	for _, p := range parts {
		out = append(out, V1PresignedPart{Index: p.Index, URL: p.URL, ExpiresAt: p.ExpiresAt})
	}
	return out
}
