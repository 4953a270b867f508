package upload

import (
	"net/http"
	"time"
	"upload-coordinator/internal/core/domain"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type V1CreateUploadRequest struct {
	FileName         string `json:"fileName"`
	FileSize         *int64 `json:"fileSize"`
	MimeType         string `json:"mimeType,omitempty"`
	DesiredChunkSize int64  `json:"desiredChunkSize,omitempty"`
	StorageStrategy  string `json:"storageStrategy,omitempty"`
}

type V1CreateUploadResponse struct {
	UploadID        uuid.UUID              `json:"uploadId"`
	ChunkSize       int64                  `json:"chunkSize"`
	TotalChunks     int                    `json:"totalChunks"`
	ExpiresAt       time.Time              `json:"expiresAt"`
	StorageStrategy domain.StorageStrategy `json:"storageStrategy"`
}

// CreateUploadV1 opens an upload session
func (h *HandlerV1) CreateUploadV1(w http.ResponseWriter, r *http.Request) {
	var req V1CreateUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("error decoding create upload request", "error", err)
		h.writeError(w, r, "create upload", asValidation(err))
		return
	}

	if req.FileSize == nil {
		http.Error(w, "fileSize is required", http.StatusBadRequest)
		return
	}

	strategy, err := domain.ParseStorageStrategy(req.StorageStrategy)
	if err != nil {
		h.writeError(w, r, "create upload", err)
		return
	}

	session, err := h.uploadService.CreateSession(r.Context(), domain.NewSession{
		FileName:         req.FileName,
		Size:             *req.FileSize,
		MimeType:         req.MimeType,
		DesiredChunkSize: req.DesiredChunkSize,
		Strategy:         strategy,
	})
	if err != nil {
		h.writeError(w, r, "create upload", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, V1CreateUploadResponse{
		UploadID:        session.ID,
		ChunkSize:       session.ChunkSize,
		TotalChunks:     session.TotalChunks,
		ExpiresAt:       session.ExpiresAt,
		StorageStrategy: session.StorageStrategy,
	})
}
