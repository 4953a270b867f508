package upload

import (
	"net/http"
	"sort"
	"time"
	"upload-coordinator/internal/core/domain"

	"github.com/google/uuid"
)

type V1UploadedPart struct {
	Index    int    `json:"index"`
	ETag     string `json:"etag"`
	Checksum string `json:"checksum"`
	Size     int64  `json:"size"`
}

type V1SessionResponse struct {
	UploadID        uuid.UUID              `json:"uploadId"`
	FileName        string                 `json:"fileName"`
	Size            int64                  `json:"size"`
	MimeType        string                 `json:"mimeType,omitempty"`
	ChunkSize       int64                  `json:"chunkSize"`
	TotalChunks     int                    `json:"totalChunks"`
	StorageStrategy domain.StorageStrategy `json:"storageStrategy"`
	ExpiresAt       time.Time              `json:"expiresAt"`
	UploadedParts   []V1UploadedPart       `json:"uploadedParts"`
	Status          domain.UploadStatus    `json:"status"`
	FileID          string                 `json:"fileId,omitempty"`
}

func toSessionResponse(session *domain.UploadSession) V1SessionResponse {
	parts := make([]V1UploadedPart, 0, len(session.UploadedParts))
	for index, record := range session.UploadedParts {
		parts = append(parts, V1UploadedPart{
			Index:    index,
			ETag:     record.ETag,
			Checksum: record.Checksum,
			Size:     record.Size,
		})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Index < parts[j].Index })

	return V1SessionResponse{
		UploadID:        session.ID,
		FileName:        session.FileName,
		Size:            session.Size,
		MimeType:        session.MimeType,
		ChunkSize:       session.ChunkSize,
		TotalChunks:     session.TotalChunks,
		StorageStrategy: session.StorageStrategy,
		ExpiresAt:       session.ExpiresAt,
		UploadedParts:   parts,
		Status:          session.Status,
		FileID:          session.FileID,
	}
}

// GetUploadV1 returns the session state so a client can resume
func (h *HandlerV1) GetUploadV1(w http.ResponseWriter, r *http.Request) {
	id, ok := uploadIDParam(w, r)
	if !ok {
		return
	}

	session, err := h.uploadService.GetSession(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "get upload", err)
		return
	}

	h.writeJSON(w, http.StatusOK, toSessionResponse(session))
}
