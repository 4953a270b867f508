package upload

import (
	"context"
	"fmt"
	"strings"
	"time"
	"upload-coordinator/internal/core/domain"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

const defaultMimeType = "application/octet-stream"

// CreateSession plans the chunks, reserves a multipart upload and stores a pending session
func (f *uploadService) CreateSession(ctx context.Context, req domain.NewSession) (*domain.UploadSession, error) {

	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" {
		return nil, fmt.Errorf("%w: file name is required", domain.ErrValidation)
	}
	if req.Size < 0 {
		return nil, fmt.Errorf("%w: file size must be a non-negative number", domain.ErrValidation)
	}

	strategy, err := domain.ParseStorageStrategy(string(req.Strategy))
	if err != nil {
		return nil, err
	}

	mimeType := strings.TrimSpace(req.MimeType)
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	plan := f.policy.Compute(req.Size, req.DesiredChunkSize)
	id := uuid.New()
	now := time.Now().UTC()
	key := StorageKey(id, now, fileName)

	handle, err := f.objects.CreateMultipart(ctx, key, mimeType)
	if err != nil {
		return nil, domain.Upstream("create multipart", err)
	}

	session := domain.UploadSession{
		ID:              id,
		FileName:        fileName,
		Size:            req.Size,
		MimeType:        mimeType,
		ChunkSize:       plan.ChunkSize,
		TotalChunks:     plan.TotalChunks,
		StorageStrategy: strategy,
		Status:          domain.UploadStatusPending,
		ExpiresAt:       now.Add(f.uploadCfg.SessionTTL),
		Multipart:       handle,
		UploadedParts:   map[int]domain.PartRecord{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := f.sessions.Put(ctx, session, f.uploadCfg.SessionTTL); err != nil {
		if abortErr := f.objects.AbortMultipart(ctx, handle); abortErr != nil {
			f.logger.Error("failed to release multipart upload", "key", handle.Key, "error", abortErr)
		}
		return nil, domain.Upstream("session store put", err)
	}

	f.logger.Info("upload session created",
		"upload_id", id,
		"key", key,
		"size", humanize.IBytes(uint64(req.Size)),
		"chunk_size", humanize.IBytes(uint64(plan.ChunkSize)),
		"total_chunks", plan.TotalChunks,
		"strategy", strategy)

	f.publish(ctx, domain.EventTypeSessionCreated, &session)
	return &session, nil
}
