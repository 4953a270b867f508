package upload

import (
	"bytes"
	"context"
	"fmt"
	"time"
	"upload-coordinator/internal/core/domain"

	"github.com/google/uuid"
)

// UploadPart forwards the bytes of one part to the object store and records it on the session
func (f *uploadService) UploadPart(ctx context.Context, id uuid.UUID, index int, data []byte) (*domain.PartReceipt, error) {

	session, err := f.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := session.EnsureOpen(); err != nil {
		return nil, err
	}
	if session.StorageStrategy != domain.StorageStrategyProxy {
		return nil, fmt.Errorf("%w: session %s uses %s uploads", domain.ErrStrategyMismatch, id, session.StorageStrategy)
	}
	if !session.InRange(index) {
		return nil, fmt.Errorf("%w: index %d not in [0,%d)", domain.ErrPartNotFound, index, session.TotalChunks)
	}

	if limit := session.Plan().PartSize(index); int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: part %d is %d bytes, planned %d", domain.ErrValidation, index, len(data), limit)
	}

	checksum := domain.Checksum(data)

	// the byte transfer runs outside the serialized section, parts upload in parallel
	etag, err := f.objects.UploadPart(ctx, session.Multipart, index+1, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.Upstream("upload part", err)
	}

	record := domain.PartRecord{ETag: etag, Checksum: checksum, Size: int64(len(data))}
	if _, err := f.update(ctx, id, func(s *domain.UploadSession) error {
		return s.MergePart(index, record, time.Now().UTC())
	}); err != nil {
		return nil, err
	}

	f.logger.Debug("part received", "upload_id", id, "index", index, "size", len(data), "etag", etag)
	return &domain.PartReceipt{Index: index, ETag: etag, Checksum: checksum}, nil
}
