package upload

import (
	"context"
	"time"
	"upload-coordinator/internal/core/domain"

	"github.com/google/uuid"
)

// AbortSession releases the multipart upload and closes the session
func (f *uploadService) AbortSession(ctx context.Context, id uuid.UUID) error {

	session, err := f.loadSession(ctx, id)
	if err != nil {
		return err
	}
	if err := session.EnsureOpen(); err != nil {
		return err
	}

	if err := f.objects.AbortMultipart(ctx, session.Multipart); err != nil {
		return domain.Upstream("abort multipart", err)
	}

	aborted, err := f.update(ctx, id, func(s *domain.UploadSession) error {
		return s.Transition(domain.UploadStatusAborted, time.Now().UTC())
	})
	if err != nil {
		return err
	}

	f.logger.Info("upload session aborted", "upload_id", id, "key", session.Multipart.Key)
	f.publish(ctx, domain.EventTypeSessionAborted, aborted)
	return nil
}
