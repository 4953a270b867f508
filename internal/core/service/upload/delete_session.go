package upload

import (
	"context"
	"upload-coordinator/internal/core/domain"

	"github.com/google/uuid"
)

// DeleteSession removes a session record, releasing its multipart upload when still open
func (f *uploadService) DeleteSession(ctx context.Context, id uuid.UUID) error {

	session, err := f.loadSession(ctx, id)
	if err != nil {
		return err
	}

	if !session.Status.IsTerminal() {
		if err := f.objects.AbortMultipart(ctx, session.Multipart); err != nil {
			return domain.Upstream("abort multipart", err)
		}
	}

	if err := f.sessions.Delete(ctx, id); err != nil {
		return domain.Upstream("session store delete", err)
	}

	f.logger.Info("upload session deleted", "upload_id", id, "status", session.Status)
	return nil
}
