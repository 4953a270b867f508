package upload

import (
	"context"
	"upload-coordinator/internal/core/domain"

	"github.com/google/uuid"
)

// GetSession returns a live session, expired sessions are not found
func (f *uploadService) GetSession(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	return f.loadSession(ctx, id)
}
