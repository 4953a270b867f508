package port

import (
	"context"
	"time"
	"upload-coordinator/internal/core/domain"
)

// CleanupService is service that releases multipart uploads left behind by expired sessions
type CleanupService interface {
	CleanupStaleUploads(ctx context.Context, now time.Time) (domain.CleanupReport, error)
}
