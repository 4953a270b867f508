package cleanup

import (
	"log/slog"
	"time"
	"upload-coordinator/internal/core/port"
)

type cleanupService struct {
	sessions   port.SessionStore
	objects    port.ObjectStore
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewCleanupService creates a new cleanup service.
// Multipart uploads older than sessionTTL can no longer belong to a live session.
func NewCleanupService(sessions port.SessionStore, objects port.ObjectStore, sessionTTL time.Duration, logger *slog.Logger) port.CleanupService {
	return &cleanupService{
		sessions:   sessions,
		objects:    objects,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}
