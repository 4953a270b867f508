package port

import (
	"context"
	"time"
	"upload-coordinator/internal/core/domain"

	"github.com/google/uuid"
)

// UpdateFunc mutates a session inside a serialized update, returning an error leaves the record untouched
type UpdateFunc func(session *domain.UploadSession) error

// SessionStore is an interface to persist sessions with a TTL.
// Get returns domain.ErrSessionNotFound for absent or expired records.
type SessionStore interface {
	Put(ctx context.Context, session domain.UploadSession, ttl time.Duration) error
	Get(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Update runs fn against the latest record with compare-and-swap semantics and
	// keeps the remaining TTL. It returns the stored result.
	Update(ctx context.Context, id uuid.UUID, fn UpdateFunc) (*domain.UploadSession, error)
}

// ExpiredSessionPurger is implemented by stores that do not evict expired records on their own
type ExpiredSessionPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
