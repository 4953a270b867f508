package port

import (
	"context"
	"upload-coordinator/internal/core/domain"

	"github.com/google/uuid"
)

// UploadService is an interface to define the upload session coordinator
type UploadService interface {
	CreateSession(ctx context.Context, req domain.NewSession) (*domain.UploadSession, error)
	GetSession(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	PresignPart(ctx context.Context, id uuid.UUID, index int) (*domain.PresignedPart, error)
	PresignParts(ctx context.Context, id uuid.UUID, indices []int) ([]domain.PresignedPart, error)
	UploadPart(ctx context.Context, id uuid.UUID, index int, data []byte) (*domain.PartReceipt, error)
	CommitSession(ctx context.Context, id uuid.UUID, parts []domain.ClaimedPart) (*domain.CommitResult, error)
	AbortSession(ctx context.Context, id uuid.UUID) error
}
