package port

import (
	"context"
	"io"
	"time"
	"upload-coordinator/internal/core/domain"
)

// ObjectStore is an interface to define multipart object storage interactions.
// Part numbers start at 1.
type ObjectStore interface {
	CreateMultipart(ctx context.Context, key string, contentType string) (domain.MultipartHandle, error)
	UploadPart(ctx context.Context, handle domain.MultipartHandle, partNumber int, body io.Reader, size int64) (string, error)
	PresignPart(ctx context.Context, handle domain.MultipartHandle, partNumber int, ttl time.Duration) (string, error)
	ListParts(ctx context.Context, handle domain.MultipartHandle) ([]domain.StoredPart, error)
	CompleteMultipart(ctx context.Context, handle domain.MultipartHandle, parts []domain.CompletedPart) (*domain.CompletedObject, error)
	AbortMultipart(ctx context.Context, handle domain.MultipartHandle) error
	ListStaleMultiparts(ctx context.Context, prefix string, initiatedBefore time.Time) ([]domain.MultipartHandle, error)
}
