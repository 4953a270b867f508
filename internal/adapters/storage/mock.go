package storage

import (
	"context"
	"io"
	"time"
	"upload-coordinator/internal/core/domain"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a mock implementation of port.ObjectStore
type MockStorage struct {
	mock.Mock
}

func NewMockStorage() *MockStorage {
	return &MockStorage{}
}

func (m *MockStorage) CreateMultipart(ctx context.Context, key string, contentType string) (domain.MultipartHandle, error) {
	args := m.Called(ctx, key, contentType)
	return args.Get(0).(domain.MultipartHandle), args.Error(1)
}

// UploadPart drains body so expectations can match on partNumber and size only
func (m *MockStorage) UploadPart(ctx context.Context, handle domain.MultipartHandle, partNumber int, body io.Reader, size int64) (string, error) {
	_, _ = io.Copy(io.Discard, body)
	args := m.Called(ctx, handle, partNumber, size)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) PresignPart(ctx context.Context, handle domain.MultipartHandle, partNumber int, ttl time.Duration) (string, error) {
	args := m.Called(ctx, handle, partNumber, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) ListParts(ctx context.Context, handle domain.MultipartHandle) ([]domain.StoredPart, error) {
	args := m.Called(ctx, handle)
	return args.Get(0).([]domain.StoredPart), args.Error(1)
}

func (m *MockStorage) CompleteMultipart(ctx context.Context, handle domain.MultipartHandle, parts []domain.CompletedPart) (*domain.CompletedObject, error) {
	args := m.Called(ctx, handle, parts)
	return args.Get(0).(*domain.CompletedObject), args.Error(1)
}

func (m *MockStorage) AbortMultipart(ctx context.Context, handle domain.MultipartHandle) error {
	args := m.Called(ctx, handle)
	return args.Error(0)
}

func (m *MockStorage) ListStaleMultiparts(ctx context.Context, prefix string, initiatedBefore time.Time) ([]domain.MultipartHandle, error) {
	args := m.Called(ctx, prefix, initiatedBefore)
	return args.Get(0).([]domain.MultipartHandle), args.Error(1)
}
