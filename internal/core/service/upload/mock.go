package upload

import (
	"context"
	"upload-coordinator/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUploadService is a mock implementation of UploadService
type MockUploadService struct {
	mock.Mock
}

// NewMockUploadService creates a new MockUploadService
func NewMockUploadService() *MockUploadService {
	return &MockUploadService{}
}

func (m *MockUploadService) CreateSession(ctx context.Context, req domain.NewSession) (*domain.UploadSession, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(*domain.UploadSession), args.Error(1)
}

func (m *MockUploadService) GetSession(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.UploadSession), args.Error(1)
}

func (m *MockUploadService) DeleteSession(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUploadService) PresignPart(ctx context.Context, id uuid.UUID, index int) (*domain.PresignedPart, error) {
	args := m.Called(ctx, id, index)
	return args.Get(0).(*domain.PresignedPart), args.Error(1)
}

func (m *MockUploadService) PresignParts(ctx context.Context, id uuid.UUID, indices []int) ([]domain.PresignedPart, error) {
	args := m.Called(ctx, id, indices)
	return args.Get(0).([]domain.PresignedPart), args.Error(1)
}

func (m *MockUploadService) UploadPart(ctx context.Context, id uuid.UUID, index int, data []byte) (*domain.PartReceipt, error) {
	args := m.Called(ctx, id, index, data)
	return args.Get(0).(*domain.PartReceipt), args.Error(1)
}

func (m *MockUploadService) CommitSession(ctx context.Context, id uuid.UUID, parts []domain.ClaimedPart) (*domain.CommitResult, error) {
	args := m.Called(ctx, id, parts)
	return args.Get(0).(*domain.CommitResult), args.Error(1)
}

func (m *MockUploadService) AbortSession(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
