package repository

import (
	"context"
	"time"
	"upload-coordinator/internal/core/domain"
	"upload-coordinator/internal/core/port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSessionStore is a mock implementation of port.SessionStore.
// Update applies fn to a copy of the session given to Return.
type MockSessionStore struct {
	mock.Mock
}

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{}
}

func (m *MockSessionStore) Put(ctx context.Context, session domain.UploadSession, ttl time.Duration) error {
	args := m.Called(ctx, session, ttl)
	return args.Error(0)
}

func (m *MockSessionStore) Get(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*domain.UploadSession), args.Error(1)
}

func (m *MockSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionStore) Update(ctx context.Context, id uuid.UUID, fn port.UpdateFunc) (*domain.UploadSession, error) {
	args := m.Called(ctx, id)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	session := args.Get(0).(*domain.UploadSession).Clone()
	if err := fn(session); err != nil {
		return nil, err
	}
	return session, nil
}
