package upload_test

import (
	"context"
	"strings"
	"testing"
	"time"
	"upload-coordinator/internal/adapters/eventbroker"
	"upload-coordinator/internal/adapters/repository"
	"upload-coordinator/internal/adapters/storage"
	"upload-coordinator/internal/config"
	"upload-coordinator/internal/core/chunk"
	"upload-coordinator/internal/core/domain"
	"upload-coordinator/internal/core/service/upload"

	"github.com/docker/go-units"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateSession_Nominal(t *testing.T) {
	// Arrange
	f := newFixture(t, config.UploadConfig{})
	ctx := context.Background()
	f.objects.On("CreateMultipart", ctx, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "uploads/") && strings.HasSuffix(key, "-final_match_cut.mp4")
	}), "video/mp4").Return(testHandle, nil)

	// Act
	session, err := f.service.CreateSession(ctx, domain.NewSession{
		FileName: "  final  match\tcut.mp4 ",
		Size:     12 * units.MiB,
		MimeType: "video/mp4",
	})

	// Assert
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, session.ID)
	assert.Equal(t, "final  match\tcut.mp4", session.FileName)
	assert.Equal(t, chunk.DefaultChunkSize, session.ChunkSize)
	assert.Equal(t, 3, session.TotalChunks)
	assert.Equal(t, domain.StorageStrategyProxy, session.StorageStrategy)
	assert.Equal(t, domain.UploadStatusPending, session.Status)
	assert.Equal(t, testHandle, session.Multipart)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)

	stored := f.stored(t, session)
	assert.Equal(t, session.ID, stored.ID)
	assert.Empty(t, stored.UploadedParts)
	f.objects.AssertExpectations(t)
	f.events.AssertCalled(t, "Publish", ctx, mock.MatchedBy(func(e domain.SessionEvent) bool {
		return e.Type == domain.EventTypeSessionCreated && e.UploadID == session.ID
	}))
}

func TestCreateSession_Defaults(t *testing.T) {
	// Arrange
	f := newFixture(t, config.UploadConfig{})
	f.objects.On("CreateMultipart", mock.Anything, mock.Anything, "application/octet-stream").Return(testHandle, nil)

	// Act
	session, err := f.service.CreateSession(context.Background(), domain.NewSession{FileName: "blob", Size: 700 * units.MiB})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", session.MimeType)
	assert.Equal(t, domain.StorageStrategyProxy, session.StorageStrategy)
	assert.Equal(t, chunk.LargeFileChunkSize, session.ChunkSize)
	assert.Equal(t, 44, session.TotalChunks)
}

func TestCreateSession_EmptyFile(t *testing.T) {
	f := newFixture(t, config.UploadConfig{})

	session := f.createSession(t, 0, 0, domain.StorageStrategyPresigned)

	assert.Equal(t, 0, session.TotalChunks)
	assert.Equal(t, domain.StorageStrategyPresigned, session.StorageStrategy)
}

func TestCreateSession_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		req  domain.NewSession
	}{
		{name: "empty name", req: domain.NewSession{FileName: "", Size: 10}},
		{name: "blank name", req: domain.NewSession{FileName: " \t ", Size: 10}},
		{name: "negative size", req: domain.NewSession{FileName: "a.bin", Size: -1}},
		{name: "unknown strategy", req: domain.NewSession{FileName: "a.bin", Size: 10, Strategy: "carrier-pigeon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t, config.UploadConfig{})

			// Act
			session, err := f.service.CreateSession(context.Background(), tt.req)

			// Assert
			assert.Nil(t, session)
			assert.ErrorIs(t, err, domain.ErrValidation)
			f.objects.AssertNotCalled(t, "CreateMultipart", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateSession_ObjectStoreFailure(t *testing.T) {
	// Arrange
	f := newFixture(t, config.UploadConfig{})
	f.objects.On("CreateMultipart", mock.Anything, mock.Anything, mock.Anything).
		Return(domain.MultipartHandle{}, assert.AnError)

	// Act
	_, err := f.service.CreateSession(context.Background(), domain.NewSession{FileName: "a.bin", Size: 10})

	// Assert
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.ErrorIs(t, err, assert.AnError)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCreateSession_StoreFailureReleasesMultipart(t *testing.T) {
	// Arrange
	ctx := context.Background()
	sessions := repository.NewMockSessionStore()
	objects := storage.NewMockStorage()
	service := upload.NewUploadService(sessions, objects, eventbroker.NopPublisher{}, config.UploadConfig{}, discardLogger())

	objects.On("CreateMultipart", ctx, mock.Anything, mock.Anything).Return(testHandle, nil)
	sessions.On("Put", ctx, mock.Anything, time.Hour).Return(assert.AnError)
	objects.On("AbortMultipart", ctx, testHandle).Return(nil)

	// Act
	_, err := service.CreateSession(ctx, domain.NewSession{FileName: "a.bin", Size: 10})

	// Assert
	assert.ErrorIs(t, err, domain.ErrUpstream)
	objects.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

func TestStorageKey(t *testing.T) {
	id := uuid.MustParse("6b3e4c2a-59d4-4a4f-9c44-7f0d5d8f2f11")
	createdAt := time.UnixMilli(1_700_000_000_123)

	key := upload.StorageKey(id, createdAt, "my   holiday \n video.mov")

	assert.Equal(t, "uploads/6b3e4c2a-59d4-4a4f-9c44-7f0d5d8f2f11/1700000000123-my_holiday_video.mov", key)
}
