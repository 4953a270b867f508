package upload_test

import (
	"context"
	"sync"
	"testing"
	"upload-coordinator/internal/adapters/eventbroker"
	"upload-coordinator/internal/adapters/repository"
	"upload-coordinator/internal/adapters/storage"
	"upload-coordinator/internal/config"
	"upload-coordinator/internal/core/domain"
	"upload-coordinator/internal/core/service/upload"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUploadPart_Nominal(t *testing.T) {
	// Arrange
	f := newFixture(t, smallChunks)
	session := f.createSession(t, 11, 4, domain.StorageStrategyProxy)
	f.objects.On("UploadPart", mock.Anything, testHandle, 2, int64(4)).Return("etag-2", nil)

	// Act
	receipt, err := f.service.UploadPart(context.Background(), session.ID, 1, []byte("bbbb"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, receipt.Index)
	assert.Equal(t, "etag-2", receipt.ETag)
	assert.Equal(t, domain.Checksum([]byte("bbbb")), receipt.Checksum)

	stored := f.stored(t, session)
	assert.Equal(t, domain.UploadStatusUploading, stored.Status)
	assert.Equal(t, domain.PartRecord{ETag: "etag-2", Checksum: receipt.Checksum, Size: 4}, stored.UploadedParts[1])
	f.objects.AssertExpectations(t)
}

func TestUploadPart_ReuploadIsIdempotent(t *testing.T) {
	// Arrange
	f := newFixture(t, smallChunks)
	ctx := context.Background()
	session := f.createSession(t, 11, 4, domain.StorageStrategyProxy)
	f.objects.On("UploadPart", mock.Anything, testHandle, 1, int64(4)).Return("etag-1", nil).Twice()

	// Act
	first, err := f.service.UploadPart(ctx, session.ID, 0, []byte("aaaa"))
	require.NoError(t, err)
	second, err := f.service.UploadPart(ctx, session.ID, 0, []byte("aaaa"))
	require.NoError(t, err)

	// Assert
	assert.Equal(t, first, second)
	stored := f.stored(t, session)
	assert.Len(t, stored.UploadedParts, 1)
	assert.Equal(t, first.Checksum, stored.UploadedParts[0].Checksum)
}

func TestUploadPart_DifferentBytesReplaceRecord(t *testing.T) {
	// Arrange
	f := newFixture(t, smallChunks)
	ctx := context.Background()
	session := f.createSession(t, 11, 4, domain.StorageStrategyProxy)
	f.objects.On("UploadPart", mock.Anything, testHandle, 3, int64(2)).Return("etag-short", nil).Once()
	f.objects.On("UploadPart", mock.Anything, testHandle, 3, int64(3)).Return("etag-full", nil).Once()

	// Act
	_, err := f.service.UploadPart(ctx, session.ID, 2, []byte("cc"))
	require.NoError(t, err)
	_, err = f.service.UploadPart(ctx, session.ID, 2, []byte("ccc"))
	require.NoError(t, err)

	// Assert
	record := f.stored(t, session).UploadedParts[2]
	assert.Equal(t, "etag-full", record.ETag)
	assert.Equal(t, domain.Checksum([]byte("ccc")), record.Checksum)
	assert.Equal(t, int64(3), record.Size)
}

func TestUploadPart_Rejections(t *testing.T) {
	f := newFixture(t, smallChunks)
	ctx := context.Background()
	proxy := f.createSession(t, 11, 4, domain.StorageStrategyProxy)
	presigned := f.createSession(t, 11, 4, domain.StorageStrategyPresigned)

	tests := []struct {
		name    string
		id      uuid.UUID
		index   int
		data    []byte
		wantErr error
	}{
		{name: "unknown session", id: uuid.New(), index: 0, data: []byte("a"), wantErr: domain.ErrSessionNotFound},
		{name: "negative index", id: proxy.ID, index: -1, data: []byte("a"), wantErr: domain.ErrPartNotFound},
		{name: "index past the plan", id: proxy.ID, index: 3, data: []byte("a"), wantErr: domain.ErrPartNotFound},
		{name: "presigned session", id: presigned.ID, index: 0, data: []byte("a"), wantErr: domain.ErrStrategyMismatch},
		{name: "body larger than the part", id: proxy.ID, index: 2, data: []byte("cccc"), wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			receipt, err := f.service.UploadPart(ctx, tt.id, tt.index, tt.data)

			// Assert
			assert.Nil(t, receipt)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	f.objects.AssertNotCalled(t, "UploadPart", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.ErrorIs(t, domain.ErrPartNotFound, domain.ErrNotFound)
}

func TestUploadPart_ObjectStoreFailureLeavesSession(t *testing.T) {
	// Arrange
	f := newFixture(t, smallChunks)
	session := f.createSession(t, 11, 4, domain.StorageStrategyProxy)
	f.objects.On("UploadPart", mock.Anything, testHandle, 1, int64(4)).Return("", assert.AnError)

	// Act
	_, err := f.service.UploadPart(context.Background(), session.ID, 0, []byte("aaaa"))

	// Assert
	assert.ErrorIs(t, err, domain.ErrUpstream)
	stored := f.stored(t, session)
	assert.Empty(t, stored.UploadedParts)
	assert.Equal(t, domain.UploadStatusPending, stored.Status)
}

func TestUploadPart_AbortDuringTransferRejectsMerge(t *testing.T) {
	// Arrange
	f := newFixture(t, smallChunks)
	ctx := context.Background()
	session := f.createSession(t, 11, 4, domain.StorageStrategyProxy)
	f.objects.On("AbortMultipart", mock.Anything, testHandle).Return(nil)
	f.objects.On("UploadPart", mock.Anything, testHandle, 1, int64(4)).
		Run(func(mock.Arguments) {
			require.NoError(t, f.service.AbortSession(ctx, session.ID))
		}).
		Return("etag-late", nil)

	// Act
	_, err := f.service.UploadPart(ctx, session.ID, 0, []byte("aaaa"))

	// Assert
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	stored := f.stored(t, session)
	assert.Equal(t, domain.UploadStatusAborted, stored.Status)
	assert.Empty(t, stored.UploadedParts)
}

func TestUploadPart_ConcurrentPartsAreAllRecorded(t *testing.T) {
	// Arrange
	f := newFixture(t, smallChunks)
	ctx := context.Background()
	session := f.createSession(t, 64, 2, domain.StorageStrategyProxy)
	f.objects.On("UploadPart", mock.Anything, testHandle, mock.Anything, int64(2)).Return("etag", nil)

	// Act
	var wg sync.WaitGroup
	for index := 0; index < session.TotalChunks; index++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			_, err := f.service.UploadPart(ctx, session.ID, index, []byte{byte(index), 1})
			assert.NoError(t, err)
		}(index)
	}
	wg.Wait()

	// Assert
	stored := f.stored(t, session)
	assert.Equal(t, 32, session.TotalChunks)
	assert.Len(t, stored.UploadedParts, session.TotalChunks)
}

func TestUploadPart_ConcurrentUpdateExhausted(t *testing.T) {
	// Arrange
	ctx := context.Background()
	sessions := repository.NewMockSessionStore()
	objects := storage.NewMockStorage()
	service := upload.NewUploadService(sessions, objects, eventbroker.NopPublisher{}, config.UploadConfig{}, discardLogger())

	session := &domain.UploadSession{
		ID:              uuid.New(),
		FileName:        "a.bin",
		Size:            1,
		ChunkSize:       4,
		TotalChunks:     1,
		StorageStrategy: domain.StorageStrategyProxy,
		Status:          domain.UploadStatusUploading,
		Multipart:       testHandle,
		UploadedParts:   map[int]domain.PartRecord{},
	}
	sessions.On("Get", ctx, session.ID).Return(session, nil)
	objects.On("UploadPart", ctx, testHandle, 1, int64(1)).Return("etag", nil)
	sessions.On("Update", ctx, session.ID).Return((*domain.UploadSession)(nil), domain.ErrConcurrentUpdate)

	// Act
	_, err := service.UploadPart(ctx, session.ID, 0, []byte("x"))

	// Assert
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
	assert.NotErrorIs(t, err, domain.ErrUpstream)
}
