package upload_test

import (
	"context"
	"testing"
	"upload-coordinator/internal/config"
	"upload-coordinator/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAbortSession_Nominal(t *testing.T) {
	// Arrange
	f := newFixture(t, smallChunks)
	ctx := context.Background()
	session := f.createSession(t, 11, 4, domain.StorageStrategyProxy)
	f.objects.On("AbortMultipart", ctx, testHandle).Return(nil)

	// Act
	err := f.service.AbortSession(ctx, session.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, domain.UploadStatusAborted, f.stored(t, session).Status)
	f.objects.AssertExpectations(t)
	f.events.AssertCalled(t, "Publish", ctx, mock.MatchedBy(func(e domain.SessionEvent) bool {
		return e.Type == domain.EventTypeSessionAborted && e.Status == domain.UploadStatusAborted
	}))
}

func TestAbortSession_RejectsEverythingAfterwards(t *testing.T) {
	// Arrange
	f := newFixture(t, smallChunks)
	ctx := context.Background()
	proxy := f.createSession(t, 11, 4, domain.StorageStrategyProxy)
	presigned := f.createSession(t, 11, 4, domain.StorageStrategyPresigned)
	f.objects.On("AbortMultipart", ctx, testHandle).Return(nil).Twice()
	require.NoError(t, f.service.AbortSession(ctx, proxy.ID))
	require.NoError(t, f.service.AbortSession(ctx, presigned.ID))

	// Act
	_, uploadErr := f.service.UploadPart(ctx, proxy.ID, 0, []byte("aaaa"))
	_, presignErr := f.service.PresignPart(ctx, presigned.ID, 0)
	_, commitErr := f.service.CommitSession(ctx, proxy.ID, nil)
	abortErr := f.service.AbortSession(ctx, proxy.ID)

	// Assert
	assert.ErrorIs(t, uploadErr, domain.ErrSessionClosed)
	assert.ErrorIs(t, presignErr, domain.ErrSessionClosed)
	assert.ErrorIs(t, commitErr, domain.ErrSessionClosed)
	assert.ErrorIs(t, abortErr, domain.ErrSessionClosed)
	f.objects.AssertNotCalled(t, "UploadPart", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.objects.AssertNotCalled(t, "CompleteMultipart", mock.Anything, mock.Anything, mock.Anything)
	f.objects.AssertNumberOfCalls(t, "AbortMultipart", 2)
}

func TestAbortSession_ObjectStoreFailureKeepsSessionOpen(t *testing.T) {
	// Arrange
	f := newFixture(t, config.UploadConfig{})
	ctx := context.Background()
	session := f.createSession(t, 10, 0, domain.StorageStrategyProxy)
	f.objects.On("AbortMultipart", ctx, testHandle).Return(assert.AnError)

	// Act
	err := f.service.AbortSession(ctx, session.ID)

	// Assert
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Equal(t, domain.UploadStatusPending, f.stored(t, session).Status)
}
