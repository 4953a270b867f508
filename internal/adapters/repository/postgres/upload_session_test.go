package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"
	"upload-coordinator/internal/adapters/repository/postgres"
	"upload-coordinator/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession() domain.UploadSession {
	now := time.Now().UTC()
	return domain.UploadSession{
		ID:              uuid.New(),
		FileName:        "video.mp4",
		Size:            11,
		MimeType:        "video/mp4",
		ChunkSize:       4,
		TotalChunks:     3,
		StorageStrategy: domain.StorageStrategyProxy,
		Status:          domain.UploadStatusPending,
		ExpiresAt:       now.Add(time.Hour),
		Multipart:       domain.MultipartHandle{Key: "uploads/video.mp4", UploadID: "mp-1"},
		UploadedParts:   map[int]domain.PartRecord{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestSQLSessionStore(t *testing.T) {
	testDB := postgres.NewTestDB(t)
	ctx := context.Background()

	store := postgres.NewSQLSessionStore(testDB.DB)

	t.Run("Put - Nominal case", func(t *testing.T) {
		// Arrange
		testDB.Reset(t)
		session := newSession()

		// Act
		err := store.Put(ctx, session, time.Hour)

		// Assert
		require.NoError(t, err)
		saved, err := store.Get(ctx, session.ID)
		require.NoError(t, err)
		require.Equal(t, session.ID, saved.ID)
		require.Equal(t, session.Multipart, saved.Multipart)
		require.WithinDuration(t, session.ExpiresAt, saved.ExpiresAt, time.Second)
	})

	t.Run("Get - Not found", func(t *testing.T) {
		testDB.Reset(t)

		_, err := store.Get(ctx, uuid.New())

		require.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Get - Expired record is invisible", func(t *testing.T) {
		// Arrange
		testDB.Reset(t)
		session := newSession()
		require.NoError(t, store.Put(ctx, session, time.Millisecond))
		time.Sleep(20 * time.Millisecond)

		// Act
		_, err := store.Get(ctx, session.ID)

		// Assert
		require.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Update - Applies fn", func(t *testing.T) {
		// Arrange
		testDB.Reset(t)
		session := newSession()
		require.NoError(t, store.Put(ctx, session, time.Hour))

		// Act
		updated, err := store.Update(ctx, session.ID, func(s *domain.UploadSession) error {
			return s.MergePart(1, domain.PartRecord{ETag: "e1", Checksum: "c1", Size: 4}, time.Now())
		})

		// Assert
		require.NoError(t, err)
		require.Equal(t, domain.UploadStatusUploading, updated.Status)
		saved, err := store.Get(ctx, session.ID)
		require.NoError(t, err)
		require.Contains(t, saved.UploadedParts, 1)
	})

	t.Run("Update - fn error leaves record untouched", func(t *testing.T) {
		// Arrange
		testDB.Reset(t)
		session := newSession()
		require.NoError(t, store.Put(ctx, session, time.Hour))

		// Act
		_, err := store.Update(ctx, session.ID, func(s *domain.UploadSession) error {
			s.Status = domain.UploadStatusAborted
			return assert.AnError
		})

		// Assert
		require.ErrorIs(t, err, assert.AnError)
		saved, err := store.Get(ctx, session.ID)
		require.NoError(t, err)
		require.Equal(t, domain.UploadStatusPending, saved.Status)
	})

	t.Run("Update - Concurrent merges are not lost", func(t *testing.T) {
		// Arrange
		testDB.Reset(t)
		session := newSession()
		require.NoError(t, store.Put(ctx, session, time.Hour))

		// Act
		var wg sync.WaitGroup
		for index := 0; index < session.TotalChunks; index++ {
			wg.Add(1)
			go func(index int) {
				defer wg.Done()
				_, err := store.Update(ctx, session.ID, func(s *domain.UploadSession) error {
					return s.MergePart(index, domain.PartRecord{ETag: "e", Checksum: "c", Size: 1}, time.Now())
				})
				assert.NoError(t, err)
			}(index)
		}
		wg.Wait()

		// Assert
		saved, err := store.Get(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, saved.UploadedParts, session.TotalChunks)
	})

	t.Run("Update - Not found", func(t *testing.T) {
		testDB.Reset(t)

		_, err := store.Update(ctx, uuid.New(), func(s *domain.UploadSession) error { return nil })

		require.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete and PurgeExpired", func(t *testing.T) {
		// Arrange
		testDB.Reset(t)
		live := newSession()
		expired := newSession()
		require.NoError(t, store.Put(ctx, live, time.Hour))
		require.NoError(t, store.Put(ctx, expired, time.Millisecond))
		time.Sleep(20 * time.Millisecond)

		// Act
		purged, err := store.PurgeExpired(ctx, time.Now())
		require.NoError(t, err)
		require.NoError(t, store.Delete(ctx, live.ID))

		// Assert
		require.Equal(t, 1, purged)
		_, err = store.Get(ctx, live.ID)
		require.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}
