package upload_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"upload-coordinator/internal/adapters/eventbroker"
	"upload-coordinator/internal/adapters/repository/memory"
	"upload-coordinator/internal/adapters/storage"
	"upload-coordinator/internal/config"
	"upload-coordinator/internal/core/domain"
	"upload-coordinator/internal/core/port"
	"upload-coordinator/internal/core/service/upload"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testHandle = domain.MultipartHandle{Key: "uploads/test/match.bin", UploadID: "mp-upload-1"}

// smallChunks lets tests use tiny parts such as the 11 bytes / 4 bytes split
var smallChunks = config.UploadConfig{
	MinChunkSize: 1,
	MaxChunkSize: 16,
}

type fixture struct {
	service  port.UploadService
	sessions *memory.SessionStore
	objects  *storage.MockStorage
	events   *eventbroker.MockPublisher
}

func newFixture(t *testing.T, cfg config.UploadConfig) *fixture {
	t.Helper()
	sessions := memory.NewSessionStore()
	objects := storage.NewMockStorage()
	events := eventbroker.NewMockPublisher()
	events.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		service:  upload.NewUploadService(sessions, objects, events, cfg, logger),
		sessions: sessions,
		objects:  objects,
		events:   events,
	}
}

// createSession creates a session whose multipart handle is testHandle
func (f *fixture) createSession(t *testing.T, size, chunkSize int64, strategy domain.StorageStrategy) *domain.UploadSession {
	t.Helper()
	f.objects.On("CreateMultipart", mock.Anything, mock.Anything, mock.Anything).Return(testHandle, nil).Once()
	session, err := f.service.CreateSession(context.Background(), domain.NewSession{
		FileName:         "match.bin",
		Size:             size,
		DesiredChunkSize: chunkSize,
		Strategy:         strategy,
	})
	require.NoError(t, err)
	return session
}

func (f *fixture) stored(t *testing.T, session *domain.UploadSession) *domain.UploadSession {
	t.Helper()
	got, err := f.sessions.Get(context.Background(), session.ID)
	require.NoError(t, err)
	return got
}

// uploadAll pushes every chunk of data through the proxy path and returns the claims
func (f *fixture) uploadAll(t *testing.T, session *domain.UploadSession, data []byte) []domain.ClaimedPart {
	t.Helper()
	ctx := context.Background()
	plan := session.Plan()
	claims := make([]domain.ClaimedPart, 0, session.TotalChunks)

	for index := 0; index < session.TotalChunks; index++ {
		start := plan.Offset(index)
		part := data[start : start+plan.PartSize(index)]
		f.objects.On("UploadPart", mock.Anything, testHandle, index+1, int64(len(part))).
			Return(etagOf(index), nil).Once()

		receipt, err := f.service.UploadPart(ctx, session.ID, index, part)
		require.NoError(t, err)
		claims = append(claims, domain.ClaimedPart{Index: index, Checksum: receipt.Checksum})
	}
	return claims
}

func etagOf(index int) string {
	return "etag-" + string(rune('a'+index))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
