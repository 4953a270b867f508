package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"upload-coordinator/internal/config"
	"upload-coordinator/internal/core/chunk"
	"upload-coordinator/internal/core/domain"
	"upload-coordinator/internal/core/port"

	"github.com/google/uuid"
)

// KeyPrefix is the object key prefix of every upload
const KeyPrefix = "uploads/"

const (
	defaultSessionTTL = time.Hour
	defaultPresignTTL = 15 * time.Minute
)

type uploadService struct {
	sessions  port.SessionStore
	objects   port.ObjectStore
	events    port.EventPublisher
	uploadCfg config.UploadConfig
	policy    chunk.Policy
	logger    *slog.Logger
}

// NewUploadService creates a new upload session coordinator
func NewUploadService(sessions port.SessionStore, objects port.ObjectStore, events port.EventPublisher, cfg config.UploadConfig, logger *slog.Logger) port.UploadService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = defaultPresignTTL
	}
	return &uploadService{
		sessions:  sessions,
		objects:   objects,
		events:    events,
		uploadCfg: cfg,
		policy:    policyFromConfig(cfg),
		logger:    logger,
	}
}

func policyFromConfig(cfg config.UploadConfig) chunk.Policy {
	policy := chunk.DefaultPolicy
	if cfg.DefaultChunkSize > 0 {
		policy.DefaultChunkSize = int64(cfg.DefaultChunkSize)
	}
	if cfg.MinChunkSize > 0 {
		policy.MinChunkSize = int64(cfg.MinChunkSize)
	}
	if cfg.MaxChunkSize > 0 {
		policy.MaxChunkSize = int64(cfg.MaxChunkSize)
	}
	return policy
}

// StorageKey builds the object key of an upload: id, creation time and whitespace-normalized file name
func StorageKey(id uuid.UUID, createdAt time.Time, fileName string) string {
	return fmt.Sprintf("%s%s/%d-%s", KeyPrefix, id, createdAt.UnixMilli(), strings.Join(strings.Fields(fileName), "_"))
}

func (f *uploadService) loadSession(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	session, err := f.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		return nil, domain.Upstream("session store get", err)
	}
	return session, nil
}

// update serializes a mutation of one session through the store
func (f *uploadService) update(ctx context.Context, id uuid.UUID, fn port.UpdateFunc) (*domain.UploadSession, error) {
	var fnErr error
	session, err := f.sessions.Update(ctx, id, func(s *domain.UploadSession) error {
		fnErr = fn(s)
		return fnErr
	})
	switch {
	case err == nil:
		return session, nil
	case fnErr != nil:
		return nil, fnErr
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrConcurrentUpdate):
		return nil, err
	default:
		return nil, domain.Upstream("session store update", err)
	}
}

func (f *uploadService) publish(ctx context.Context, eventType domain.EventType, session *domain.UploadSession) {
	if f.events == nil {
		return
	}
	event := domain.NewSessionEvent(eventType, session, time.Now().UTC())
	if err := f.events.Publish(ctx, event); err != nil {
		f.logger.Warn("failed to publish session event",
			"type", eventType,
			"upload_id", session.ID,
			"error", err)
	}
}

// SessionIDFromKey extracts the session id from a key built by StorageKey
func SessionIDFromKey(key string) (uuid.UUID, bool) {
	rest, ok := strings.CutPrefix(key, KeyPrefix)
	if !ok {
		return uuid.Nil, false
	}
	idPart, _, ok := strings.Cut(rest, "/")
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
