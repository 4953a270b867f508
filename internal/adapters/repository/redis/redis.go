package redis

import (
	"context"
	"errors"
	"time"
	"upload-coordinator/internal/adapters/repository"
	"upload-coordinator/internal/core/domain"
	"upload-coordinator/internal/core/port"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxRetries    = 16
	retryInitialInterval = 2 * time.Millisecond
	retryMaxInterval     = 50 * time.Millisecond
)

// SessionStore keeps one key per session, expiry is the key TTL.
// Update is an optimistic transaction on the session key.
type SessionStore struct {
	client     redis.UniversalClient
	prefix     string
	maxRetries int
}

var _ port.SessionStore = (*SessionStore)(nil)

func NewSessionStore(client redis.UniversalClient, prefix string) *SessionStore {
	return &SessionStore{client: client, prefix: prefix, maxRetries: defaultMaxRetries}
}

func (s *SessionStore) key(id uuid.UUID) string {
	return s.prefix + id.String()
}

func (s *SessionStore) Put(ctx context.Context, session domain.UploadSession, ttl time.Duration) error {
	data, err := repository.EncodeSession(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.ID), data, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return repository.DecodeSession(data)
}

func (s *SessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// Update retries with a jittered backoff while another writer changes the key between WATCH and EXEC
func (s *SessionStore) Update(ctx context.Context, id uuid.UUID, fn port.UpdateFunc) (*domain.UploadSession, error) {
	key := s.key(id)

	var updated *domain.UploadSession
	err := backoff.Retry(func() error {
		session, err := s.update(ctx, key, fn)
		if errors.Is(err, redis.TxFailedErr) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		updated = session
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), uint64(s.maxRetries-1)), ctx))

	if errors.Is(err, redis.TxFailedErr) {
		return nil, domain.ErrConcurrentUpdate
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *SessionStore) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = 0
	return b
}

// update is one optimistic attempt, redis.TxFailedErr means the key changed under it
func (s *SessionStore) update(ctx context.Context, key string, fn port.UpdateFunc) (*domain.UploadSession, error) {
	var updated *domain.UploadSession

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return domain.ErrSessionNotFound
			}
			return err
		}

		session, err := repository.DecodeSession(data)
		if err != nil {
			return err
		}
		if err := fn(session); err != nil {
			return err
		}

		encoded, err := repository.EncodeSession(*session)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, redis.KeepTTL)
			return nil
		})
		if err != nil {
			return err
		}

		updated = session
		return nil
	}, key)

	return updated, err
}
