package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"upload-coordinator/internal/adapters/repository"
	"upload-coordinator/internal/core/domain"
	"upload-coordinator/internal/core/port"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SQLSessionStore keeps session records in the upload_session table.
// Rows past expires_at are invisible and removed by PurgeExpired.
type SQLSessionStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ port.SessionStore = (*SQLSessionStore)(nil)
var _ port.ExpiredSessionPurger = (*SQLSessionStore)(nil)

// NewSQLSessionStore Creates a new SQLSessionStore
func NewSQLSessionStore(db *sql.DB) *SQLSessionStore {
	return &SQLSessionStore{db: db, now: time.Now}
}

// Put inserts or replaces a session
func (s *SQLSessionStore) Put(ctx context.Context, session domain.UploadSession, ttl time.Duration) error {
	payload, err := repository.EncodeSession(session)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO upload_session (id, payload, status, object_key, version, expires_at)
		VALUES ($1, $2, $3, $4, 1, $5)
		ON CONFLICT (id) DO UPDATE SET
			payload = EXCLUDED.payload,
			status = EXCLUDED.status,
			object_key = EXCLUDED.object_key,
			version = upload_session.version + 1,
			expires_at = EXCLUDED.expires_at,
			updated_at = now()`

	_, err = s.db.ExecContext(
		ctx,
		query,
		session.ID,
		payload,
		session.Status,
		session.Multipart.Key,
		s.now().Add(ttl),
	)
	return err
}

// Get returns a live session
func (s *SQLSessionStore) Get(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	session, _, err := s.find(ctx, s.db, id, false)
	return session, err
}

// Delete removes a session, unknown ids are ignored
func (s *SQLSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM upload_session WHERE id = $1`, id)
	return err
}

// Update locks the row, applies fn and writes the result back under the same transaction.
// The expiry is left unchanged.
func (s *SQLSessionStore) Update(ctx context.Context, id uuid.UUID, fn port.UpdateFunc) (*domain.UploadSession, error) {
	var updated *domain.UploadSession

	err := inTx(ctx, s.db, func(q SQLQuerier) error {
		session, version, err := s.find(ctx, q, id, true)
		if err != nil {
			return err
		}

		if err := fn(session); err != nil {
			return err
		}

		payload, err := repository.EncodeSession(*session)
		if err != nil {
			return err
		}

		query := `
			UPDATE upload_session
			SET payload = $1, status = $2, version = version + 1, updated_at = now()
			WHERE id = $3 AND version = $4`

		result, err := q.ExecContext(ctx, query, payload, session.Status, id, version)
		if err != nil {
			return err
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}

		if rows == 0 {
			return domain.ErrConcurrentUpdate
		}

		updated = session
		return nil
	})
	if err != nil {
		return nil, conflictOrErr(err)
	}

	return updated, nil
}

// PurgeExpired deletes the rows whose expiry is before now
func (s *SQLSessionStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM upload_session WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rows), nil
}

func (s *SQLSessionStore) find(ctx context.Context, q SQLQuerier, id uuid.UUID, forUpdate bool) (*domain.UploadSession, int64, error) {
	query := `
		SELECT payload, version
		FROM upload_session
		WHERE id = $1 AND expires_at > $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var row dbUploadSession
	err := q.QueryRowContext(ctx, query, id, s.now()).Scan(&row.Payload, &row.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, domain.ErrSessionNotFound
		}
		return nil, 0, err
	}

	session, err := row.ToDomain()
	if err != nil {
		return nil, 0, fmt.Errorf("upload_session %s: %w", id, err)
	}
	return session, row.Version, nil
}

type dbUploadSession struct {
	Payload []byte `db:"payload"`
	Version int64  `db:"version"`
}

// ToDomain converts db obj to domain
func (s *dbUploadSession) ToDomain() (*domain.UploadSession, error) {
	return repository.DecodeSession(s.Payload)
}

// conflictOrErr maps serialization failures and deadlocks to ErrConcurrentUpdate
func conflictOrErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", domain.ErrConcurrentUpdate, pqErr.Message)
		}
	}
	return err
}
