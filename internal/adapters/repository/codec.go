package repository

import (
	"fmt"
	"upload-coordinator/internal/core/domain"

	"github.com/goccy/go-json"
)

// EncodeSession serializes a session record for a key-value store
func EncodeSession(session domain.UploadSession) ([]byte, error) {
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to store invalid session: %w", err)
	}
	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return data, nil
}

// DecodeSession parses a stored record and checks its invariants before it reaches the core
func DecodeSession(data []byte) (*domain.UploadSession, error) {
	var session domain.UploadSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if session.UploadedParts == nil {
		session.UploadedParts = map[int]domain.PartRecord{}
	}
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("stored session is corrupt: %w", err)
	}
	return &session, nil
}
