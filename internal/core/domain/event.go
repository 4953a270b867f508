package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType is a type that represents the type of a session event
type EventType string

const (
	EventTypeSessionCreated   EventType = "created"
	EventTypeSessionCommitted EventType = "committed"
	EventTypeSessionAborted   EventType = "aborted"
)

// SessionEvent is published after a session lifecycle change
type SessionEvent struct {
	Type       EventType    `json:"type"`
	UploadID   uuid.UUID    `json:"uploadId"`
	Status     UploadStatus `json:"status"`
	ObjectKey  string       `json:"objectKey"`
	FileID     string       `json:"fileId,omitempty"`
	Size       int64        `json:"size"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// NewSessionEvent builds an event from the session state
func NewSessionEvent(eventType EventType, session *UploadSession, now time.Time) SessionEvent {
	return SessionEvent{
		Type:       eventType,
		UploadID:   session.ID,
		Status:     session.Status,
		ObjectKey:  session.Multipart.Key,
		FileID:     session.FileID,
		Size:       session.Size,
		OccurredAt: now,
	}
}

// CleanupReport summarizes one cleanup run
type CleanupReport struct {
	Aborted int
	Skipped int
	Purged  int
}
