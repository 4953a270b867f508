package port

import (
	"context"
	"upload-coordinator/internal/core/domain"
)

// EventPublisher is an interface to define an event publisher (nats, kafka, ...)
type EventPublisher interface {
	Publish(ctx context.Context, event domain.SessionEvent) error
	Close() error
}

// EventHandler handles session events read back from the broker
type EventHandler interface {
	HandleEvent(ctx context.Context, event domain.SessionEvent) error
}
