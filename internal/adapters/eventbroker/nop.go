package eventbroker

import (
	"context"
	"upload-coordinator/internal/core/domain"
	"upload-coordinator/internal/core/port"
)

// NopPublisher drops every event, used when no broker is configured
type NopPublisher struct{}

var _ port.EventPublisher = NopPublisher{}

func (NopPublisher) Publish(context.Context, domain.SessionEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
