package nats

import (
	"context"
	"fmt"
	"log/slog"
	"upload-coordinator/internal/config"
	"upload-coordinator/internal/core/domain"
	"upload-coordinator/internal/core/port"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher publishes session events on JetStream, one subject per event type
type Publisher struct {
	logger *slog.Logger
	conn   *nats.Conn
	js     jetstream.JetStream
	config config.NATSConfig
}

var _ port.EventPublisher = (*Publisher)(nil)

// NewNATSPublisher connects and makes sure the stream exists
func NewNATSPublisher(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (*Publisher, error) {
	conn, js, err := connect(cfg, cfg.Name, logger)
	if err != nil {
		return nil, err
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.StreamName,
		Subjects: []string{subjectFilter(cfg)},
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create stream %s: %w", cfg.StreamName, err)
	}

	return &Publisher{conn: conn, js: js, config: cfg, logger: logger}, nil
}

// Subject returns the subject an event type is published on
func (p *Publisher) Subject(eventType domain.EventType) string {
	return p.config.Subject + "." + string(eventType)
}

// Publish sends the event, the message id makes redelivery of the same transition a no-op
func (p *Publisher) Publish(ctx context.Context, event domain.SessionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msgID := event.UploadID.String() + "." + string(event.Type)
	if _, err := p.js.Publish(ctx, p.Subject(event.Type), data, jetstream.WithMsgID(msgID)); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
