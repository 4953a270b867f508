package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"upload-coordinator/internal/config"
	"upload-coordinator/internal/core/domain"
	"upload-coordinator/internal/core/port"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Consumer is a struct to read session events from JetStream
type Consumer struct {
	logger *slog.Logger
	conn   *nats.Conn
	js     jetstream.JetStream
	config config.NATSConfig
	name   string
	iter   jetstream.MessagesContext
	wg     sync.WaitGroup
}

// NewNATSConsumer creates a new consumer, name is its durable name
func NewNATSConsumer(cfg config.NATSConfig, name string, logger *slog.Logger) (*Consumer, error) {
	conn, js, err := connect(cfg, name, logger)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		conn:   conn,
		js:     js,
		config: cfg,
		name:   name,
		logger: logger,
	}, nil
}

// Subscribe subscribes to stream and handles events.
// Undecodable messages are terminated, handler errors are redelivered.
func (n *Consumer) Subscribe(ctx context.Context, handler port.EventHandler) error {
	consumerCfg := jetstream.ConsumerConfig{
		Durable:       n.name,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: subjectFilter(n.config),
		AckWait:       10 * time.Second,
		MaxDeliver:    5,
		BackOff:       []time.Duration{100 * time.Millisecond, 200 * time.Millisecond},
	}

	cons, err := n.js.CreateOrUpdateConsumer(ctx, n.config.StreamName, consumerCfg)
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", n.name, err)
	}

	iter, err := cons.Messages()
	if err != nil {
		return err
	}
	n.iter = iter

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.logger.Info("NATS subscription started", "consumer", n.name)
		for {
			select {
			case <-ctx.Done():
				n.logger.Info("NATS subscription stopped")
				return
			default:
				msg, err := iter.Next()
				if err != nil {
					if ctx.Err() != nil || errors.Is(err, jetstream.ErrMsgIteratorClosed) {
						n.logger.Info("NATS subscription stopped")
						return
					}
					n.logger.Error("failed to receive message", "error", err)
					return
				}
				n.handle(ctx, msg, handler)
			}
		}
	}()
	return nil
}

func (n *Consumer) handle(ctx context.Context, msg jetstream.Msg, handler port.EventHandler) {
	var event domain.SessionEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		n.logger.Warn("dropping undecodable event", "subject", msg.Subject(), "error", err)
		if termErr := msg.Term(); termErr != nil {
			n.logger.Error("failed to term message", "error", termErr)
		}
		return
	}

	if handleErr := handler.HandleEvent(ctx, event); handleErr != nil {
		if errNak := msg.Nak(); errNak != nil {
			n.logger.Error("failed to nak message", "error", errNak)
		}
		n.logger.Warn("failed to handle event", "upload_id", event.UploadID, "error", handleErr)
		return
	}
	if ackErr := msg.Ack(); ackErr != nil {
		n.logger.Error("failed to ack message", "error", ackErr)
	}
}

// Close graceful shutdown
func (n *Consumer) Close() error {
	if n.iter != nil {
		n.iter.Stop()
	}

	n.wg.Wait()

	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
