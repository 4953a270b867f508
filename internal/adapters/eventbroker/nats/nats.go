package nats

import (
	"fmt"
	"log/slog"
	"time"
	"upload-coordinator/internal/config"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

func connect(cfg config.NATSConfig, name string, logger *slog.Logger) (*nats.Conn, jetstream.JetStream, error) {
	logger = logger.With("nats_client", name)
	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(5 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Error("NATS async error", "subject", subject, "error", err)
		}),
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to connect to JetStream: %w", err)
	}
	return conn, js, nil
}

// subjectFilter matches every event subject under the configured root
func subjectFilter(cfg config.NATSConfig) string {
	return cfg.Subject + ".>"
}
