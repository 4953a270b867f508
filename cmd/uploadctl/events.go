package main

import (
	"context"
	"fmt"
	"io"
	"upload-coordinator/internal/adapters/eventbroker/nats"
	"upload-coordinator/internal/config"
	"upload-coordinator/internal/core/domain"

	"github.com/goccy/go-json"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newEventsCmd())
}

// printer writes one JSON line per session event
type printer struct {
	out io.Writer
}

func (p printer) HandleEvent(_ context.Context, event domain.SessionEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.out, string(line))
	return err
}

func newEventsCmd() *cobra.Command {
	var url, consumer string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow session events published on NATS JetStream",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg config.NATSConfig
			if err := envconfig.Process("", &cfg); err != nil {
				return err
			}
			if url != "" {
				cfg.URL = url
			}
			if consumer != "" {
				cfg.Consumer = consumer
			}
			if cfg.URL == "" {
				return fmt.Errorf("--nats-url or NATS_URL is required")
			}

			cmd.SilenceUsage = true
			logger := newLogger(cmd)

			c, err := nats.NewNATSConsumer(cfg, cfg.Consumer, logger)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Subscribe(cmd.Context(), printer{out: cmd.OutOrStdout()}); err != nil {
				return err
			}

			<-cmd.Context().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "nats-url", "", "NATS server URL, defaults to NATS_URL")
	cmd.Flags().StringVar(&consumer, "consumer", "", "Durable consumer name, defaults to NATS_CONSUMER")
	return cmd
}
