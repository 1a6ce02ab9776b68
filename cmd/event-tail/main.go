// Command event-tail subscribes to the ledger event subjects and logs every
// event it receives. It is a debugging aid for the outbox dispatcher.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	env "github.com/caarlos0/env/v11"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/josh-kwaku/fundledger/internal/events"
	"github.com/josh-kwaku/fundledger/internal/logging"
)

type tailConfig struct {
	NATSURL           string `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	NATSSubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"fundledger"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv            string `env:"APP_ENV" envDefault:"development"`
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var eventType string

	cmd := &cobra.Command{
		Use:           "event-tail",
		Short:         "Log ledger events published to NATS",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := env.ParseAs[tailConfig]()
			if err != nil {
				return fmt.Errorf("event-tail: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return tail(ctx, cfg, eventType)
		},
	}
	cmd.Flags().StringVar(&eventType, "type", "", "Only show one event type, e.g. donation.recorded")
	return cmd
}

func tail(ctx context.Context, cfg tailConfig, eventType string) error {
	logger := logging.Init("event-tail", cfg.LogLevel, cfg.AppEnv)

	nc, err := events.Connect(cfg.NATSURL, "event-tail", logger)
	if err != nil {
		return err
	}
	defer nc.Close()

	subject := events.Wildcard(cfg.NATSSubjectPrefix)
	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		evt, err := events.Decode(msg)
		if err != nil {
			logger.Warn("undecodable message", "subject", msg.Subject, "error", err)
			return
		}
		if eventType != "" && string(evt.Type) != eventType {
			return
		}
		logger.Info("ledger event",
			"subject", msg.Subject,
			"event_id", evt.ID,
			"msg_id", msg.Header.Get(events.MsgIDHeader),
			"fundraiser_id", evt.FundraiserID,
			"type", evt.Type,
			"occurred_at", evt.OccurredAt,
			"payload", string(evt.Payload),
		)
	})
	if err != nil {
		return fmt.Errorf("event-tail: subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	logger.Info("tailing ledger events", "subject", subject)
	<-ctx.Done()
	return nil
}
