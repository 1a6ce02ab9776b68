// Package events carries ledger outbox events to NATS and back.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/josh-kwaku/fundledger/internal/domain"
)

// MsgIDHeader lets JetStream consumers deduplicate redelivered events.
const MsgIDHeader = "Nats-Msg-Id"

// Envelope is the wire form of a published ledger event.
type Envelope struct {
	ID           uuid.UUID              `json:"id"`
	FundraiserID uuid.UUID              `json:"fundraiser_id"`
	Type         domain.LedgerEventType `json:"type"`
	OccurredAt   time.Time              `json:"occurred_at"`
	Payload      json.RawMessage        `json:"payload"`
}

func NewEnvelope(e domain.LedgerEvent) Envelope {
	payload := e.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	return Envelope{
		ID:           e.ID,
		FundraiserID: e.FundraiserID,
		Type:         e.EventType,
		OccurredAt:   e.CreatedAt,
		Payload:      payload,
	}
}

// Subject is "<prefix>.<event type>", e.g. fundledger.donation.recorded.
func Subject(prefix string, t domain.LedgerEventType) string {
	return strings.TrimSuffix(prefix, ".") + "." + string(t)
}

// Wildcard matches every ledger subject under prefix.
func Wildcard(prefix string) string {
	return strings.TrimSuffix(prefix, ".") + ".>"
}

type Publisher struct {
	nc     *nats.Conn
	prefix string
}

// Connect dials NATS with reconnect settings suited to a long-running
// worker.
func Connect(url, name string, logger *slog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("events.Connect: %w", err)
	}
	return nc, nil
}

func NewPublisher(nc *nats.Conn, prefix string) *Publisher {
	return &Publisher{nc: nc, prefix: prefix}
}

// Publish sends the event and waits for the server to acknowledge the
// flush, so a nil error means the broker has the message.
func (p *Publisher) Publish(ctx context.Context, e domain.LedgerEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("Publish: %w", err)
	}

	data, err := json.Marshal(NewEnvelope(e))
	if err != nil {
		return fmt.Errorf("Publish: marshal: %w", err)
	}

	msg := nats.NewMsg(Subject(p.prefix, e.EventType))
	msg.Header.Set(MsgIDHeader, e.ID.String())
	msg.Data = data

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("Publish: flush: %w", err)
	}
	return nil
}

// Decode parses a message produced by Publish.
func Decode(msg *nats.Msg) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		return Envelope{}, fmt.Errorf("Decode: %w", err)
	}
	return env, nil
}
