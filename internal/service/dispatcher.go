package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/fundledger/internal/domain"
	"github.com/josh-kwaku/fundledger/internal/metrics"
)

// MaxDispatchAttempts is how many publish failures an event may accumulate
// before it is parked as failed.
const MaxDispatchAttempts = 5

type outboxRepo interface {
	GetPending(ctx context.Context, limit int) ([]domain.LedgerEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.LedgerEventStatus) error
}

type eventPublisher interface {
	Publish(ctx context.Context, e domain.LedgerEvent) error
}

type cacheCleaner interface {
	CleanExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Dispatcher drains the ledger_events outbox to the broker. It also expires
// stale idempotency cache entries on a slower cadence. With a nil publisher
// events stay in the outbox and only the cache is maintained.
type Dispatcher struct {
	outbox    outboxRepo
	publisher eventPublisher
	cache     cacheCleaner
	metrics   *metrics.Metrics
	logger    *slog.Logger
	interval  time.Duration
	batchSize int

	cleanEvery time.Duration
	lastClean  time.Time
	now        func() time.Time
}

func NewDispatcher(
	outbox outboxRepo,
	publisher eventPublisher,
	cache cacheCleaner,
	m *metrics.Metrics,
	logger *slog.Logger,
	interval time.Duration,
	batchSize int,
) *Dispatcher {
	return &Dispatcher{
		outbox:     outbox,
		publisher:  publisher,
		cache:      cache,
		metrics:    m,
		logger:     logger,
		interval:   interval,
		batchSize:  batchSize,
		cleanEvery: time.Hour,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("event dispatcher started",
		"interval", d.interval,
		"batch_size", d.batchSize,
		"publishing", d.publisher != nil,
	)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("event dispatcher stopped")
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Dispatcher) tick(ctx context.Context) {
	if d.publisher != nil {
		d.poll(ctx)
	}
	d.housekeep(ctx)
}

// poll publishes one batch and returns how many events were dispatched.
func (d *Dispatcher) poll(ctx context.Context) int {
	events, err := d.outbox.GetPending(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("failed to fetch pending ledger events", "error", err)
		return 0
	}

	dispatched := 0
	for _, event := range events {
		ok, err := d.dispatch(ctx, event)
		if err != nil {
			d.logger.Error("failed to record ledger event outcome",
				"ledger_event_id", event.ID,
				"error", err,
			)
		}
		if ok {
			dispatched++
		}
	}
	return dispatched
}

func (d *Dispatcher) dispatch(ctx context.Context, event domain.LedgerEvent) (bool, error) {
	if err := d.publisher.Publish(ctx, event); err != nil {
		attempts := event.Attempts + 1
		status := domain.LedgerEventStatusPending
		if attempts >= MaxDispatchAttempts {
			status = domain.LedgerEventStatusFailed
			d.metrics.EventDispatched(metrics.ResultError)
		}
		d.logger.Warn("ledger event publish failed",
			"ledger_event_id", event.ID,
			"event_type", event.EventType,
			"attempts", attempts,
			"status", status,
			"error", err,
		)
		if uerr := d.outbox.UpdateStatus(ctx, event.ID, status); uerr != nil {
			return false, fmt.Errorf("dispatch: %w", uerr)
		}
		return false, nil
	}

	d.metrics.EventDispatched(metrics.ResultOK)
	if err := d.outbox.UpdateStatus(ctx, event.ID, domain.LedgerEventStatusDispatched); err != nil {
		return true, fmt.Errorf("dispatch: %w", err)
	}
	d.logger.Debug("ledger event dispatched", "ledger_event_id", event.ID, "event_type", event.EventType)
	return true, nil
}

func (d *Dispatcher) housekeep(ctx context.Context) {
	if d.cache == nil {
		return
	}
	now := d.now()
	if !d.lastClean.IsZero() && now.Sub(d.lastClean) < d.cleanEvery {
		return
	}
	d.lastClean = now

	n, err := d.cache.CleanExpired(ctx, now)
	if err != nil {
		d.logger.Error("failed to clean idempotency cache", "error", err)
		return
	}
	if n > 0 {
		d.logger.Info("expired idempotency entries removed", "count", n)
	}
}
