package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/fundledger/internal/domain"
	"github.com/josh-kwaku/fundledger/internal/metrics"
)

type fakeOutbox struct {
	mu      sync.Mutex
	pending []domain.LedgerEvent
	updates map[uuid.UUID][]domain.LedgerEventStatus
	getErr  error
}

func (f *fakeOutbox) GetPending(_ context.Context, limit int) ([]domain.LedgerEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if len(f.pending) > limit {
		return append([]domain.LedgerEvent(nil), f.pending[:limit]...), nil
	}
	return append([]domain.LedgerEvent(nil), f.pending...), nil
}

func (f *fakeOutbox) UpdateStatus(_ context.Context, id uuid.UUID, status domain.LedgerEventStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = make(map[uuid.UUID][]domain.LedgerEventStatus)
	}
	f.updates[id] = append(f.updates[id], status)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []domain.LedgerEvent
	failFor   map[uuid.UUID]bool
}

func (p *fakePublisher) Publish(_ context.Context, e domain.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failFor[e.ID] {
		return errors.New("nats: no responders")
	}
	p.published = append(p.published, e)
	return nil
}

type fakeCleaner struct {
	calls int
}

func (c *fakeCleaner) CleanExpired(context.Context, time.Time) (int64, error) {
	c.calls++
	return 2, nil
}

func pendingEvent(attempts int) domain.LedgerEvent {
	return domain.LedgerEvent{
		ID:           uuid.New(),
		FundraiserID: uuid.New(),
		EventType:    domain.LedgerEventTypeDonationRecorded,
		Payload:      []byte(`{}`),
		Status:       domain.LedgerEventStatusPending,
		Attempts:     attempts,
	}
}

func newTestDispatcher(outbox *fakeOutbox, pub *fakePublisher, cleaner cacheCleaner) *Dispatcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatcher(outbox, pub, cleaner, metrics.New(prometheus.NewRegistry()), logger, time.Second, 10)
}

func TestDispatcher_PublishesAndMarksDispatched(t *testing.T) {
	e1, e2 := pendingEvent(0), pendingEvent(0)
	outbox := &fakeOutbox{pending: []domain.LedgerEvent{e1, e2}}
	pub := &fakePublisher{}
	d := newTestDispatcher(outbox, pub, nil)

	n := d.poll(context.Background())

	assert.Equal(t, 2, n)
	require.Len(t, pub.published, 2)
	assert.Equal(t, e1.ID, pub.published[0].ID)
	assert.Equal(t, []domain.LedgerEventStatus{domain.LedgerEventStatusDispatched}, outbox.updates[e1.ID])
	assert.Equal(t, []domain.LedgerEventStatus{domain.LedgerEventStatusDispatched}, outbox.updates[e2.ID])
}

func TestDispatcher_FailureStaysPendingUntilLimit(t *testing.T) {
	fresh := pendingEvent(0)
	exhausted := pendingEvent(MaxDispatchAttempts - 1)
	outbox := &fakeOutbox{pending: []domain.LedgerEvent{fresh, exhausted}}
	pub := &fakePublisher{failFor: map[uuid.UUID]bool{fresh.ID: true, exhausted.ID: true}}
	d := newTestDispatcher(outbox, pub, nil)

	n := d.poll(context.Background())

	assert.Zero(t, n)
	assert.Equal(t, []domain.LedgerEventStatus{domain.LedgerEventStatusPending}, outbox.updates[fresh.ID])
	assert.Equal(t, []domain.LedgerEventStatus{domain.LedgerEventStatusFailed}, outbox.updates[exhausted.ID])
}

func TestDispatcher_RespectsBatchSize(t *testing.T) {
	var pending []domain.LedgerEvent
	for range 15 {
		pending = append(pending, pendingEvent(0))
	}
	outbox := &fakeOutbox{pending: pending}
	pub := &fakePublisher{}
	d := newTestDispatcher(outbox, pub, nil)

	assert.Equal(t, 10, d.poll(context.Background()))
}

func TestDispatcher_FetchErrorIsSwallowed(t *testing.T) {
	outbox := &fakeOutbox{getErr: errors.New("db down")}
	d := newTestDispatcher(outbox, &fakePublisher{}, nil)

	assert.Zero(t, d.poll(context.Background()))
}

func TestDispatcher_HousekeepingIsThrottled(t *testing.T) {
	cleaner := &fakeCleaner{}
	d := newTestDispatcher(&fakeOutbox{}, &fakePublisher{}, cleaner)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	d.housekeep(context.Background())
	d.housekeep(context.Background())
	assert.Equal(t, 1, cleaner.calls)

	now = now.Add(time.Hour)
	d.housekeep(context.Background())
	assert.Equal(t, 2, cleaner.calls)
}

func TestDispatcher_WithoutPublisherStillCleansCache(t *testing.T) {
	outbox := &fakeOutbox{pending: []domain.LedgerEvent{pendingEvent(0)}}
	cleaner := &fakeCleaner{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDispatcher(outbox, nil, cleaner, nil, logger, time.Second, 10)

	d.tick(context.Background())

	assert.Equal(t, 1, cleaner.calls)
	assert.Empty(t, outbox.updates)
}

func TestDispatcher_TickPublishesThenCleans(t *testing.T) {
	outbox := &fakeOutbox{pending: []domain.LedgerEvent{pendingEvent(0)}}
	pub := &fakePublisher{}
	cleaner := &fakeCleaner{}
	d := newTestDispatcher(outbox, pub, cleaner)

	d.tick(context.Background())

	assert.Len(t, pub.published, 1)
	assert.Equal(t, 1, cleaner.calls)
}

func TestDispatcher_StartStopsOnCancel(t *testing.T) {
	d := newTestDispatcher(&fakeOutbox{}, &fakePublisher{}, nil)
	d.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
