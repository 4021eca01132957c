package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"electra/contexts/election-trust/vote-ledger/adapters/memory"
	"electra/internal/shared/events"
)

type stubPublisher struct {
	published []string
	failAfter int
}

func (p *stubPublisher) Publish(_ context.Context, topic string, _ events.Envelope) error {
	if p.failAfter > 0 && len(p.published) >= p.failAfter {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, topic)
	return nil
}

func appendOutboxEvent(t *testing.T, store *memory.Store, eventID string, eventType string, at time.Time) {
	t.Helper()
	err := store.AppendOutbox(context.Background(), events.Envelope{
		EventID:    eventID,
		EventType:  eventType,
		OccurredAt: at,
		Data:       []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("append outbox %s failed: %v", eventID, err)
	}
}

func TestOutboxRelayPublishesPendingRowsInOrder(t *testing.T) {
	store := memory.NewStore()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	appendOutboxEvent(t, store, "event-1", "vote.cast", base)
	appendOutboxEvent(t, store, "event-2", "vote.finalized", base.Add(time.Second))

	publisher := &stubPublisher{}
	relay := OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     fixedClock{now: base.Add(time.Minute)},
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}

	if len(publisher.published) != 2 ||
		publisher.published[0] != "vote.cast" ||
		publisher.published[1] != "vote.finalized" {
		t.Fatalf("expected ordered publish of both events, got %v", publisher.published)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows after relay, got %d", len(pending))
	}
}

func TestOutboxRelayStopsOnPublishFailure(t *testing.T) {
	store := memory.NewStore()
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	appendOutboxEvent(t, store, "event-1", "vote.cast", base)
	appendOutboxEvent(t, store, "event-2", "vote.finalized", base.Add(time.Second))

	publisher := &stubPublisher{failAfter: 1}
	relay := OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     fixedClock{now: base.Add(time.Minute)},
	}
	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected relay to surface publish failure")
	}

	// The failed row stays pending for the next cycle.
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != "vote.finalized" {
		t.Fatalf("expected vote.finalized to remain pending, got %d rows", len(pending))
	}
}
