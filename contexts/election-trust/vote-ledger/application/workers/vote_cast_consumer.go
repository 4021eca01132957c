package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "electra/contexts/election-trust/vote-ledger/application"
	"electra/contexts/election-trust/vote-ledger/ports"
	"electra/internal/shared/events"
)

// VoteCastConsumer reacts to vote.cast events by kicking off the first
// consensus round. The processed-event store makes redelivery harmless.
type VoteCastConsumer struct {
	Subscriber  ports.EventSubscriber
	Processed   ports.ProcessedEventStore
	Coordinator Coordinator
	Clock       ports.Clock
	Delay       time.Duration
	Logger      *slog.Logger
}

// Start registers the consumer; it returns once the subscription is live and
// the bus drives handling from then on.
func (c VoteCastConsumer) Start(ctx context.Context) error {
	return c.Subscriber.Subscribe(ctx, "vote.cast", "vote-ledger-consensus", c.handle)
}

func (c VoteCastConsumer) handle(ctx context.Context, event events.Envelope) error {
	logger := application.ResolveLogger(c.Logger)

	if c.Processed != nil {
		seen, err := c.Processed.AlreadyProcessed(ctx, event.EventID)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}

	var payload struct {
		VoteID string `json:"vote_id"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("vote cast event decode failed",
			"event", "vote_cast_event_decode_failed",
			"module", "election-trust/vote-ledger",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	// Optional processing delay mirrors real node round-trip latency in dev.
	if c.Delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.Delay):
		}
	}

	if err := c.Coordinator.RunConsensusRound(ctx, payload.VoteID); err != nil {
		logger.Error("consensus round from consumer failed",
			"event", "consensus_round_failed",
			"module", "election-trust/vote-ledger",
			"layer", "worker",
			"vote_id", payload.VoteID,
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	if c.Processed != nil {
		now := time.Now().UTC()
		if c.Clock != nil {
			now = c.Clock.Now().UTC()
		}
		if err := c.Processed.MarkProcessed(ctx, event.EventID, now); err != nil {
			return err
		}
	}
	return nil
}
