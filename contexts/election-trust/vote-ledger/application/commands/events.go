package commands

import (
	"encoding/json"
	"time"

	"electra/contexts/election-trust/vote-ledger/domain/entities"
	"electra/internal/shared/events"
)

// newVoteEnvelope builds canonical envelopes partitioned by election so
// downstream consumers see one election's ballots in order.
func newVoteEnvelope(
	eventID string,
	eventType string,
	vote entities.Vote,
	occurredAt time.Time,
	metadata map[string]any,
) (events.Envelope, error) {
	data := map[string]any{
		"vote_id":     vote.VoteID,
		"election_id": vote.ElectionID,
		"vote_hash":   vote.VoteHash,
		"status":      string(vote.Status),
		"occurred_at": occurredAt.UTC().Format(time.RFC3339),
	}
	for key, value := range metadata {
		data[key] = value
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return events.Envelope{}, err
	}
	return events.Envelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "vote-ledger",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "election_id",
		PartitionKey:     vote.ElectionID,
		Data:             payload,
	}, nil
}
