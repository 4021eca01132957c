package unit

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	votememory "electra/contexts/election-trust/vote-ledger/adapters/memory"
	"electra/contexts/election-trust/vote-ledger/adapters/nodesim"
	votecommands "electra/contexts/election-trust/vote-ledger/application/commands"
	voteworkers "electra/contexts/election-trust/vote-ledger/application/workers"
	"electra/contexts/election-trust/vote-ledger/domain/entities"
	"electra/internal/shared/events"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type ledgerStubSubscriber struct {
	handlers map[string]func(context.Context, events.Envelope) error
}

func (s *ledgerStubSubscriber) Subscribe(
	_ context.Context,
	topic string,
	_ string,
	handler func(context.Context, events.Envelope) error,
) error {
	if s.handlers == nil {
		s.handlers = map[string]func(context.Context, events.Envelope) error{}
	}
	s.handlers[topic] = handler
	return nil
}

type countingAudit struct {
	mu    sync.Mutex
	types []string
}

func (a *countingAudit) AppendAuditEntry(
	_ context.Context,
	logType string,
	_ string,
	_ string,
	_ map[string]any,
) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.types = append(a.types, logType)
	return nil
}

func (a *countingAudit) count(logType string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := 0
	for _, entry := range a.types {
		if entry == logType {
			total++
		}
	}
	return total
}

func seedLedgerFixtures(store *votememory.Store) {
	store.SeedElection(entities.ElectionProjection{
		ElectionID:        "election-1",
		Type:              "general_election",
		Status:            "active",
		State:             "Kerala",
		ReplicationFactor: 3,
	})
	store.SeedCandidate(entities.CandidateProjection{
		CandidateID: "candidate-1",
		ElectionID:  "election-1",
		IsVerified:  true,
	})
	store.SeedVoter(entities.VoterProjection{
		VoterID:  "voter-1",
		State:    "Kerala",
		Approved: true,
	})
	store.SeedActiveNodes("election-1", []string{"node-1", "node-2", "node-3"})
}

func TestVoteCastConsumerFinalizesThroughConsensus(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	store := votememory.NewStore()
	seedLedgerFixtures(store)
	audit := &countingAudit{}

	cast := votecommands.CastVoteUseCase{
		Votes:      store,
		Voters:     store,
		Elections:  store,
		Candidates: store,
		Outbox:     store,
		Audit:      audit,
		Clock:      fixedClock{now: now},
		IDGen:      store,
	}
	vote, err := cast.CastVote(context.Background(), votecommands.CastVoteCommand{
		VoterID:     "voter-1",
		CandidateID: "candidate-1",
		ElectionID:  "election-1",
	})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}

	sub := &ledgerStubSubscriber{}
	consumer := voteworkers.VoteCastConsumer{
		Subscriber: sub,
		Processed:  store,
		Coordinator: voteworkers.Coordinator{
			Votes:         store,
			Logs:          store,
			Elections:     store,
			Nodes:         store,
			Confirmations: nodesim.Confirmer{},
			Audit:         audit,
			Clock:         fixedClock{now: now},
			IDGen:         store,
		},
		Clock: fixedClock{now: now},
	}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("start vote cast consumer failed: %v", err)
	}
	handler := sub.handlers["vote.cast"]
	if handler == nil {
		t.Fatalf("expected vote.cast handler registration")
	}

	payload, _ := json.Marshal(map[string]any{"vote_id": vote.VoteID})
	envelope := events.Envelope{
		EventID:   "event-vote-cast-1",
		EventType: "vote.cast",
		Data:      payload,
	}
	if err := handler(context.Background(), envelope); err != nil {
		t.Fatalf("vote.cast handler failed: %v", err)
	}

	stored, err := store.GetVote(context.Background(), vote.VoteID)
	if err != nil {
		t.Fatalf("load vote after consumer failed: %v", err)
	}
	if stored.Status != entities.VoteStatusFinalized {
		t.Fatalf("expected finalized vote, got %s", stored.Status)
	}
	if stored.ConfirmationCount != 3 {
		t.Fatalf("expected 3 confirmations, got %d", stored.ConfirmationCount)
	}
	if audit.count("consensus_achieved") != 1 {
		t.Fatalf("expected one consensus_achieved entry, got %d", audit.count("consensus_achieved"))
	}

	outbox, err := store.ListPendingOutbox(context.Background(), 20)
	if err != nil {
		t.Fatalf("list vote outbox failed: %v", err)
	}
	foundFinalized := false
	for _, message := range outbox {
		var event struct {
			EventType string `json:"event_type"`
			Data      struct {
				VoteHash string `json:"vote_hash"`
			} `json:"data"`
		}
		if err := json.Unmarshal(message.Payload, &event); err != nil {
			t.Fatalf("decode outbox envelope failed: %v", err)
		}
		if event.EventType == "vote.finalized" {
			foundFinalized = true
			if event.Data.VoteHash != vote.VoteHash {
				t.Fatalf("expected finalized event to carry the sealed vote hash")
			}
		}
	}
	if !foundFinalized {
		t.Fatalf("expected vote.finalized event in outbox")
	}

	// Redelivery of the same event is deduplicated; no second round runs.
	if err := handler(context.Background(), envelope); err != nil {
		t.Fatalf("redelivered vote.cast handler failed: %v", err)
	}
	if audit.count("consensus_achieved") != 1 {
		t.Fatalf("expected redelivery to be deduplicated, got %d entries", audit.count("consensus_achieved"))
	}
}

func TestVoteCastConsumerDefersInactiveElection(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	store := votememory.NewStore()
	store.SeedElection(entities.ElectionProjection{
		ElectionID: "election-9",
		Type:       "general_election",
		Status:     "suspended",
		State:      "Kerala",
	})
	store.SeedActiveNodes("election-9", []string{"node-1", "node-2", "node-3"})
	vote := entities.NewVote("vote-9", "voter-9", "candidate-9", "election-9", "0123456789abcdef0123456789abcdef", 3, now)
	if err := store.CreateVote(context.Background(), vote); err != nil {
		t.Fatalf("seed vote failed: %v", err)
	}

	sub := &ledgerStubSubscriber{}
	consumer := voteworkers.VoteCastConsumer{
		Subscriber: sub,
		Processed:  store,
		Coordinator: voteworkers.Coordinator{
			Votes:         store,
			Logs:          store,
			Elections:     store,
			Nodes:         store,
			Confirmations: nodesim.Confirmer{},
			Clock:         fixedClock{now: now},
			IDGen:         store,
		},
		Clock: fixedClock{now: now},
	}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("start vote cast consumer failed: %v", err)
	}

	payload, _ := json.Marshal(map[string]any{"vote_id": "vote-9"})
	if err := sub.handlers["vote.cast"](context.Background(), events.Envelope{
		EventID:   "event-vote-cast-9",
		EventType: "vote.cast",
		Data:      payload,
	}); err != nil {
		t.Fatalf("handler must defer without error, got %v", err)
	}

	stored, _ := store.GetVote(context.Background(), "vote-9")
	if stored.Status != entities.VoteStatusPending {
		t.Fatalf("expected vote untouched while election suspended, got %s", stored.Status)
	}
}
