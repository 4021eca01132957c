package queries

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"electra/contexts/election-trust/vote-ledger/adapters/memory"
	"electra/contexts/election-trust/vote-ledger/domain/entities"
	domainerrors "electra/contexts/election-trust/vote-ledger/domain/errors"
)

type fakeCache struct {
	mu      sync.Mutex
	values  map[string]string
	sets    int
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[key]
	return value, ok
}

func (c *fakeCache) Set(_ context.Context, key string, value string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	c.sets++
}

func (c *fakeCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	c.deletes++
}

func seedVote(t *testing.T, store *memory.Store) entities.Vote {
	t.Helper()
	castAt := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	vote := entities.NewVote("vote-1", "voter-1", "candidate-1", "election-1", "0123456789abcdef0123456789abcdef", 3, castAt)
	if err := store.CreateVote(context.Background(), vote); err != nil {
		t.Fatalf("seed vote failed: %v", err)
	}
	return vote
}

func TestGetVoteStatusCountsConfirmedLogs(t *testing.T) {
	store := memory.NewStore()
	vote := seedVote(t, store)
	now := time.Date(2026, 4, 1, 10, 5, 0, 0, time.UTC)
	ctx := context.Background()
	for _, nodeID := range []string{"node-1", "node-2"} {
		log := entities.ConsensusLog{
			LogID:          "log-" + nodeID,
			VoteID:         vote.VoteID,
			NodeID:         nodeID,
			ConsensusRound: 1,
			Status:         entities.ConsensusLogStatusPending,
			Signature:      entities.ConsensusSignature(vote.VoteHash, nodeID),
			RecordedAt:     now,
		}
		if err := store.UpsertConsensusLog(ctx, log); err != nil {
			t.Fatalf("upsert log failed: %v", err)
		}
	}
	if err := store.MarkLogConfirmed(ctx, vote.VoteID, "node-1", 1, now); err != nil {
		t.Fatalf("mark confirmed failed: %v", err)
	}

	view, err := StatusUseCase{Votes: store, Logs: store}.GetVoteStatus(ctx, vote.VoteID)
	if err != nil {
		t.Fatalf("get vote status failed: %v", err)
	}
	if view.Status != string(entities.VoteStatusPending) {
		t.Fatalf("expected pending status, got %s", view.Status)
	}
	if view.ConfirmedLogs != 1 {
		t.Fatalf("expected 1 confirmed log, got %d", view.ConfirmedLogs)
	}
	if view.RequiredConfirmations != 3 {
		t.Fatalf("expected 3 required confirmations, got %d", view.RequiredConfirmations)
	}
	if view.VoteHash != vote.VoteHash {
		t.Fatalf("expected sealed vote hash in view")
	}
}

func TestGetVoteStatusUsesCacheOnSecondRead(t *testing.T) {
	store := memory.NewStore()
	vote := seedVote(t, store)
	cache := newFakeCache()
	uc := StatusUseCase{Votes: store, Logs: store, Cache: cache}

	ctx := context.Background()
	first, err := uc.GetVoteStatus(ctx, vote.VoteID)
	if err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected first read to populate cache, got %d sets", cache.sets)
	}

	// Mutate storage behind the cache; the cached view must win until invalidated.
	if _, err := store.FinalizeVote(ctx, vote.VoteID, 3, nil, time.Now().UTC()); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	second, err := uc.GetVoteStatus(ctx, vote.VoteID)
	if err != nil {
		t.Fatalf("second read failed: %v", err)
	}
	if second.Status != first.Status {
		t.Fatalf("expected cached status %s, got %s", first.Status, second.Status)
	}

	cache.Delete(ctx, "vote_status_"+vote.VoteID)
	third, err := uc.GetVoteStatus(ctx, vote.VoteID)
	if err != nil {
		t.Fatalf("third read failed: %v", err)
	}
	if third.Status != string(entities.VoteStatusFinalized) {
		t.Fatalf("expected finalized after invalidation, got %s", third.Status)
	}
}

func TestGetVoteStatusUnknownVote(t *testing.T) {
	_, err := StatusUseCase{Votes: memory.NewStore()}.GetVoteStatus(context.Background(), "missing")
	if !errors.Is(err, domainerrors.ErrVoteNotFound) {
		t.Fatalf("expected ErrVoteNotFound, got %v", err)
	}
}
