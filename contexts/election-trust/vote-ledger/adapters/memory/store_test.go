package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"electra/contexts/election-trust/vote-ledger/domain/entities"
	domainerrors "electra/contexts/election-trust/vote-ledger/domain/errors"
)

func TestCreateVoteRejectsDuplicateVoteHash(t *testing.T) {
	store := NewStore()
	castAt := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	first := entities.NewVote("vote-1", "voter-1", "candidate-1", "election-1",
		"0123456789abcdef0123456789abcdef", 3, castAt)
	if err := store.CreateVote(ctx, first); err != nil {
		t.Fatalf("create first vote failed: %v", err)
	}

	// A different voter carrying an already-stored hash is a conflict, not a
	// double cast.
	second := entities.NewVote("vote-2", "voter-2", "candidate-1", "election-1",
		"fedcba9876543210fedcba9876543210", 3, castAt)
	second.VoteHash = first.VoteHash
	if err := store.CreateVote(ctx, second); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate vote hash, got %v", err)
	}
	if _, err := store.GetVote(ctx, "vote-2"); !errors.Is(err, domainerrors.ErrVoteNotFound) {
		t.Fatalf("expected rejected vote to be absent, got %v", err)
	}

	// With its own hash the second voter's ballot is admitted.
	second.VoteHash = entities.ComputeVoteHash("voter-2", "candidate-1", "election-1", castAt,
		"fedcba9876543210fedcba9876543210")
	if err := store.CreateVote(ctx, second); err != nil {
		t.Fatalf("create second vote failed: %v", err)
	}
}
