package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"electra/contexts/election-trust/election-service/domain/entities"
	domainerrors "electra/contexts/election-trust/election-service/domain/errors"
)

func TestCreateElectionRejectsForkedChain(t *testing.T) {
	store := NewStore()
	createdAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	starts := time.Date(2026, 4, 1, 7, 0, 0, 0, time.UTC)
	ends := time.Date(2026, 4, 1, 19, 0, 0, 0, time.UTC)
	ctx := context.Background()

	genesis := entities.NewElection("election-1", "General Election 2026", "Kerala", "", "",
		entities.ElectionTypeGeneral, 2026, starts, ends, 51, 3, "", createdAt)
	if err := store.CreateElection(ctx, genesis); err != nil {
		t.Fatalf("create genesis failed: %v", err)
	}

	// A second election chaining onto the same predecessor forks the chain.
	fork := entities.NewElection("election-2", "Municipal Election 2026", "Kerala", "Kochi", "",
		entities.ElectionTypeMunicipal, 2026, starts, ends, 51, 3, "", createdAt)
	if err := store.CreateElection(ctx, fork); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected ErrConflict for forked chain, got %v", err)
	}

	successor := entities.NewElection("election-2", "Municipal Election 2026", "Kerala", "Kochi", "",
		entities.ElectionTypeMunicipal, 2026, starts, ends, 51, 3, genesis.BlockHash, createdAt)
	if err := store.CreateElection(ctx, successor); err != nil {
		t.Fatalf("create successor failed: %v", err)
	}
}
