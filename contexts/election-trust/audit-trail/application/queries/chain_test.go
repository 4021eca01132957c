package queries

import (
	"context"
	"fmt"
	"testing"
	"time"

	"electra/contexts/election-trust/audit-trail/adapters/memory"
	"electra/contexts/election-trust/audit-trail/application/commands"
	"electra/contexts/election-trust/audit-trail/domain/entities"
	"electra/contexts/election-trust/audit-trail/ports"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func seedChain(t *testing.T, store *memory.Store, length int) {
	t.Helper()
	appender := &commands.Appender{
		Entries: store,
		Clock:   fixedClock{now: time.Date(2026, 4, 12, 10, 0, 0, 0, time.UTC)},
		IDGen:   store,
	}
	for i := 0; i < length; i++ {
		_, err := appender.Append(context.Background(), commands.AppendEntryInput{
			LogType:    entities.LogTypeVoteCast,
			ActorID:    fmt.Sprintf("voter-%d", i),
			ElectionID: "election-1",
			Details:    map[string]any{"vote_id": fmt.Sprintf("vote-%d", i)},
		})
		if err != nil {
			t.Fatalf("seed append %d failed: %v", i, err)
		}
	}
}

func TestVerifyChainAcceptsIntactChain(t *testing.T) {
	store := memory.NewStore()
	seedChain(t, store, 100)

	report, err := ChainUseCase{Entries: store}.VerifyChain(context.Background())
	if err != nil {
		t.Fatalf("verify chain failed: %v", err)
	}
	if !report.Valid {
		t.Fatalf("expected valid chain, got broken seq %d (%s)", report.BrokenSeq, report.Reason)
	}
	if report.EntryCount != 100 {
		t.Fatalf("expected 100 entries, got %d", report.EntryCount)
	}
}

func TestVerifyChainDetectsTamperedDetails(t *testing.T) {
	store := memory.NewStore()
	seedChain(t, store, 100)

	store.Corrupt(50, func(entry entities.Entry) entities.Entry {
		entry.Details = map[string]any{"vote_id": "vote-666"}
		return entry
	})

	report, err := ChainUseCase{Entries: store}.VerifyChain(context.Background())
	if err != nil {
		t.Fatalf("verify chain failed: %v", err)
	}
	if report.Valid {
		t.Fatalf("expected tampering to be detected")
	}
	if report.BrokenSeq != 50 {
		t.Fatalf("expected broken seq 50, got %d", report.BrokenSeq)
	}
}

func TestVerifyChainDetectsRewrittenLink(t *testing.T) {
	store := memory.NewStore()
	seedChain(t, store, 10)

	// Recompute the hash after mutating so only the linkage check can catch it.
	store.Corrupt(5, func(entry entities.Entry) entities.Entry {
		entry.PreviousHash = "forged"
		entry.HashChain = entry.ComputeHash()
		return entry
	})

	report, err := ChainUseCase{Entries: store}.VerifyChain(context.Background())
	if err != nil {
		t.Fatalf("verify chain failed: %v", err)
	}
	if report.Valid || report.BrokenSeq != 5 {
		t.Fatalf("expected linkage break at seq 5, got valid=%v seq=%d", report.Valid, report.BrokenSeq)
	}
}

func TestVerifyChainEmptyChainIsValid(t *testing.T) {
	report, err := ChainUseCase{Entries: memory.NewStore()}.VerifyChain(context.Background())
	if err != nil {
		t.Fatalf("verify chain failed: %v", err)
	}
	if !report.Valid || report.EntryCount != 0 {
		t.Fatalf("expected empty chain to verify, got %+v", report)
	}
}

func TestListEntriesFiltersByTypeAndElection(t *testing.T) {
	store := memory.NewStore()
	appender := &commands.Appender{
		Entries: store,
		Clock:   fixedClock{now: time.Date(2026, 4, 12, 10, 0, 0, 0, time.UTC)},
		IDGen:   store,
	}
	inputs := []commands.AppendEntryInput{
		{LogType: entities.LogTypeVoteCast, ActorID: "voter-1", ElectionID: "election-1"},
		{LogType: entities.LogTypeVoteCast, ActorID: "voter-2", ElectionID: "election-2"},
		{LogType: entities.LogTypeAdminAction, ActorID: "admin-1", ElectionID: "election-1"},
	}
	for _, input := range inputs {
		if _, err := appender.Append(context.Background(), input); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	uc := ChainUseCase{Entries: store}
	entries, err := uc.ListEntries(context.Background(), ports.EntryFilter{
		LogType:    "vote_cast",
		ElectionID: "election-1",
	})
	if err != nil {
		t.Fatalf("list entries failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ActorID != "voter-1" {
		t.Fatalf("expected single vote_cast entry for election-1, got %d", len(entries))
	}
}
