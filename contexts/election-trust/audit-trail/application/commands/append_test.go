package commands

import (
	"context"
	"sync"
	"testing"
	"time"

	"electra/contexts/election-trust/audit-trail/adapters/memory"
	"electra/contexts/election-trust/audit-trail/domain/entities"
	domainerrors "electra/contexts/election-trust/audit-trail/domain/errors"
	"electra/contexts/election-trust/audit-trail/ports"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

// conflictingRepo injects unique-seq conflicts before delegating, simulating
// a second process winning the tail race.
type conflictingRepo struct {
	*memory.Store
	conflicts int
}

func (r *conflictingRepo) CreateEntry(ctx context.Context, entry entities.Entry) error {
	if r.conflicts > 0 {
		r.conflicts--
		return domainerrors.ErrChainConflict
	}
	return r.Store.CreateEntry(ctx, entry)
}

func newAppender(store ports.EntryRepository, now time.Time) *Appender {
	return &Appender{
		Entries: store,
		Clock:   fixedClock{now: now},
		IDGen:   memory.NewStore(),
	}
}

func TestAppendBuildsLinkedChain(t *testing.T) {
	now := time.Date(2026, 4, 12, 9, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	appender := newAppender(store, now)

	first, err := appender.Append(context.Background(), AppendEntryInput{
		LogType:    entities.LogTypeElectionCreated,
		ActorID:    "admin-1",
		ElectionID: "election-1",
		Details:    map[string]any{"name": "General Election 2026"},
	})
	if err != nil {
		t.Fatalf("append genesis entry failed: %v", err)
	}
	if first.Seq != 1 {
		t.Fatalf("expected genesis seq 1, got %d", first.Seq)
	}
	if first.PreviousHash != "" {
		t.Fatalf("expected empty previous hash on genesis, got %q", first.PreviousHash)
	}

	second, err := appender.Append(context.Background(), AppendEntryInput{
		LogType:    entities.LogTypeVoteCast,
		ActorID:    "voter-1",
		ElectionID: "election-1",
		Details:    map[string]any{"vote_id": "vote-1"},
	})
	if err != nil {
		t.Fatalf("append second entry failed: %v", err)
	}
	if second.Seq != 2 {
		t.Fatalf("expected seq 2, got %d", second.Seq)
	}
	if !second.LinksTo(first) {
		t.Fatalf("expected second entry to link to genesis")
	}
	if second.HashChain != second.ComputeHash() {
		t.Fatalf("stored hash does not match recomputation")
	}
}

func TestAppendRejectsUnknownLogType(t *testing.T) {
	appender := newAppender(memory.NewStore(), time.Now().UTC())

	_, err := appender.Append(context.Background(), AppendEntryInput{
		LogType: entities.LogType("made_up"),
		ActorID: "admin-1",
	})
	if err != domainerrors.ErrInvalidEntryInput {
		t.Fatalf("expected ErrInvalidEntryInput, got %v", err)
	}
}

func TestAppendRetriesAfterSeqConflict(t *testing.T) {
	now := time.Date(2026, 4, 12, 9, 0, 0, 0, time.UTC)
	repo := &conflictingRepo{Store: memory.NewStore(), conflicts: 2}
	appender := newAppender(repo, now)

	entry, err := appender.Append(context.Background(), AppendEntryInput{
		LogType: entities.LogTypeAdminAction,
		ActorID: "admin-1",
		Details: map[string]any{"action": "test"},
	})
	if err != nil {
		t.Fatalf("append with transient conflicts failed: %v", err)
	}
	if entry.Seq != 1 {
		t.Fatalf("expected seq 1 after retries, got %d", entry.Seq)
	}
}

func TestAppendGivesUpAfterMaxAttempts(t *testing.T) {
	repo := &conflictingRepo{Store: memory.NewStore(), conflicts: 100}
	appender := newAppender(repo, time.Now().UTC())
	appender.MaxAttempts = 3

	_, err := appender.Append(context.Background(), AppendEntryInput{
		LogType: entities.LogTypeAdminAction,
		ActorID: "admin-1",
	})
	if err != domainerrors.ErrAppendExhausted {
		t.Fatalf("expected ErrAppendExhausted, got %v", err)
	}
}

func TestConcurrentAppendsProduceDenseChain(t *testing.T) {
	now := time.Date(2026, 4, 12, 9, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	appender := newAppender(store, now)

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, err := appender.Append(context.Background(), AppendEntryInput{
				LogType: entities.LogTypeVoteCast,
				ActorID: "voter",
				Details: map[string]any{"n": 1},
			})
			if err != nil {
				t.Errorf("concurrent append failed: %v", err)
			}
		}()
	}
	wg.Wait()

	entries, err := store.ListEntries(context.Background(), ports.EntryFilter{})
	if err != nil {
		t.Fatalf("list entries failed: %v", err)
	}
	if len(entries) != writers {
		t.Fatalf("expected %d entries, got %d", writers, len(entries))
	}
	for i, entry := range entries {
		if entry.Seq != int64(i+1) {
			t.Fatalf("expected dense seq %d, got %d", i+1, entry.Seq)
		}
		if i > 0 && !entry.LinksTo(entries[i-1]) {
			t.Fatalf("chain broken at seq %d", entry.Seq)
		}
	}
}
