package commands

import (
	"context"
	"sync"
	"testing"
	"time"

	"electra/contexts/election-trust/election-service/adapters/memory"
	"electra/contexts/election-trust/election-service/domain/entities"
	domainerrors "electra/contexts/election-trust/election-service/domain/errors"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type recordedAudit struct {
	LogType    string
	ActorID    string
	ElectionID string
	Details    map[string]any
}

type fakeAudit struct {
	entries []recordedAudit
}

func (a *fakeAudit) AppendAuditEntry(
	_ context.Context,
	logType string,
	actorID string,
	electionID string,
	details map[string]any,
) error {
	a.entries = append(a.entries, recordedAudit{
		LogType:    logType,
		ActorID:    actorID,
		ElectionID: electionID,
		Details:    details,
	})
	return nil
}

func newElectionUseCase(store *memory.Store, audit *fakeAudit, now time.Time) ElectionUseCase {
	return ElectionUseCase{
		Elections: store,
		Outbox:    store,
		Audit:     audit,
		Clock:     fixedClock{now: now},
		IDGen:     store,
	}
}

func createElection(t *testing.T, uc ElectionUseCase) entities.Election {
	t.Helper()
	election, err := uc.CreateElection(context.Background(), CreateElectionCommand{
		Name:     "General Election 2026",
		State:    "Kerala",
		Type:     entities.ElectionTypeGeneral,
		Year:     2026,
		StartsAt: time.Date(2026, 4, 1, 7, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2026, 4, 1, 19, 0, 0, 0, time.UTC),
		ActorID:  "admin-1",
	})
	if err != nil {
		t.Fatalf("create election failed: %v", err)
	}
	return election
}

func TestCreateElectionDefaultsAndChains(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	audit := &fakeAudit{}
	uc := newElectionUseCase(store, audit, now)

	first := createElection(t, uc)
	if first.Status != entities.ElectionStatusUpcoming {
		t.Fatalf("expected upcoming status, got %s", first.Status)
	}
	if first.ConsensusThreshold != 51 || first.ReplicationFactor != 3 {
		t.Fatalf("expected defaults 51/3, got %d/%d", first.ConsensusThreshold, first.ReplicationFactor)
	}
	if first.PreviousBlockHash != "" {
		t.Fatalf("expected genesis election to have empty previous block hash")
	}

	second := createElection(t, uc)
	if second.PreviousBlockHash != first.BlockHash {
		t.Fatalf("expected second election to chain onto first block hash")
	}

	if len(audit.entries) != 2 || audit.entries[0].LogType != "election_created" {
		t.Fatalf("expected election_created audit entries, got %+v", audit.entries)
	}
}

func TestConcurrentCreatesKeepBlockChainLinear(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	uc := ElectionUseCase{
		Elections: store,
		Clock:     fixedClock{now: now},
		IDGen:     store,
	}

	results := make([]entities.Election, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = uc.CreateElection(context.Background(), CreateElectionCommand{
				Name:     "Race Election",
				State:    "Kerala",
				Type:     entities.ElectionTypeGeneral,
				Year:     2026,
				StartsAt: time.Date(2026, 4, 1, 7, 0, 0, 0, time.UTC),
				EndsAt:   time.Date(2026, 4, 1, 19, 0, 0, 0, time.UTC),
			})
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
	}

	// Exactly one genesis; the other chains onto it. Two elections sharing
	// a predecessor would fork the chain.
	first, second := results[0], results[1]
	if second.PreviousBlockHash == "" {
		first, second = second, first
	}
	if first.PreviousBlockHash != "" {
		t.Fatalf("expected exactly one genesis election, got previous hashes %q and %q",
			results[0].PreviousBlockHash, results[1].PreviousBlockHash)
	}
	if second.PreviousBlockHash != first.BlockHash {
		t.Fatalf("expected second election to chain onto the winner, got %q", second.PreviousBlockHash)
	}
}

func TestCreateElectionRejectsBadThreshold(t *testing.T) {
	uc := newElectionUseCase(memory.NewStore(), &fakeAudit{}, time.Now().UTC())
	_, err := uc.CreateElection(context.Background(), CreateElectionCommand{
		Name:               "Bad",
		Type:               entities.ElectionTypeGeneral,
		StartsAt:           time.Now(),
		EndsAt:             time.Now().Add(time.Hour),
		ConsensusThreshold: 60,
	})
	if err != domainerrors.ErrInvalidElectionInput {
		t.Fatalf("expected ErrInvalidElectionInput, got %v", err)
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	audit := &fakeAudit{}
	uc := newElectionUseCase(store, audit, now)
	election := createElection(t, uc)

	if err := uc.StartElection(context.Background(), TransitionCommand{ElectionID: election.ElectionID, ActorID: "admin-1"}); err != nil {
		t.Fatalf("start election failed: %v", err)
	}
	if err := uc.EndElection(context.Background(), TransitionCommand{ElectionID: election.ElectionID, ActorID: "admin-1"}); err != nil {
		t.Fatalf("end election failed: %v", err)
	}

	stored, err := store.GetElection(context.Background(), election.ElectionID)
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if stored.Status != entities.ElectionStatusCompleted {
		t.Fatalf("expected completed, got %s", stored.Status)
	}
	if stored.BlockHash != election.BlockHash {
		t.Fatalf("block hash changed across transitions")
	}
}

func TestSuspendAndResume(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	uc := newElectionUseCase(store, &fakeAudit{}, now)
	election := createElection(t, uc)

	ctx := context.Background()
	if err := uc.StartElection(ctx, TransitionCommand{ElectionID: election.ElectionID}); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := uc.SuspendElection(ctx, TransitionCommand{ElectionID: election.ElectionID, Reason: "ballot irregularity"}); err != nil {
		t.Fatalf("suspend failed: %v", err)
	}

	// Suspended elections cannot complete directly.
	if err := uc.EndElection(ctx, TransitionCommand{ElectionID: election.ElectionID}); err != domainerrors.ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition ending a suspended election, got %v", err)
	}

	if err := uc.ResumeElection(ctx, TransitionCommand{ElectionID: election.ElectionID}); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	stored, _ := store.GetElection(ctx, election.ElectionID)
	if stored.Status != entities.ElectionStatusActive {
		t.Fatalf("expected active after resume, got %s", stored.Status)
	}
}

func TestStartRejectsSkippedStates(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	uc := newElectionUseCase(store, &fakeAudit{}, now)
	election := createElection(t, uc)

	ctx := context.Background()
	if err := uc.EndElection(ctx, TransitionCommand{ElectionID: election.ElectionID}); err != domainerrors.ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition for upcoming->completed, got %v", err)
	}
	if err := uc.ResumeElection(ctx, TransitionCommand{ElectionID: election.ElectionID}); err != domainerrors.ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition for upcoming->resume, got %v", err)
	}
}

func TestRegisterCandidateSealsVerificationHash(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	audit := &fakeAudit{}
	elections := newElectionUseCase(store, audit, now)
	election := createElection(t, elections)

	candidates := CandidateUseCase{
		Elections:  store,
		Candidates: store,
		Audit:      audit,
		Clock:      fixedClock{now: now},
		IDGen:      store,
	}
	candidate, err := candidates.RegisterCandidate(context.Background(), RegisterCandidateCommand{
		ElectionID:   election.ElectionID,
		Name:         "A. Nair",
		Party:        "UDF",
		Constituency: "Ernakulam",
		ActorID:      "admin-1",
	})
	if err != nil {
		t.Fatalf("register candidate failed: %v", err)
	}
	if candidate.VerificationHash == "" || candidate.IsVerified {
		t.Fatalf("expected sealed hash and unverified candidate")
	}

	if err := candidates.VerifyCandidate(context.Background(), candidate.CandidateID, "admin-1"); err != nil {
		t.Fatalf("verify candidate failed: %v", err)
	}
	stored, err := store.GetCandidate(context.Background(), candidate.CandidateID)
	if err != nil {
		t.Fatalf("get candidate failed: %v", err)
	}
	if !stored.IsVerified {
		t.Fatalf("expected candidate verified")
	}
	if stored.VerificationHash != candidate.VerificationHash {
		t.Fatalf("verification hash changed on verify")
	}

	// Verifying twice is a no-op.
	before := len(audit.entries)
	if err := candidates.VerifyCandidate(context.Background(), candidate.CandidateID, "admin-1"); err != nil {
		t.Fatalf("repeat verify failed: %v", err)
	}
	if len(audit.entries) != before {
		t.Fatalf("expected idempotent verify to skip audit append")
	}
}
