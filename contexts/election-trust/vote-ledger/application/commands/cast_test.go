package commands

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"electra/contexts/election-trust/vote-ledger/adapters/memory"
	"electra/contexts/election-trust/vote-ledger/domain/entities"
	domainerrors "electra/contexts/election-trust/vote-ledger/domain/errors"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type fakeAudit struct {
	mu      sync.Mutex
	entries []string
}

func (a *fakeAudit) AppendAuditEntry(
	_ context.Context,
	logType string,
	_ string,
	_ string,
	_ map[string]any,
) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, logType)
	return nil
}

func (a *fakeAudit) count(logType string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := 0
	for _, entry := range a.entries {
		if entry == logType {
			total++
		}
	}
	return total
}

func seedActiveElection(store *memory.Store) {
	store.SeedElection(entities.ElectionProjection{
		ElectionID:        "election-1",
		Type:              "state_assembly",
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
		City:     "Kochi",
		District: "Ernakulam",
		Approved: true,
	})
}

func newCastUseCase(store *memory.Store, audit *fakeAudit) CastVoteUseCase {
	return CastVoteUseCase{
		Votes:      store,
		Voters:     store,
		Elections:  store,
		Candidates: store,
		Outbox:     store,
		Audit:      audit,
		Clock:      fixedClock{now: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)},
		IDGen:      store,
	}
}

func TestCastVoteHappyPath(t *testing.T) {
	store := memory.NewStore()
	seedActiveElection(store)
	audit := &fakeAudit{}
	uc := newCastUseCase(store, audit)

	vote, err := uc.CastVote(context.Background(), CastVoteCommand{
		VoterID:     "voter-1",
		CandidateID: "candidate-1",
		ElectionID:  "election-1",
	})
	if err != nil {
		t.Fatalf("cast vote failed: %v", err)
	}
	if vote.Status != entities.VoteStatusPending {
		t.Fatalf("expected pending status, got %s", vote.Status)
	}
	if len(vote.Nonce) != 32 {
		t.Fatalf("expected 32-char nonce, got %d chars", len(vote.Nonce))
	}
	if vote.RequiredConfirmations != 3 {
		t.Fatalf("expected replication factor 3, got %d", vote.RequiredConfirmations)
	}
	expected := entities.ComputeVoteHash(vote.VoterID, vote.CandidateID, vote.ElectionID, vote.CastAt, vote.Nonce)
	if vote.VoteHash != expected {
		t.Fatalf("vote hash mismatch")
	}
	if audit.count("vote_cast") != 1 {
		t.Fatalf("expected one vote_cast audit entry")
	}

	outbox, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(outbox) != 1 || outbox[0].EventType != "vote.cast" {
		t.Fatalf("expected one vote.cast outbox row, got %d", len(outbox))
	}
}

func TestCastVotePreconditions(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(store *memory.Store)
		command  CastVoteCommand
		expected error
	}{
		{
			name:     "inactive election",
			mutate:   func(s *memory.Store) { s.SeedElection(entities.ElectionProjection{ElectionID: "election-1", Type: "state_assembly", Status: "upcoming", State: "Kerala"}) },
			command:  CastVoteCommand{VoterID: "voter-1", CandidateID: "candidate-1", ElectionID: "election-1"},
			expected: domainerrors.ErrElectionNotActive,
		},
		{
			name:     "unapproved voter",
			mutate:   func(s *memory.Store) { s.SeedVoter(entities.VoterProjection{VoterID: "voter-1", State: "Kerala", Approved: false}) },
			command:  CastVoteCommand{VoterID: "voter-1", CandidateID: "candidate-1", ElectionID: "election-1"},
			expected: domainerrors.ErrVoterNotApproved,
		},
		{
			name:     "wrong jurisdiction",
			mutate:   func(s *memory.Store) { s.SeedVoter(entities.VoterProjection{VoterID: "voter-1", State: "Punjab", Approved: true}) },
			command:  CastVoteCommand{VoterID: "voter-1", CandidateID: "candidate-1", ElectionID: "election-1"},
			expected: domainerrors.ErrVoterNotEligible,
		},
		{
			name:     "candidate from another election",
			mutate:   func(s *memory.Store) { s.SeedCandidate(entities.CandidateProjection{CandidateID: "candidate-1", ElectionID: "election-2"}) },
			command:  CastVoteCommand{VoterID: "voter-1", CandidateID: "candidate-1", ElectionID: "election-1"},
			expected: domainerrors.ErrCandidateMismatch,
		},
		{
			name:     "unknown voter",
			mutate:   func(s *memory.Store) {},
			command:  CastVoteCommand{VoterID: "voter-x", CandidateID: "candidate-1", ElectionID: "election-1"},
			expected: domainerrors.ErrVoterNotFound,
		},
		{
			name:     "blank input",
			mutate:   func(s *memory.Store) {},
			command:  CastVoteCommand{VoterID: " ", CandidateID: "candidate-1", ElectionID: "election-1"},
			expected: domainerrors.ErrInvalidVoteInput,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.NewStore()
			seedActiveElection(store)
			tc.mutate(store)
			uc := newCastUseCase(store, &fakeAudit{})

			_, err := uc.CastVote(context.Background(), tc.command)
			if !errors.Is(err, tc.expected) {
				t.Fatalf("expected %v, got %v", tc.expected, err)
			}
		})
	}
}

func TestCastVoteRejectsSecondBallot(t *testing.T) {
	store := memory.NewStore()
	seedActiveElection(store)
	uc := newCastUseCase(store, &fakeAudit{})

	ctx := context.Background()
	if _, err := uc.CastVote(ctx, CastVoteCommand{VoterID: "voter-1", CandidateID: "candidate-1", ElectionID: "election-1"}); err != nil {
		t.Fatalf("first cast failed: %v", err)
	}
	_, err := uc.CastVote(ctx, CastVoteCommand{VoterID: "voter-1", CandidateID: "candidate-1", ElectionID: "election-1"})
	if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}
}

func TestConcurrentCastsAdmitExactlyOne(t *testing.T) {
	store := memory.NewStore()
	seedActiveElection(store)
	audit := &fakeAudit{}
	uc := newCastUseCase(store, audit)

	const attempts = 50
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, err := uc.CastVote(context.Background(), CastVoteCommand{
				VoterID:     "voter-1",
				CandidateID: "candidate-1",
				ElectionID:  "election-1",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	duplicates := 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domainerrors.ErrAlreadyVoted):
			duplicates++
		default:
			t.Fatalf("unexpected error under contention: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one winning cast, got %d", succeeded)
	}
	if duplicates != attempts-1 {
		t.Fatalf("expected %d duplicate rejections, got %d", attempts-1, duplicates)
	}
	if audit.count("vote_cast") != 1 {
		t.Fatalf("expected exactly one vote_cast audit entry, got %d", audit.count("vote_cast"))
	}
}

func TestConcurrentCastsAcrossElectionsAllSucceed(t *testing.T) {
	store := memory.NewStore()
	audit := &fakeAudit{}
	uc := newCastUseCase(store, audit)

	const elections = 10
	for i := 0; i < elections; i++ {
		electionID := fmt.Sprintf("election-%d", i)
		store.SeedElection(entities.ElectionProjection{
			ElectionID: electionID,
			Type:       "general_election",
			Status:     "active",
			State:      "Kerala",
		})
		store.SeedCandidate(entities.CandidateProjection{
			CandidateID: fmt.Sprintf("candidate-%d", i),
			ElectionID:  electionID,
		})
	}
	store.SeedVoter(entities.VoterProjection{VoterID: "voter-1", State: "Kerala", Approved: true})

	var wg sync.WaitGroup
	wg.Add(elections)
	for i := 0; i < elections; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := uc.CastVote(context.Background(), CastVoteCommand{
				VoterID:     "voter-1",
				CandidateID: fmt.Sprintf("candidate-%d", i),
				ElectionID:  fmt.Sprintf("election-%d", i),
			})
			if err != nil {
				t.Errorf("cast in election %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if audit.count("vote_cast") != elections {
		t.Fatalf("expected %d vote_cast entries, got %d", elections, audit.count("vote_cast"))
	}
}
