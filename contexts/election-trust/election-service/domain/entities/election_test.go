package entities

import (
	"testing"
	"time"
)

func sampleElection(status ElectionStatus) Election {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	election := NewElection(
		"election-1", "General Election 2026", "Kerala", "", "",
		ElectionTypeGeneral, 2026,
		now, now.Add(12*time.Hour),
		51, 3, "", now,
	)
	election.Status = status
	return election
}

func TestLifecycleTransitions(t *testing.T) {
	cases := []struct {
		from    ElectionStatus
		to      ElectionStatus
		allowed bool
	}{
		{ElectionStatusUpcoming, ElectionStatusActive, true},
		{ElectionStatusUpcoming, ElectionStatusCompleted, false},
		{ElectionStatusUpcoming, ElectionStatusSuspended, false},
		{ElectionStatusActive, ElectionStatusCompleted, true},
		{ElectionStatusActive, ElectionStatusSuspended, true},
		{ElectionStatusActive, ElectionStatusUpcoming, false},
		{ElectionStatusSuspended, ElectionStatusActive, true},
		{ElectionStatusSuspended, ElectionStatusCompleted, false},
		{ElectionStatusCompleted, ElectionStatusActive, false},
		{ElectionStatusCompleted, ElectionStatusUpcoming, false},
	}
	for _, tc := range cases {
		election := sampleElection(tc.from)
		if got := election.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("transition %s -> %s: expected allowed=%v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestBlockHashChainsToPredecessor(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	first := NewElection(
		"election-1", "First", "Kerala", "", "",
		ElectionTypeGeneral, 2026, now, now.Add(time.Hour), 51, 3, "", now,
	)
	second := NewElection(
		"election-2", "Second", "Kerala", "", "",
		ElectionTypeGeneral, 2026, now, now.Add(time.Hour), 51, 3, first.BlockHash, now,
	)

	if second.PreviousBlockHash != first.BlockHash {
		t.Fatalf("expected second election to chain onto first")
	}
	if first.BlockHash == second.BlockHash {
		t.Fatalf("expected distinct block hashes")
	}
}

func TestBlockHashIgnoresStatusMutations(t *testing.T) {
	election := sampleElection(ElectionStatusUpcoming)
	sealed := election.BlockHash

	election.Status = ElectionStatusActive
	election.ConsensusThreshold = 75
	if election.ComputeBlockHash() != sealed {
		t.Fatalf("block hash must not depend on mutable fields")
	}
}

func TestOnlyAdmissibleThresholds(t *testing.T) {
	for _, valid := range []int{51, 67, 75} {
		if !ValidConsensusThreshold(valid) {
			t.Errorf("expected threshold %d to be admissible", valid)
		}
	}
	for _, invalid := range []int{0, 50, 66, 80, 100} {
		if ValidConsensusThreshold(invalid) {
			t.Errorf("expected threshold %d to be rejected", invalid)
		}
	}
}

func TestCandidateVerificationHashIsStable(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	candidate := NewCandidate("candidate-1", "election-1", "A. Nair", "UDF", "Ernakulam", "book", now)
	sealed := candidate.VerificationHash

	candidate.IsVerified = true
	candidate.Symbol = "lamp"
	if candidate.ComputeVerificationHash() != sealed {
		t.Fatalf("verification hash must ignore later mutations")
	}
}
