package entities

import (
	"testing"
	"time"
)

func TestVoteHashIsDeterministicAndSealed(t *testing.T) {
	castAt := time.Date(2026, 4, 1, 9, 30, 0, 123456789, time.UTC)
	vote := NewVote("vote-1", "voter-1", "candidate-1", "election-1", "0123456789abcdef0123456789abcdef", 3, castAt)

	recomputed := ComputeVoteHash("voter-1", "candidate-1", "election-1", castAt, vote.Nonce)
	if vote.VoteHash != recomputed {
		t.Fatalf("expected deterministic hash, got %s vs %s", vote.VoteHash, recomputed)
	}

	// Status changes never feed back into the hash inputs.
	vote.Status = VoteStatusFinalized
	vote.ConfirmationCount = 3
	if ComputeVoteHash(vote.VoterID, vote.CandidateID, vote.ElectionID, vote.CastAt, vote.Nonce) != recomputed {
		t.Fatalf("hash inputs must be immutable after casting")
	}
}

func TestVoteHashVariesWithNonce(t *testing.T) {
	castAt := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	first := ComputeVoteHash("voter-1", "candidate-1", "election-1", castAt, "nonce-a")
	second := ComputeVoteHash("voter-1", "candidate-1", "election-1", castAt, "nonce-b")
	if first == second {
		t.Fatalf("expected different nonces to produce different hashes")
	}
}

func TestAwaitingConsensus(t *testing.T) {
	cases := map[VoteStatus]bool{
		VoteStatusPending:          true,
		VoteStatusVerified:         true,
		VoteStatusConsensusPending: true,
		VoteStatusFinalized:        false,
		VoteStatusRejected:         false,
	}
	for status, expected := range cases {
		vote := Vote{Status: status}
		if vote.AwaitingConsensus() != expected {
			t.Errorf("status %s: expected awaiting=%v", status, expected)
		}
	}
}

func TestJurisdictionEligibilityMatrix(t *testing.T) {
	voter := VoterProjection{
		VoterID:  "voter-1",
		State:    "Kerala",
		City:     "Kochi",
		District: "Ernakulam",
		Approved: true,
	}
	cases := []struct {
		name     string
		election ElectionProjection
		eligible bool
	}{
		{"general admits everyone", ElectionProjection{Type: "general_election", State: "Punjab"}, true},
		{"state assembly same state", ElectionProjection{Type: "state_assembly", State: "Kerala"}, true},
		{"state assembly other state", ElectionProjection{Type: "state_assembly", State: "Punjab"}, false},
		{"municipal same state and city", ElectionProjection{Type: "municipal", State: "Kerala", City: "Kochi"}, true},
		{"municipal other city", ElectionProjection{Type: "municipal", State: "Kerala", City: "Kozhikode"}, false},
		{"panchayat same district", ElectionProjection{Type: "panchayat", State: "Kerala", District: "Ernakulam"}, true},
		{"panchayat other district", ElectionProjection{Type: "panchayat", State: "Kerala", District: "Idukki"}, false},
		{"by-election same state", ElectionProjection{Type: "by_election", State: "Kerala"}, true},
		{"by-election other state", ElectionProjection{Type: "by_election", State: "Punjab"}, false},
		{"unknown type rejected", ElectionProjection{Type: "referendum", State: "Kerala"}, false},
	}
	for _, tc := range cases {
		if got := tc.election.EligibleVoter(voter); got != tc.eligible {
			t.Errorf("%s: expected eligible=%v, got %v", tc.name, tc.eligible, got)
		}
	}
}

func TestUnapprovedVoterNeverEligible(t *testing.T) {
	voter := VoterProjection{VoterID: "voter-1", State: "Kerala", Approved: false}
	election := ElectionProjection{Type: "general_election", State: "Kerala"}
	if election.EligibleVoter(voter) {
		t.Fatalf("unapproved voters must never be eligible")
	}
}

func TestConsensusSignatureFormat(t *testing.T) {
	signature := ConsensusSignature("abc123", "node-7")
	if signature != "sig_abc123_node-7" {
		t.Fatalf("unexpected signature %q", signature)
	}
}
