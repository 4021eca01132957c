package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

type VoteStatus string

const (
	VoteStatusPending          VoteStatus = "pending"
	VoteStatusVerified         VoteStatus = "verified"
	VoteStatusRejected         VoteStatus = "rejected"
	VoteStatusConsensusPending VoteStatus = "consensus_pending"
	VoteStatusFinalized        VoteStatus = "finalized"
)

// Vote is one ballot in one election. VoteHash and Nonce are sealed at cast
// time and never recomputed; later status updates must not touch them.
type Vote struct {
	VoteID                string
	VoterID               string
	CandidateID           string
	ElectionID            string
	VoteHash              string
	Nonce                 string
	Status                VoteStatus
	ConfirmationCount     int
	RequiredConfirmations int
	CastAt                time.Time
	UpdatedAt             time.Time
}

// NewVote seals the hash over the cast-time fields plus the one-shot nonce.
// The nonce is the caller's responsibility (32 hex chars from a fresh UUID).
func NewVote(
	voteID string,
	voterID string,
	candidateID string,
	electionID string,
	nonce string,
	requiredConfirmations int,
	castAt time.Time,
) Vote {
	castAt = castAt.UTC()
	return Vote{
		VoteID:                strings.TrimSpace(voteID),
		VoterID:               strings.TrimSpace(voterID),
		CandidateID:           strings.TrimSpace(candidateID),
		ElectionID:            strings.TrimSpace(electionID),
		VoteHash:              ComputeVoteHash(voterID, candidateID, electionID, castAt, nonce),
		Nonce:                 nonce,
		Status:                VoteStatusPending,
		RequiredConfirmations: requiredConfirmations,
		CastAt:                castAt,
		UpdatedAt:             castAt,
	}
}

// ComputeVoteHash derives the ballot fingerprint. The timestamp is rendered
// RFC3339Nano so the same instant always hashes identically.
func ComputeVoteHash(voterID, candidateID, electionID string, castAt time.Time, nonce string) string {
	payload := strings.TrimSpace(voterID) +
		strings.TrimSpace(candidateID) +
		strings.TrimSpace(electionID) +
		castAt.UTC().Format(time.RFC3339Nano) +
		nonce
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// AwaitingConsensus reports whether a consensus round may still act on the
// vote.
func (v Vote) AwaitingConsensus() bool {
	return v.Status == VoteStatusPending || v.Status == VoteStatusVerified ||
		v.Status == VoteStatusConsensusPending
}
