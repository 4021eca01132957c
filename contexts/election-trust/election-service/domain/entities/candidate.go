package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Candidate belongs to exactly one election. VerificationHash is computed once
// from identity fields and stays fixed under later mutations; IsVerified gates
// tally eligibility on the read side.
type Candidate struct {
	CandidateID      string
	ElectionID       string
	Name             string
	Party            string
	Constituency     string
	Symbol           string
	VerificationHash string
	IsVerified       bool
	CreatedAt        time.Time
}

func NewCandidate(
	candidateID string,
	electionID string,
	name string,
	party string,
	constituency string,
	symbol string,
	createdAt time.Time,
) Candidate {
	candidate := Candidate{
		CandidateID:  candidateID,
		ElectionID:   electionID,
		Name:         name,
		Party:        party,
		Constituency: constituency,
		Symbol:       symbol,
		CreatedAt:    createdAt.UTC(),
	}
	candidate.VerificationHash = candidate.ComputeVerificationHash()
	return candidate
}

func (c Candidate) ComputeVerificationHash() string {
	data := c.Name + c.Party + c.Constituency + c.ElectionID
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}
