package entities

import "strings"

// VoterProjection is the read-side copy of a voter record owned by the
// identity systems. The ledger only needs approval and jurisdiction.
type VoterProjection struct {
	VoterID  string
	State    string
	City     string
	District string
	Approved bool
}

// ElectionProjection mirrors the fields of an election the ledger needs to
// gate casting and consensus.
type ElectionProjection struct {
	ElectionID        string
	Type              string
	Status            string
	State             string
	City              string
	District          string
	ReplicationFactor int
}

// CandidateProjection mirrors candidate membership and verification.
type CandidateProjection struct {
	CandidateID string
	ElectionID  string
	IsVerified  bool
}

// AcceptsVotes reports whether casting is open.
func (e ElectionProjection) AcceptsVotes() bool {
	return e.Status == "active"
}

// ConsensusEligible reports whether consensus rounds may proceed. Completed
// and suspended elections freeze pending votes where they are.
func (e ElectionProjection) ConsensusEligible() bool {
	return e.Status == "active"
}

// EligibleVoter applies the jurisdiction matrix: general elections admit
// every approved voter; narrower election types require matching geography.
func (e ElectionProjection) EligibleVoter(voter VoterProjection) bool {
	if !voter.Approved {
		return false
	}
	sameState := equalFold(voter.State, e.State)
	switch e.Type {
	case "general_election":
		return true
	case "state_assembly", "by_election":
		return sameState
	case "municipal":
		return sameState && equalFold(voter.City, e.City)
	case "panchayat":
		return sameState && equalFold(voter.District, e.District)
	default:
		return false
	}
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
