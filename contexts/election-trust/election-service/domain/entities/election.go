package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

type ElectionType string

const (
	ElectionTypeGeneral       ElectionType = "general_election"
	ElectionTypeStateAssembly ElectionType = "state_assembly"
	ElectionTypeMunicipal     ElectionType = "municipal"
	ElectionTypePanchayat     ElectionType = "panchayat"
	ElectionTypeByElection    ElectionType = "by_election"
)

func (t ElectionType) Valid() bool {
	switch t {
	case ElectionTypeGeneral, ElectionTypeStateAssembly, ElectionTypeMunicipal,
		ElectionTypePanchayat, ElectionTypeByElection:
		return true
	default:
		return false
	}
}

type ElectionStatus string

const (
	ElectionStatusUpcoming  ElectionStatus = "upcoming"
	ElectionStatusActive    ElectionStatus = "active"
	ElectionStatusCompleted ElectionStatus = "completed"
	ElectionStatusSuspended ElectionStatus = "suspended"
)

// ConsensusThresholds are the admissible quorum percentages: simple majority,
// super majority, high consensus.
var ConsensusThresholds = []int{51, 67, 75}

func ValidConsensusThreshold(value int) bool {
	for _, threshold := range ConsensusThresholds {
		if value == threshold {
			return true
		}
	}
	return false
}

// Election is the lifecycle aggregate. BlockHash is derived once at creation
// from the immutable identity fields plus the previously created election's
// block hash and is never recomputed afterwards.
type Election struct {
	ElectionID         string
	Name               string
	State              string
	City               string
	District           string
	Type               ElectionType
	Year               int
	StartsAt           time.Time
	EndsAt             time.Time
	Status             ElectionStatus
	ConsensusThreshold int
	ReplicationFactor  int
	BlockHash          string
	PreviousBlockHash  string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func NewElection(
	electionID string,
	name string,
	state string,
	city string,
	district string,
	electionType ElectionType,
	year int,
	startsAt time.Time,
	endsAt time.Time,
	consensusThreshold int,
	replicationFactor int,
	previousBlockHash string,
	createdAt time.Time,
) Election {
	election := Election{
		ElectionID:         electionID,
		Name:               name,
		State:              state,
		City:               city,
		District:           district,
		Type:               electionType,
		Year:               year,
		StartsAt:           startsAt.UTC(),
		EndsAt:             endsAt.UTC(),
		Status:             ElectionStatusUpcoming,
		ConsensusThreshold: consensusThreshold,
		ReplicationFactor:  replicationFactor,
		PreviousBlockHash:  previousBlockHash,
		CreatedAt:          createdAt.UTC(),
		UpdatedAt:          createdAt.UTC(),
	}
	election.BlockHash = election.ComputeBlockHash()
	return election
}

// ComputeBlockHash digests the fields frozen at creation. Status changes and
// other mutations never feed back into the hash.
func (e Election) ComputeBlockHash() string {
	data := e.ElectionID + e.Name +
		e.StartsAt.UTC().Format(time.RFC3339Nano) +
		e.EndsAt.UTC().Format(time.RFC3339Nano) +
		e.PreviousBlockHash
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// CanTransitionTo encodes the forward-only lifecycle with the suspended
// branch: upcoming→active, active→completed, active→suspended,
// suspended→active.
func (e Election) CanTransitionTo(next ElectionStatus) bool {
	switch e.Status {
	case ElectionStatusUpcoming:
		return next == ElectionStatusActive
	case ElectionStatusActive:
		return next == ElectionStatusCompleted || next == ElectionStatusSuspended
	case ElectionStatusSuspended:
		return next == ElectionStatusActive
	default:
		return false
	}
}

// AcceptsVotes reports whether ballots may be created against this election.
func (e Election) AcceptsVotes() bool {
	return e.Status == ElectionStatusActive
}
