package entities

import (
	"strings"
	"time"
)

type ConsensusLogStatus string

const (
	ConsensusLogStatusPending   ConsensusLogStatus = "pending"
	ConsensusLogStatusConfirmed ConsensusLogStatus = "confirmed"
)

// ConsensusLog records one node's participation in one consensus round for
// one vote. (VoteID, NodeID, ConsensusRound) is unique.
type ConsensusLog struct {
	LogID          string
	VoteID         string
	NodeID         string
	ConsensusRound int
	Status         ConsensusLogStatus
	Signature      string
	RecordedAt     time.Time
}

// ConsensusSignature is the deterministic placeholder signature a node leaves
// on a vote until real node keys are wired in.
func ConsensusSignature(voteHash, nodeID string) string {
	return "sig_" + voteHash + "_" + strings.TrimSpace(nodeID)
}
