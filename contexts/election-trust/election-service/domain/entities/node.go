package entities

import "time"

type NodeStatus string

const (
	NodeStatusActive    NodeStatus = "active"
	NodeStatusInactive  NodeStatus = "inactive"
	NodeStatusFaulty    NodeStatus = "faulty"
	NodeStatusByzantine NodeStatus = "byzantine"
)

func (s NodeStatus) Valid() bool {
	switch s {
	case NodeStatusActive, NodeStatusInactive, NodeStatusFaulty, NodeStatusByzantine:
		return true
	default:
		return false
	}
}

// ElectionNode is a confirmation authority scoped to one election. Only
// active nodes are eligible for consensus round selection.
type ElectionNode struct {
	NodeID           string
	ElectionID       string
	Address          string
	Status           NodeStatus
	ResponseTime     float64
	UptimePercentage float64
	LastHeartbeatAt  time.Time
	RegisteredAt     time.Time
}
