package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "electra/contexts/election-trust/election-service/application"
	"electra/contexts/election-trust/election-service/domain/entities"
	domainerrors "electra/contexts/election-trust/election-service/domain/errors"
	"electra/contexts/election-trust/election-service/ports"
)

type RegisterNodeCommand struct {
	NodeID     string
	ElectionID string
	Address    string
	ActorID    string
}

type NodeUseCase struct {
	Elections ports.ElectionRepository
	Nodes     ports.NodeRegistry
	Audit     ports.AuditRecorder
	Clock     ports.Clock
	Logger    *slog.Logger
}

// RegisterNode enrolls a confirmation authority for one election. Re-registering
// an existing node refreshes its address and reactivates it.
func (uc NodeUseCase) RegisterNode(ctx context.Context, cmd RegisterNodeCommand) (entities.ElectionNode, error) {
	logger := application.ResolveLogger(uc.Logger)
	nodeID := strings.TrimSpace(cmd.NodeID)
	if nodeID == "" || strings.TrimSpace(cmd.ElectionID) == "" {
		logger.Warn("node register validation failed",
			"event", "node_register_validation_failed",
			"module", "election-trust/election-service",
			"layer", "application",
			"node_id", nodeID,
			"election_id", strings.TrimSpace(cmd.ElectionID),
		)
		return entities.ElectionNode{}, domainerrors.ErrInvalidNodeInput
	}

	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(cmd.ElectionID))
	if err != nil {
		return entities.ElectionNode{}, err
	}

	now := uc.now()
	node := entities.ElectionNode{
		NodeID:           nodeID,
		ElectionID:       election.ElectionID,
		Address:          strings.TrimSpace(cmd.Address),
		Status:           entities.NodeStatusActive,
		UptimePercentage: 100.0,
		LastHeartbeatAt:  now,
		RegisteredAt:     now,
	}
	if err := uc.Nodes.UpsertNode(ctx, node); err != nil {
		return entities.ElectionNode{}, err
	}

	logger.Info("election node registered",
		"event", "node_registered",
		"module", "election-trust/election-service",
		"layer", "application",
		"node_id", node.NodeID,
		"election_id", node.ElectionID,
	)
	return node, nil
}

// RecordHeartbeat refreshes liveness and last observed response time.
func (uc NodeUseCase) RecordHeartbeat(ctx context.Context, nodeID string, responseTime float64) error {
	nodeID = strings.TrimSpace(nodeID)
	if nodeID == "" {
		return domainerrors.ErrInvalidNodeInput
	}
	return uc.Nodes.RecordNodeHeartbeat(ctx, nodeID, uc.now(), responseTime)
}

// MarkNodeStatus records operator or health-check driven status changes.
// Faulty/byzantine transitions land in the audit chain as node failures.
func (uc NodeUseCase) MarkNodeStatus(ctx context.Context, nodeID string, status entities.NodeStatus, actorID string) error {
	logger := application.ResolveLogger(uc.Logger)
	nodeID = strings.TrimSpace(nodeID)
	if nodeID == "" || !status.Valid() {
		return domainerrors.ErrInvalidNodeInput
	}

	node, err := uc.Nodes.GetNode(ctx, nodeID)
	if err != nil {
		return err
	}
	if node.Status == status {
		return nil
	}
	if err := uc.Nodes.UpdateNodeStatus(ctx, nodeID, status, uc.now()); err != nil {
		return err
	}

	if uc.Audit != nil &&
		(status == entities.NodeStatusFaulty || status == entities.NodeStatusByzantine) {
		if err := uc.Audit.AppendAuditEntry(ctx, "node_failure", actorID, node.ElectionID, map[string]any{
			"node_id":         nodeID,
			"previous_status": string(node.Status),
			"status":          string(status),
		}); err != nil {
			return err
		}
	}

	logger.Info("election node status changed",
		"event", "node_status_changed",
		"module", "election-trust/election-service",
		"layer", "application",
		"node_id", nodeID,
		"election_id", node.ElectionID,
		"status", string(status),
	)
	return nil
}

func (uc NodeUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
