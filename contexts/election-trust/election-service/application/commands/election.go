package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "electra/contexts/election-trust/election-service/application"
	"electra/contexts/election-trust/election-service/domain/entities"
	domainerrors "electra/contexts/election-trust/election-service/domain/errors"
	"electra/contexts/election-trust/election-service/ports"
)

// createElectionMaxAttempts bounds rechaining retries when concurrent
// creates race for the chain tail.
const createElectionMaxAttempts = 5

// CreateElectionCommand is the write-model input for election creation.
type CreateElectionCommand struct {
	Name               string
	State              string
	City               string
	District           string
	Type               entities.ElectionType
	Year               int
	StartsAt           time.Time
	EndsAt             time.Time
	ConsensusThreshold int
	ReplicationFactor  int
	ActorID            string
}

// TransitionCommand requests an admin lifecycle transition.
type TransitionCommand struct {
	ElectionID string
	ActorID    string
	Reason     string
}

// ElectionUseCase orchestrates the election lifecycle state machine and the
// creation-time block hash chain across elections.
type ElectionUseCase struct {
	Elections ports.ElectionRepository
	Outbox    ports.OutboxWriter
	Audit     ports.AuditRecorder
	Cache     ports.Cache
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

// CreateElection seals the block hash against the most recently created
// election and persists the aggregate in upcoming status.
func (uc ElectionUseCase) CreateElection(ctx context.Context, cmd CreateElectionCommand) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.Name) == "" || !cmd.Type.Valid() ||
		cmd.EndsAt.Before(cmd.StartsAt) {
		logger.Warn("election create validation failed",
			"event", "election_create_validation_failed",
			"module", "election-trust/election-service",
			"layer", "application",
			"name", strings.TrimSpace(cmd.Name),
			"type", string(cmd.Type),
		)
		return entities.Election{}, domainerrors.ErrInvalidElectionInput
	}
	threshold := cmd.ConsensusThreshold
	if threshold == 0 {
		threshold = 51
	}
	if !entities.ValidConsensusThreshold(threshold) {
		return entities.Election{}, domainerrors.ErrInvalidElectionInput
	}
	replication := cmd.ReplicationFactor
	if replication <= 0 {
		replication = 3
	}

	electionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Election{}, err
	}
	now := uc.now()

	// The unique previous_block_hash index keeps the chain linear; a create
	// that loses the tail race re-reads the latest election and rechains.
	var election entities.Election
	created := false
	for attempt := 0; attempt < createElectionMaxAttempts && !created; attempt++ {
		previousBlockHash := ""
		if latest, found, err := uc.Elections.GetLatestElection(ctx); err != nil {
			return entities.Election{}, err
		} else if found {
			previousBlockHash = latest.BlockHash
		}
		election = entities.NewElection(
			electionID,
			strings.TrimSpace(cmd.Name),
			strings.TrimSpace(cmd.State),
			strings.TrimSpace(cmd.City),
			strings.TrimSpace(cmd.District),
			cmd.Type,
			cmd.Year,
			cmd.StartsAt,
			cmd.EndsAt,
			threshold,
			replication,
			previousBlockHash,
			now,
		)
		switch err := uc.Elections.CreateElection(ctx, election); {
		case err == nil:
			created = true
		case errors.Is(err, domainerrors.ErrConflict):
		default:
			return entities.Election{}, err
		}
	}
	if !created {
		return entities.Election{}, domainerrors.ErrConflict
	}

	if uc.Audit != nil {
		if err := uc.Audit.AppendAuditEntry(ctx, "election_created", cmd.ActorID, election.ElectionID, map[string]any{
			"name":                election.Name,
			"type":                string(election.Type),
			"consensus_threshold": election.ConsensusThreshold,
			"block_hash":          election.BlockHash,
		}); err != nil {
			return entities.Election{}, err
		}
	}
	if err := uc.appendElectionEvent(ctx, "election.created", election, now, nil); err != nil {
		return entities.Election{}, err
	}

	logger.Info("election created",
		"event", "election_created",
		"module", "election-trust/election-service",
		"layer", "application",
		"election_id", election.ElectionID,
		"type", string(election.Type),
		"consensus_threshold", election.ConsensusThreshold,
	)
	return election, nil
}

// StartElection moves upcoming→active.
func (uc ElectionUseCase) StartElection(ctx context.Context, cmd TransitionCommand) error {
	return uc.transition(ctx, cmd,
		entities.ElectionStatusUpcoming, entities.ElectionStatusActive,
		"election_started", "election.started")
}

// EndElection moves active→completed, the terminal state.
func (uc ElectionUseCase) EndElection(ctx context.Context, cmd TransitionCommand) error {
	return uc.transition(ctx, cmd,
		entities.ElectionStatusActive, entities.ElectionStatusCompleted,
		"election_ended", "election.ended")
}

// SuspendElection takes the exceptional active→suspended branch.
func (uc ElectionUseCase) SuspendElection(ctx context.Context, cmd TransitionCommand) error {
	return uc.transition(ctx, cmd,
		entities.ElectionStatusActive, entities.ElectionStatusSuspended,
		"admin_action", "election.suspended")
}

// ResumeElection returns a suspended election to active; the only exit from
// suspended.
func (uc ElectionUseCase) ResumeElection(ctx context.Context, cmd TransitionCommand) error {
	return uc.transition(ctx, cmd,
		entities.ElectionStatusSuspended, entities.ElectionStatusActive,
		"admin_action", "election.started")
}

func (uc ElectionUseCase) transition(
	ctx context.Context,
	cmd TransitionCommand,
	from entities.ElectionStatus,
	to entities.ElectionStatus,
	auditType string,
	eventType string,
) error {
	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)
	if electionID == "" {
		return domainerrors.ErrInvalidElectionInput
	}

	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return err
	}
	if election.Status != from || !election.CanTransitionTo(to) {
		logger.Warn("election transition rejected",
			"event", "election_transition_rejected",
			"module", "election-trust/election-service",
			"layer", "application",
			"election_id", electionID,
			"current_status", string(election.Status),
			"requested_status", string(to),
		)
		return domainerrors.ErrInvalidTransition
	}

	now := uc.now()
	applied, err := uc.Elections.UpdateElectionStatus(ctx, electionID, from, to, now)
	if err != nil {
		return err
	}
	if !applied {
		// Lost the race against a concurrent admin action.
		return domainerrors.ErrInvalidTransition
	}

	if uc.Cache != nil {
		uc.Cache.Delete(ctx, "election_status_"+electionID)
	}
	if uc.Audit != nil {
		if err := uc.Audit.AppendAuditEntry(ctx, auditType, cmd.ActorID, electionID, map[string]any{
			"from":   string(from),
			"to":     string(to),
			"reason": strings.TrimSpace(cmd.Reason),
		}); err != nil {
			return err
		}
	}
	election.Status = to
	election.UpdatedAt = now
	if err := uc.appendElectionEvent(ctx, eventType, election, now, map[string]any{
		"reason": strings.TrimSpace(cmd.Reason),
	}); err != nil {
		return err
	}

	logger.Info("election transitioned",
		"event", "election_transitioned",
		"module", "election-trust/election-service",
		"layer", "application",
		"election_id", electionID,
		"from", string(from),
		"to", string(to),
	)
	return nil
}

func (uc ElectionUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (uc ElectionUseCase) appendElectionEvent(
	ctx context.Context,
	eventType string,
	election entities.Election,
	occurredAt time.Time,
	metadata map[string]any,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data := map[string]any{
		"election_id":         election.ElectionID,
		"name":                election.Name,
		"type":                string(election.Type),
		"status":              string(election.Status),
		"consensus_threshold": election.ConsensusThreshold,
		"block_hash":          election.BlockHash,
		"occurred_at":         occurredAt.Format(time.RFC3339),
	}
	for key, value := range metadata {
		data[key] = value
	}
	envelope, err := newElectionEnvelope(eventID, eventType, election.ElectionID, occurredAt, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}
