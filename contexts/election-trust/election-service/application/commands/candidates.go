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

type RegisterCandidateCommand struct {
	ElectionID   string
	Name         string
	Party        string
	Constituency string
	Symbol       string
	ActorID      string
}

type CandidateUseCase struct {
	Elections  ports.ElectionRepository
	Candidates ports.CandidateRepository
	Audit      ports.AuditRecorder
	Cache      ports.Cache
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// RegisterCandidate creates a candidate with a one-shot verification hash.
// Registration is allowed only before the election completes.
func (uc CandidateUseCase) RegisterCandidate(ctx context.Context, cmd RegisterCandidateCommand) (entities.Candidate, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.ElectionID) == "" || strings.TrimSpace(cmd.Name) == "" ||
		strings.TrimSpace(cmd.Party) == "" {
		logger.Warn("candidate register validation failed",
			"event", "candidate_register_validation_failed",
			"module", "election-trust/election-service",
			"layer", "application",
			"election_id", strings.TrimSpace(cmd.ElectionID),
			"name", strings.TrimSpace(cmd.Name),
		)
		return entities.Candidate{}, domainerrors.ErrInvalidCandidateInput
	}

	election, err := uc.Elections.GetElection(ctx, strings.TrimSpace(cmd.ElectionID))
	if err != nil {
		return entities.Candidate{}, err
	}
	if election.Status == entities.ElectionStatusCompleted {
		return entities.Candidate{}, domainerrors.ErrInvalidTransition
	}

	candidateID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Candidate{}, err
	}
	candidate := entities.NewCandidate(
		candidateID,
		election.ElectionID,
		strings.TrimSpace(cmd.Name),
		strings.TrimSpace(cmd.Party),
		strings.TrimSpace(cmd.Constituency),
		strings.TrimSpace(cmd.Symbol),
		uc.now(),
	)
	if err := uc.Candidates.CreateCandidate(ctx, candidate); err != nil {
		return entities.Candidate{}, err
	}

	if uc.Cache != nil {
		uc.Cache.Delete(ctx, "election_status_"+election.ElectionID)
	}
	if uc.Audit != nil {
		if err := uc.Audit.AppendAuditEntry(ctx, "admin_action", cmd.ActorID, election.ElectionID, map[string]any{
			"action":            "candidate_registered",
			"candidate_id":      candidate.CandidateID,
			"verification_hash": candidate.VerificationHash,
		}); err != nil {
			return entities.Candidate{}, err
		}
	}

	logger.Info("candidate registered",
		"event", "candidate_registered",
		"module", "election-trust/election-service",
		"layer", "application",
		"candidate_id", candidate.CandidateID,
		"election_id", election.ElectionID,
		"party", candidate.Party,
	)
	return candidate, nil
}

// VerifyCandidate marks a candidate eligible for tally read paths.
func (uc CandidateUseCase) VerifyCandidate(ctx context.Context, candidateID string, actorID string) error {
	logger := application.ResolveLogger(uc.Logger)
	candidate, err := uc.Candidates.GetCandidate(ctx, strings.TrimSpace(candidateID))
	if err != nil {
		return err
	}
	if candidate.IsVerified {
		return nil
	}
	if err := uc.Candidates.MarkCandidateVerified(ctx, candidate.CandidateID); err != nil {
		return err
	}
	if uc.Cache != nil {
		uc.Cache.Delete(ctx, "election_status_"+candidate.ElectionID)
	}
	if uc.Audit != nil {
		if err := uc.Audit.AppendAuditEntry(ctx, "admin_action", actorID, candidate.ElectionID, map[string]any{
			"action":       "candidate_verified",
			"candidate_id": candidate.CandidateID,
		}); err != nil {
			return err
		}
	}
	logger.Info("candidate verified",
		"event", "candidate_verified",
		"module", "election-trust/election-service",
		"layer", "application",
		"candidate_id", candidate.CandidateID,
		"election_id", candidate.ElectionID,
	)
	return nil
}

func (uc CandidateUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
