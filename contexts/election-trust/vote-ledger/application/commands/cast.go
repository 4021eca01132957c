package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "electra/contexts/election-trust/vote-ledger/application"
	"electra/contexts/election-trust/vote-ledger/domain/entities"
	domainerrors "electra/contexts/election-trust/vote-ledger/domain/errors"
	"electra/contexts/election-trust/vote-ledger/ports"
)

type CastVoteCommand struct {
	VoterID     string
	CandidateID string
	ElectionID  string
}

// CastVoteUseCase records ballots. Consensus is asynchronous: CastVote
// returns as soon as the vote row, audit entry and outbox event are durable.
type CastVoteUseCase struct {
	Votes                ports.VoteRepository
	Voters               ports.VoterDirectory
	Elections            ports.ElectionReader
	Candidates           ports.CandidateReader
	Outbox               ports.OutboxWriter
	Audit                ports.AuditRecorder
	Cache                ports.Cache
	Clock                ports.Clock
	IDGen                ports.IDGenerator
	DefaultConfirmations int
	Logger               *slog.Logger
}

// CastVote validates eligibility, seals the vote hash exactly once and
// persists the ballot in pending status. The storage-level unique
// (voter_id, election_id) constraint is the last line of defence against a
// concurrent double cast.
func (uc CastVoteUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (entities.Vote, error) {
	logger := application.ResolveLogger(uc.Logger)
	voterID := strings.TrimSpace(cmd.VoterID)
	candidateID := strings.TrimSpace(cmd.CandidateID)
	electionID := strings.TrimSpace(cmd.ElectionID)
	if voterID == "" || candidateID == "" || electionID == "" {
		logger.Warn("vote cast validation failed",
			"event", "vote_cast_validation_failed",
			"module", "election-trust/vote-ledger",
			"layer", "application",
			"election_id", electionID,
		)
		return entities.Vote{}, domainerrors.ErrInvalidVoteInput
	}

	election, err := uc.Elections.GetElectionProjection(ctx, electionID)
	if err != nil {
		return entities.Vote{}, err
	}
	if !election.AcceptsVotes() {
		return entities.Vote{}, domainerrors.ErrElectionNotActive
	}

	voter, err := uc.Voters.GetVoter(ctx, voterID)
	if err != nil {
		return entities.Vote{}, err
	}
	if !voter.Approved {
		return entities.Vote{}, domainerrors.ErrVoterNotApproved
	}
	if !election.EligibleVoter(voter) {
		return entities.Vote{}, domainerrors.ErrVoterNotEligible
	}

	candidate, err := uc.Candidates.GetCandidateProjection(ctx, candidateID)
	if err != nil {
		return entities.Vote{}, err
	}
	if candidate.ElectionID != election.ElectionID {
		return entities.Vote{}, domainerrors.ErrCandidateMismatch
	}

	// Cheap precheck; the insert below still decides under the unique index.
	if voted, err := uc.Votes.HasVoted(ctx, voterID, electionID); err != nil {
		return entities.Vote{}, err
	} else if voted {
		return entities.Vote{}, domainerrors.ErrAlreadyVoted
	}

	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Vote{}, err
	}
	nonceID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Vote{}, err
	}
	nonce := strings.ReplaceAll(nonceID, "-", "")
	required := election.ReplicationFactor
	if required <= 0 {
		required = uc.defaultConfirmations()
	}
	now := uc.now()
	vote := entities.NewVote(voteID, voterID, candidateID, electionID, nonce, required, now)

	if err := uc.Votes.CreateVote(ctx, vote); err != nil {
		if err == domainerrors.ErrAlreadyVoted {
			logger.Warn("vote cast lost uniqueness race",
				"event", "vote_cast_duplicate",
				"module", "election-trust/vote-ledger",
				"layer", "application",
				"election_id", electionID,
			)
		}
		return entities.Vote{}, err
	}

	if uc.Cache != nil {
		uc.Cache.Delete(ctx, "vote_status_"+vote.VoteID)
		uc.Cache.Delete(ctx, "voter_votes_"+voterID)
		uc.Cache.Delete(ctx, "election_status_"+electionID)
	}
	if uc.Audit != nil {
		if err := uc.Audit.AppendAuditEntry(ctx, "vote_cast", voterID, electionID, map[string]any{
			"vote_id":   vote.VoteID,
			"vote_hash": vote.VoteHash,
		}); err != nil {
			return entities.Vote{}, err
		}
	}
	if uc.Outbox != nil {
		eventID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.Vote{}, err
		}
		envelope, err := newVoteEnvelope(eventID, "vote.cast", vote, now, nil)
		if err != nil {
			return entities.Vote{}, err
		}
		if err := uc.Outbox.AppendOutbox(ctx, envelope); err != nil {
			return entities.Vote{}, err
		}
	}

	logger.Info("vote cast",
		"event", "vote_cast",
		"module", "election-trust/vote-ledger",
		"layer", "application",
		"vote_id", vote.VoteID,
		"election_id", electionID,
		"required_confirmations", vote.RequiredConfirmations,
	)
	return vote, nil
}

func (uc CastVoteUseCase) defaultConfirmations() int {
	if uc.DefaultConfirmations <= 0 {
		return 3
	}
	return uc.DefaultConfirmations
}

func (uc CastVoteUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
