package workers

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

// Single-round confirmation scheme; multi-round escalation is not wired yet.
const consensusRound = 1

// Coordinator drives per-vote confirmation rounds. Rounds are idempotent:
// logs upsert on (vote, node, round), finalization is a conditional update,
// and every failure leaves the vote in a state a later round can pick up.
type Coordinator struct {
	Votes         ports.VoteRepository
	Logs          ports.ConsensusLogRepository
	Elections     ports.ElectionReader
	Nodes         ports.NodeSelector
	Confirmations ports.ConfirmationSource
	Audit         ports.AuditRecorder
	Cache         ports.Cache
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	Logger        *slog.Logger
}

// RunConsensusRound processes one vote. Finalized votes are a no-op; votes in
// elections that are no longer active are deferred untouched.
func (c Coordinator) RunConsensusRound(ctx context.Context, voteID string) error {
	logger := application.ResolveLogger(c.Logger)
	voteID = strings.TrimSpace(voteID)
	if voteID == "" {
		return domainerrors.ErrInvalidVoteInput
	}

	vote, err := c.Votes.GetVote(ctx, voteID)
	if err != nil {
		return err
	}
	if vote.Status == entities.VoteStatusFinalized {
		return nil
	}
	if !vote.AwaitingConsensus() {
		return nil
	}

	election, err := c.Elections.GetElectionProjection(ctx, vote.ElectionID)
	if err != nil {
		return err
	}
	if !election.ConsensusEligible() {
		logger.Info("consensus round deferred",
			"event", "consensus_round_deferred",
			"module", "election-trust/vote-ledger",
			"layer", "worker",
			"vote_id", vote.VoteID,
			"election_id", vote.ElectionID,
			"election_status", election.Status,
		)
		return nil
	}

	now := c.now()
	if vote.Status != entities.VoteStatusConsensusPending {
		if err := c.Votes.MarkConsensusPending(ctx, vote.VoteID, now); err != nil {
			return err
		}
	}

	required := vote.RequiredConfirmations
	if required <= 0 {
		required = 3
	}
	nodeIDs, err := c.Nodes.SelectActiveNodes(ctx, vote.ElectionID, required)
	if err != nil {
		return err
	}
	if len(nodeIDs) == 0 {
		logger.Warn("no active nodes for consensus",
			"event", "consensus_no_active_nodes",
			"module", "election-trust/vote-ledger",
			"layer", "worker",
			"vote_id", vote.VoteID,
			"election_id", vote.ElectionID,
		)
		return nil
	}

	for _, nodeID := range nodeIDs {
		logID, err := c.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		log := entities.ConsensusLog{
			LogID:          logID,
			VoteID:         vote.VoteID,
			NodeID:         nodeID,
			ConsensusRound: consensusRound,
			Status:         entities.ConsensusLogStatusPending,
			Signature:      entities.ConsensusSignature(vote.VoteHash, nodeID),
			RecordedAt:     now,
		}
		if err := c.Logs.UpsertConsensusLog(ctx, log); err != nil {
			return err
		}
		confirmed, err := c.Confirmations.Confirm(ctx, log)
		if err != nil {
			logger.Error("node confirmation failed",
				"event", "consensus_confirmation_failed",
				"module", "election-trust/vote-ledger",
				"layer", "worker",
				"vote_id", vote.VoteID,
				"node_id", nodeID,
				"error", err.Error(),
			)
			continue
		}
		if confirmed {
			if err := c.Logs.MarkLogConfirmed(ctx, vote.VoteID, nodeID, consensusRound, c.now()); err != nil {
				return err
			}
		}
	}

	confirmedCount, err := c.Logs.CountConfirmedLogs(ctx, vote.VoteID, consensusRound)
	if err != nil {
		return err
	}
	if confirmedCount < required {
		// Partial quorum is not a failure; the sweeper retries later.
		logger.Info("consensus below quorum",
			"event", "consensus_below_quorum",
			"module", "election-trust/vote-ledger",
			"layer", "worker",
			"vote_id", vote.VoteID,
			"confirmed", confirmedCount,
			"required", required,
		)
		return nil
	}

	return c.finalize(ctx, vote, confirmedCount)
}

func (c Coordinator) finalize(ctx context.Context, vote entities.Vote, confirmedCount int) error {
	logger := application.ResolveLogger(c.Logger)
	now := c.now()

	eventID, err := c.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	finalized := vote
	finalized.Status = entities.VoteStatusFinalized
	finalized.ConfirmationCount = confirmedCount
	envelope, err := newWorkerVoteEnvelope(eventID, "vote.finalized", finalized, now, map[string]any{
		"confirmations": confirmedCount,
	})
	if err != nil {
		return err
	}

	// The event commits atomically with the status flip, so only the winning
	// round carries it and a finalized vote always has its outbox row.
	won, err := c.Votes.FinalizeVote(ctx, vote.VoteID, confirmedCount, &envelope, now)
	if err != nil {
		return err
	}
	if !won {
		// A concurrent round already finalized; side effects happened there.
		return nil
	}

	if c.Cache != nil {
		c.Cache.Delete(ctx, "vote_status_"+vote.VoteID)
		c.Cache.Delete(ctx, "voter_votes_"+vote.VoterID)
		c.Cache.Delete(ctx, "election_status_"+vote.ElectionID)
	}
	if c.Audit != nil {
		if err := c.Audit.AppendAuditEntry(ctx, "consensus_achieved", vote.VoterID, vote.ElectionID, map[string]any{
			"vote_id":       vote.VoteID,
			"vote_hash":     vote.VoteHash,
			"confirmations": confirmedCount,
			"round":         consensusRound,
		}); err != nil {
			return err
		}
	}

	logger.Info("vote finalized",
		"event", "vote_finalized",
		"module", "election-trust/vote-ledger",
		"layer", "worker",
		"vote_id", vote.VoteID,
		"election_id", vote.ElectionID,
		"confirmations", confirmedCount,
	)
	return nil
}

func (c Coordinator) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
