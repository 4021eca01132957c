package workers

import (
	"context"
	"log/slog"

	application "electra/contexts/election-trust/vote-ledger/application"
	"electra/contexts/election-trust/vote-ledger/ports"
)

// Sweeper re-runs consensus rounds for votes the consumer missed or that were
// below quorum on earlier attempts. Together with the consumer this gives
// at-least-once round execution; idempotent rounds make that safe.
type Sweeper struct {
	Votes       ports.VoteRepository
	Coordinator Coordinator
	BatchSize   int
	Logger      *slog.Logger
}

// RunOnce processes one bounded batch. Per-vote failures are logged and
// skipped so one stuck vote cannot starve the rest of the batch.
func (s Sweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	limit := s.BatchSize
	if limit <= 0 {
		limit = 50
	}

	votes, err := s.Votes.ListVotesAwaitingConsensus(ctx, limit)
	if err != nil {
		logger.Error("sweeper list failed",
			"event", "consensus_sweep_list_failed",
			"module", "election-trust/vote-ledger",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(votes) == 0 {
		return nil
	}

	for _, vote := range votes {
		if err := s.Coordinator.RunConsensusRound(ctx, vote.VoteID); err != nil {
			logger.Error("sweeper round failed",
				"event", "consensus_sweep_round_failed",
				"module", "election-trust/vote-ledger",
				"layer", "worker",
				"vote_id", vote.VoteID,
				"error", err.Error(),
			)
		}
	}

	logger.Info("consensus sweep completed",
		"event", "consensus_sweep_completed",
		"module", "election-trust/vote-ledger",
		"layer", "worker",
		"batch_size", len(votes),
	)
	return nil
}
