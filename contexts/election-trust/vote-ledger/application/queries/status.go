package queries

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "electra/contexts/election-trust/vote-ledger/application"
	"electra/contexts/election-trust/vote-ledger/domain/entities"
	domainerrors "electra/contexts/election-trust/vote-ledger/domain/errors"
	"electra/contexts/election-trust/vote-ledger/ports"
)

// VoteStatusView reports confirmation progress without exposing the nonce.
type VoteStatusView struct {
	VoteID                string `json:"vote_id"`
	ElectionID            string `json:"election_id"`
	Status                string `json:"status"`
	VoteHash              string `json:"vote_hash"`
	ConfirmationCount     int    `json:"confirmation_count"`
	RequiredConfirmations int    `json:"required_confirmations"`
	ConfirmedLogs         int    `json:"confirmed_logs"`
	CastAt                string `json:"cast_at"`
}

type StatusUseCase struct {
	Votes    ports.VoteRepository
	Logs     ports.ConsensusLogRepository
	Cache    ports.Cache
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// GetVoteStatus is cache-aside: finalization invalidates vote_status_<id>, so
// a stale read window is bounded by the TTL.
func (uc StatusUseCase) GetVoteStatus(ctx context.Context, voteID string) (VoteStatusView, error) {
	logger := application.ResolveLogger(uc.Logger)
	voteID = strings.TrimSpace(voteID)
	if voteID == "" {
		return VoteStatusView{}, domainerrors.ErrInvalidVoteInput
	}

	cacheKey := "vote_status_" + voteID
	if uc.Cache != nil {
		if cached, found := uc.Cache.Get(ctx, cacheKey); found {
			var view VoteStatusView
			if err := json.Unmarshal([]byte(cached), &view); err == nil {
				return view, nil
			}
			uc.Cache.Delete(ctx, cacheKey)
		}
	}

	vote, err := uc.Votes.GetVote(ctx, voteID)
	if err != nil {
		return VoteStatusView{}, err
	}
	confirmed := vote.ConfirmationCount
	if uc.Logs != nil {
		logs, err := uc.Logs.ListLogsByVote(ctx, voteID)
		if err != nil {
			return VoteStatusView{}, err
		}
		count := 0
		for _, log := range logs {
			if log.Status == entities.ConsensusLogStatusConfirmed {
				count++
			}
		}
		confirmed = count
	}

	view := VoteStatusView{
		VoteID:                vote.VoteID,
		ElectionID:            vote.ElectionID,
		Status:                string(vote.Status),
		VoteHash:              vote.VoteHash,
		ConfirmationCount:     vote.ConfirmationCount,
		RequiredConfirmations: vote.RequiredConfirmations,
		ConfirmedLogs:         confirmed,
		CastAt:                vote.CastAt.UTC().Format(time.RFC3339Nano),
	}

	if uc.Cache != nil {
		if payload, err := json.Marshal(view); err == nil {
			uc.Cache.Set(ctx, cacheKey, string(payload), uc.cacheTTL())
		}
	}

	logger.Debug("vote status computed",
		"event", "vote_status_computed",
		"module", "election-trust/vote-ledger",
		"layer", "application",
		"vote_id", voteID,
		"status", view.Status,
	)
	return view, nil
}

func (uc StatusUseCase) cacheTTL() time.Duration {
	if uc.CacheTTL <= 0 {
		return 30 * time.Second
	}
	return uc.CacheTTL
}
