package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"electra/contexts/election-trust/vote-ledger/application/commands"
	"electra/contexts/election-trust/vote-ledger/application/queries"
	httptransport "electra/contexts/election-trust/vote-ledger/transport/http"
)

type Handler struct {
	Cast   commands.CastVoteUseCase
	Status queries.StatusUseCase
	Logger *slog.Logger
}

// CastVoteHandler takes the voter identity separately from the body; the
// outer server extracts it from the authenticated request.
func (h Handler) CastVoteHandler(
	ctx context.Context,
	voterID string,
	req httptransport.CastVoteRequest,
) (httptransport.VoteResponse, error) {
	vote, err := h.Cast.CastVote(ctx, commands.CastVoteCommand{
		VoterID:     voterID,
		CandidateID: req.CandidateID,
		ElectionID:  req.ElectionID,
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		VoteID:                vote.VoteID,
		ElectionID:            vote.ElectionID,
		Status:                string(vote.Status),
		VoteHash:              vote.VoteHash,
		RequiredConfirmations: vote.RequiredConfirmations,
		CastAt:                vote.CastAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

func (h Handler) GetVoteStatusHandler(ctx context.Context, voteID string) (httptransport.VoteStatusResponse, error) {
	view, err := h.Status.GetVoteStatus(ctx, voteID)
	if err != nil {
		return httptransport.VoteStatusResponse{}, err
	}
	return httptransport.VoteStatusResponse{
		VoteID:                view.VoteID,
		ElectionID:            view.ElectionID,
		Status:                view.Status,
		VoteHash:              view.VoteHash,
		ConfirmationCount:     view.ConfirmationCount,
		RequiredConfirmations: view.RequiredConfirmations,
		ConfirmedLogs:         view.ConfirmedLogs,
		CastAt:                view.CastAt,
	}, nil
}
