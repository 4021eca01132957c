package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"electra/contexts/election-trust/audit-trail/application/commands"
	"electra/contexts/election-trust/audit-trail/application/queries"
	"electra/contexts/election-trust/audit-trail/domain/entities"
	"electra/contexts/election-trust/audit-trail/ports"
	httptransport "electra/contexts/election-trust/audit-trail/transport/http"
)

type Handler struct {
	Appender *commands.Appender
	Chain    queries.ChainUseCase
	Logger   *slog.Logger
}

func (h Handler) AppendEntryHandler(
	ctx context.Context,
	req httptransport.AppendEntryRequest,
) (httptransport.EntryResponse, error) {
	entry, err := h.Appender.Append(ctx, commands.AppendEntryInput{
		LogType:    entities.LogType(req.LogType),
		ActorID:    req.ActorID,
		ElectionID: req.ElectionID,
		Details:    req.Details,
	})
	if err != nil {
		return httptransport.EntryResponse{}, err
	}
	return toEntryResponse(entry), nil
}

func (h Handler) ListEntriesHandler(
	ctx context.Context,
	logType string,
	electionID string,
	limit int,
) (httptransport.EntriesResponse, error) {
	entries, err := h.Chain.ListEntries(ctx, ports.EntryFilter{
		LogType:    logType,
		ElectionID: electionID,
		Limit:      limit,
	})
	if err != nil {
		return httptransport.EntriesResponse{}, err
	}
	items := make([]httptransport.EntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toEntryResponse(entry))
	}
	return httptransport.EntriesResponse{Items: items}, nil
}

func (h Handler) VerifyChainHandler(ctx context.Context) (httptransport.VerificationResponse, error) {
	report, err := h.Chain.VerifyChain(ctx)
	if err != nil {
		return httptransport.VerificationResponse{}, err
	}
	return httptransport.VerificationResponse{
		Valid:      report.Valid,
		EntryCount: report.EntryCount,
		BrokenSeq:  report.BrokenSeq,
		Reason:     report.Reason,
	}, nil
}

func toEntryResponse(entry entities.Entry) httptransport.EntryResponse {
	return httptransport.EntryResponse{
		EntryID:      entry.EntryID,
		Seq:          entry.Seq,
		LogType:      string(entry.LogType),
		ActorID:      entry.ActorID,
		ElectionID:   entry.ElectionID,
		Details:      entry.Details,
		RecordedAt:   entry.RecordedAt.UTC().Format(time.RFC3339Nano),
		HashChain:    entry.HashChain,
		PreviousHash: entry.PreviousHash,
	}
}
