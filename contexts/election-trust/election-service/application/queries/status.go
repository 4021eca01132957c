package queries

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "electra/contexts/election-trust/election-service/application"
	"electra/contexts/election-trust/election-service/domain/entities"
	domainerrors "electra/contexts/election-trust/election-service/domain/errors"
	"electra/contexts/election-trust/election-service/ports"
)

// ElectionStatusView is the aggregate read model served to observers. Tallies
// cover finalized votes for verified candidates only.
type ElectionStatusView struct {
	ElectionID         string                 `json:"election_id"`
	Name               string                 `json:"name"`
	Type               string                 `json:"type"`
	Status             string                 `json:"status"`
	ConsensusThreshold int                    `json:"consensus_threshold"`
	BlockHash          string                 `json:"block_hash"`
	PreviousBlockHash  string                 `json:"previous_block_hash"`
	CandidateCount     int                    `json:"candidate_count"`
	TotalNodes         int                    `json:"total_nodes"`
	ActiveNodes        int                    `json:"active_nodes"`
	Tallies            []ports.CandidateTally `json:"tallies"`
}

type StatusUseCase struct {
	Elections  ports.ElectionRepository
	Candidates ports.CandidateRepository
	Nodes      ports.NodeRegistry
	Tallies    ports.TallyReader
	Cache      ports.Cache
	CacheTTL   time.Duration
	Logger     *slog.Logger
}

// GetElectionStatus is cache-aside: writes invalidate election_status_<id>,
// so a stale read window is bounded by the TTL.
func (uc StatusUseCase) GetElectionStatus(ctx context.Context, electionID string) (ElectionStatusView, error) {
	logger := application.ResolveLogger(uc.Logger)
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return ElectionStatusView{}, domainerrors.ErrInvalidElectionInput
	}

	cacheKey := "election_status_" + electionID
	if uc.Cache != nil {
		if cached, found := uc.Cache.Get(ctx, cacheKey); found {
			var view ElectionStatusView
			if err := json.Unmarshal([]byte(cached), &view); err == nil {
				return view, nil
			}
			// Unreadable cache payloads fall through to a fresh read.
			uc.Cache.Delete(ctx, cacheKey)
		}
	}

	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return ElectionStatusView{}, err
	}
	candidates, err := uc.Candidates.ListCandidatesByElection(ctx, electionID)
	if err != nil {
		return ElectionStatusView{}, err
	}
	nodes, err := uc.Nodes.ListNodesByElection(ctx, electionID)
	if err != nil {
		return ElectionStatusView{}, err
	}
	tallies, err := uc.Tallies.TallyFinalizedVotes(ctx, electionID)
	if err != nil {
		return ElectionStatusView{}, err
	}

	active := 0
	for _, node := range nodes {
		if node.Status == entities.NodeStatusActive {
			active++
		}
	}

	view := ElectionStatusView{
		ElectionID:         election.ElectionID,
		Name:               election.Name,
		Type:               string(election.Type),
		Status:             string(election.Status),
		ConsensusThreshold: election.ConsensusThreshold,
		BlockHash:          election.BlockHash,
		PreviousBlockHash:  election.PreviousBlockHash,
		CandidateCount:     len(candidates),
		TotalNodes:         len(nodes),
		ActiveNodes:        active,
		Tallies:            tallies,
	}

	if uc.Cache != nil {
		if payload, err := json.Marshal(view); err == nil {
			uc.Cache.Set(ctx, cacheKey, string(payload), uc.cacheTTL())
		}
	}

	logger.Debug("election status computed",
		"event", "election_status_computed",
		"module", "election-trust/election-service",
		"layer", "application",
		"election_id", electionID,
		"candidate_count", len(candidates),
		"active_nodes", active,
	)
	return view, nil
}

func (uc StatusUseCase) cacheTTL() time.Duration {
	if uc.CacheTTL <= 0 {
		return 15 * time.Second
	}
	return uc.CacheTTL
}
