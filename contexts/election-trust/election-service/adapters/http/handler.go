package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"electra/contexts/election-trust/election-service/application/commands"
	"electra/contexts/election-trust/election-service/application/queries"
	"electra/contexts/election-trust/election-service/domain/entities"
	domainerrors "electra/contexts/election-trust/election-service/domain/errors"
	"electra/contexts/election-trust/election-service/ports"
	httptransport "electra/contexts/election-trust/election-service/transport/http"
)

type Handler struct {
	Elections  commands.ElectionUseCase
	Candidates commands.CandidateUseCase
	Nodes      commands.NodeUseCase
	Status     queries.StatusUseCase
	Registry   ports.NodeRegistry
	Roster     ports.CandidateRepository
	Logger     *slog.Logger
}

func (h Handler) CreateElectionHandler(
	ctx context.Context,
	req httptransport.CreateElectionRequest,
) (httptransport.ElectionResponse, error) {
	startsAt, err := parseTimestamp(req.StartsAt)
	if err != nil {
		return httptransport.ElectionResponse{}, domainerrors.ErrInvalidElectionInput
	}
	endsAt, err := parseTimestamp(req.EndsAt)
	if err != nil {
		return httptransport.ElectionResponse{}, domainerrors.ErrInvalidElectionInput
	}
	election, err := h.Elections.CreateElection(ctx, commands.CreateElectionCommand{
		Name:               req.Name,
		State:              req.State,
		City:               req.City,
		District:           req.District,
		Type:               entities.ElectionType(req.Type),
		Year:               req.Year,
		StartsAt:           startsAt,
		EndsAt:             endsAt,
		ConsensusThreshold: req.ConsensusThreshold,
		ReplicationFactor:  req.ReplicationFactor,
		ActorID:            req.ActorID,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return toElectionResponse(election), nil
}

func (h Handler) StartElectionHandler(ctx context.Context, electionID string, req httptransport.TransitionRequest) error {
	return h.Elections.StartElection(ctx, commands.TransitionCommand{
		ElectionID: electionID,
		ActorID:    req.ActorID,
		Reason:     req.Reason,
	})
}

func (h Handler) EndElectionHandler(ctx context.Context, electionID string, req httptransport.TransitionRequest) error {
	return h.Elections.EndElection(ctx, commands.TransitionCommand{
		ElectionID: electionID,
		ActorID:    req.ActorID,
		Reason:     req.Reason,
	})
}

func (h Handler) SuspendElectionHandler(ctx context.Context, electionID string, req httptransport.TransitionRequest) error {
	return h.Elections.SuspendElection(ctx, commands.TransitionCommand{
		ElectionID: electionID,
		ActorID:    req.ActorID,
		Reason:     req.Reason,
	})
}

func (h Handler) ResumeElectionHandler(ctx context.Context, electionID string, req httptransport.TransitionRequest) error {
	return h.Elections.ResumeElection(ctx, commands.TransitionCommand{
		ElectionID: electionID,
		ActorID:    req.ActorID,
		Reason:     req.Reason,
	})
}

func (h Handler) ListElectionsHandler(ctx context.Context) (httptransport.ElectionsResponse, error) {
	elections, err := h.Elections.Elections.ListElections(ctx)
	if err != nil {
		return httptransport.ElectionsResponse{}, err
	}
	items := make([]httptransport.ElectionResponse, 0, len(elections))
	for _, election := range elections {
		items = append(items, toElectionResponse(election))
	}
	return httptransport.ElectionsResponse{Items: items}, nil
}

func (h Handler) GetElectionStatusHandler(ctx context.Context, electionID string) (httptransport.ElectionStatusResponse, error) {
	view, err := h.Status.GetElectionStatus(ctx, electionID)
	if err != nil {
		return httptransport.ElectionStatusResponse{}, err
	}
	tallies := make([]httptransport.CandidateTallyResponse, 0, len(view.Tallies))
	for _, tally := range view.Tallies {
		tallies = append(tallies, httptransport.CandidateTallyResponse{
			CandidateID: tally.CandidateID,
			Name:        tally.Name,
			Party:       tally.Party,
			VoteCount:   tally.VoteCount,
		})
	}
	return httptransport.ElectionStatusResponse{
		ElectionID:         view.ElectionID,
		Name:               view.Name,
		Type:               view.Type,
		Status:             view.Status,
		ConsensusThreshold: view.ConsensusThreshold,
		BlockHash:          view.BlockHash,
		PreviousBlockHash:  view.PreviousBlockHash,
		CandidateCount:     view.CandidateCount,
		TotalNodes:         view.TotalNodes,
		ActiveNodes:        view.ActiveNodes,
		Tallies:            tallies,
	}, nil
}

func (h Handler) RegisterCandidateHandler(
	ctx context.Context,
	electionID string,
	req httptransport.RegisterCandidateRequest,
) (httptransport.CandidateResponse, error) {
	candidate, err := h.Candidates.RegisterCandidate(ctx, commands.RegisterCandidateCommand{
		ElectionID:   electionID,
		Name:         req.Name,
		Party:        req.Party,
		Constituency: req.Constituency,
		Symbol:       req.Symbol,
		ActorID:      req.ActorID,
	})
	if err != nil {
		return httptransport.CandidateResponse{}, err
	}
	return toCandidateResponse(candidate), nil
}

func (h Handler) VerifyCandidateHandler(ctx context.Context, candidateID string, actorID string) error {
	return h.Candidates.VerifyCandidate(ctx, candidateID, actorID)
}

func (h Handler) ListCandidatesHandler(ctx context.Context, electionID string) (httptransport.CandidatesResponse, error) {
	candidates, err := h.Roster.ListCandidatesByElection(ctx, electionID)
	if err != nil {
		return httptransport.CandidatesResponse{}, err
	}
	items := make([]httptransport.CandidateResponse, 0, len(candidates))
	for _, candidate := range candidates {
		items = append(items, toCandidateResponse(candidate))
	}
	return httptransport.CandidatesResponse{Items: items}, nil
}

func (h Handler) RegisterNodeHandler(
	ctx context.Context,
	req httptransport.RegisterNodeRequest,
) (httptransport.NodeResponse, error) {
	node, err := h.Nodes.RegisterNode(ctx, commands.RegisterNodeCommand{
		NodeID:     req.NodeID,
		ElectionID: req.ElectionID,
		Address:    req.Address,
		ActorID:    req.ActorID,
	})
	if err != nil {
		return httptransport.NodeResponse{}, err
	}
	return toNodeResponse(node), nil
}

func (h Handler) NodeHeartbeatHandler(ctx context.Context, nodeID string, req httptransport.NodeHeartbeatRequest) error {
	return h.Nodes.RecordHeartbeat(ctx, nodeID, req.ResponseTime)
}

func (h Handler) MarkNodeStatusHandler(ctx context.Context, nodeID string, req httptransport.NodeStatusRequest) error {
	return h.Nodes.MarkNodeStatus(ctx, nodeID, entities.NodeStatus(req.Status), req.ActorID)
}

func (h Handler) ListNodesHandler(ctx context.Context, electionID string) (httptransport.NodesResponse, error) {
	nodes, err := h.Registry.ListNodesByElection(ctx, electionID)
	if err != nil {
		return httptransport.NodesResponse{}, err
	}
	items := make([]httptransport.NodeResponse, 0, len(nodes))
	for _, node := range nodes {
		items = append(items, toNodeResponse(node))
	}
	return httptransport.NodesResponse{Items: items}, nil
}

func parseTimestamp(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

func toElectionResponse(election entities.Election) httptransport.ElectionResponse {
	return httptransport.ElectionResponse{
		ElectionID:         election.ElectionID,
		Name:               election.Name,
		State:              election.State,
		City:               election.City,
		District:           election.District,
		Type:               string(election.Type),
		Year:               election.Year,
		StartsAt:           election.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:             election.EndsAt.UTC().Format(time.RFC3339),
		Status:             string(election.Status),
		ConsensusThreshold: election.ConsensusThreshold,
		ReplicationFactor:  election.ReplicationFactor,
		BlockHash:          election.BlockHash,
		PreviousBlockHash:  election.PreviousBlockHash,
		CreatedAt:          election.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toCandidateResponse(candidate entities.Candidate) httptransport.CandidateResponse {
	return httptransport.CandidateResponse{
		CandidateID:      candidate.CandidateID,
		ElectionID:       candidate.ElectionID,
		Name:             candidate.Name,
		Party:            candidate.Party,
		Constituency:     candidate.Constituency,
		Symbol:           candidate.Symbol,
		VerificationHash: candidate.VerificationHash,
		IsVerified:       candidate.IsVerified,
	}
}

func toNodeResponse(node entities.ElectionNode) httptransport.NodeResponse {
	return httptransport.NodeResponse{
		NodeID:           node.NodeID,
		ElectionID:       node.ElectionID,
		Address:          node.Address,
		Status:           string(node.Status),
		ResponseTime:     node.ResponseTime,
		UptimePercentage: node.UptimePercentage,
		LastHeartbeatAt:  node.LastHeartbeatAt.UTC().Format(time.RFC3339),
	}
}
