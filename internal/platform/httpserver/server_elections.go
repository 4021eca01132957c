package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	electionerrors "electra/contexts/election-trust/election-service/domain/errors"
	electionhttp "electra/contexts/election-trust/election-service/transport/http"
)

func (s *Server) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.CreateElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.elections.Handler.CreateElectionHandler(r.Context(), req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListElections(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elections.Handler.ListElectionsHandler(r.Context())
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleElectionStatus(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("election_id")
	resp, err := s.elections.Handler.GetElectionStatusHandler(r.Context(), electionID)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartElection(w http.ResponseWriter, r *http.Request) {
	s.applyTransition(w, r, s.elections.Handler.StartElectionHandler)
}

func (s *Server) handleEndElection(w http.ResponseWriter, r *http.Request) {
	s.applyTransition(w, r, s.elections.Handler.EndElectionHandler)
}

func (s *Server) handleSuspendElection(w http.ResponseWriter, r *http.Request) {
	s.applyTransition(w, r, s.elections.Handler.SuspendElectionHandler)
}

func (s *Server) handleResumeElection(w http.ResponseWriter, r *http.Request) {
	s.applyTransition(w, r, s.elections.Handler.ResumeElectionHandler)
}

func (s *Server) applyTransition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(context.Context, string, electionhttp.TransitionRequest) error,
) {
	var req electionhttp.TransitionRequest
	// Transition bodies are optional; an empty body means no actor/reason.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	electionID := r.PathValue("election_id")
	if err := apply(r.Context(), electionID, req); err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"election_id": electionID})
}

func (s *Server) handleRegisterCandidate(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.RegisterCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	electionID := r.PathValue("election_id")
	resp, err := s.elections.Handler.RegisterCandidateHandler(r.Context(), electionID, req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("election_id")
	resp, err := s.elections.Handler.ListCandidatesHandler(r.Context(), electionID)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifyCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID := r.PathValue("candidate_id")
	actorID := r.Header.Get("X-Admin-Id")
	if err := s.elections.Handler.VerifyCandidateHandler(r.Context(), candidateID, actorID); err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"candidate_id": candidateID})
}

func (s *Server) handleRegisterNode(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.RegisterNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.elections.Handler.RegisterNodeHandler(r.Context(), req)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleNodeHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.NodeHeartbeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	nodeID := r.PathValue("node_id")
	if err := s.elections.Handler.NodeHeartbeatHandler(r.Context(), nodeID, req); err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"node_id": nodeID})
}

func (s *Server) handleNodeStatus(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.NodeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeElectionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	nodeID := r.PathValue("node_id")
	if err := s.elections.Handler.MarkNodeStatusHandler(r.Context(), nodeID, req); err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"node_id": nodeID})
}

func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("election_id")
	resp, err := s.elections.Handler.ListNodesHandler(r.Context(), electionID)
	if err != nil {
		writeElectionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeElectionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, electionerrors.ErrInvalidElectionInput),
		errors.Is(err, electionerrors.ErrInvalidCandidateInput),
		errors.Is(err, electionerrors.ErrInvalidNodeInput):
		writeElectionError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, electionerrors.ErrElectionNotFound),
		errors.Is(err, electionerrors.ErrCandidateNotFound),
		errors.Is(err, electionerrors.ErrNodeNotFound):
		writeElectionError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, electionerrors.ErrInvalidTransition):
		writeElectionError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, electionerrors.ErrConflict):
		writeElectionError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeElectionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeElectionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, electionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
