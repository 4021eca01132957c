package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	voteerrors "electra/contexts/election-trust/vote-ledger/domain/errors"
	votehttp "electra/contexts/election-trust/vote-ledger/transport/http"
)

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	voterID := r.Header.Get("X-Voter-Id")
	if voterID == "" {
		writeVoteError(w, http.StatusUnauthorized, "missing_voter", "X-Voter-Id header is required")
		return
	}

	var req votehttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVoteError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.votes.Handler.CastVoteHandler(r.Context(), voterID, req)
	if err != nil {
		writeVoteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleVoteStatus(w http.ResponseWriter, r *http.Request) {
	voteID := r.PathValue("vote_id")
	resp, err := s.votes.Handler.GetVoteStatusHandler(r.Context(), voteID)
	if err != nil {
		writeVoteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeVoteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, voteerrors.ErrInvalidVoteInput):
		writeVoteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, voteerrors.ErrAlreadyVoted):
		writeVoteError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, voteerrors.ErrElectionNotActive):
		writeVoteError(w, http.StatusConflict, "election_not_active", err.Error())
	case errors.Is(err, voteerrors.ErrVoterNotApproved),
		errors.Is(err, voteerrors.ErrVoterNotEligible):
		writeVoteError(w, http.StatusForbidden, "not_eligible", err.Error())
	case errors.Is(err, voteerrors.ErrCandidateMismatch):
		writeVoteError(w, http.StatusUnprocessableEntity, "candidate_mismatch", err.Error())
	case errors.Is(err, voteerrors.ErrElectionNotFound),
		errors.Is(err, voteerrors.ErrVoterNotFound),
		errors.Is(err, voteerrors.ErrCandidateNotFound),
		errors.Is(err, voteerrors.ErrVoteNotFound):
		writeVoteError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, voteerrors.ErrConflict):
		writeVoteError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeVoteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVoteError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, votehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
