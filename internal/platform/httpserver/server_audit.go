package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	auditerrors "electra/contexts/election-trust/audit-trail/domain/errors"
	audithttp "electra/contexts/election-trust/audit-trail/transport/http"
)

func (s *Server) handleAppendAuditEntry(w http.ResponseWriter, r *http.Request) {
	var req audithttp.AppendEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuditError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.audit.Handler.AppendEntryHandler(r.Context(), req)
	if err != nil {
		writeAuditDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListAuditEntries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 0
	if limitRaw := query.Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeAuditError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	resp, err := s.audit.Handler.ListEntriesHandler(
		r.Context(),
		query.Get("log_type"),
		query.Get("election_id"),
		limit,
	)
	if err != nil {
		writeAuditDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifyAuditChain(w http.ResponseWriter, r *http.Request) {
	resp, err := s.audit.Handler.VerifyChainHandler(r.Context())
	if err != nil {
		writeAuditDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeAuditDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auditerrors.ErrInvalidEntryInput):
		writeAuditError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, auditerrors.ErrEntryNotFound):
		writeAuditError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, auditerrors.ErrChainConflict),
		errors.Is(err, auditerrors.ErrAppendExhausted):
		writeAuditError(w, http.StatusConflict, "chain_conflict", err.Error())
	default:
		writeAuditError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAuditError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, audithttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
