package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	audittrail "electra/contexts/election-trust/audit-trail"
	electionservice "electra/contexts/election-trust/election-service"
	voteledger "electra/contexts/election-trust/vote-ledger"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "electra/internal/platform/httpserver/docs"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	elections electionservice.Module
	votes     voteledger.Module
	audit     audittrail.Module
}

func New(
	elections electionservice.Module,
	votes voteledger.Module,
	audit audittrail.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		elections: elections,
		votes:     votes,
		audit:     audit,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/elections", s.handleCreateElection)
	s.mux.HandleFunc("GET /api/elections", s.handleListElections)
	s.mux.HandleFunc("GET /api/elections/{election_id}/status", s.handleElectionStatus)
	s.mux.HandleFunc("POST /api/elections/{election_id}/start", s.handleStartElection)
	s.mux.HandleFunc("POST /api/elections/{election_id}/end", s.handleEndElection)
	s.mux.HandleFunc("POST /api/elections/{election_id}/suspend", s.handleSuspendElection)
	s.mux.HandleFunc("POST /api/elections/{election_id}/resume", s.handleResumeElection)
	s.mux.HandleFunc("POST /api/elections/{election_id}/candidates", s.handleRegisterCandidate)
	s.mux.HandleFunc("GET /api/elections/{election_id}/candidates", s.handleListCandidates)
	s.mux.HandleFunc("POST /api/candidates/{candidate_id}/verify", s.handleVerifyCandidate)
	s.mux.HandleFunc("POST /api/nodes", s.handleRegisterNode)
	s.mux.HandleFunc("POST /api/nodes/{node_id}/heartbeat", s.handleNodeHeartbeat)
	s.mux.HandleFunc("POST /api/nodes/{node_id}/status", s.handleNodeStatus)
	s.mux.HandleFunc("GET /api/elections/{election_id}/nodes", s.handleListNodes)

	s.mux.HandleFunc("POST /api/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /api/votes/{vote_id}/status", s.handleVoteStatus)

	s.mux.HandleFunc("POST /api/audit/entries", s.handleAppendAuditEntry)
	s.mux.HandleFunc("GET /api/audit/entries", s.handleListAuditEntries)
	s.mux.HandleFunc("GET /api/audit/verify", s.handleVerifyAuditChain)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
