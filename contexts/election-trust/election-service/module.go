package electionservice

import (
	"log/slog"
	"time"

	httpadapter "electra/contexts/election-trust/election-service/adapters/http"
	"electra/contexts/election-trust/election-service/adapters/memory"
	"electra/contexts/election-trust/election-service/application/commands"
	"electra/contexts/election-trust/election-service/application/queries"
	"electra/contexts/election-trust/election-service/application/workers"
	"electra/contexts/election-trust/election-service/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	Elections   commands.ElectionUseCase
	Candidates  commands.CandidateUseCase
	Nodes       commands.NodeUseCase
	Status      queries.StatusUseCase
	OutboxRelay workers.OutboxRelay
	Store       *memory.Store
}

type Dependencies struct {
	Elections  ports.ElectionRepository
	Candidates ports.CandidateRepository
	Nodes      ports.NodeRegistry
	Tallies    ports.TallyReader
	Outbox     ports.OutboxWriter
	OutboxRepo ports.OutboxRepository
	Publisher  ports.EventPublisher
	Audit      ports.AuditRecorder
	Cache      ports.Cache
	CacheTTL   time.Duration
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	elections := commands.ElectionUseCase{
		Elections: deps.Elections,
		Outbox:    deps.Outbox,
		Audit:     deps.Audit,
		Cache:     deps.Cache,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	candidates := commands.CandidateUseCase{
		Elections:  deps.Elections,
		Candidates: deps.Candidates,
		Audit:      deps.Audit,
		Cache:      deps.Cache,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	nodes := commands.NodeUseCase{
		Elections: deps.Elections,
		Nodes:     deps.Nodes,
		Audit:     deps.Audit,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	status := queries.StatusUseCase{
		Elections:  deps.Elections,
		Candidates: deps.Candidates,
		Nodes:      deps.Nodes,
		Tallies:    deps.Tallies,
		Cache:      deps.Cache,
		CacheTTL:   deps.CacheTTL,
		Logger:     deps.Logger,
	}
	relay := workers.OutboxRelay{
		Outbox:    deps.OutboxRepo,
		Publisher: deps.Publisher,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Elections:  elections,
			Candidates: candidates,
			Nodes:      nodes,
			Status:     status,
			Registry:   deps.Nodes,
			Roster:     deps.Candidates,
			Logger:     deps.Logger,
		},
		Elections:   elections,
		Candidates:  candidates,
		Nodes:       nodes,
		Status:      status,
		OutboxRelay: relay,
	}
}

func NewInMemoryModule(audit ports.AuditRecorder, publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Elections:  store,
		Candidates: store,
		Nodes:      store,
		Tallies:    store,
		Outbox:     store,
		OutboxRepo: store,
		Publisher:  publisher,
		Audit:      audit,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
