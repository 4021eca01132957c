package voteledger

import (
	"log/slog"
	"time"

	httpadapter "electra/contexts/election-trust/vote-ledger/adapters/http"
	"electra/contexts/election-trust/vote-ledger/adapters/memory"
	"electra/contexts/election-trust/vote-ledger/application/commands"
	"electra/contexts/election-trust/vote-ledger/application/queries"
	"electra/contexts/election-trust/vote-ledger/application/workers"
	"electra/contexts/election-trust/vote-ledger/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	Cast        commands.CastVoteUseCase
	Status      queries.StatusUseCase
	Coordinator workers.Coordinator
	Consumer    workers.VoteCastConsumer
	Sweeper     workers.Sweeper
	OutboxRelay workers.OutboxRelay
	Store       *memory.Store
}

type Dependencies struct {
	Votes                ports.VoteRepository
	Logs                 ports.ConsensusLogRepository
	Voters               ports.VoterDirectory
	Elections            ports.ElectionReader
	Candidates           ports.CandidateReader
	Nodes                ports.NodeSelector
	Confirmations        ports.ConfirmationSource
	Outbox               ports.OutboxWriter
	OutboxRepo           ports.OutboxRepository
	Publisher            ports.EventPublisher
	Subscriber           ports.EventSubscriber
	Processed            ports.ProcessedEventStore
	Audit                ports.AuditRecorder
	Cache                ports.Cache
	CacheTTL             time.Duration
	Clock                ports.Clock
	IDGen                ports.IDGenerator
	DefaultConfirmations int
	ProcessingDelay      time.Duration
	Logger               *slog.Logger
}

func NewModule(deps Dependencies) Module {
	cast := commands.CastVoteUseCase{
		Votes:                deps.Votes,
		Voters:               deps.Voters,
		Elections:            deps.Elections,
		Candidates:           deps.Candidates,
		Outbox:               deps.Outbox,
		Audit:                deps.Audit,
		Cache:                deps.Cache,
		Clock:                deps.Clock,
		IDGen:                deps.IDGen,
		DefaultConfirmations: deps.DefaultConfirmations,
		Logger:               deps.Logger,
	}
	status := queries.StatusUseCase{
		Votes:    deps.Votes,
		Logs:     deps.Logs,
		Cache:    deps.Cache,
		CacheTTL: deps.CacheTTL,
		Logger:   deps.Logger,
	}
	coordinator := workers.Coordinator{
		Votes:         deps.Votes,
		Logs:          deps.Logs,
		Elections:     deps.Elections,
		Nodes:         deps.Nodes,
		Confirmations: deps.Confirmations,
		Audit:         deps.Audit,
		Cache:         deps.Cache,
		Clock:         deps.Clock,
		IDGen:         deps.IDGen,
		Logger:        deps.Logger,
	}
	consumer := workers.VoteCastConsumer{
		Subscriber:  deps.Subscriber,
		Processed:   deps.Processed,
		Coordinator: coordinator,
		Clock:       deps.Clock,
		Delay:       deps.ProcessingDelay,
		Logger:      deps.Logger,
	}
	sweeper := workers.Sweeper{
		Votes:       deps.Votes,
		Coordinator: coordinator,
		Logger:      deps.Logger,
	}
	relay := workers.OutboxRelay{
		Outbox:    deps.OutboxRepo,
		Publisher: deps.Publisher,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Cast:   cast,
			Status: status,
			Logger: deps.Logger,
		},
		Cast:        cast,
		Status:      status,
		Coordinator: coordinator,
		Consumer:    consumer,
		Sweeper:     sweeper,
		OutboxRelay: relay,
	}
}

func NewInMemoryModule(
	audit ports.AuditRecorder,
	publisher ports.EventPublisher,
	subscriber ports.EventSubscriber,
	confirmations ports.ConfirmationSource,
	logger *slog.Logger,
) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Votes:         store,
		Logs:          store,
		Voters:        store,
		Elections:     store,
		Candidates:    store,
		Nodes:         store,
		Confirmations: confirmations,
		Outbox:        store,
		OutboxRepo:    store,
		Publisher:     publisher,
		Subscriber:    subscriber,
		Processed:     store,
		Audit:         audit,
		Clock:         store,
		IDGen:         store,
		Logger:        logger,
	})
	module.Store = store
	return module
}
