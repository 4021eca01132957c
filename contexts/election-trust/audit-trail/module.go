package audittrail

import (
	"log/slog"

	httpadapter "electra/contexts/election-trust/audit-trail/adapters/http"
	"electra/contexts/election-trust/audit-trail/adapters/memory"
	"electra/contexts/election-trust/audit-trail/application/commands"
	"electra/contexts/election-trust/audit-trail/application/queries"
	"electra/contexts/election-trust/audit-trail/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Appender *commands.Appender
	Store    *memory.Store
}

type Dependencies struct {
	Entries ports.EntryRepository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

func NewModule(deps Dependencies) Module {
	appender := &commands.Appender{
		Entries: deps.Entries,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  deps.Logger,
	}
	chain := queries.ChainUseCase{Entries: deps.Entries}
	return Module{
		Handler: httpadapter.Handler{
			Appender: appender,
			Chain:    chain,
			Logger:   deps.Logger,
		},
		Appender: appender,
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Entries: store,
		Clock:   store,
		IDGen:   store,
		Logger:  logger,
	})
	module.Store = store
	return module
}
