package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	audittrail "electra/contexts/election-trust/audit-trail"
	auditpostgres "electra/contexts/election-trust/audit-trail/adapters/postgres"
	electionservice "electra/contexts/election-trust/election-service"
	electionpostgres "electra/contexts/election-trust/election-service/adapters/postgres"
	electionworkers "electra/contexts/election-trust/election-service/application/workers"
	voteledger "electra/contexts/election-trust/vote-ledger"
	"electra/contexts/election-trust/vote-ledger/adapters/nodesim"
	votepostgres "electra/contexts/election-trust/vote-ledger/adapters/postgres"
	voteworkers "electra/contexts/election-trust/vote-ledger/application/workers"
	"electra/internal/platform/cache"
	"electra/internal/platform/config"
	"electra/internal/platform/db"
	"electra/internal/platform/httpserver"
	"electra/internal/platform/messaging"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	consumer      voteworkers.VoteCastConsumer
	sweeper       voteworkers.Sweeper
	voteRelay     voteworkers.OutboxRelay
	electionRelay electionworkers.OutboxRelay
	pollInterval  time.Duration

	enableConsumer bool
	enableSweeper  bool
	enableRelay    bool

	logger *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	cacheStore := cache.NewStore()

	auditRepo := auditpostgres.NewRepository(pg.DB, logger)
	auditModule := audittrail.NewModule(audittrail.Dependencies{
		Entries: auditRepo,
		Clock:   auditpostgres.SystemClock{},
		IDGen:   auditpostgres.UUIDGenerator{},
		Logger:  logger,
	})

	electionRepo := electionpostgres.NewRepository(pg.DB, logger)
	electionModule := electionservice.NewModule(electionservice.Dependencies{
		Elections:  electionRepo,
		Candidates: electionRepo,
		Nodes:      electionRepo,
		Tallies:    electionRepo,
		Outbox:     electionRepo,
		OutboxRepo: electionRepo,
		Audit:      auditModule.Appender,
		Cache:      cacheStore,
		CacheTTL:   cfg.ElectionStatusCacheTTL,
		Clock:      electionpostgres.SystemClock{},
		IDGen:      electionpostgres.UUIDGenerator{},
		Logger:     logger,
	})

	voteRepo := votepostgres.NewRepository(pg.DB, logger)
	voteModule := voteledger.NewModule(voteledger.Dependencies{
		Votes:                voteRepo,
		Logs:                 voteRepo,
		Voters:               voteRepo,
		Elections:            voteRepo,
		Candidates:           voteRepo,
		Nodes:                voteRepo,
		Confirmations:        nodesim.Confirmer{},
		Outbox:               voteRepo,
		OutboxRepo:           voteRepo,
		Processed:            voteRepo,
		Audit:                auditModule.Appender,
		Cache:                cacheStore,
		CacheTTL:             cfg.VoteStatusCacheTTL,
		Clock:                votepostgres.SystemClock{},
		IDGen:                votepostgres.UUIDGenerator{},
		DefaultConfirmations: cfg.DefaultRequiredConfirmations,
		Logger:               logger,
	})

	server := httpserver.New(electionModule, voteModule, auditModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus, err := messaging.NewBus(cfg.BusBrokers, logger)
	if err != nil {
		return nil, err
	}

	cacheStore := cache.NewStore()

	auditRepo := auditpostgres.NewRepository(pg.DB, logger)
	auditModule := audittrail.NewModule(audittrail.Dependencies{
		Entries: auditRepo,
		Clock:   auditpostgres.SystemClock{},
		IDGen:   auditpostgres.UUIDGenerator{},
		Logger:  logger,
	})

	electionRepo := electionpostgres.NewRepository(pg.DB, logger)
	electionModule := electionservice.NewModule(electionservice.Dependencies{
		Elections:  electionRepo,
		Candidates: electionRepo,
		Nodes:      electionRepo,
		Tallies:    electionRepo,
		Outbox:     electionRepo,
		OutboxRepo: electionRepo,
		Publisher:  bus,
		Audit:      auditModule.Appender,
		Cache:      cacheStore,
		Clock:      electionpostgres.SystemClock{},
		IDGen:      electionpostgres.UUIDGenerator{},
		Logger:     logger,
	})

	voteRepo := votepostgres.NewRepository(pg.DB, logger)
	voteModule := voteledger.NewModule(voteledger.Dependencies{
		Votes:                voteRepo,
		Logs:                 voteRepo,
		Voters:               voteRepo,
		Elections:            voteRepo,
		Candidates:           voteRepo,
		Nodes:                voteRepo,
		Confirmations:        nodesim.Confirmer{Delay: cfg.ConsensusProcessingDelay},
		Outbox:               voteRepo,
		OutboxRepo:           voteRepo,
		Publisher:            bus,
		Subscriber:           bus,
		Processed:            voteRepo,
		Audit:                auditModule.Appender,
		Cache:                cacheStore,
		Clock:                votepostgres.SystemClock{},
		IDGen:                votepostgres.UUIDGenerator{},
		DefaultConfirmations: cfg.DefaultRequiredConfirmations,
		Logger:               logger,
	})

	return &WorkerApp{
		postgres:       pg,
		consumer:       voteModule.Consumer,
		sweeper:        voteModule.Sweeper,
		voteRelay:      voteModule.OutboxRelay,
		electionRelay:  electionModule.OutboxRelay,
		pollInterval:   cfg.WorkerPollInterval,
		enableConsumer: cfg.EnableVoteCastConsumer,
		enableSweeper:  cfg.EnableConsensusSweeper,
		enableRelay:    cfg.EnableOutboxRelay,
		logger:         logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	if w.enableConsumer {
		if err := w.consumer.Start(ctx); err != nil {
			return err
		}
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"consumer_enabled", w.enableConsumer,
		"sweeper_enabled", w.enableSweeper,
		"relay_enabled", w.enableRelay,
	)

	group.Go(func() error {
		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()
		for {
			if w.enableSweeper {
				if err := w.sweeper.RunOnce(ctx); err != nil {
					return err
				}
			}
			if w.enableRelay {
				if err := w.electionRelay.RunOnce(ctx); err != nil {
					return err
				}
				if err := w.voteRelay.RunOnce(ctx); err != nil {
					return err
				}
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	return group.Wait()
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
