package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	campaignservice "soapbox/contexts/advocacy/campaign-service"
	campaignpostgres "soapbox/contexts/advocacy/campaign-service/adapters/postgres"
	endorsementservice "soapbox/contexts/advocacy/endorsement-service"
	"soapbox/contexts/advocacy/endorsement-service/adapters/mail"
	endorsementpostgres "soapbox/contexts/advocacy/endorsement-service/adapters/postgres"
	"soapbox/contexts/advocacy/endorsement-service/adapters/trustsafety"
	"soapbox/contexts/advocacy/endorsement-service/application/commands"
	endorsementworkers "soapbox/contexts/advocacy/endorsement-service/application/workers"
	ratelimitservice "soapbox/contexts/trust-safety/rate-limit-service"
	ratelimitpostgres "soapbox/contexts/trust-safety/rate-limit-service/adapters/postgres"
	ratelimitworkers "soapbox/contexts/trust-safety/rate-limit-service/application/workers"
	spamscreeningservice "soapbox/contexts/trust-safety/spam-screening-service"
	"soapbox/contexts/trust-safety/spam-screening-service/adapters/httpclient"
	spamports "soapbox/contexts/trust-safety/spam-screening-service/ports"
	"soapbox/internal/platform/config"
	"soapbox/internal/platform/db"
	"soapbox/internal/platform/httpserver"
	"soapbox/internal/platform/messaging"
	"soapbox/internal/shared/clientip"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  endorsementworkers.OutboxRelay
	consumer     endorsementworkers.EmailConsumer
	pruner       ratelimitworkers.CounterPruner
	bus          *messaging.Bus
	cfg          config.Config
	pollInterval time.Duration
	logger       *slog.Logger
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

	module := buildEndorsementModule(cfg, pg, nil, logger)
	campaigns := campaignservice.NewModule(campaignservice.Dependencies{
		Directory: campaignpostgres.NewRepository(pg.DB, logger),
		Logger:    logger,
	})
	server := httpserver.New(
		module,
		campaigns,
		clientip.NewResolver(cfg.TrustedProxies),
		cfg.AdminAPIKey,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
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

	bus := messaging.NewBus(logger)
	module := buildEndorsementModule(cfg, pg, bus, logger)
	counterStore := ratelimitpostgres.NewStore(pg.DB, logger)

	return &WorkerApp{
		postgres:    pg,
		outboxRelay: module.OutboxRelay,
		consumer:    module.EmailConsumer,
		pruner: ratelimitworkers.CounterPruner{
			Store:  counterStore,
			Clock:  endorsementpostgres.SystemClock{},
			Logger: logger,
		},
		bus:          bus,
		cfg:          cfg,
		pollInterval: cfg.WorkerPollInterval,
		logger:       logger,
	}, nil
}

// buildEndorsementModule wires the intake pipeline against postgres
// and the trust-safety services. Both processes share this wiring; the
// API passes a nil publisher because only the worker relays the
// outbox.
func buildEndorsementModule(
	cfg config.Config,
	pg *db.Postgres,
	publisher endorsementworkers.EventPublisher,
	logger *slog.Logger,
) endorsementservice.Module {
	repo := endorsementpostgres.NewRepository(pg.DB, logger)

	limiterModule := ratelimitservice.NewModule(ratelimitservice.Dependencies{
		Store:       ratelimitpostgres.NewStore(pg.DB, logger),
		Clock:       endorsementpostgres.SystemClock{},
		Environment: cfg.Environment,
		Logger:      logger,
	})

	var reputation spamports.ReputationChecker
	if strings.TrimSpace(cfg.ReputationAPIURL) != "" {
		reputation = httpclient.NewReputationClient(cfg.ReputationAPIURL, cfg.ReputationAPITimeout)
	}
	screenerModule := spamscreeningservice.NewModule(spamscreeningservice.Dependencies{
		Reputation: reputation,
		Gate: trustsafety.CheckOnlyGate{
			Limiter:     limiterModule.Limiter,
			Purpose:     "endorsement_submit",
			MaxAttempts: cfg.SubmitMaxAttempts,
			Window:      cfg.SubmitWindow,
		},
		Clock:  endorsementpostgres.SystemClock{},
		Logger: logger,
	})

	return endorsementservice.NewModule(endorsementservice.Dependencies{
		Repository: repo,
		Clock:      endorsementpostgres.SystemClock{},
		IDGen:      endorsementpostgres.UUIDGenerator{},
		Tokens:     endorsementpostgres.RandomTokenGenerator{},
		Limiter:    trustsafety.LimiterAdapter{Limiter: limiterModule.Limiter},
		Screener:   trustsafety.ScreenerAdapter{Scorer: screenerModule.Scorer},
		Mailer:     mail.NewLogMailer(logger),
		Publisher:  publisher,
		Logger:     logger,
		Limits: endorsementservice.Limits{
			SubmitMaxAttempts: cfg.SubmitMaxAttempts,
			SubmitWindow:      cfg.SubmitWindow,
			VerifyMaxAttempts: cfg.VerifyMaxAttempts,
			VerifyWindow:      cfg.VerifyWindow,
			ResendMaxAttempts: cfg.ResendMaxAttempts,
			ResendWindow:      cfg.ResendWindow,
		},
		TokenTTL:    cfg.VerificationTTL,
		AutoApprove: cfg.AutoApproveOnVerify,
	})
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
	if w.cfg.EnableEmailConsumer {
		for _, topic := range []string{
			commands.EventTypeVerificationRequested,
			commands.EventTypeEndorsementVerified,
			commands.EventTypeEndorsementSubmitted,
		} {
			if err := w.bus.Subscribe(ctx, topic, w.consumer.Handle); err != nil {
				return err
			}
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if w.cfg.EnableOutboxRelay {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				return err
			}
		}
		if w.cfg.EnableCounterPruner {
			if err := w.pruner.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
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
