package endorsementservice

import (
	"context"
	"log/slog"
	"time"

	httpadapter "soapbox/contexts/advocacy/endorsement-service/adapters/http"
	"soapbox/contexts/advocacy/endorsement-service/adapters/mail"
	"soapbox/contexts/advocacy/endorsement-service/adapters/memory"
	"soapbox/contexts/advocacy/endorsement-service/application/commands"
	"soapbox/contexts/advocacy/endorsement-service/application/queries"
	"soapbox/contexts/advocacy/endorsement-service/application/workers"
	"soapbox/contexts/advocacy/endorsement-service/ports"
)

// Limits bundles the per-purpose rate-limit knobs so callers wire them
// once instead of threading six numbers through every use case.
type Limits struct {
	SubmitMaxAttempts int
	SubmitWindow      time.Duration
	VerifyMaxAttempts int
	VerifyWindow      time.Duration
	ResendMaxAttempts int
	ResendWindow      time.Duration
}

type Module struct {
	Submit  commands.SubmitEndorsementUseCase
	Verify  commands.VerifyEmailUseCase
	Resend  commands.ResendVerificationUseCase
	Review  commands.ReviewEndorsementUseCase
	Curate  commands.CurateDisplayUseCase
	Queries queries.QueryUseCase

	Handler       httpadapter.Handler
	OutboxRelay   workers.OutboxRelay
	EmailConsumer workers.EmailConsumer

	// Store is set only by NewInMemoryModule, for tests.
	Store *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Tokens     ports.TokenGenerator
	Limiter    ports.RateLimiter
	Screener   ports.SpamScreener
	Mailer     ports.Mailer
	Publisher  workers.EventPublisher
	Logger     *slog.Logger

	Limits      Limits
	TokenTTL    time.Duration
	AutoApprove bool
}

func NewModule(deps Dependencies) Module {
	module := Module{
		Submit: commands.SubmitEndorsementUseCase{
			Repository:  deps.Repository,
			Clock:       deps.Clock,
			IDGen:       deps.IDGen,
			Tokens:      deps.Tokens,
			Limiter:     deps.Limiter,
			Screener:    deps.Screener,
			Logger:      deps.Logger,
			MaxAttempts: deps.Limits.SubmitMaxAttempts,
			Window:      deps.Limits.SubmitWindow,
		},
		Verify: commands.VerifyEmailUseCase{
			Repository:  deps.Repository,
			Clock:       deps.Clock,
			IDGen:       deps.IDGen,
			Limiter:     deps.Limiter,
			Logger:      deps.Logger,
			TokenTTL:    deps.TokenTTL,
			AutoApprove: deps.AutoApprove,
			MaxAttempts: deps.Limits.VerifyMaxAttempts,
			Window:      deps.Limits.VerifyWindow,
		},
		Resend: commands.ResendVerificationUseCase{
			Repository:  deps.Repository,
			Clock:       deps.Clock,
			IDGen:       deps.IDGen,
			Tokens:      deps.Tokens,
			Limiter:     deps.Limiter,
			Logger:      deps.Logger,
			MaxAttempts: deps.Limits.ResendMaxAttempts,
			Window:      deps.Limits.ResendWindow,
		},
		Review: commands.ReviewEndorsementUseCase{
			Repository: deps.Repository,
			Clock:      deps.Clock,
			Logger:     deps.Logger,
		},
		Curate: commands.CurateDisplayUseCase{
			Repository: deps.Repository,
			Clock:      deps.Clock,
			Logger:     deps.Logger,
		},
		Queries: queries.QueryUseCase{
			Repository: deps.Repository,
			Logger:     deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Repository,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
		EmailConsumer: workers.EmailConsumer{
			Mailer: deps.Mailer,
			Logger: deps.Logger,
		},
	}
	module.Handler = httpadapter.Handler{
		Submit:  module.Submit,
		Verify:  module.Verify,
		Resend:  module.Resend,
		Review:  module.Review,
		Curate:  module.Curate,
		Queries: module.Queries,
		Logger:  deps.Logger,
	}
	return module
}

// InMemoryOptions tweaks the test module; zero values get sensible
// defaults.
type InMemoryOptions struct {
	Limiter     ports.RateLimiter
	Screener    ports.SpamScreener
	Mailer      ports.Mailer
	Publisher   workers.EventPublisher
	Limits      Limits
	TokenTTL    time.Duration
	AutoApprove bool
}

func NewInMemoryModule(opts InMemoryOptions, logger *slog.Logger) Module {
	store := memory.NewStore()

	limits := opts.Limits
	if limits.SubmitMaxAttempts == 0 {
		limits.SubmitMaxAttempts = 5
		limits.SubmitWindow = time.Hour
	}
	if limits.VerifyMaxAttempts == 0 {
		limits.VerifyMaxAttempts = 10
		limits.VerifyWindow = time.Hour
	}
	if limits.ResendMaxAttempts == 0 {
		limits.ResendMaxAttempts = 3
		limits.ResendWindow = time.Hour
	}
	tokenTTL := opts.TokenTTL
	if tokenTTL == 0 {
		tokenTTL = 24 * time.Hour
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = allowAllLimiter{}
	}
	screener := opts.Screener
	if screener == nil {
		screener = allowAllScreener{}
	}
	mailer := opts.Mailer
	if mailer == nil {
		mailer = mail.NewLogMailer(logger)
	}

	module := NewModule(Dependencies{
		Repository:  store,
		Clock:       store,
		IDGen:       store,
		Tokens:      store,
		Limiter:     limiter,
		Screener:    screener,
		Mailer:      mailer,
		Publisher:   opts.Publisher,
		Logger:      logger,
		Limits:      limits,
		TokenTTL:    tokenTTL,
		AutoApprove: opts.AutoApprove,
	})
	module.Store = store
	return module
}

type allowAllLimiter struct{}

func (allowAllLimiter) Check(_ context.Context, _, _ string, maxAttempts int, _ time.Duration) ports.RateLimitDecision {
	return ports.RateLimitDecision{Allowed: true, Remaining: maxAttempts}
}

func (allowAllLimiter) Record(_ context.Context, _, _ string, _ time.Duration) {}

type allowAllScreener struct{}

func (allowAllScreener) Screen(_ context.Context, _ ports.SpamInput) ports.SpamScreenResult {
	return ports.SpamScreenResult{Recommendation: "allow"}
}
