package ratelimitservice

import (
	"log/slog"

	"soapbox/contexts/trust-safety/rate-limit-service/adapters/memory"
	"soapbox/contexts/trust-safety/rate-limit-service/application"
	"soapbox/contexts/trust-safety/rate-limit-service/ports"
)

type Module struct {
	Limiter application.Limiter
	Store   *memory.Store
}

type Dependencies struct {
	Store       ports.CounterStore
	Clock       ports.Clock
	Environment string
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Limiter: application.Limiter{
			Store:       deps.Store,
			Clock:       deps.Clock,
			Environment: deps.Environment,
			Logger:      deps.Logger,
		},
	}
}

func NewInMemoryModule(environment string, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Store:       store,
		Clock:       store,
		Environment: environment,
		Logger:      logger,
	})
	module.Store = store
	return module
}
