package campaignservice

import (
	"log/slog"

	httpadapter "soapbox/contexts/advocacy/campaign-service/adapters/http"
	"soapbox/contexts/advocacy/campaign-service/adapters/memory"
	"soapbox/contexts/advocacy/campaign-service/domain/entities"
	"soapbox/contexts/advocacy/campaign-service/ports"
)

type Module struct {
	Directory ports.Directory
	Handler   httpadapter.Handler
	Store     *memory.Store
}

type Dependencies struct {
	Directory ports.Directory
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Directory: deps.Directory,
		Handler: httpadapter.Handler{
			Directory: deps.Directory,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Campaign, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{Directory: store, Logger: logger})
	module.Store = store
	return module
}
