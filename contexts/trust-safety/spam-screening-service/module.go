package spamscreeningservice

import (
	"log/slog"

	"soapbox/contexts/trust-safety/spam-screening-service/application"
	"soapbox/contexts/trust-safety/spam-screening-service/ports"
)

type Module struct {
	Scorer application.Scorer
}

type Dependencies struct {
	Reputation ports.ReputationChecker
	Gate       ports.RateGate
	Clock      ports.Clock
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Scorer: application.Scorer{
			Reputation: deps.Reputation,
			Gate:       deps.Gate,
			Clock:      deps.Clock,
			Logger:     deps.Logger,
		},
	}
}
