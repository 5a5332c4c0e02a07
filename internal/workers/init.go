package workers

import (
	"context"

	"infinite-experiment/kontrollburo/internal/config"
	"infinite-experiment/kontrollburo/internal/services"
)

type WorkersContainer struct {
	PolicyCache *PolicyCacheWorker
}

func InitWorkers(cfg *config.Config, policies *services.PolicyService) *WorkersContainer {
	pcw := NewPolicyCacheWorker(policies, cfg.PolicyFIRs, cfg.PolicyCacheTTL)

	go pcw.Start(context.Background())

	return &WorkersContainer{
		PolicyCache: pcw,
	}
}
