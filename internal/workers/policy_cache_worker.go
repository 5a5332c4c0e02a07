package workers

import (
	"context"
	"log"
	"time"

	"infinite-experiment/kontrollburo/internal/services"
)

// PolicyCacheWorker keeps the matching policies for the configured FIRs warm
// so the sync jobs never block on a dataset fetch mid-batch.
type PolicyCacheWorker struct {
	policies *services.PolicyService
	firs     []string
	interval time.Duration
}

func NewPolicyCacheWorker(policies *services.PolicyService, firs []string, interval time.Duration) *PolicyCacheWorker {
	return &PolicyCacheWorker{
		policies: policies,
		firs:     firs,
		interval: interval,
	}
}

// Start warms the cache immediately, then on every tick.
func (w *PolicyCacheWorker) Start(ctx context.Context) {
	w.warm(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[PolicyCacheWorker] Stopped")
			return
		case <-ticker.C:
			w.warm(ctx)
		}
	}
}

func (w *PolicyCacheWorker) warm(ctx context.Context) {
	for _, fir := range w.firs {
		w.policies.Warm(ctx, fir)
	}
	log.Printf("[PolicyCacheWorker] Warmed matching policies for %d FIR(s)", len(w.firs))
}
