package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"infinite-experiment/kontrollburo/internal/activity"
	"infinite-experiment/kontrollburo/internal/common"
	"infinite-experiment/kontrollburo/internal/providers"

	"golang.org/x/sync/singleflight"
)

// PolicyService serves the matching policy for a FIR. It overlays the
// per-FIR reference dataset (when configured) on the compiled-in defaults,
// caches the result with a short TTL, and never fails: a broken dataset
// fetch degrades to the defaults.
type PolicyService struct {
	cache   common.CacheInterface
	dataset providers.DatasetSource
	ttl     time.Duration
	group   singleflight.Group
}

// NewPolicyService creates a policy service. dataset may be nil, in which
// case only the compiled-in tables are used.
func NewPolicyService(cache common.CacheInterface, dataset providers.DatasetSource, ttl time.Duration) *PolicyService {
	return &PolicyService{
		cache:   cache,
		dataset: dataset,
		ttl:     ttl,
	}
}

// PolicyFor returns the matching policy to apply for positions in fir.
// Concurrent callers asking for the same FIR share a single dataset fetch.
func (s *PolicyService) PolicyFor(ctx context.Context, fir string) *activity.MatchingPolicy {
	key := "matching_policy:" + fir

	if val, found := s.cache.Get(key); found {
		if p := asPolicy(val); p != nil {
			return p
		}
	}

	val, err, _ := s.group.Do(key, func() (interface{}, error) {
		p := s.buildPolicy(ctx, fir)
		s.cache.Set(key, p, s.ttl)
		return p, nil
	})
	if err != nil || val == nil {
		return activity.DefaultPolicy()
	}
	return val.(*activity.MatchingPolicy)
}

// Warm pre-fills the cache for a FIR. Used by the cache worker.
func (s *PolicyService) Warm(ctx context.Context, fir string) {
	s.cache.Delete("matching_policy:" + fir)
	s.PolicyFor(ctx, fir)
}

func (s *PolicyService) buildPolicy(ctx context.Context, fir string) *activity.MatchingPolicy {
	policy := activity.DefaultPolicy()

	if s.dataset == nil {
		return policy
	}

	ds, err := s.dataset.GetPolicyDataset(ctx, fir)
	if err != nil {
		log.Printf("[PolicyService] Dataset fetch for FIR %s failed, using defaults: %v", fir, err)
		return policy
	}

	for airport, prefixes := range ds.Topdown {
		policy.Topdown[airport] = prefixes
	}
	for alias, sector := range ds.CenterAliases {
		policy.CenterAliases[alias] = sector
	}
	if len(ds.FIRPrefixes) > 0 {
		policy.FIRPrefixes = ds.FIRPrefixes
	}

	return policy
}

// asPolicy recovers a *MatchingPolicy from a cache hit. The in-memory cache
// hands back the typed value; the Redis cache hands back decoded JSON, which
// goes through a round-trip.
func asPolicy(val interface{}) *activity.MatchingPolicy {
	if p, ok := val.(*activity.MatchingPolicy); ok {
		return p
	}

	data, err := json.Marshal(val)
	if err != nil {
		return nil
	}
	var p activity.MatchingPolicy
	if err := json.Unmarshal(data, &p); err != nil || len(p.ViableSuffixes) == 0 {
		return nil
	}
	return &p
}
