package api

import (
	"infinite-experiment/kontrollburo/internal/common"
	"infinite-experiment/kontrollburo/internal/config"
	"infinite-experiment/kontrollburo/internal/db"
	"infinite-experiment/kontrollburo/internal/db/repositories"
	"infinite-experiment/kontrollburo/internal/providers"
	"infinite-experiment/kontrollburo/internal/services"
)

type Repositories struct {
	Keys         *repositories.KeysRepo
	Endorsements *repositories.EndorsementActivityRepo
	Roster       *repositories.RosterStatusRepo
	SyncHistory  *repositories.SyncHistoryRepo
	Stats        *repositories.StatsRepo
}

type Providers struct {
	Sessions providers.SessionLogSource
	Registry providers.Registry
	Notifier providers.Notifier
}

type Services struct {
	Cache  common.CacheInterface
	Policy *services.PolicyService
}

type Dependencies struct {
	Cfg       *config.Config
	Repo      *Repositories
	Providers *Providers
	Services  *Services
}

// InitDependencies wires repositories, providers and the shared services.
// The jobs container and the status service are built afterwards in the
// router, since they sit on top of these.
func InitDependencies(cfg *config.Config) (*Dependencies, error) {

	repos := &Repositories{
		Keys:         repositories.NewApiKeysRepo(db.DB),
		Endorsements: repositories.NewEndorsementActivityRepo(db.PgDB),
		Roster:       repositories.NewRosterStatusRepo(db.PgDB),
		SyncHistory:  repositories.NewSyncHistoryRepo(db.PgDB),
		Stats:        repositories.NewStatsRepo(db.DB),
	}

	provs := &Providers{
		Sessions: providers.NewSessionLogProvider(cfg),
		Registry: providers.NewRegistryProvider(cfg),
		Notifier: providers.NewNotifierProvider(cfg),
	}

	cacheSvc := common.NewCacheFromEnv()

	var dataset providers.DatasetSource
	if dp := providers.NewDatasetProvider(cfg); dp != nil {
		dataset = dp
	}
	policySvc := services.NewPolicyService(cacheSvc, dataset, cfg.PolicyCacheTTL)

	return &Dependencies{
		Cfg:       cfg,
		Repo:      repos,
		Providers: provs,
		Services: &Services{
			Cache:  cacheSvc,
			Policy: policySvc,
		},
	}, nil
}
