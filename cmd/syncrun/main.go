package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"infinite-experiment/kontrollburo/internal/common"
	"infinite-experiment/kontrollburo/internal/config"
	"infinite-experiment/kontrollburo/internal/db"
	"infinite-experiment/kontrollburo/internal/jobs"
	"infinite-experiment/kontrollburo/internal/providers"
	"infinite-experiment/kontrollburo/internal/services"
)

// One-shot job runner for cron-driven deployments. Exits non-zero when the
// run itself fails, so the cron's alerting sees it.
func main() {
	log.SetOutput(os.Stdout)

	jobName := flag.String("job", "", "job to run: endorsement-sync | endorsement-sync-full | roster-sync | roster-sync-full | notify | finalize")
	timeout := flag.Duration("timeout", 30*time.Minute, "hard deadline for the run")
	flag.Parse()

	if *jobName == "" {
		log.Fatal("missing -job flag")
	}

	cfg := config.Load()
	cfg.JobsEnabled = false // never start scheduled loops from the one-shot runner

	gormDB, err := db.InitPostgresORM(db.DSN())
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cache := common.NewCacheService(cfg.PolicyCacheTTL, 10*time.Minute)
	var dataset providers.DatasetSource
	if dp := providers.NewDatasetProvider(cfg); dp != nil {
		dataset = dp
	}
	policies := services.NewPolicyService(cache, dataset, cfg.PolicyCacheTTL)

	container := jobs.InitializeJobs(
		ctx,
		cfg,
		gormDB,
		providers.NewRegistryProvider(cfg),
		providers.NewSessionLogProvider(cfg),
		providers.NewNotifierProvider(cfg),
		policies,
		nil,
	)

	var runErr error
	switch *jobName {
	case "endorsement-sync":
		runErr = container.EndorsementSync.Run(ctx)
	case "endorsement-sync-full":
		runErr = container.EndorsementSync.RunFull(ctx)
	case "roster-sync":
		runErr = container.RosterSync.Run(ctx)
	case "roster-sync-full":
		runErr = container.RosterSync.RunFull(ctx)
	case "notify":
		runErr = container.Notify.Run(ctx)
	case "finalize":
		runErr = container.Finalize.Run(ctx)
	default:
		log.Fatalf("unknown job %q", *jobName)
	}

	if runErr != nil {
		log.Printf("job %s failed: %v", *jobName, runErr)
		os.Exit(1)
	}
	log.Printf("job %s completed", *jobName)
}
