package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hvacconnect/marketplace/internal/adapters/database"
	"github.com/hvacconnect/marketplace/internal/adapters/search"
	"github.com/hvacconnect/marketplace/internal/domain/repositories"
	"github.com/hvacconnect/marketplace/internal/infrastructure/clients/postgres"
	"github.com/hvacconnect/marketplace/internal/infrastructure/clients/typesense"
	"github.com/hvacconnect/marketplace/internal/infrastructure/observability"
	"github.com/hvacconnect/marketplace/pkg/config"
)

const pageSize = 200

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	observability.InitLogger("hvac-connect-indexer", os.Getenv("ENV"))

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	var err error
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Err(err).Str("interval", intervalValue).Msg("invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset); err != nil {
			log.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	technicianRepo := database.NewTechnicianAdapter(pgClient)
	specialtyRepo := database.NewSpecialtyAdapter(pgClient)

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Str("collection", typesense.TechniciansCollection).Msg("deleting collection before reindex")
		if err := tsClient.DropSchema(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to delete collection")
		}
	}

	adapter := search.NewTypesenseAdapter(tsClient)
	if err := adapter.InitSchema(ctx); err != nil {
		return err
	}

	indexed, failed := 0, 0
	for offset := 0; ; offset += pageSize {
		technicians, err := technicianRepo.List(ctx, repositories.TechnicianFilter{Limit: pageSize, Offset: offset})
		if err != nil {
			return fmt.Errorf("failed to list technicians at offset %d: %w", offset, err)
		}
		if len(technicians) == 0 {
			break
		}

		ids := make([]string, 0, len(technicians))
		for _, t := range technicians {
			ids = append(ids, t.ID)
		}
		names, err := specialtyRepo.NamesByTechnician(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to load specialties: %w", err)
		}

		for _, t := range technicians {
			t.Specialties = names[t.ID]
			if err := adapter.Index(ctx, t); err != nil {
				failed++
				log.Warn().Err(err).Str("technician_id", t.ID).Msg("failed to index technician")
				continue
			}
			indexed++
		}

		if len(technicians) < pageSize {
			break
		}
	}

	log.Info().Int("indexed", indexed).Int("failed", failed).Msg("indexing complete")
	return nil
}
