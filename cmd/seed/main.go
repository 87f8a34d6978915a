package main

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hvacconnect/marketplace/internal/adapters/database"
	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/infrastructure/clients/postgres"
	"github.com/hvacconnect/marketplace/internal/infrastructure/observability"
	"github.com/hvacconnect/marketplace/pkg/config"
)

// seedNamespace keeps catalog ids stable across runs so reseeding is a no-op
var seedNamespace = uuid.MustParse("6f1c7c52-2f7e-4a8e-9d0b-6a3f3b1e9c21")

var catalogServices = []entities.Service{
	{Name: "AC Installation", Description: "Install a new central air or split system", Price: 1500, Duration: "4-8 hours"},
	{Name: "AC Repair", Description: "Diagnose and repair air conditioning faults", Price: 150, Duration: "1-3 hours"},
	{Name: "Duct Cleaning", Description: "Clean supply and return ducts", Price: 300, Duration: "3-5 hours"},
	{Name: "Furnace Repair", Description: "Diagnose and repair gas or electric furnaces", Price: 175, Duration: "1-3 hours"},
	{Name: "Heat Pump Service", Description: "Inspect and service heat pump systems", Price: 200, Duration: "2 hours"},
	{Name: "Seasonal Maintenance", Description: "Pre-season tune-up for heating or cooling", Price: 120, Duration: "1-2 hours"},
	{Name: "Thermostat Installation", Description: "Install or replace a smart thermostat", Price: 90, Duration: "1 hour"},
}

var catalogSpecialties = []string{
	"Air Quality",
	"Commercial HVAC",
	"Cooling",
	"Ductwork",
	"Heat Pumps",
	"Heating",
	"Refrigeration",
	"Smart Thermostats",
}

func main() {
	observability.InitLogger("hvac-connect-seed", os.Getenv("ENV"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to DB")
	}
	defer pgClient.Close()

	ctx := context.Background()

	if err := pgClient.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}
	log.Info().Msg("schema applied")

	if os.Getenv("RESET_DB") == "true" {
		log.Warn().Msg("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				reviews,
				bookings,
				technician_specialties,
				technicians,
				clients,
				specialties,
				services
			CASCADE
		`)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to truncate tables")
		}
	}

	serviceRepo := database.NewServiceAdapter(pgClient)
	specialtyRepo := database.NewSpecialtyAdapter(pgClient)
	now := time.Now()

	for _, s := range catalogServices {
		service := s
		service.ID = uuid.NewSHA1(seedNamespace, []byte("service:"+s.Name)).String()
		service.CreatedAt = now
		service.UpdatedAt = now
		if err := serviceRepo.Create(ctx, &service); err != nil {
			log.Fatal().Err(err).Str("service", s.Name).Msg("failed to seed service")
		}
	}
	log.Info().Int("count", len(catalogServices)).Msg("seeded services")

	for _, name := range catalogSpecialties {
		specialty := &entities.Specialty{
			ID:        uuid.NewSHA1(seedNamespace, []byte("specialty:"+name)).String(),
			Name:      name,
			CreatedAt: now,
		}
		if err := specialtyRepo.Create(ctx, specialty); err != nil {
			log.Fatal().Err(err).Str("specialty", name).Msg("failed to seed specialty")
		}
	}
	log.Info().Int("count", len(catalogSpecialties)).Msg("seeded specialties")
}
