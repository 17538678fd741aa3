// cmd/tools/slotgen/main.go
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/slots"
	"github.com/courtsidehq/courtside/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config file")
		facilityID = flag.Int64("facility", 0, "restrict generation to one facility (0 = all)")
		days       = flag.Int("days", 0, "horizon override in days (0 = configured horizon)")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	st, err := store.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	generator := slots.NewGenerator(st, cfg.Booking.HorizonDays)
	result, err := generator.Generate(ctx, slots.GenerateOptions{
		FacilityID:  *facilityID,
		HorizonDays: *days,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Slot generation failed")
	}

	log.Info().
		Int("slots_created", result.SlotsCreated).
		Int("facilities", result.FacilitiesProcessed).
		Int("courts", result.CourtsProcessed).
		Msg("Slot generation complete")
}
