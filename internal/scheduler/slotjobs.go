package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/slots"
)

const slotJobTimeout = 5 * time.Minute

// RegisterSlotJobs schedules the nightly slot generation run. The generator
// is idempotent, so overlapping or repeated runs only top up missing rows.
func RegisterSlotJobs(s *Service, generator *slots.Generator, cronExpr string) error {
	if generator == nil {
		return fmt.Errorf("slot jobs require a generator")
	}

	jobLogger := log.With().Str("component", "slot_generation_job").Logger()

	_, err := s.AddJob("slot_generation", cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), slotJobTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		result, err := generator.Generate(ctx, slots.GenerateOptions{})
		if err != nil {
			jobLogger.Error().Err(err).Msg("Slot generation run failed")
			return
		}
		jobLogger.Info().
			Int("slots_created", result.SlotsCreated).
			Int("facilities", result.FacilitiesProcessed).
			Int("courts", result.CourtsProcessed).
			Msg("Slot generation run completed")
	})
	return err
}
