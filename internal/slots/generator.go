// Package slots implements slot generation, the availability view and
// maintenance blocking for courts.
package slots

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/store"
)

const slotMinutes = 60

// Generator materializes dated hourly time slots from weekly operating hours.
type Generator struct {
	store       *store.Store
	horizonDays int
}

func NewGenerator(st *store.Store, horizonDays int) *Generator {
	if horizonDays <= 0 {
		horizonDays = 30
	}
	return &Generator{store: st, horizonDays: horizonDays}
}

type GenerateOptions struct {
	// HorizonDays overrides the configured horizon when positive.
	HorizonDays int
	// FacilityID restricts generation to one facility when positive.
	FacilityID int64
}

type GenerateResult struct {
	SlotsCreated        int
	FacilitiesProcessed int
	CourtsProcessed     int
}

// Generate walks facility x day x court and inserts the hourly slots that do
// not exist yet. Safe to re-run: duplicates are skipped by the unique
// (court, date, start) key.
func (g *Generator) Generate(ctx context.Context, opts GenerateOptions) (GenerateResult, error) {
	logger := log.Ctx(ctx)

	horizon := g.horizonDays
	if opts.HorizonDays > 0 {
		horizon = opts.HorizonDays
	}

	var result GenerateResult

	facilities, err := g.targetFacilities(ctx, opts.FacilityID)
	if err != nil {
		return result, err
	}

	now := time.Now()
	for _, facility := range facilities {
		hours, err := g.store.ListOperatingHours(ctx, facility.ID)
		if err != nil {
			return result, err
		}
		courts, err := g.store.ListActiveCourts(ctx, facility.ID)
		if err != nil {
			return result, err
		}
		if len(hours) == 0 || len(courts) == 0 {
			logger.Debug().Int64("facility_id", facility.ID).Msg("Skipping facility without courts or hours")
			continue
		}

		// Direct weekday lookup instead of scanning the rows per day.
		hoursByDay := make(map[int]store.OperatingHours, 7)
		for _, h := range hours {
			hoursByDay[h.DayOfWeek] = h
		}

		result.FacilitiesProcessed++
		result.CourtsProcessed += len(courts)

		for offset := 0; offset < horizon; offset++ {
			day := now.AddDate(0, 0, offset)
			dayHours, open := hoursByDay[int(day.Weekday())]
			if !open {
				continue
			}

			starts, err := hourlyStarts(dayHours.OpensAt, dayHours.ClosesAt)
			if err != nil {
				return result, fmt.Errorf("facility %d has invalid hours: %w", facility.ID, err)
			}

			date := day.Format(store.DateLayout)
			for _, court := range courts {
				for _, start := range starts {
					slot := store.TimeSlot{
						CourtID:    court.ID,
						Date:       date,
						StartTime:  FormatClock(start),
						EndTime:    FormatClock(start + slotMinutes),
						PriceCents: court.PricePerHourCents,
					}
					created, err := g.store.InsertSlot(ctx, &slot)
					if err != nil {
						return result, err
					}
					if created {
						result.SlotsCreated++
					}
				}
			}
		}
	}

	logger.Info().
		Int("slots_created", result.SlotsCreated).
		Int("facilities", result.FacilitiesProcessed).
		Int("courts", result.CourtsProcessed).
		Msg("Slot generation completed")
	return result, nil
}

func (g *Generator) targetFacilities(ctx context.Context, facilityID int64) ([]store.Facility, error) {
	if facilityID > 0 {
		facility, err := g.store.GetFacility(ctx, facilityID)
		if err != nil {
			return nil, err
		}
		return []store.Facility{*facility}, nil
	}
	return g.store.ListFacilities(ctx)
}

// hourlyStarts lists the start minutes of the whole 60-minute slots between
// opening and closing. A trailing partial hour is dropped.
func hourlyStarts(opensAt, closesAt string) ([]int, error) {
	open, err := ParseClock(opensAt)
	if err != nil {
		return nil, err
	}
	closeAt, err := ParseClock(closesAt)
	if err != nil {
		return nil, err
	}

	var starts []int
	for minute := open; minute+slotMinutes <= closeAt; minute += slotMinutes {
		starts = append(starts, minute)
	}
	return starts, nil
}
