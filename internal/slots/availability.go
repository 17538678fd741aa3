package slots

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/cache"
	"github.com/courtsidehq/courtside/internal/store"
)

// HourSlot is one row of the availability view for a court and date.
type HourSlot struct {
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Available  bool   `json:"available"`
	Blocked    bool   `json:"blocked"`
	PriceCents int64  `json:"price_cents"`
}

// Availability computes which hours of a day are bookable for a court.
type Availability struct {
	store        *store.Store
	cache        *cache.Availability
	defaultOpen  string
	defaultClose string
}

func NewAvailability(st *store.Store, c *cache.Availability, defaultOpen, defaultClose string) *Availability {
	if defaultOpen == "" {
		defaultOpen = "06:00"
	}
	if defaultClose == "" {
		defaultClose = "22:00"
	}
	return &Availability{store: st, cache: c, defaultOpen: defaultOpen, defaultClose: defaultClose}
}

// Day returns the ordered hourly availability for a court and date. An hour
// is unavailable when a PENDING or CONFIRMED booking holds its start time or
// when the backing slot is blocked. Served from the cache when possible;
// cache failures fall through to the store.
func (a *Availability) Day(ctx context.Context, courtID int64, date string) ([]HourSlot, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}

	logger := log.Ctx(ctx)

	if payload, ok, err := a.cache.GetDay(ctx, courtID, date); err != nil {
		logger.Warn().Err(err).Int64("court_id", courtID).Msg("Availability cache read failed")
	} else if ok {
		var cached []HourSlot
		if err := json.Unmarshal(payload, &cached); err == nil {
			return cached, nil
		}
		logger.Warn().Int64("court_id", courtID).Msg("Discarding undecodable availability cache entry")
	}

	court, err := a.store.GetCourt(ctx, courtID)
	if err != nil {
		return nil, err
	}

	generated, err := a.store.ListSlotsForDay(ctx, courtID, date)
	if err != nil {
		return nil, err
	}

	bookedStarts, err := a.store.ListActiveBookingStarts(ctx, courtID, date)
	if err != nil {
		return nil, err
	}

	var view []HourSlot
	if len(generated) > 0 {
		view = make([]HourSlot, 0, len(generated))
		for _, slot := range generated {
			unavailable := slot.IsBlocked || slot.IsBooked || bookedStarts[slot.StartTime]
			view = append(view, HourSlot{
				StartTime:  slot.StartTime,
				EndTime:    slot.EndTime,
				Available:  !unavailable,
				Blocked:    slot.IsBlocked,
				PriceCents: slot.PriceCents,
			})
		}
	} else {
		// No generation has happened yet: expose the default grid priced at
		// the court's current rate.
		starts, err := hourlyStarts(a.defaultOpen, a.defaultClose)
		if err != nil {
			return nil, err
		}
		view = make([]HourSlot, 0, len(starts))
		for _, start := range starts {
			startClock := FormatClock(start)
			view = append(view, HourSlot{
				StartTime:  startClock,
				EndTime:    FormatClock(start + slotMinutes),
				Available:  !bookedStarts[startClock],
				PriceCents: court.PricePerHourCents,
			})
		}
	}

	if payload, err := json.Marshal(view); err == nil {
		if err := a.cache.SetDay(ctx, courtID, date, payload); err != nil {
			logger.Warn().Err(err).Int64("court_id", courtID).Msg("Availability cache write failed")
		}
	}

	return view, nil
}
