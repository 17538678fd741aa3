package slots

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/apperr"
	"github.com/courtsidehq/courtside/internal/authz"
	"github.com/courtsidehq/courtside/internal/cache"
	"github.com/courtsidehq/courtside/internal/notify"
	"github.com/courtsidehq/courtside/internal/store"
)

// Blocker takes court hours out of circulation for maintenance. Only the
// owner of the court's facility may block or unblock.
type Blocker struct {
	store    *store.Store
	cache    *cache.Availability
	notifier notify.Notifier
}

func NewBlocker(st *store.Store, c *cache.Availability, n notify.Notifier) *Blocker {
	if n == nil {
		n = notify.LogNotifier{}
	}
	return &Blocker{store: st, cache: c, notifier: n}
}

// BlockRequest describes a maintenance window on a single court and day.
type BlockRequest struct {
	CourtID   int64
	Date      string
	StartTime string
	EndTime   string
	Reason    string
}

// Block marks every slot overlapping the requested range as blocked. The
// range must not touch any PENDING or CONFIRMED booking; a single colliding
// booking rejects the whole request.
func (b *Blocker) Block(ctx context.Context, actor *authz.Actor, req BlockRequest) ([]store.TimeSlot, error) {
	day, err := ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if beforeToday(day, time.Now()) {
		return nil, apperr.Validationf("cannot block slots on a past date")
	}
	startMin, err := ParseClock(req.StartTime)
	if err != nil {
		return nil, err
	}
	endMin, err := ParseClock(req.EndTime)
	if err != nil {
		return nil, err
	}
	if endMin <= startMin {
		return nil, apperr.Validationf("end time %s must be after start time %s", req.EndTime, req.StartTime)
	}
	if req.Reason == "" {
		return nil, apperr.Validationf("a block reason is required")
	}

	court, err := b.store.GetCourt(ctx, req.CourtID)
	if err != nil {
		return nil, err
	}
	facility, err := b.store.GetFacility(ctx, court.FacilityID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireFacilityOwner(actor, facility.OwnerID); err != nil {
		return nil, err
	}

	var blocked []store.TimeSlot
	err = b.store.RunInTx(ctx, func(tx *store.Store) error {
		overlaps, err := tx.CountBookingOverlaps(ctx, req.CourtID, req.Date, req.StartTime, req.EndTime, 0)
		if err != nil {
			return err
		}
		if overlaps > 0 {
			return apperr.Conflictf("%d active booking(s) overlap the requested block window", overlaps)
		}

		slots, err := tx.ListSlotsOverlapping(ctx, req.CourtID, req.Date, req.StartTime, req.EndTime)
		if err != nil {
			return err
		}
		if len(slots) == 0 {
			slot, err := tx.CreateBlockedSlot(ctx, req.CourtID, req.Date, req.StartTime, req.EndTime,
				court.PricePerHourCents, req.Reason)
			if err != nil {
				return err
			}
			blocked = append(blocked, *slot)
			return nil
		}
		for _, slot := range slots {
			ok, err := tx.BlockSlot(ctx, slot.ID, req.Reason)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.Conflictf("slot %s on %s is already booked", slot.StartTime, slot.Date)
			}
			slot.IsBlocked = true
			blocked = append(blocked, slot)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.invalidate(ctx, req.CourtID, req.Date)
	b.notifier.BookingEvent(ctx, notify.Event{
		Kind:       notify.EventSlotBlocked,
		UserID:     actor.UserID,
		FacilityID: facility.ID,
		CourtID:    req.CourtID,
		Date:       req.Date,
		StartTime:  req.StartTime,
	})
	return blocked, nil
}

// Unblock returns a blocked slot to circulation.
func (b *Blocker) Unblock(ctx context.Context, actor *authz.Actor, slotID int64) (*store.TimeSlot, error) {
	slot, err := b.store.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	court, err := b.store.GetCourt(ctx, slot.CourtID)
	if err != nil {
		return nil, err
	}
	facility, err := b.store.GetFacility(ctx, court.FacilityID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireFacilityOwner(actor, facility.OwnerID); err != nil {
		return nil, err
	}
	if slot.IsBooked {
		return nil, apperr.Statef("slot %d is booked and cannot be unblocked", slotID)
	}
	ok, err := b.store.UnblockSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Statef("slot %d is not blocked", slotID)
	}
	slot.IsBlocked = false
	slot.BlockReason.Valid = false

	b.invalidate(ctx, slot.CourtID, slot.Date)
	return slot, nil
}

func (b *Blocker) invalidate(ctx context.Context, courtID int64, date string) {
	if err := b.cache.InvalidateDay(ctx, courtID, date); err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("court_id", courtID).Msg("Availability cache invalidation failed")
	}
}
