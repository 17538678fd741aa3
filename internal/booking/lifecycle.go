// Package booking implements the reservation lifecycle: creating a PENDING
// hold, cancelling, rescheduling, owner status changes, and reviews. Pricing
// is integer cents throughout; the tax rate is expressed in basis points.
package booking

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/apperr"
	"github.com/courtsidehq/courtside/internal/authz"
	"github.com/courtsidehq/courtside/internal/cache"
	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/coupon"
	"github.com/courtsidehq/courtside/internal/notify"
	"github.com/courtsidehq/courtside/internal/slots"
	"github.com/courtsidehq/courtside/internal/store"
)

// Fees carries the pricing and cutoff policy injected from configuration.
type Fees struct {
	PlatformFeeCents        int64
	TaxRateBasisPoints      int64
	ModificationFeeCents    int64
	CancellationCutoffHours int
}

func FeesFromConfig(cfg config.BookingConfig) Fees {
	return Fees{
		PlatformFeeCents:        cfg.PlatformFeeCents,
		TaxRateBasisPoints:      cfg.TaxRateBasisPoints,
		ModificationFeeCents:    cfg.ModificationFeeCents,
		CancellationCutoffHours: cfg.CancellationCutoffHours,
	}
}

// Lifecycle drives bookings through their state machine. All dependencies
// are injected; there is no package-level state.
type Lifecycle struct {
	store    *store.Store
	fees     Fees
	notifier notify.Notifier
	cache    *cache.Availability
	now      func() time.Time
}

func NewLifecycle(st *store.Store, fees Fees, n notify.Notifier, c *cache.Availability) *Lifecycle {
	if n == nil {
		n = notify.LogNotifier{}
	}
	return &Lifecycle{store: st, fees: fees, notifier: n, cache: c, now: time.Now}
}

// CreateRequest asks for a whole-hour reservation on a court.
type CreateRequest struct {
	CourtID    int64
	Date       string
	StartTime  string
	EndTime    string
	CouponCode string
}

// Create places a PENDING booking and its PENDING payment. The hold is the
// booking row itself: the guarded insert refuses the range while any other
// PENDING or CONFIRMED booking overlaps it, so of two concurrent requests for
// the same hour exactly one succeeds. Slots stay unmarked until payment
// confirmation.
func (l *Lifecycle) Create(ctx context.Context, actor *authz.Actor, req CreateRequest) (*store.Booking, error) {
	day, err := slots.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	startMin, err := slots.ParseClock(req.StartTime)
	if err != nil {
		return nil, err
	}
	endMin, err := slots.ParseClock(req.EndTime)
	if err != nil {
		return nil, err
	}
	if endMin <= startMin {
		return nil, apperr.Validationf("end time %s must be after start time %s", req.EndTime, req.StartTime)
	}
	duration := endMin - startMin
	if duration%60 != 0 {
		return nil, apperr.Validationf("bookings must cover whole hours")
	}
	if day.Add(time.Duration(startMin) * time.Minute).Before(l.now()) {
		return nil, apperr.Validationf("cannot book a start time in the past")
	}

	court, err := l.store.GetCourt(ctx, req.CourtID)
	if err != nil {
		return nil, err
	}
	if !court.IsActive {
		return nil, apperr.Statef("court %d is not accepting bookings", court.ID)
	}

	hours := int64(duration / 60)
	total := court.PricePerHourCents * hours

	var quote *coupon.Quote
	if req.CouponCode != "" {
		quote, err = coupon.Validate(ctx, l.store, req.CouponCode, total, actor.UserID)
		if err != nil {
			return nil, err
		}
	}

	var discount int64
	if quote != nil {
		discount = quote.DiscountCents
	}
	tax := total * l.fees.TaxRateBasisPoints / 10000
	final := total + l.fees.PlatformFeeCents + tax - discount
	if final < 0 {
		final = 0
	}

	b := &store.Booking{
		UserID:            actor.UserID,
		CourtID:           court.ID,
		FacilityID:        court.FacilityID,
		BookingDate:       req.Date,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		TotalHours:        hours,
		PricePerHourCents: court.PricePerHourCents,
		TotalAmountCents:  total,
		PlatformFeeCents:  l.fees.PlatformFeeCents,
		TaxCents:          tax,
		DiscountCents:     discount,
		FinalAmountCents:  final,
	}

	err = l.store.RunInTx(ctx, func(tx *store.Store) error {
		// Make sure a slot row exists for the first hour so confirmation has
		// something to mark, then link it to the booking.
		first := &store.TimeSlot{
			CourtID:    court.ID,
			Date:       req.Date,
			StartTime:  req.StartTime,
			EndTime:    slots.FormatClock(startMin + 60),
			PriceCents: court.PricePerHourCents,
		}
		if _, err := tx.InsertSlot(ctx, first); err != nil {
			return err
		}
		if first.ID == 0 {
			existing, err := tx.GetSlotByStart(ctx, court.ID, req.Date, req.StartTime)
			if err != nil {
				return err
			}
			if existing != nil {
				first = existing
			}
		}
		if first.ID != 0 {
			b.TimeSlotID = sql.NullInt64{Int64: first.ID, Valid: true}
		}

		created, err := tx.InsertPendingBooking(ctx, b)
		if err != nil {
			return err
		}
		if !created {
			return apperr.Conflictf("court %d is not available on %s from %s to %s",
				court.ID, req.Date, req.StartTime, req.EndTime)
		}

		if quote != nil {
			if err := coupon.Redeem(ctx, tx, quote, b.ID, actor.UserID); err != nil {
				return err
			}
		}

		return tx.InsertPayment(ctx, &store.Payment{
			BookingID:        b.ID,
			AmountCents:      total,
			PlatformFeeCents: l.fees.PlatformFeeCents,
			TaxCents:         tax,
			TotalAmountCents: final,
		})
	})
	if err != nil {
		return nil, err
	}

	l.invalidate(ctx, b.CourtID, b.BookingDate)
	l.notifier.BookingEvent(ctx, notify.Event{
		Kind:       notify.EventBookingCreated,
		BookingID:  b.ID,
		UserID:     b.UserID,
		FacilityID: b.FacilityID,
		CourtID:    b.CourtID,
		Date:       b.BookingDate,
		StartTime:  b.StartTime,
		Status:     string(store.BookingPending),
	})
	return b, nil
}

// Cancel lets the booking's owner cancel a CONFIRMED booking, provided the
// start time is at least the cutoff window away.
func (l *Lifecycle) Cancel(ctx context.Context, actor *authz.Actor, bookingID int64, reason string) (*store.Booking, error) {
	b, err := l.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireBookingOwner(actor, b.UserID); err != nil {
		return nil, err
	}
	if b.Status != store.BookingConfirmed {
		return nil, apperr.Statef("booking %d is %s and cannot be cancelled", b.ID, b.Status)
	}

	start, err := slots.StartAt(b.BookingDate, b.StartTime)
	if err != nil {
		return nil, err
	}
	cutoff := time.Duration(l.fees.CancellationCutoffHours) * time.Hour
	if start.Sub(l.now()) < cutoff {
		return nil, apperr.Policyf("bookings must be cancelled at least %d hours before the start time",
			l.fees.CancellationCutoffHours)
	}

	err = l.store.RunInTx(ctx, func(tx *store.Store) error {
		ok, err := tx.TransitionBooking(ctx, b.ID, store.BookingConfirmed, store.BookingCancelled, reason)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Statef("booking %d changed state during cancellation", b.ID)
		}
		if b.TimeSlotID.Valid {
			if err := tx.FreeSlot(ctx, b.TimeSlotID.Int64); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.invalidate(ctx, b.CourtID, b.BookingDate)
	l.notifier.BookingEvent(ctx, notify.Event{
		Kind:       notify.EventBookingCancelled,
		BookingID:  b.ID,
		UserID:     b.UserID,
		FacilityID: b.FacilityID,
		CourtID:    b.CourtID,
		Date:       b.BookingDate,
		StartTime:  b.StartTime,
		Status:     string(store.BookingCancelled),
	})
	return l.store.GetBooking(ctx, b.ID)
}

// ModifyRequest reschedules a booking to a new date or start time. The
// duration stays one hour.
type ModifyRequest struct {
	BookingID int64
	Date      string
	StartTime string
}

// Modify moves a CONFIRMED booking to a new hour at least 24 hours before
// the original start. Moving to a different date carries the modification
// fee; same-day moves are free.
func (l *Lifecycle) Modify(ctx context.Context, actor *authz.Actor, req ModifyRequest) (*store.Booking, error) {
	b, err := l.store.GetBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireBookingOwner(actor, b.UserID); err != nil {
		return nil, err
	}
	if b.Status != store.BookingConfirmed {
		return nil, apperr.Statef("booking %d is %s and cannot be modified", b.ID, b.Status)
	}

	originalStart, err := slots.StartAt(b.BookingDate, b.StartTime)
	if err != nil {
		return nil, err
	}
	if originalStart.Sub(l.now()) < 24*time.Hour {
		return nil, apperr.Policyf("bookings can only be modified at least 24 hours before the original start time")
	}

	newDay, err := slots.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	newStartMin, err := slots.ParseClock(req.StartTime)
	if err != nil {
		return nil, err
	}
	newEnd := slots.FormatClock(newStartMin + 60)
	if newDay.Add(time.Duration(newStartMin) * time.Minute).Before(l.now()) {
		return nil, apperr.Validationf("cannot move a booking into the past")
	}

	var fee int64
	if req.Date != b.BookingDate {
		fee = l.fees.ModificationFeeCents
	}

	var updated *store.Booking
	err = l.store.RunInTx(ctx, func(tx *store.Store) error {
		overlaps, err := tx.CountBookingOverlaps(ctx, b.CourtID, req.Date, req.StartTime, newEnd, b.ID)
		if err != nil {
			return err
		}
		if overlaps > 0 {
			return apperr.Conflictf("court %d is not available on %s at %s", b.CourtID, req.Date, req.StartTime)
		}

		dest := &store.TimeSlot{
			CourtID:    b.CourtID,
			Date:       req.Date,
			StartTime:  req.StartTime,
			EndTime:    newEnd,
			PriceCents: b.PricePerHourCents,
		}
		if _, err := tx.InsertSlot(ctx, dest); err != nil {
			return err
		}
		if dest.ID == 0 {
			existing, err := tx.GetSlotByStart(ctx, b.CourtID, req.Date, req.StartTime)
			if err != nil {
				return err
			}
			if existing == nil {
				return apperr.Conflictf("slot %s on %s is not available", req.StartTime, req.Date)
			}
			dest = existing
		}
		if dest.IsBlocked {
			return apperr.Conflictf("slot %s on %s is blocked for maintenance", req.StartTime, req.Date)
		}
		ok, err := tx.MarkSlotBooked(ctx, dest.ID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflictf("slot %s on %s is not available", req.StartTime, req.Date)
		}

		slotID := sql.NullInt64{Int64: dest.ID, Valid: true}
		ok, err = tx.RescheduleBooking(ctx, b.ID, req.Date, req.StartTime, newEnd, slotID, fee)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Statef("booking %d changed state during modification", b.ID)
		}

		if b.TimeSlotID.Valid && b.TimeSlotID.Int64 != dest.ID {
			if err := tx.FreeSlot(ctx, b.TimeSlotID.Int64); err != nil {
				return err
			}
		}

		updated, err = tx.GetBooking(ctx, b.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.invalidate(ctx, b.CourtID, b.BookingDate)
	l.invalidate(ctx, b.CourtID, req.Date)
	l.notifier.BookingEvent(ctx, notify.Event{
		Kind:       notify.EventBookingModified,
		BookingID:  b.ID,
		UserID:     b.UserID,
		FacilityID: b.FacilityID,
		CourtID:    b.CourtID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		Status:     string(store.BookingConfirmed),
	})
	return updated, nil
}

// OwnerSetStatus applies a facility-owner status change. PENDING bookings may
// be confirmed or cancelled; CONFIRMED bookings may be completed, marked
// no-show, or cancelled.
func (l *Lifecycle) OwnerSetStatus(ctx context.Context, actor *authz.Actor, bookingID int64, target store.BookingStatus, reason string) (*store.Booking, error) {
	b, err := l.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	facility, err := l.store.GetFacility(ctx, b.FacilityID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireFacilityOwner(actor, facility.OwnerID); err != nil {
		return nil, err
	}

	allowed := map[store.BookingStatus][]store.BookingStatus{
		store.BookingPending:   {store.BookingConfirmed, store.BookingCancelled},
		store.BookingConfirmed: {store.BookingCompleted, store.BookingNoShow, store.BookingCancelled},
	}
	permitted := false
	for _, t := range allowed[b.Status] {
		if t == target {
			permitted = true
			break
		}
	}
	if !permitted {
		return nil, apperr.Statef("booking %d cannot move from %s to %s", b.ID, b.Status, target)
	}

	err = l.store.RunInTx(ctx, func(tx *store.Store) error {
		ok, err := tx.TransitionBooking(ctx, b.ID, b.Status, target, reason)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Statef("booking %d changed state during update", b.ID)
		}
		if b.TimeSlotID.Valid {
			switch target {
			case store.BookingCancelled:
				return tx.FreeSlot(ctx, b.TimeSlotID.Int64)
			case store.BookingConfirmed:
				if _, err := tx.MarkSlotBooked(ctx, b.TimeSlotID.Int64); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.invalidate(ctx, b.CourtID, b.BookingDate)
	l.notifier.BookingEvent(ctx, notify.Event{
		Kind:       eventKindForStatus(target),
		BookingID:  b.ID,
		UserID:     b.UserID,
		FacilityID: b.FacilityID,
		CourtID:    b.CourtID,
		Date:       b.BookingDate,
		StartTime:  b.StartTime,
		Status:     string(target),
	})
	return l.store.GetBooking(ctx, b.ID)
}

// Review records a rating for the caller's own COMPLETED booking. One review
// per booking.
func (l *Lifecycle) Review(ctx context.Context, actor *authz.Actor, bookingID, rating int64, comment string) (*store.Review, error) {
	b, err := l.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireBookingOwner(actor, b.UserID); err != nil {
		return nil, err
	}
	if b.Status != store.BookingCompleted {
		return nil, apperr.Statef("booking %d is %s and cannot be reviewed", b.ID, b.Status)
	}
	if rating < 1 || rating > 5 {
		return nil, apperr.Validationf("rating must be between 1 and 5")
	}

	r := &store.Review{
		BookingID: b.ID,
		UserID:    actor.UserID,
		Rating:    rating,
	}
	if comment != "" {
		r.Comment = sql.NullString{String: comment, Valid: true}
	}
	if err := l.store.InsertReview(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// EraseUserBookings force-cancels a departing user's active bookings, frees
// their slots, and detaches the history from the account. Admin only.
func (l *Lifecycle) EraseUserBookings(ctx context.Context, actor *authz.Actor, userID int64) (int64, error) {
	if !actor.IsAdmin() {
		return 0, apperr.Forbiddenf("only administrators can erase user data")
	}

	var anonymized int64
	err := l.store.RunInTx(ctx, func(tx *store.Store) error {
		active, err := tx.ListActiveBookingsForUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, b := range active {
			if _, err := tx.TransitionBooking(ctx, b.ID, b.Status, store.BookingCancelled, "account deleted"); err != nil {
				return err
			}
			if b.TimeSlotID.Valid {
				if err := tx.FreeSlot(ctx, b.TimeSlotID.Int64); err != nil {
					return err
				}
			}
			if _, err := tx.CancelPayment(ctx, b.ID); err != nil {
				return err
			}
			l.invalidate(ctx, b.CourtID, b.BookingDate)
		}
		anonymized, err = tx.AnonymizeBookingsForUser(ctx, userID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return anonymized, nil
}

func eventKindForStatus(status store.BookingStatus) string {
	switch status {
	case store.BookingConfirmed:
		return notify.EventBookingConfirmed
	case store.BookingCancelled:
		return notify.EventBookingCancelled
	case store.BookingCompleted:
		return notify.EventBookingCompleted
	case store.BookingNoShow:
		return notify.EventBookingNoShow
	default:
		return "booking.updated"
	}
}

func (l *Lifecycle) invalidate(ctx context.Context, courtID int64, date string) {
	if err := l.cache.InvalidateDay(ctx, courtID, date); err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("court_id", courtID).Msg("Availability cache invalidation failed")
	}
}
