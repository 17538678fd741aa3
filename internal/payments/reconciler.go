// Package payments reconciles asynchronous gateway events against bookings.
// Events can arrive late, duplicated, or out of order; every handler is a
// conditional state transition, so replays settle into no-ops.
package payments

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/courtsidehq/courtside/internal/apperr"
	"github.com/courtsidehq/courtside/internal/cache"
	"github.com/courtsidehq/courtside/internal/notify"
	"github.com/courtsidehq/courtside/internal/store"
)

const (
	EventPaymentSucceeded = "payment-succeeded"
	EventSessionExpired   = "payment-session-expired"
	EventPaymentFailed    = "payment-failed"
)

// Event is a normalized gateway callback.
type Event struct {
	Kind             string `json:"kind"`
	EventID          string `json:"event_id"`
	BookingID        int64  `json:"booking_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	TransactionID    string `json:"transaction_id"`
	FailureReason    string `json:"failure_reason"`
}

// Reconciler applies gateway events to booking and payment state.
type Reconciler struct {
	store    *store.Store
	notifier notify.Notifier
	cache    *cache.Availability
}

func NewReconciler(st *store.Store, n notify.Notifier, c *cache.Availability) *Reconciler {
	if n == nil {
		n = notify.LogNotifier{}
	}
	return &Reconciler{store: st, notifier: n, cache: c}
}

// HandleEvent applies one gateway event. It reports whether the event changed
// any state; a duplicate delivery returns (false, nil). A NotFound error
// means the event references an unknown booking and should be acknowledged,
// not retried.
func (r *Reconciler) HandleEvent(ctx context.Context, ev Event) (bool, error) {
	switch ev.Kind {
	case EventPaymentSucceeded:
		return r.handleSucceeded(ctx, ev)
	case EventSessionExpired:
		return r.handleExpired(ctx, ev)
	case EventPaymentFailed:
		return r.handleFailed(ctx, ev)
	default:
		return false, apperr.Validationf("unknown payment event kind %q", ev.Kind)
	}
}

// handleSucceeded confirms the booking, completes the payment, and marks the
// slot. The PENDING to CONFIRMED transition is the idempotency gate: a replay
// finds the booking already CONFIRMED and changes nothing.
func (r *Reconciler) handleSucceeded(ctx context.Context, ev Event) (bool, error) {
	var b *store.Booking
	applied := false
	err := r.store.RunInTx(ctx, func(tx *store.Store) error {
		var err error
		b, err = tx.GetBooking(ctx, ev.BookingID)
		if err != nil {
			return err
		}

		ok, err := tx.TransitionBooking(ctx, b.ID, store.BookingPending, store.BookingConfirmed, "")
		if err != nil {
			return err
		}
		if !ok {
			// Already confirmed, or cancelled before the event arrived.
			return nil
		}

		if _, err := tx.CompletePayment(ctx, b.ID, ev.GatewayPaymentID, ev.TransactionID); err != nil {
			return err
		}

		if b.TimeSlotID.Valid {
			marked, err := tx.MarkSlotBooked(ctx, b.TimeSlotID.Int64)
			if err != nil {
				return err
			}
			if !marked {
				return apperr.Conflictf("slot %d for booking %d could not be marked booked", b.TimeSlotID.Int64, b.ID)
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if !applied {
		log.Ctx(ctx).Info().Int64("booking_id", ev.BookingID).Str("event_id", ev.EventID).
			Msg("Ignoring payment success for non-PENDING booking")
		return false, nil
	}

	r.afterApply(ctx, b, notify.EventBookingConfirmed, store.BookingConfirmed)
	return true, nil
}

func (r *Reconciler) handleExpired(ctx context.Context, ev Event) (bool, error) {
	var b *store.Booking
	applied := false
	err := r.store.RunInTx(ctx, func(tx *store.Store) error {
		var err error
		b, err = tx.GetBooking(ctx, ev.BookingID)
		if err != nil {
			return err
		}

		ok, err := tx.TransitionBooking(ctx, b.ID, store.BookingPending, store.BookingCancelled, "payment session expired")
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if _, err := tx.CancelPayment(ctx, b.ID); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}

	r.afterApply(ctx, b, notify.EventBookingCancelled, store.BookingCancelled)
	return true, nil
}

func (r *Reconciler) handleFailed(ctx context.Context, ev Event) (bool, error) {
	var b *store.Booking
	applied := false
	err := r.store.RunInTx(ctx, func(tx *store.Store) error {
		var p *store.Payment
		var err error
		if ev.BookingID != 0 {
			p, err = tx.GetPaymentByBooking(ctx, ev.BookingID)
		} else {
			p, err = tx.GetPaymentByGatewayID(ctx, ev.GatewayPaymentID)
		}
		if err != nil {
			return err
		}
		b, err = tx.GetBooking(ctx, p.BookingID)
		if err != nil {
			return err
		}

		ok, err := tx.TransitionBooking(ctx, b.ID, store.BookingPending, store.BookingCancelled, "payment failed")
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if _, err := tx.FailPayment(ctx, p.ID, ev.FailureReason); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}

	r.afterApply(ctx, b, notify.EventBookingCancelled, store.BookingCancelled)
	return true, nil
}

func (r *Reconciler) afterApply(ctx context.Context, b *store.Booking, kind string, status store.BookingStatus) {
	if err := r.cache.InvalidateDay(ctx, b.CourtID, b.BookingDate); err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("court_id", b.CourtID).Msg("Availability cache invalidation failed")
	}
	r.notifier.BookingEvent(ctx, notify.Event{
		Kind:       kind,
		BookingID:  b.ID,
		UserID:     b.UserID,
		FacilityID: b.FacilityID,
		CourtID:    b.CourtID,
		Date:       b.BookingDate,
		StartTime:  b.StartTime,
		Status:     string(status),
	})
}
