package payments_test

import (
	"context"
	"testing"

	"github.com/courtsidehq/courtside/internal/apperr"
	"github.com/courtsidehq/courtside/internal/payments"
	"github.com/courtsidehq/courtside/internal/store"
	"github.com/courtsidehq/courtside/internal/testutil"
)

func seedPendingBooking(t *testing.T) (*store.Store, *store.Booking) {
	t.Helper()
	st := testutil.NewTestStore(t)
	facility := testutil.SeedFacility(t, st, 10)
	court := testutil.SeedCourt(t, st, facility.ID, 2000)
	ctx := context.Background()
	date := testutil.FutureDate(2)

	slot := &store.TimeSlot{
		CourtID: court.ID, Date: date,
		StartTime: "10:00", EndTime: "11:00", PriceCents: 2000,
	}
	if _, err := st.InsertSlot(ctx, slot); err != nil {
		t.Fatalf("insert slot: %v", err)
	}

	b := &store.Booking{
		UserID: 1, CourtID: court.ID, FacilityID: facility.ID,
		BookingDate: date, StartTime: "10:00", EndTime: "11:00",
		TotalHours: 1, PricePerHourCents: 2000, TotalAmountCents: 2000, FinalAmountCents: 2000,
	}
	b.TimeSlotID.Int64, b.TimeSlotID.Valid = slot.ID, true
	created, err := st.InsertPendingBooking(ctx, b)
	if err != nil || !created {
		t.Fatalf("seed booking: created=%v err=%v", created, err)
	}
	if err := st.InsertPayment(ctx, &store.Payment{
		BookingID: b.ID, AmountCents: 2000, TotalAmountCents: 2000,
	}); err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return st, b
}

func TestPaymentSucceededConfirmsBooking(t *testing.T) {
	st, b := seedPendingBooking(t)
	reconciler := payments.NewReconciler(st, nil, nil)
	ctx := context.Background()

	applied, err := reconciler.HandleEvent(ctx, payments.Event{
		Kind:             payments.EventPaymentSucceeded,
		EventID:          "evt-1",
		BookingID:        b.ID,
		GatewayPaymentID: "gw-123",
		TransactionID:    "txn-456",
	})
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if !applied {
		t.Fatal("first delivery should apply")
	}

	got, err := st.GetBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.Status != store.BookingConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", got.Status)
	}

	payment, err := st.GetPaymentByBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if payment.Status != store.PaymentCompleted {
		t.Fatalf("payment status = %s, want COMPLETED", payment.Status)
	}
	if !payment.PaidAt.Valid || payment.GatewayPaymentID.String != "gw-123" {
		t.Fatal("payment should carry gateway references and paid_at")
	}

	slot, err := st.GetSlot(ctx, b.TimeSlotID.Int64)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if !slot.IsBooked {
		t.Fatal("slot should be marked booked")
	}
}

func TestPaymentSucceededIsIdempotent(t *testing.T) {
	st, b := seedPendingBooking(t)
	reconciler := payments.NewReconciler(st, nil, nil)
	ctx := context.Background()

	ev := payments.Event{
		Kind:             payments.EventPaymentSucceeded,
		EventID:          "evt-1",
		BookingID:        b.ID,
		GatewayPaymentID: "gw-123",
		TransactionID:    "txn-456",
	}
	if _, err := reconciler.HandleEvent(ctx, ev); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	applied, err := reconciler.HandleEvent(ctx, ev)
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if applied {
		t.Fatal("duplicate delivery must be a no-op")
	}

	got, err := st.GetBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.Status != store.BookingConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", got.Status)
	}
}

func TestSessionExpiredCancelsPendingBooking(t *testing.T) {
	st, b := seedPendingBooking(t)
	reconciler := payments.NewReconciler(st, nil, nil)
	ctx := context.Background()

	applied, err := reconciler.HandleEvent(ctx, payments.Event{
		Kind:      payments.EventSessionExpired,
		EventID:   "evt-2",
		BookingID: b.ID,
	})
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if !applied {
		t.Fatal("expiry should apply to a PENDING booking")
	}

	got, err := st.GetBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.Status != store.BookingCancelled {
		t.Fatalf("status = %s, want CANCELLED", got.Status)
	}
	if got.CancellationReason.String != "payment session expired" {
		t.Fatalf("reason = %q", got.CancellationReason.String)
	}

	payment, err := st.GetPaymentByBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if payment.Status != store.PaymentCancelled {
		t.Fatalf("payment status = %s, want CANCELLED", payment.Status)
	}
}

func TestExpiryAfterSuccessIsIgnored(t *testing.T) {
	st, b := seedPendingBooking(t)
	reconciler := payments.NewReconciler(st, nil, nil)
	ctx := context.Background()

	if _, err := reconciler.HandleEvent(ctx, payments.Event{
		Kind: payments.EventPaymentSucceeded, BookingID: b.ID, GatewayPaymentID: "gw-1",
	}); err != nil {
		t.Fatalf("success event: %v", err)
	}

	applied, err := reconciler.HandleEvent(ctx, payments.Event{
		Kind: payments.EventSessionExpired, BookingID: b.ID,
	})
	if err != nil {
		t.Fatalf("late expiry: %v", err)
	}
	if applied {
		t.Fatal("expiry after success must not apply")
	}

	got, err := st.GetBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.Status != store.BookingConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", got.Status)
	}
}

func TestPaymentFailedCancelsBooking(t *testing.T) {
	st, b := seedPendingBooking(t)
	reconciler := payments.NewReconciler(st, nil, nil)
	ctx := context.Background()

	applied, err := reconciler.HandleEvent(ctx, payments.Event{
		Kind:          payments.EventPaymentFailed,
		BookingID:     b.ID,
		FailureReason: "card declined",
	})
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if !applied {
		t.Fatal("failure should apply to a PENDING booking")
	}

	payment, err := st.GetPaymentByBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if payment.Status != store.PaymentFailed {
		t.Fatalf("payment status = %s, want FAILED", payment.Status)
	}
	if payment.FailureReason.String != "card declined" {
		t.Fatalf("failure reason = %q", payment.FailureReason.String)
	}
}

func TestUnknownBookingReportsNotFound(t *testing.T) {
	st, _ := seedPendingBooking(t)
	reconciler := payments.NewReconciler(st, nil, nil)

	_, err := reconciler.HandleEvent(context.Background(), payments.Event{
		Kind:      payments.EventPaymentSucceeded,
		BookingID: 9999,
	})
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestUnknownEventKindRejected(t *testing.T) {
	st, _ := seedPendingBooking(t)
	reconciler := payments.NewReconciler(st, nil, nil)

	_, err := reconciler.HandleEvent(context.Background(), payments.Event{Kind: "payment-weird"})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Fatalf("err = %v, want validation", err)
	}
}
