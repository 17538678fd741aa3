package booking_test

import (
	"context"
	"testing"

	"github.com/courtsidehq/courtside/internal/authz"
	"github.com/courtsidehq/courtside/internal/booking"
	"github.com/courtsidehq/courtside/internal/payments"
	"github.com/courtsidehq/courtside/internal/slots"
	"github.com/courtsidehq/courtside/internal/store"
	"github.com/courtsidehq/courtside/internal/testutil"
)

// TestBookingFlowThroughPayment walks the full reservation path: generate
// slots from operating hours, create a booking that holds the slot as
// PENDING, then confirm it through a gateway success event.
func TestBookingFlowThroughPayment(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewTestStore(t)

	facility := testutil.SeedFacility(t, st, 10)
	court := testutil.SeedCourt(t, st, facility.ID, 2000)
	testutil.SeedHours(t, st, facility.ID, "09:00", "12:00")

	gen := slots.NewGenerator(st, 2)
	result, err := gen.Generate(ctx, slots.GenerateOptions{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// 09:00, 10:00 and 11:00 for today and tomorrow.
	if result.SlotsCreated != 6 {
		t.Fatalf("SlotsCreated = %d, want 6", result.SlotsCreated)
	}

	date := testutil.FutureDate(1)
	daySlots, err := st.ListSlotsForDay(ctx, court.ID, date)
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	if len(daySlots) != 3 {
		t.Fatalf("slots on %s = %d, want 3", date, len(daySlots))
	}

	player := &authz.Actor{UserID: 42, Role: authz.RoleUser}
	lifecycle := booking.NewLifecycle(st, testFees, nil, nil)
	b, err := lifecycle.Create(ctx, player, booking.CreateRequest{
		CourtID:   court.ID,
		Date:      date,
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Status != store.BookingPending {
		t.Fatalf("status = %s, want PENDING", b.Status)
	}

	// The PENDING booking is the hold; the slot itself stays unmarked
	// until the payment lands.
	slot, err := st.GetSlotByStart(ctx, court.ID, date, "09:00")
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if slot.IsBooked {
		t.Fatal("slot marked booked before payment succeeded")
	}

	rec := payments.NewReconciler(st, nil, nil)
	applied, err := rec.HandleEvent(ctx, payments.Event{
		Kind:             payments.EventPaymentSucceeded,
		EventID:          "evt_flow_1",
		BookingID:        b.ID,
		GatewayPaymentID: "gw_flow_1",
		TransactionID:    "txn_flow_1",
	})
	if err != nil || !applied {
		t.Fatalf("HandleEvent: applied=%v err=%v", applied, err)
	}

	got, err := st.GetBooking(ctx, b.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.Status != store.BookingConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", got.Status)
	}
	slot, err = st.GetSlotByStart(ctx, court.ID, date, "09:00")
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if !slot.IsBooked {
		t.Fatal("slot not marked booked after payment succeeded")
	}
}
