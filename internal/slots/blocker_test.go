package slots_test

import (
	"context"
	"testing"

	"github.com/courtsidehq/courtside/internal/apperr"
	"github.com/courtsidehq/courtside/internal/authz"
	"github.com/courtsidehq/courtside/internal/cache"
	"github.com/courtsidehq/courtside/internal/slots"
	"github.com/courtsidehq/courtside/internal/store"
	"github.com/courtsidehq/courtside/internal/testutil"
)

func newBlockerFixture(t *testing.T) (*store.Store, *slots.Blocker, *store.Court, *authz.Actor) {
	t.Helper()
	st := testutil.NewTestStore(t)
	facility := testutil.SeedFacility(t, st, 10)
	court := testutil.SeedCourt(t, st, facility.ID, 1500)
	testutil.SeedHours(t, st, facility.ID, "09:00", "12:00")

	blocker := slots.NewBlocker(st, cache.NewAvailability(nil, 0), nil)
	owner := &authz.Actor{UserID: 10, Role: authz.RoleFacilityOwner}
	return st, blocker, court, owner
}

func TestBlockMarksOverlappingSlots(t *testing.T) {
	st, blocker, court, owner := newBlockerFixture(t)
	date := testutil.FutureDate(1)

	generator := slots.NewGenerator(st, 2)
	if _, err := generator.Generate(context.Background(), slots.GenerateOptions{}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	blocked, err := blocker.Block(context.Background(), owner, slots.BlockRequest{
		CourtID:   court.ID,
		Date:      date,
		StartTime: "09:00",
		EndTime:   "11:00",
		Reason:    "resurfacing",
	})
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if len(blocked) != 2 {
		t.Fatalf("blocked %d slots, want 2", len(blocked))
	}

	day, err := st.ListSlotsForDay(context.Background(), court.ID, date)
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	for _, slot := range day {
		wantBlocked := slot.StartTime == "09:00" || slot.StartTime == "10:00"
		if slot.IsBlocked != wantBlocked {
			t.Fatalf("slot %s blocked = %v, want %v", slot.StartTime, slot.IsBlocked, wantBlocked)
		}
	}
}

func TestBlockRejectedByActiveBooking(t *testing.T) {
	st, blocker, court, owner := newBlockerFixture(t)
	date := testutil.FutureDate(1)

	created, err := st.InsertPendingBooking(context.Background(), &store.Booking{
		UserID: 1, CourtID: court.ID, FacilityID: court.FacilityID,
		BookingDate: date, StartTime: "10:00", EndTime: "11:00",
		TotalHours: 1, PricePerHourCents: 1500, TotalAmountCents: 1500, FinalAmountCents: 1500,
	})
	if err != nil || !created {
		t.Fatalf("seed booking: created=%v err=%v", created, err)
	}

	_, err = blocker.Block(context.Background(), owner, slots.BlockRequest{
		CourtID:   court.ID,
		Date:      date,
		StartTime: "09:00",
		EndTime:   "12:00",
		Reason:    "resurfacing",
	})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestBlockRequiresOwnership(t *testing.T) {
	_, blocker, court, _ := newBlockerFixture(t)

	stranger := &authz.Actor{UserID: 99, Role: authz.RoleFacilityOwner}
	_, err := blocker.Block(context.Background(), stranger, slots.BlockRequest{
		CourtID:   court.ID,
		Date:      testutil.FutureDate(1),
		StartTime: "09:00",
		EndTime:   "10:00",
		Reason:    "resurfacing",
	})
	if !apperr.IsKind(err, apperr.Forbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestUnblockRefusesBookedSlot(t *testing.T) {
	st, blocker, court, owner := newBlockerFixture(t)
	date := testutil.FutureDate(1)

	slot := &store.TimeSlot{
		CourtID: court.ID, Date: date,
		StartTime: "09:00", EndTime: "10:00", PriceCents: 1500,
	}
	if _, err := st.InsertSlot(context.Background(), slot); err != nil {
		t.Fatalf("insert slot: %v", err)
	}
	if _, err := st.MarkSlotBooked(context.Background(), slot.ID); err != nil {
		t.Fatalf("mark booked: %v", err)
	}

	_, err := blocker.Unblock(context.Background(), owner, slot.ID)
	if !apperr.IsKind(err, apperr.State) {
		t.Fatalf("err = %v, want state error", err)
	}
}

func TestBlockAndUnblockRoundTrip(t *testing.T) {
	st, blocker, court, owner := newBlockerFixture(t)
	date := testutil.FutureDate(1)

	blocked, err := blocker.Block(context.Background(), owner, slots.BlockRequest{
		CourtID:   court.ID,
		Date:      date,
		StartTime: "09:00",
		EndTime:   "10:00",
		Reason:    "net repair",
	})
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if len(blocked) != 1 {
		t.Fatalf("blocked %d slots, want 1", len(blocked))
	}

	slot, err := blocker.Unblock(context.Background(), owner, blocked[0].ID)
	if err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if slot.IsBlocked {
		t.Fatal("slot should no longer be blocked")
	}

	got, err := st.GetSlot(context.Background(), slot.ID)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if got.IsBlocked || got.BlockReason.Valid {
		t.Fatal("block state should be fully cleared")
	}
}
