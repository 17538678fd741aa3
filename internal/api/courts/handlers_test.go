package courts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/courtsidehq/courtside/internal/authz"
	"github.com/courtsidehq/courtside/internal/slots"
	"github.com/courtsidehq/courtside/internal/store"
	"github.com/courtsidehq/courtside/internal/testutil"
)

func setupCourtsTest(t *testing.T) (*http.ServeMux, *store.Store, *store.Court) {
	t.Helper()

	st := testutil.NewTestStore(t)
	facility := testutil.SeedFacility(t, st, 10)
	court := testutil.SeedCourt(t, st, facility.ID, 1500)
	testutil.SeedHours(t, st, facility.ID, "09:00", "12:00")

	generator := slots.NewGenerator(st, 3)
	if _, err := generator.Generate(context.Background(), slots.GenerateOptions{}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	availability := slots.NewAvailability(st, nil, "06:00", "22:00")
	blocker := slots.NewBlocker(st, nil, nil)

	mux := http.NewServeMux()
	NewHandlers(availability, blocker).RegisterRoutes(mux)
	return mux, st, court
}

func asActor(req *http.Request, userID int64, role string) *http.Request {
	actor := &authz.Actor{UserID: userID, Role: role}
	return req.WithContext(authz.ContextWithActor(req.Context(), actor))
}

func TestHandleAvailabilityReturnsGrid(t *testing.T) {
	mux, _, court := setupCourtsTest(t)

	url := fmt.Sprintf("/api/v1/courts/%d/availability?date=%s", court.ID, testutil.FutureDate(1))
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		CourtID int64            `json:"court_id"`
		Slots   []slots.HourSlot `json:"slots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CourtID != court.ID {
		t.Fatalf("court_id = %d, want %d", resp.CourtID, court.ID)
	}
	if len(resp.Slots) != 3 {
		t.Fatalf("slots = %d, want 3", len(resp.Slots))
	}
	for _, hs := range resp.Slots {
		if !hs.Available {
			t.Fatalf("slot %s should be available", hs.StartTime)
		}
	}
}

func TestHandleAvailabilityRequiresDate(t *testing.T) {
	mux, _, court := setupCourtsTest(t)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/courts/%d/availability", court.ID), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleBlockOwnerOnly(t *testing.T) {
	mux, _, court := setupCourtsTest(t)
	date := testutil.FutureDate(1)
	body := fmt.Sprintf(`{"date": %q, "start_time": "09:00", "end_time": "10:00", "reason": "repair"}`, date)

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/v1/courts/%d/blocks", court.ID), strings.NewReader(body))
	req = asActor(req, 99, authz.RoleFacilityOwner)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("stranger status = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/v1/courts/%d/blocks", court.ID), strings.NewReader(body))
	req = asActor(req, 10, authz.RoleFacilityOwner)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("owner status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		BlockedSlots []int64 `json:"blocked_slot_ids"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.BlockedSlots) != 1 {
		t.Fatalf("blocked %d slots, want 1", len(resp.BlockedSlots))
	}
}

func TestHandleBlockConflictsWithBooking(t *testing.T) {
	mux, st, court := setupCourtsTest(t)
	date := testutil.FutureDate(1)

	created, err := st.InsertPendingBooking(context.Background(), &store.Booking{
		UserID: 1, CourtID: court.ID, FacilityID: court.FacilityID,
		BookingDate: date, StartTime: "10:00", EndTime: "11:00",
		TotalHours: 1, PricePerHourCents: 1500, TotalAmountCents: 1500, FinalAmountCents: 1500,
	})
	if err != nil || !created {
		t.Fatalf("seed booking: created=%v err=%v", created, err)
	}

	body := fmt.Sprintf(`{"date": %q, "start_time": "09:00", "end_time": "12:00", "reason": "repair"}`, date)
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/v1/courts/%d/blocks", court.ID), strings.NewReader(body))
	req = asActor(req, 10, authz.RoleFacilityOwner)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}
