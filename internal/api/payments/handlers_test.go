package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	paydomain "github.com/courtsidehq/courtside/internal/payments"
	"github.com/courtsidehq/courtside/internal/store"
	"github.com/courtsidehq/courtside/internal/testutil"
)

func setupWebhookTest(t *testing.T) (*http.ServeMux, *store.Store, *store.Booking) {
	t.Helper()

	st := testutil.NewTestStore(t)
	facility := testutil.SeedFacility(t, st, 10)
	court := testutil.SeedCourt(t, st, facility.ID, 2000)
	ctx := context.Background()

	b := &store.Booking{
		UserID: 1, CourtID: court.ID, FacilityID: facility.ID,
		BookingDate: testutil.FutureDate(2), StartTime: "10:00", EndTime: "11:00",
		TotalHours: 1, PricePerHourCents: 2000, TotalAmountCents: 2000, FinalAmountCents: 2000,
	}
	created, err := st.InsertPendingBooking(ctx, b)
	if err != nil || !created {
		t.Fatalf("seed booking: created=%v err=%v", created, err)
	}
	if err := st.InsertPayment(ctx, &store.Payment{
		BookingID: b.ID, AmountCents: 2000, TotalAmountCents: 2000,
	}); err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	mux := http.NewServeMux()
	NewHandlers(paydomain.NewReconciler(st, nil, nil)).RegisterRoutes(mux)
	return mux, st, b
}

func postWebhook(t *testing.T, mux *http.ServeMux, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestWebhookAppliesSuccess(t *testing.T) {
	mux, st, b := setupWebhookTest(t)

	body := fmt.Sprintf(`{"kind": "payment-succeeded", "event_id": "evt-1", "booking_id": %d, "gateway_payment_id": "gw-1", "transaction_id": "txn-1"}`, b.ID)
	rec := postWebhook(t, mux, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Received bool `json:"received"`
		Applied  bool `json:"applied"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Received || !resp.Applied {
		t.Fatalf("response = %+v, want received and applied", resp)
	}

	got, err := st.GetBooking(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.Status != store.BookingConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", got.Status)
	}
}

func TestWebhookDuplicateDeliveryAcked(t *testing.T) {
	mux, _, b := setupWebhookTest(t)

	body := fmt.Sprintf(`{"kind": "payment-succeeded", "event_id": "evt-1", "booking_id": %d, "gateway_payment_id": "gw-1"}`, b.ID)
	first := postWebhook(t, mux, body)
	if first.Code != http.StatusOK {
		t.Fatalf("first delivery status = %d", first.Code)
	}

	second := postWebhook(t, mux, body)
	if second.Code != http.StatusOK {
		t.Fatalf("duplicate delivery status = %d, want 200", second.Code)
	}
	var resp struct {
		Applied bool `json:"applied"`
	}
	if err := json.Unmarshal(second.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Applied {
		t.Fatal("duplicate delivery must not apply")
	}
}

func TestWebhookUnknownBookingAcked(t *testing.T) {
	mux, _, _ := setupWebhookTest(t)

	rec := postWebhook(t, mux, `{"kind": "payment-succeeded", "event_id": "evt-9", "booking_id": 9999, "gateway_payment_id": "gw-9"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 ack so the gateway stops retrying", rec.Code)
	}
}

func TestWebhookRejectsUnknownKind(t *testing.T) {
	mux, _, _ := setupWebhookTest(t)

	rec := postWebhook(t, mux, `{"kind": "payment-weird", "event_id": "evt-9"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	mux, _, _ := setupWebhookTest(t)

	rec := postWebhook(t, mux, `{"kind": `)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
