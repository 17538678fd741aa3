// internal/api/bookings/handlers.go
package bookings

import (
	"net/http"
	"strings"

	"github.com/courtsidehq/courtside/internal/api/apiutil"
	"github.com/courtsidehq/courtside/internal/authz"
	"github.com/courtsidehq/courtside/internal/booking"
	"github.com/courtsidehq/courtside/internal/store"
)

type Handlers struct {
	lifecycle *booking.Lifecycle
	store     *store.Store
}

func NewHandlers(lifecycle *booking.Lifecycle, st *store.Store) *Handlers {
	return &Handlers{lifecycle: lifecycle, store: st}
}

func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/bookings", h.HandleCreate)
	mux.HandleFunc("GET /api/v1/bookings/{id}", h.HandleGet)
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", h.HandleCancel)
	mux.HandleFunc("POST /api/v1/bookings/{id}/modify", h.HandleModify)
	mux.HandleFunc("POST /api/v1/bookings/{id}/status", h.HandleSetStatus)
	mux.HandleFunc("POST /api/v1/bookings/{id}/review", h.HandleReview)
	mux.HandleFunc("DELETE /api/v1/users/{id}/bookings", h.HandleEraseUser)
}

type bookingResponse struct {
	ID               int64  `json:"id"`
	UserID           int64  `json:"user_id"`
	CourtID          int64  `json:"court_id"`
	FacilityID       int64  `json:"facility_id"`
	Status           string `json:"status"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	TotalHours       int64  `json:"total_hours"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	PlatformFeeCents int64  `json:"platform_fee_cents"`
	TaxCents         int64  `json:"tax_cents"`
	DiscountCents    int64  `json:"discount_cents"`
	FinalAmountCents int64  `json:"final_amount_cents"`
}

func toBookingResponse(b *store.Booking) bookingResponse {
	return bookingResponse{
		ID:               b.ID,
		UserID:           b.UserID,
		CourtID:          b.CourtID,
		FacilityID:       b.FacilityID,
		Status:           string(b.Status),
		Date:             b.BookingDate,
		StartTime:        b.StartTime,
		EndTime:          b.EndTime,
		TotalHours:       b.TotalHours,
		TotalAmountCents: b.TotalAmountCents,
		PlatformFeeCents: b.PlatformFeeCents,
		TaxCents:         b.TaxCents,
		DiscountCents:    b.DiscountCents,
		FinalAmountCents: b.FinalAmountCents,
	}
}

type createRequest struct {
	CourtID    int64  `json:"court_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	CouponCode string `json:"coupon_code,omitempty"`
}

// POST /api/v1/bookings
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid request body", Err: err})
		return
	}
	if req.CourtID <= 0 {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "court_id", Reason: "must be a positive integer"})
		return
	}

	b, err := h.lifecycle.Create(r.Context(), actor, booking.CreateRequest{
		CourtID:    req.CourtID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusCreated, toBookingResponse(b))
}

// GET /api/v1/bookings/{id}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	b, err := h.store.GetBooking(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if err := authz.RequireBookingOwner(actor, b.UserID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, toBookingResponse(b))
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

// POST /api/v1/bookings/{id}/cancel
func (h *Handlers) HandleCancel(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req cancelRequest
	if r.ContentLength > 0 {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid request body", Err: err})
			return
		}
	}

	b, err := h.lifecycle.Cancel(r.Context(), actor, id, req.Reason)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, toBookingResponse(b))
}

type modifyRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

// POST /api/v1/bookings/{id}/modify
func (h *Handlers) HandleModify(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req modifyRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid request body", Err: err})
		return
	}

	b, err := h.lifecycle.Modify(r.Context(), actor, booking.ModifyRequest{
		BookingID: id,
		Date:      req.Date,
		StartTime: req.StartTime,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, toBookingResponse(b))
}

type setStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// POST /api/v1/bookings/{id}/status
func (h *Handlers) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req setStatusRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid request body", Err: err})
		return
	}

	target := store.BookingStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	switch target {
	case store.BookingConfirmed, store.BookingCancelled, store.BookingCompleted, store.BookingNoShow:
	default:
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "status", Reason: "must be one of CONFIRMED, CANCELLED, COMPLETED, NO_SHOW"})
		return
	}

	b, err := h.lifecycle.OwnerSetStatus(r.Context(), actor, id, target, req.Reason)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, toBookingResponse(b))
}

type reviewRequest struct {
	Rating  int64  `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// POST /api/v1/bookings/{id}/review
func (h *Handlers) HandleReview(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	id, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req reviewRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid request body", Err: err})
		return
	}

	review, err := h.lifecycle.Review(r.Context(), actor, id, req.Rating, req.Comment)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":         review.ID,
		"booking_id": review.BookingID,
		"rating":     review.Rating,
	})
}

// DELETE /api/v1/users/{id}/bookings
func (h *Handlers) HandleEraseUser(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	userID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	anonymized, err := h.lifecycle.EraseUserBookings(r.Context(), actor, userID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"user_id":             userID,
		"bookings_anonymized": anonymized,
	})
}
