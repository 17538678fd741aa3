// internal/api/courts/handlers.go
package courts

import (
	"net/http"

	"github.com/courtsidehq/courtside/internal/api/apiutil"
	"github.com/courtsidehq/courtside/internal/authz"
	"github.com/courtsidehq/courtside/internal/slots"
)

type Handlers struct {
	availability *slots.Availability
	blocker      *slots.Blocker
}

func NewHandlers(availability *slots.Availability, blocker *slots.Blocker) *Handlers {
	return &Handlers{availability: availability, blocker: blocker}
}

func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/courts/{id}/availability", h.HandleAvailability)
	mux.HandleFunc("POST /api/v1/courts/{id}/blocks", h.HandleBlock)
	mux.HandleFunc("DELETE /api/v1/slots/{id}/block", h.HandleUnblock)
}

type availabilityResponse struct {
	CourtID int64            `json:"court_id"`
	Date    string           `json:"date"`
	Slots   []slots.HourSlot `json:"slots"`
}

// GET /api/v1/courts/{id}/availability?date=YYYY-MM-DD
func (h *Handlers) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	courtID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	date, err := apiutil.RequiredQuery(r, "date")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	day, err := h.availability.Day(r.Context(), courtID, date)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, availabilityResponse{CourtID: courtID, Date: date, Slots: day})
}

type blockRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason"`
}

type blockResponse struct {
	CourtID      int64   `json:"court_id"`
	Date         string  `json:"date"`
	BlockedSlots []int64 `json:"blocked_slot_ids"`
}

// POST /api/v1/courts/{id}/blocks
func (h *Handlers) HandleBlock(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	courtID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req blockRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid request body", Err: err})
		return
	}

	blocked, err := h.blocker.Block(r.Context(), actor, slots.BlockRequest{
		CourtID:   courtID,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Reason:    req.Reason,
	})
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	ids := make([]int64, 0, len(blocked))
	for _, slot := range blocked {
		ids = append(ids, slot.ID)
	}
	_ = apiutil.WriteJSON(w, http.StatusCreated, blockResponse{CourtID: courtID, Date: req.Date, BlockedSlots: ids})
}

// DELETE /api/v1/slots/{id}/block
func (h *Handlers) HandleUnblock(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	slotID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	slot, err := h.blocker.Unblock(r.Context(), actor, slotID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"slot_id": slot.ID,
		"blocked": slot.IsBlocked,
	})
}
