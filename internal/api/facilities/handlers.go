// internal/api/facilities/handlers.go
package facilities

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/courtsidehq/courtside/internal/api/apiutil"
	"github.com/courtsidehq/courtside/internal/apperr"
	"github.com/courtsidehq/courtside/internal/authz"
	"github.com/courtsidehq/courtside/internal/slots"
	"github.com/courtsidehq/courtside/internal/store"
)

type Handlers struct {
	store     *store.Store
	generator *slots.Generator
}

func NewHandlers(st *store.Store, generator *slots.Generator) *Handlers {
	return &Handlers{store: st, generator: generator}
}

func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/facilities", h.HandleCreateFacility)
	mux.HandleFunc("POST /api/v1/facilities/{id}/courts", h.HandleCreateCourt)
	mux.HandleFunc("GET /api/v1/facilities/{id}/hours", h.HandleListHours)
	mux.HandleFunc("PUT /api/v1/facilities/{id}/hours/{day}", h.HandleSetHours)
	mux.HandleFunc("DELETE /api/v1/facilities/{id}/hours/{day}", h.HandleCloseDay)
	mux.HandleFunc("POST /api/v1/facilities/{id}/slots/generate", h.HandleGenerateSlots)
}

// requireOwner loads the facility and checks the actor may manage it.
func (h *Handlers) requireOwner(r *http.Request, facilityID int64) (*authz.Actor, *store.Facility, error) {
	actor, err := authz.RequireActor(r.Context())
	if err != nil {
		return nil, nil, err
	}
	facility, err := h.store.GetFacility(r.Context(), facilityID)
	if err != nil {
		return nil, nil, err
	}
	if err := authz.RequireFacilityOwner(actor, facility.OwnerID); err != nil {
		return nil, nil, err
	}
	return actor, facility, nil
}

type createFacilityRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone,omitempty"`
}

// POST /api/v1/facilities
func (h *Handlers) HandleCreateFacility(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if actor.Role != authz.RoleFacilityOwner && !actor.IsAdmin() {
		apiutil.WriteError(w, r, apperr.Forbiddenf("only facility owners can create facilities"))
		return
	}

	var req createFacilityRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid request body", Err: err})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "name", Reason: "is required"})
		return
	}

	facility := &store.Facility{
		OwnerID:  actor.UserID,
		Name:     strings.TrimSpace(req.Name),
		Timezone: req.Timezone,
	}
	if err := h.store.CreateFacility(r.Context(), facility); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":       facility.ID,
		"owner_id": facility.OwnerID,
		"name":     facility.Name,
	})
}

type createCourtRequest struct {
	Name              string `json:"name"`
	PricePerHourCents int64  `json:"price_per_hour_cents"`
}

// POST /api/v1/facilities/{id}/courts
func (h *Handlers) HandleCreateCourt(w http.ResponseWriter, r *http.Request) {
	facilityID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if _, _, err := h.requireOwner(r, facilityID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req createCourtRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid request body", Err: err})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "name", Reason: "is required"})
		return
	}
	if req.PricePerHourCents <= 0 {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "price_per_hour_cents", Reason: "must be greater than 0"})
		return
	}

	court := &store.Court{
		FacilityID:        facilityID,
		Name:              strings.TrimSpace(req.Name),
		PricePerHourCents: req.PricePerHourCents,
		IsActive:          true,
	}
	if err := h.store.CreateCourt(r.Context(), court); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":                   court.ID,
		"facility_id":          court.FacilityID,
		"name":                 court.Name,
		"price_per_hour_cents": court.PricePerHourCents,
	})
}

type hoursEntry struct {
	DayOfWeek int    `json:"day_of_week"`
	OpensAt   string `json:"opens_at"`
	ClosesAt  string `json:"closes_at"`
}

// GET /api/v1/facilities/{id}/hours
func (h *Handlers) HandleListHours(w http.ResponseWriter, r *http.Request) {
	facilityID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if _, err := h.store.GetFacility(r.Context(), facilityID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	hours, err := h.store.ListOperatingHours(r.Context(), facilityID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	entries := make([]hoursEntry, 0, len(hours))
	for _, oh := range hours {
		entries = append(entries, hoursEntry{DayOfWeek: oh.DayOfWeek, OpensAt: oh.OpensAt, ClosesAt: oh.ClosesAt})
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, entries)
}

type setHoursRequest struct {
	OpensAt  string `json:"opens_at"`
	ClosesAt string `json:"closes_at"`
}

// PUT /api/v1/facilities/{id}/hours/{day}
func (h *Handlers) HandleSetHours(w http.ResponseWriter, r *http.Request) {
	facilityID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	day, err := parseDayOfWeek(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if _, _, err := h.requireOwner(r, facilityID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req setHoursRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid request body", Err: err})
		return
	}
	opens, err := slots.ParseClock(req.OpensAt)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	closes, err := slots.ParseClock(req.ClosesAt)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if closes <= opens {
		apiutil.WriteError(w, r, apperr.Validationf("closes_at must be after opens_at"))
		return
	}

	if err := h.store.UpsertOperatingHours(r.Context(), facilityID, day, req.OpensAt, req.ClosesAt); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, hoursEntry{DayOfWeek: day, OpensAt: req.OpensAt, ClosesAt: req.ClosesAt})
}

// DELETE /api/v1/facilities/{id}/hours/{day}
//
// Removing a day's hours closes the facility on that weekday; slot
// generation simply skips it.
func (h *Handlers) HandleCloseDay(w http.ResponseWriter, r *http.Request) {
	facilityID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	day, err := parseDayOfWeek(r)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if _, _, err := h.requireOwner(r, facilityID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	if err := h.store.DeleteOperatingHours(r.Context(), facilityID, day); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type generateResponse struct {
	SlotsCreated        int `json:"slots_created"`
	FacilitiesProcessed int `json:"facilities_processed"`
	CourtsProcessed     int `json:"courts_processed"`
}

// POST /api/v1/facilities/{id}/slots/generate
func (h *Handlers) HandleGenerateSlots(w http.ResponseWriter, r *http.Request) {
	facilityID, err := apiutil.PathID(r, "id")
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if _, _, err := h.requireOwner(r, facilityID); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	opts := slots.GenerateOptions{FacilityID: facilityID}
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			apiutil.WriteError(w, r, apiutil.FieldError{Field: "days", Reason: "must be greater than 0"})
			return
		}
		opts.HorizonDays = days
	}

	result, err := h.generator.Generate(r.Context(), opts)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, generateResponse{
		SlotsCreated:        result.SlotsCreated,
		FacilitiesProcessed: result.FacilitiesProcessed,
		CourtsProcessed:     result.CourtsProcessed,
	})
}

func parseDayOfWeek(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.PathValue("day"))
	day, err := strconv.Atoi(raw)
	if err != nil || day < 0 || day > 6 {
		return 0, apiutil.FieldError{Field: "day", Reason: "must be between 0 (Sunday) and 6 (Saturday)"}
	}
	return day, nil
}
