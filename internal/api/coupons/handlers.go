// internal/api/coupons/handlers.go
package coupons

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/courtsidehq/courtside/internal/api/apiutil"
	"github.com/courtsidehq/courtside/internal/apperr"
	"github.com/courtsidehq/courtside/internal/authz"
	"github.com/courtsidehq/courtside/internal/coupon"
	"github.com/courtsidehq/courtside/internal/store"
)

type Handlers struct {
	store  *store.Store
	engine *coupon.Engine
}

func NewHandlers(st *store.Store, engine *coupon.Engine) *Handlers {
	return &Handlers{store: st, engine: engine}
}

func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/coupons", h.HandleCreate)
	mux.HandleFunc("POST /api/v1/coupons/validate", h.HandleValidate)
	mux.HandleFunc("GET /api/v1/coupons/{code}", h.HandleGet)
}

type createRequest struct {
	Code                   string `json:"code"`
	DiscountType           string `json:"discount_type"`
	DiscountValue          int64  `json:"discount_value"`
	MinBookingAmountCents  *int64 `json:"min_booking_amount_cents,omitempty"`
	MaxDiscountAmountCents *int64 `json:"max_discount_amount_cents,omitempty"`
	UsageLimit             *int64 `json:"usage_limit,omitempty"`
	UserUsageLimit         *int64 `json:"user_usage_limit,omitempty"`
	ValidFrom              string `json:"valid_from"`
	ValidUntil             string `json:"valid_until"`
}

// POST /api/v1/coupons
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if !actor.IsAdmin() {
		apiutil.WriteError(w, r, apperr.Forbiddenf("only administrators can create coupons"))
		return
	}

	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid request body", Err: err})
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "code", Reason: "is required"})
		return
	}

	discountType := store.DiscountType(strings.ToUpper(strings.TrimSpace(req.DiscountType)))
	switch discountType {
	case store.DiscountPercentage:
		if req.DiscountValue <= 0 || req.DiscountValue > 100 {
			apiutil.WriteError(w, r, apiutil.FieldError{Field: "discount_value", Reason: "must be between 1 and 100 for percentage coupons"})
			return
		}
	case store.DiscountFlat:
		if req.DiscountValue <= 0 {
			apiutil.WriteError(w, r, apiutil.FieldError{Field: "discount_value", Reason: "must be greater than 0"})
			return
		}
	default:
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "discount_type", Reason: "must be PERCENTAGE or FLAT"})
		return
	}

	validFrom, err := time.Parse(time.RFC3339, req.ValidFrom)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "valid_from", Reason: "must be an RFC 3339 timestamp"})
		return
	}
	validUntil, err := time.Parse(time.RFC3339, req.ValidUntil)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "valid_until", Reason: "must be an RFC 3339 timestamp"})
		return
	}
	if !validUntil.After(validFrom) {
		apiutil.WriteError(w, r, apperr.Validationf("valid_until must be after valid_from"))
		return
	}

	c := &store.Coupon{
		Code:          req.Code,
		DiscountType:  discountType,
		DiscountValue: req.DiscountValue,
		ValidFrom:     validFrom,
		ValidUntil:    validUntil,
		IsActive:      true,
	}
	c.MinBookingAmountCents = nullableInt64(req.MinBookingAmountCents)
	c.MaxDiscountAmountCents = nullableInt64(req.MaxDiscountAmountCents)
	c.UsageLimit = nullableInt64(req.UsageLimit)
	c.UserUsageLimit = nullableInt64(req.UserUsageLimit)

	if err := h.store.CreateCoupon(r.Context(), c); err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusCreated, map[string]any{
		"id":   c.ID,
		"code": c.Code,
	})
}

type validateRequest struct {
	Code        string `json:"code"`
	AmountCents int64  `json:"amount_cents"`
}

// POST /api/v1/coupons/validate
func (h *Handlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}

	var req validateRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "invalid request body", Err: err})
		return
	}
	if req.AmountCents <= 0 {
		apiutil.WriteError(w, r, apiutil.FieldError{Field: "amount_cents", Reason: "must be greater than 0"})
		return
	}

	quote, err := h.engine.Validate(r.Context(), req.Code, req.AmountCents, actor.UserID)
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, quote)
}

// GET /api/v1/coupons/{code}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, err := authz.RequireActor(r.Context())
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	if !actor.IsAdmin() {
		apiutil.WriteError(w, r, apperr.Forbiddenf("only administrators can view coupons"))
		return
	}

	c, err := h.store.GetCouponByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		apiutil.WriteError(w, r, err)
		return
	}
	resp := map[string]any{
		"id":             c.ID,
		"code":           c.Code,
		"discount_type":  c.DiscountType,
		"discount_value": c.DiscountValue,
		"current_usage":  c.CurrentUsage,
		"valid_from":     c.ValidFrom.Format(time.RFC3339),
		"valid_until":    c.ValidUntil.Format(time.RFC3339),
		"is_active":      c.IsActive,
	}
	if c.UsageLimit.Valid {
		resp["usage_limit"] = c.UsageLimit.Int64
	}
	if c.MinBookingAmountCents.Valid {
		resp["min_booking_amount_cents"] = c.MinBookingAmountCents.Int64
	}
	if c.MaxDiscountAmountCents.Valid {
		resp["max_discount_amount_cents"] = c.MaxDiscountAmountCents.Int64
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, resp)
}

func nullableInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
