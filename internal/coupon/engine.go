// Package coupon validates and redeems discount codes against booking
// amounts. Validation is read-only; redemption happens inside the booking
// transaction so usage counters never drift from recorded discounts.
package coupon

import (
	"context"
	"time"

	"github.com/courtsidehq/courtside/internal/apperr"
	"github.com/courtsidehq/courtside/internal/store"
)

// Quote is the outcome of validating a coupon against an amount. Amounts are
// integer cents; percentage discounts truncate toward zero.
type Quote struct {
	CouponID      int64  `json:"coupon_id"`
	Code          string `json:"code"`
	DiscountCents int64  `json:"discount_cents"`
	FinalCents    int64  `json:"final_cents"`
}

// Validate checks a coupon against the booking amount and the requesting
// user. A coupon that is inactive or outside its validity window is reported
// as not found, never revealing that the code exists; exhausted limits and an
// unmet minimum amount are policy rejections.
func Validate(ctx context.Context, st *store.Store, code string, amountCents, userID int64) (*Quote, error) {
	c, err := st.GetCouponByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !c.IsActive || now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return nil, apperr.NotFoundf("coupon %s not found", c.Code)
	}
	if c.UsageLimit.Valid && c.CurrentUsage >= c.UsageLimit.Int64 {
		return nil, apperr.Policyf("coupon %s has reached its usage limit", c.Code)
	}
	if c.MinBookingAmountCents.Valid && amountCents < c.MinBookingAmountCents.Int64 {
		return nil, apperr.Policyf("coupon %s requires a booking amount of at least %d cents", c.Code, c.MinBookingAmountCents.Int64)
	}
	if c.UserUsageLimit.Valid {
		uses, err := st.CountCouponUsesByUser(ctx, c.ID, userID)
		if err != nil {
			return nil, err
		}
		if uses >= c.UserUsageLimit.Int64 {
			return nil, apperr.Policyf("coupon %s has reached its per-user limit", c.Code)
		}
	}

	var discount int64
	switch c.DiscountType {
	case store.DiscountPercentage:
		discount = amountCents * c.DiscountValue / 100
	case store.DiscountFlat:
		discount = c.DiscountValue
	default:
		return nil, apperr.Statef("coupon %s has unknown discount type %s", c.Code, c.DiscountType)
	}
	if c.MaxDiscountAmountCents.Valid && discount > c.MaxDiscountAmountCents.Int64 {
		discount = c.MaxDiscountAmountCents.Int64
	}
	if discount > amountCents {
		discount = amountCents
	}

	return &Quote{
		CouponID:      c.ID,
		Code:          c.Code,
		DiscountCents: discount,
		FinalCents:    amountCents - discount,
	}, nil
}

// Redeem consumes one use of a validated coupon and records the redemption
// against the booking. Call it on the transactional store so a failed booking
// never burns a use.
func Redeem(ctx context.Context, st *store.Store, q *Quote, bookingID, userID int64) error {
	ok, err := st.IncrementCouponUsage(ctx, q.CouponID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Policyf("coupon %s has reached its usage limit", q.Code)
	}
	return st.InsertBookingCoupon(ctx, bookingID, q.CouponID, userID, q.DiscountCents)
}

// Engine exposes validation for callers holding only a store handle.
type Engine struct {
	store *store.Store
}

func NewEngine(st *store.Store) *Engine {
	return &Engine{store: st}
}

func (e *Engine) Validate(ctx context.Context, code string, amountCents, userID int64) (*Quote, error) {
	return Validate(ctx, e.store, code, amountCents, userID)
}
