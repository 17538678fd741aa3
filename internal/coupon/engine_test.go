package coupon_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/courtsidehq/courtside/internal/apperr"
	"github.com/courtsidehq/courtside/internal/coupon"
	"github.com/courtsidehq/courtside/internal/store"
	"github.com/courtsidehq/courtside/internal/testutil"
)

func TestValidatePercentageCappedDiscount(t *testing.T) {
	st := testutil.NewTestStore(t)
	testutil.SeedCoupon(t, st, &store.Coupon{
		Code:                   "SAVE20",
		DiscountType:           store.DiscountPercentage,
		DiscountValue:          20,
		MaxDiscountAmountCents: sql.NullInt64{Int64: 100, Valid: true},
	})

	// 20% of 1000 is 200, capped at 100.
	quote, err := coupon.Validate(context.Background(), st, "save20", 1000, 1)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if quote.DiscountCents != 100 {
		t.Fatalf("discount = %d, want 100", quote.DiscountCents)
	}
	if quote.FinalCents != 900 {
		t.Fatalf("final = %d, want 900", quote.FinalCents)
	}
}

func TestValidatePercentageTruncates(t *testing.T) {
	st := testutil.NewTestStore(t)
	testutil.SeedCoupon(t, st, &store.Coupon{
		Code:          "THIRD",
		DiscountType:  store.DiscountPercentage,
		DiscountValue: 33,
	})

	// 33% of 101 is 33.33: integer math truncates to 33.
	quote, err := coupon.Validate(context.Background(), st, "THIRD", 101, 1)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if quote.DiscountCents != 33 {
		t.Fatalf("discount = %d, want 33", quote.DiscountCents)
	}
}

func TestValidateFlatNeverNegative(t *testing.T) {
	st := testutil.NewTestStore(t)
	testutil.SeedCoupon(t, st, &store.Coupon{
		Code:          "BIGFLAT",
		DiscountType:  store.DiscountFlat,
		DiscountValue: 5000,
	})

	quote, err := coupon.Validate(context.Background(), st, "BIGFLAT", 1200, 1)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if quote.FinalCents != 0 {
		t.Fatalf("final = %d, want 0", quote.FinalCents)
	}
	if quote.DiscountCents != 1200 {
		t.Fatalf("discount = %d, want clamped 1200", quote.DiscountCents)
	}
}

func TestValidateExpiredLooksAbsent(t *testing.T) {
	st := testutil.NewTestStore(t)
	c := &store.Coupon{
		Code:          "OLD",
		DiscountType:  store.DiscountFlat,
		DiscountValue: 100,
		ValidFrom:     time.Now().Add(-48 * time.Hour),
		ValidUntil:    time.Now().Add(-24 * time.Hour),
	}
	testutil.SeedCoupon(t, st, c)

	_, err := coupon.Validate(context.Background(), st, "OLD", 1000, 1)
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestValidateMinimumAmountPolicy(t *testing.T) {
	st := testutil.NewTestStore(t)
	testutil.SeedCoupon(t, st, &store.Coupon{
		Code:                  "MIN",
		DiscountType:          store.DiscountFlat,
		DiscountValue:         100,
		MinBookingAmountCents: sql.NullInt64{Int64: 2000, Valid: true},
	})

	_, err := coupon.Validate(context.Background(), st, "MIN", 1500, 1)
	if !apperr.IsKind(err, apperr.Policy) {
		t.Fatalf("err = %v, want policy", err)
	}
}

func TestRedeemEnforcesUsageLimit(t *testing.T) {
	st := testutil.NewTestStore(t)
	c := testutil.SeedCoupon(t, st, &store.Coupon{
		Code:          "ONCE",
		DiscountType:  store.DiscountFlat,
		DiscountValue: 100,
		UsageLimit:    sql.NullInt64{Int64: 1, Valid: true},
	})
	ctx := context.Background()

	quote, err := coupon.Validate(ctx, st, "ONCE", 1000, 1)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := coupon.Redeem(ctx, st, quote, 101, 1); err != nil {
		t.Fatalf("first redeem: %v", err)
	}

	// The limit is now exhausted: validation and redemption both refuse.
	if _, err := coupon.Validate(ctx, st, "ONCE", 1000, 2); !apperr.IsKind(err, apperr.Policy) {
		t.Fatalf("validate after exhaustion: %v, want policy", err)
	}
	if err := coupon.Redeem(ctx, st, quote, 102, 2); !apperr.IsKind(err, apperr.Policy) {
		t.Fatalf("redeem after exhaustion: %v, want policy", err)
	}

	got, err := st.GetCouponByCode(ctx, c.Code)
	if err != nil {
		t.Fatalf("get coupon: %v", err)
	}
	if got.CurrentUsage != 1 {
		t.Fatalf("current_usage = %d, want 1", got.CurrentUsage)
	}
}

func TestValidatePerUserLimit(t *testing.T) {
	st := testutil.NewTestStore(t)
	testutil.SeedCoupon(t, st, &store.Coupon{
		Code:           "PERUSER",
		DiscountType:   store.DiscountFlat,
		DiscountValue:  100,
		UserUsageLimit: sql.NullInt64{Int64: 1, Valid: true},
	})
	ctx := context.Background()

	quote, err := coupon.Validate(ctx, st, "PERUSER", 1000, 7)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := coupon.Redeem(ctx, st, quote, 201, 7); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	if _, err := coupon.Validate(ctx, st, "PERUSER", 1000, 7); !apperr.IsKind(err, apperr.Policy) {
		t.Fatalf("same user revalidation: %v, want policy", err)
	}
	if _, err := coupon.Validate(ctx, st, "PERUSER", 1000, 8); err != nil {
		t.Fatalf("other user should still validate: %v", err)
	}
}
