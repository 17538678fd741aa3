package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/courtsidehq/courtside/internal/apperr"
)

// CreateCoupon inserts a coupon with its code normalized to uppercase. A
// duplicate code reports ConflictError.
func (s *Store) CreateCoupon(ctx context.Context, c *Coupon) error {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO coupons (
			code, discount_type, discount_value, min_booking_amount_cents, max_discount_amount_cents,
			usage_limit, user_usage_limit, current_usage, valid_from, valid_until, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		c.Code, c.DiscountType, c.DiscountValue, c.MinBookingAmountCents, c.MaxDiscountAmountCents,
		c.UsageLimit, c.UserUsageLimit, c.ValidFrom, c.ValidUntil, c.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflictf("coupon code %s already exists", c.Code)
		}
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	c.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get coupon id: %w", err)
	}
	return nil
}

func (s *Store) GetCouponByCode(ctx context.Context, code string) (*Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	var c Coupon
	err := s.q.QueryRowContext(ctx,
		`SELECT id, code, discount_type, discount_value, min_booking_amount_cents, max_discount_amount_cents,
		        usage_limit, user_usage_limit, current_usage, valid_from, valid_until, is_active
		 FROM coupons WHERE code = ?`, code,
	).Scan(&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.MinBookingAmountCents,
		&c.MaxDiscountAmountCents, &c.UsageLimit, &c.UserUsageLimit, &c.CurrentUsage,
		&c.ValidFrom, &c.ValidUntil, &c.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("coupon %s not found", code)
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	return &c, nil
}

// CountCouponUsesByUser counts the user's recorded redemptions of a coupon.
func (s *Store) CountCouponUsesByUser(ctx context.Context, couponID, userID int64) (int64, error) {
	var count int64
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM booking_coupons WHERE coupon_id = ? AND user_id = ?`,
		couponID, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count coupon uses: %w", err)
	}
	return count, nil
}

// IncrementCouponUsage bumps current_usage while re-checking the global limit,
// so concurrent redemptions cannot exceed usage_limit.
func (s *Store) IncrementCouponUsage(ctx context.Context, couponID int64) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		`UPDATE coupons SET current_usage = current_usage + 1
		 WHERE id = ? AND is_active = 1
		   AND (usage_limit IS NULL OR current_usage < usage_limit)`,
		couponID)
	if err != nil {
		return false, fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows > 0, nil
}

func (s *Store) InsertBookingCoupon(ctx context.Context, bookingID, couponID, userID, discountCents int64) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO booking_coupons (booking_id, coupon_id, user_id, discount_cents)
		 VALUES (?, ?, ?, ?)`,
		bookingID, couponID, userID, discountCents)
	if err != nil {
		return fmt.Errorf("failed to record coupon redemption: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return errors.Is(sqliteErr.ExtendedCode, sqlite3.ErrConstraintUnique) ||
			errors.Is(sqliteErr.ExtendedCode, sqlite3.ErrConstraintPrimaryKey)
	}
	return false
}
