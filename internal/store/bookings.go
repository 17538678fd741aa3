package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/courtsidehq/courtside/internal/apperr"
)

// InsertPendingBooking creates a PENDING booking with the availability check
// folded into the INSERT itself: the row is only written when no PENDING or
// CONFIRMED booking overlaps the requested range and no overlapping slot is
// booked or blocked. Zero affected rows is the conflict signal, so two
// concurrent requests for the same slot cannot both succeed.
func (s *Store) InsertPendingBooking(ctx context.Context, b *Booking) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO bookings (
			user_id, court_id, facility_id, time_slot_id, status,
			booking_date, start_time, end_time, total_hours, price_per_hour_cents,
			total_amount_cents, platform_fee_cents, tax_cents, discount_cents, final_amount_cents,
			created_at, updated_at
		)
		SELECT ?, ?, ?, ?, 'PENDING', ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE court_id = ? AND booking_date = ?
			  AND status IN ('PENDING', 'CONFIRMED')
			  AND start_time < ? AND end_time > ?
		)
		AND NOT EXISTS (
			SELECT 1 FROM time_slots
			WHERE court_id = ? AND date = ?
			  AND start_time < ? AND end_time > ?
			  AND (is_booked = 1 OR is_blocked = 1)
		)`,
		b.UserID, b.CourtID, b.FacilityID, b.TimeSlotID,
		b.BookingDate, b.StartTime, b.EndTime, b.TotalHours, b.PricePerHourCents,
		b.TotalAmountCents, b.PlatformFeeCents, b.TaxCents, b.DiscountCents, b.FinalAmountCents,
		time.Now(), time.Now(),
		b.CourtID, b.BookingDate, b.EndTime, b.StartTime,
		b.CourtID, b.BookingDate, b.EndTime, b.StartTime,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return false, nil
	}
	b.ID, err = result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to get booking id: %w", err)
	}
	b.Status = BookingPending
	return true, nil
}

func (s *Store) GetBooking(ctx context.Context, id int64) (*Booking, error) {
	var b Booking
	err := s.q.QueryRowContext(ctx,
		`SELECT id, user_id, court_id, facility_id, time_slot_id, status,
		        booking_date, start_time, end_time, total_hours, price_per_hour_cents,
		        total_amount_cents, platform_fee_cents, tax_cents, discount_cents, final_amount_cents,
		        confirmed_at, cancelled_at, completed_at, no_show_at, cancellation_reason,
		        created_at, updated_at
		 FROM bookings WHERE id = ?`, id,
	).Scan(&b.ID, &b.UserID, &b.CourtID, &b.FacilityID, &b.TimeSlotID, &b.Status,
		&b.BookingDate, &b.StartTime, &b.EndTime, &b.TotalHours, &b.PricePerHourCents,
		&b.TotalAmountCents, &b.PlatformFeeCents, &b.TaxCents, &b.DiscountCents, &b.FinalAmountCents,
		&b.ConfirmedAt, &b.CancelledAt, &b.CompletedAt, &b.NoShowAt, &b.CancellationReason,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("booking %d not found", id)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

// TransitionBooking moves a booking from one status to another, stamping the
// transition timestamp. The status guard is in the UPDATE, so a stale caller
// sees zero affected rows instead of silently overwriting a newer state.
func (s *Store) TransitionBooking(ctx context.Context, id int64, from, to BookingStatus, reason string) (bool, error) {
	var stampColumn string
	switch to {
	case BookingConfirmed:
		stampColumn = "confirmed_at"
	case BookingCancelled:
		stampColumn = "cancelled_at"
	case BookingCompleted:
		stampColumn = "completed_at"
	case BookingNoShow:
		stampColumn = "no_show_at"
	default:
		return false, fmt.Errorf("no transition target %q", to)
	}

	var reasonValue sql.NullString
	if reason != "" {
		reasonValue = sql.NullString{String: reason, Valid: true}
	}

	query := fmt.Sprintf(
		`UPDATE bookings
		 SET status = ?, %s = ?, cancellation_reason = COALESCE(?, cancellation_reason), updated_at = ?
		 WHERE id = ? AND status = ?`, stampColumn)
	result, err := s.q.ExecContext(ctx, query, to, time.Now(), reasonValue, time.Now(), id, from)
	if err != nil {
		return false, fmt.Errorf("failed to transition booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows > 0, nil
}

// CountBookingOverlaps counts PENDING and CONFIRMED bookings whose interval
// overlaps [startTime, endTime) on the given court and day. excludeID skips
// the booking being modified (0 excludes nothing).
func (s *Store) CountBookingOverlaps(ctx context.Context, courtID int64, date, startTime, endTime string, excludeID int64) (int64, error) {
	var count int64
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE court_id = ? AND booking_date = ?
		   AND status IN ('PENDING', 'CONFIRMED')
		   AND start_time < ? AND end_time > ?
		   AND id != ?`,
		courtID, date, endTime, startTime, excludeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count booking overlaps: %w", err)
	}
	return count, nil
}

// ListActiveBookingStarts returns the start times held by PENDING or
// CONFIRMED bookings for a court and day.
func (s *Store) ListActiveBookingStarts(ctx context.Context, courtID int64, date string) (map[string]bool, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT start_time FROM bookings
		 WHERE court_id = ? AND booking_date = ? AND status IN ('PENDING', 'CONFIRMED')`,
		courtID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list booking starts: %w", err)
	}
	defer rows.Close()

	starts := make(map[string]bool)
	for rows.Next() {
		var start string
		if err := rows.Scan(&start); err != nil {
			return nil, fmt.Errorf("failed to scan booking start: %w", err)
		}
		starts[start] = true
	}
	return starts, rows.Err()
}

// RescheduleBooking moves a CONFIRMED booking to a new date/time/slot and
// adds the modification fee. Conditional on the status so a concurrent
// cancellation wins cleanly.
func (s *Store) RescheduleBooking(ctx context.Context, id int64, date, startTime, endTime string, slotID sql.NullInt64, feeCents int64) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		`UPDATE bookings
		 SET booking_date = ?, start_time = ?, end_time = ?, time_slot_id = ?,
		     final_amount_cents = final_amount_cents + ?, updated_at = ?
		 WHERE id = ? AND status = 'CONFIRMED'`,
		date, startTime, endTime, slotID, feeCents, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to reschedule booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows > 0, nil
}

func (s *Store) ListActiveBookingsForUser(ctx context.Context, userID int64) ([]Booking, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, user_id, court_id, facility_id, time_slot_id, status,
		        booking_date, start_time, end_time, total_hours, price_per_hour_cents,
		        total_amount_cents, platform_fee_cents, tax_cents, discount_cents, final_amount_cents,
		        confirmed_at, cancelled_at, completed_at, no_show_at, cancellation_reason,
		        created_at, updated_at
		 FROM bookings
		 WHERE user_id = ? AND status IN ('PENDING', 'CONFIRMED')
		 ORDER BY booking_date, start_time`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user bookings: %w", err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.CourtID, &b.FacilityID, &b.TimeSlotID, &b.Status,
			&b.BookingDate, &b.StartTime, &b.EndTime, &b.TotalHours, &b.PricePerHourCents,
			&b.TotalAmountCents, &b.PlatformFeeCents, &b.TaxCents, &b.DiscountCents, &b.FinalAmountCents,
			&b.ConfirmedAt, &b.CancelledAt, &b.CompletedAt, &b.NoShowAt, &b.CancellationReason,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// AnonymizeBookingsForUser detaches booking history from a deleted account.
// Rows are kept for audit with user_id zeroed.
func (s *Store) AnonymizeBookingsForUser(ctx context.Context, userID int64) (int64, error) {
	result, err := s.q.ExecContext(ctx,
		`UPDATE bookings SET user_id = 0, updated_at = ? WHERE user_id = ?`,
		time.Now(), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to anonymize bookings: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows, nil
}
