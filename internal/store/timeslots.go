package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtsidehq/courtside/internal/apperr"
)

// InsertSlot creates a time slot, silently skipping duplicates on
// (court_id, date, start_time). It reports whether a row was created, which
// makes repeated generation runs idempotent.
func (s *Store) InsertSlot(ctx context.Context, slot *TimeSlot) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO time_slots (court_id, date, start_time, end_time, price_cents)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (court_id, date, start_time) DO NOTHING`,
		slot.CourtID, slot.Date, slot.StartTime, slot.EndTime, slot.PriceCents,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert time slot: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows > 0 {
		if id, err := result.LastInsertId(); err == nil {
			slot.ID = id
		}
	}
	return rows > 0, nil
}

func (s *Store) GetSlot(ctx context.Context, id int64) (*TimeSlot, error) {
	var slot TimeSlot
	err := s.q.QueryRowContext(ctx,
		`SELECT id, court_id, date, start_time, end_time, price_cents, is_booked, is_blocked, block_reason
		 FROM time_slots WHERE id = ?`, id,
	).Scan(&slot.ID, &slot.CourtID, &slot.Date, &slot.StartTime, &slot.EndTime,
		&slot.PriceCents, &slot.IsBooked, &slot.IsBlocked, &slot.BlockReason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("time slot %d not found", id)
		}
		return nil, fmt.Errorf("failed to get time slot: %w", err)
	}
	return &slot, nil
}

// GetSlotByStart returns the slot for an exact (court, date, start) key, or
// nil when none has been generated.
func (s *Store) GetSlotByStart(ctx context.Context, courtID int64, date, startTime string) (*TimeSlot, error) {
	var slot TimeSlot
	err := s.q.QueryRowContext(ctx,
		`SELECT id, court_id, date, start_time, end_time, price_cents, is_booked, is_blocked, block_reason
		 FROM time_slots WHERE court_id = ? AND date = ? AND start_time = ?`,
		courtID, date, startTime,
	).Scan(&slot.ID, &slot.CourtID, &slot.Date, &slot.StartTime, &slot.EndTime,
		&slot.PriceCents, &slot.IsBooked, &slot.IsBlocked, &slot.BlockReason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get time slot: %w", err)
	}
	return &slot, nil
}

func (s *Store) ListSlotsForDay(ctx context.Context, courtID int64, date string) ([]TimeSlot, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, court_id, date, start_time, end_time, price_cents, is_booked, is_blocked, block_reason
		 FROM time_slots WHERE court_id = ? AND date = ? ORDER BY start_time`,
		courtID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}
	defer rows.Close()
	return scanSlots(rows)
}

// ListSlotsOverlapping returns slots whose [start, end) interval overlaps the
// requested range on the given day.
func (s *Store) ListSlotsOverlapping(ctx context.Context, courtID int64, date, startTime, endTime string) ([]TimeSlot, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, court_id, date, start_time, end_time, price_cents, is_booked, is_blocked, block_reason
		 FROM time_slots
		 WHERE court_id = ? AND date = ? AND start_time < ? AND end_time > ?
		 ORDER BY start_time`,
		courtID, date, endTime, startTime)
	if err != nil {
		return nil, fmt.Errorf("failed to list overlapping slots: %w", err)
	}
	defer rows.Close()
	return scanSlots(rows)
}

func scanSlots(rows *sql.Rows) ([]TimeSlot, error) {
	var slots []TimeSlot
	for rows.Next() {
		var slot TimeSlot
		if err := rows.Scan(&slot.ID, &slot.CourtID, &slot.Date, &slot.StartTime, &slot.EndTime,
			&slot.PriceCents, &slot.IsBooked, &slot.IsBlocked, &slot.BlockReason); err != nil {
			return nil, fmt.Errorf("failed to scan time slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// MarkSlotBooked flips is_booked only when the slot is currently free and not
// blocked. Zero affected rows means another occupant got there first.
func (s *Store) MarkSlotBooked(ctx context.Context, id int64) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		`UPDATE time_slots SET is_booked = 1 WHERE id = ? AND is_booked = 0 AND is_blocked = 0`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark slot booked: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows > 0, nil
}

func (s *Store) FreeSlot(ctx context.Context, id int64) error {
	_, err := s.q.ExecContext(ctx, `UPDATE time_slots SET is_booked = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to free slot: %w", err)
	}
	return nil
}

// BlockSlot marks a slot unavailable for maintenance. The is_booked guard
// keeps blocking and booking mutually exclusive.
func (s *Store) BlockSlot(ctx context.Context, id int64, reason string) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		`UPDATE time_slots SET is_blocked = 1, block_reason = ? WHERE id = ? AND is_booked = 0`,
		reason, id)
	if err != nil {
		return false, fmt.Errorf("failed to block slot: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows > 0, nil
}

// UnblockSlot clears the maintenance flag. Zero affected rows means the slot
// is currently booked (or was never blocked).
func (s *Store) UnblockSlot(ctx context.Context, id int64) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		`UPDATE time_slots SET is_blocked = 0, block_reason = NULL
		 WHERE id = ? AND is_booked = 0 AND is_blocked = 1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to unblock slot: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows > 0, nil
}

// CreateBlockedSlot inserts an already-blocked slot covering a maintenance
// range that had no generated rows.
func (s *Store) CreateBlockedSlot(ctx context.Context, courtID int64, date, startTime, endTime string, priceCents int64, reason string) (*TimeSlot, error) {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO time_slots (court_id, date, start_time, end_time, price_cents, is_blocked, block_reason)
		 VALUES (?, ?, ?, ?, ?, 1, ?)`,
		courtID, date, startTime, endTime, priceCents, reason,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create blocked slot: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get slot id: %w", err)
	}
	return &TimeSlot{
		ID:          id,
		CourtID:     courtID,
		Date:        date,
		StartTime:   startTime,
		EndTime:     endTime,
		PriceCents:  priceCents,
		IsBlocked:   true,
		BlockReason: sql.NullString{String: reason, Valid: true},
	}, nil
}
