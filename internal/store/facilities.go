package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtsidehq/courtside/internal/apperr"
)

func (s *Store) CreateFacility(ctx context.Context, facility *Facility) error {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO facilities (owner_id, name, timezone) VALUES (?, ?, ?)`,
		facility.OwnerID, facility.Name, facility.Timezone,
	)
	if err != nil {
		return fmt.Errorf("failed to create facility: %w", err)
	}
	facility.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get facility id: %w", err)
	}
	return nil
}

func (s *Store) GetFacility(ctx context.Context, id int64) (*Facility, error) {
	var f Facility
	err := s.q.QueryRowContext(ctx,
		`SELECT id, owner_id, name, timezone, created_at FROM facilities WHERE id = ?`, id,
	).Scan(&f.ID, &f.OwnerID, &f.Name, &f.Timezone, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("facility %d not found", id)
		}
		return nil, fmt.Errorf("failed to get facility: %w", err)
	}
	return &f, nil
}

func (s *Store) ListFacilities(ctx context.Context) ([]Facility, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, owner_id, name, timezone, created_at FROM facilities ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	defer rows.Close()

	var facilities []Facility
	for rows.Next() {
		var f Facility
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.Name, &f.Timezone, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan facility: %w", err)
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

func (s *Store) CreateCourt(ctx context.Context, court *Court) error {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO courts (facility_id, name, price_per_hour_cents, is_active) VALUES (?, ?, ?, ?)`,
		court.FacilityID, court.Name, court.PricePerHourCents, court.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create court: %w", err)
	}
	court.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get court id: %w", err)
	}
	return nil
}

func (s *Store) GetCourt(ctx context.Context, id int64) (*Court, error) {
	var c Court
	err := s.q.QueryRowContext(ctx,
		`SELECT id, facility_id, name, price_per_hour_cents, is_active FROM courts WHERE id = ?`, id,
	).Scan(&c.ID, &c.FacilityID, &c.Name, &c.PricePerHourCents, &c.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("court %d not found", id)
		}
		return nil, fmt.Errorf("failed to get court: %w", err)
	}
	return &c, nil
}

func (s *Store) ListActiveCourts(ctx context.Context, facilityID int64) ([]Court, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, facility_id, name, price_per_hour_cents, is_active
		 FROM courts WHERE facility_id = ? AND is_active = 1 ORDER BY id`, facilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list courts: %w", err)
	}
	defer rows.Close()

	var courts []Court
	for rows.Next() {
		var c Court
		if err := rows.Scan(&c.ID, &c.FacilityID, &c.Name, &c.PricePerHourCents, &c.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan court: %w", err)
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

func (s *Store) UpsertOperatingHours(ctx context.Context, facilityID int64, dayOfWeek int, opensAt, closesAt string) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO operating_hours (facility_id, day_of_week, opens_at, closes_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (facility_id, day_of_week)
		 DO UPDATE SET opens_at = excluded.opens_at, closes_at = excluded.closes_at`,
		facilityID, dayOfWeek, opensAt, closesAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert operating hours: %w", err)
	}
	return nil
}

// DeleteOperatingHours marks a weekday closed by removing its row.
func (s *Store) DeleteOperatingHours(ctx context.Context, facilityID int64, dayOfWeek int) error {
	_, err := s.q.ExecContext(ctx,
		`DELETE FROM operating_hours WHERE facility_id = ? AND day_of_week = ?`,
		facilityID, dayOfWeek,
	)
	if err != nil {
		return fmt.Errorf("failed to delete operating hours: %w", err)
	}
	return nil
}

func (s *Store) ListOperatingHours(ctx context.Context, facilityID int64) ([]OperatingHours, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, facility_id, day_of_week, opens_at, closes_at
		 FROM operating_hours WHERE facility_id = ? ORDER BY day_of_week`, facilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list operating hours: %w", err)
	}
	defer rows.Close()

	var hours []OperatingHours
	for rows.Next() {
		var h OperatingHours
		if err := rows.Scan(&h.ID, &h.FacilityID, &h.DayOfWeek, &h.OpensAt, &h.ClosesAt); err != nil {
			return nil, fmt.Errorf("failed to scan operating hours: %w", err)
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}
