package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/courtsidehq/courtside/internal/apperr"
)

// InsertReview records the single review a completed booking may receive.
func (s *Store) InsertReview(ctx context.Context, r *Review) error {
	var comment sql.NullString
	if r.Comment.Valid {
		comment = r.Comment
	}
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO reviews (booking_id, user_id, rating, comment) VALUES (?, ?, ?, ?)`,
		r.BookingID, r.UserID, r.Rating, comment)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Statef("booking %d has already been reviewed", r.BookingID)
		}
		return fmt.Errorf("failed to insert review: %w", err)
	}
	r.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get review id: %w", err)
	}
	return nil
}

func (s *Store) HasReview(ctx context.Context, bookingID int64) (bool, error) {
	var count int64
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE booking_id = ?`, bookingID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check review: %w", err)
	}
	return count > 0, nil
}
