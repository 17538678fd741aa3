package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/courtsidehq/courtside/internal/apperr"
)

func (s *Store) InsertPayment(ctx context.Context, p *Payment) error {
	result, err := s.q.ExecContext(ctx,
		`INSERT INTO payments (
			booking_id, status, amount_cents, platform_fee_cents, tax_cents, total_amount_cents,
			created_at, updated_at
		) VALUES (?, 'PENDING', ?, ?, ?, ?, ?, ?)`,
		p.BookingID, p.AmountCents, p.PlatformFeeCents, p.TaxCents, p.TotalAmountCents,
		time.Now(), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	p.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get payment id: %w", err)
	}
	p.Status = PaymentPending
	return nil
}

func (s *Store) GetPaymentByBooking(ctx context.Context, bookingID int64) (*Payment, error) {
	return s.getPayment(ctx, `booking_id = ?`, bookingID)
}

func (s *Store) GetPaymentByGatewayID(ctx context.Context, gatewayPaymentID string) (*Payment, error) {
	return s.getPayment(ctx, `gateway_payment_id = ?`, gatewayPaymentID)
}

func (s *Store) getPayment(ctx context.Context, where string, arg any) (*Payment, error) {
	var p Payment
	err := s.q.QueryRowContext(ctx,
		`SELECT id, booking_id, status, amount_cents, platform_fee_cents, tax_cents, total_amount_cents,
		        gateway_payment_id, transaction_id, paid_at, failure_reason, created_at, updated_at
		 FROM payments WHERE `+where, arg,
	).Scan(&p.ID, &p.BookingID, &p.Status, &p.AmountCents, &p.PlatformFeeCents, &p.TaxCents,
		&p.TotalAmountCents, &p.GatewayPaymentID, &p.TransactionID, &p.PaidAt, &p.FailureReason,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFoundf("payment not found")
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

// CompletePayment records a successful gateway charge. Conditional on PENDING
// so a redelivered event cannot produce a second completion.
func (s *Store) CompletePayment(ctx context.Context, bookingID int64, gatewayPaymentID, transactionID string) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		`UPDATE payments
		 SET status = 'COMPLETED', gateway_payment_id = ?, transaction_id = ?, paid_at = ?, updated_at = ?
		 WHERE booking_id = ? AND status = 'PENDING'`,
		gatewayPaymentID, transactionID, time.Now(), time.Now(), bookingID)
	if err != nil {
		return false, fmt.Errorf("failed to complete payment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows > 0, nil
}

func (s *Store) CancelPayment(ctx context.Context, bookingID int64) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		`UPDATE payments SET status = 'CANCELLED', updated_at = ?
		 WHERE booking_id = ? AND status = 'PENDING'`,
		time.Now(), bookingID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel payment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows > 0, nil
}

func (s *Store) FailPayment(ctx context.Context, paymentID int64, reason string) (bool, error) {
	result, err := s.q.ExecContext(ctx,
		`UPDATE payments SET status = 'FAILED', failure_reason = ?, updated_at = ?
		 WHERE id = ? AND status = 'PENDING'`,
		reason, time.Now(), paymentID)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment failed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows > 0, nil
}
