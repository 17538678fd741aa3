// Package notify delivers fire-and-forget notifications after booking state
// changes. Delivery failures are logged and never propagate into the core
// transaction.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const sendTimeout = 5 * time.Second

// Event describes a booking state change worth announcing.
type Event struct {
	Kind       string
	BookingID  int64
	UserID     int64
	FacilityID int64
	CourtID    int64
	Date       string
	StartTime  string
	Status     string
}

const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingModified  = "booking.modified"
	EventBookingCompleted = "booking.completed"
	EventBookingNoShow    = "booking.no_show"
	EventSlotBlocked      = "slot.blocked"
)

// Notifier is the hook the core fires after state changes commit.
type Notifier interface {
	BookingEvent(ctx context.Context, ev Event)
}

// LogNotifier writes events to the structured log only.
type LogNotifier struct{}

func (LogNotifier) BookingEvent(ctx context.Context, ev Event) {
	log.Ctx(ctx).Info().
		Str("event", ev.Kind).
		Int64("booking_id", ev.BookingID).
		Int64("court_id", ev.CourtID).
		Str("date", ev.Date).
		Str("status", ev.Status).
		Msg("Booking event")
}

// EmailSender provides a testable abstraction over SES delivery.
type EmailSender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// EmailNotifier sends each event as a plain-text email to a configured
// operations recipient, asynchronously.
type EmailNotifier struct {
	sender    EmailSender
	recipient string
}

func NewEmailNotifier(sender EmailSender, recipient string) *EmailNotifier {
	return &EmailNotifier{sender: sender, recipient: recipient}
}

func (n *EmailNotifier) BookingEvent(ctx context.Context, ev Event) {
	if n == nil || n.sender == nil || n.recipient == "" {
		return
	}

	logger := log.Ctx(ctx).With().Str("event", ev.Kind).Int64("booking_id", ev.BookingID).Logger()
	subject := fmt.Sprintf("[courtside] %s booking %d", ev.Kind, ev.BookingID)
	body := fmt.Sprintf(
		"Event: %s\nBooking: %d\nCourt: %d\nDate: %s %s\nStatus: %s\n",
		ev.Kind, ev.BookingID, ev.CourtID, ev.Date, ev.StartTime, ev.Status,
	)

	go func() {
		sendCtx, cancel := newSendContext(ctx, sendTimeout)
		defer cancel()
		if err := n.sender.Send(sendCtx, n.recipient, subject, body); err != nil {
			logger.Error().Err(err).Msg("Failed to send booking event email")
		}
	}()
}

func newSendContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	// Detach cancellation so handler-scoped contexts don't abort async sends.
	parent = context.WithoutCancel(parent)
	return context.WithTimeout(parent, timeout)
}
