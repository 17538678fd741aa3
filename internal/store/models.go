package store

import (
	"database/sql"
	"time"
)

// DateLayout and TimeLayout are the canonical forms for slot dates and times.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingNoShow    BookingStatus = "NO_SHOW"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentCancelled PaymentStatus = "CANCELLED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFlat       DiscountType = "FLAT"
)

type Facility struct {
	ID        int64
	OwnerID   int64
	Name      string
	Timezone  string
	CreatedAt time.Time
}

type OperatingHours struct {
	ID         int64
	FacilityID int64
	DayOfWeek  int // 0 = Sunday, matching time.Weekday
	OpensAt    string
	ClosesAt   string
}

type Court struct {
	ID                int64
	FacilityID        int64
	Name              string
	PricePerHourCents int64
	IsActive          bool
}

type TimeSlot struct {
	ID          int64
	CourtID     int64
	Date        string
	StartTime   string
	EndTime     string
	PriceCents  int64
	IsBooked    bool
	IsBlocked   bool
	BlockReason sql.NullString
}

type Booking struct {
	ID                 int64
	UserID             int64
	CourtID            int64
	FacilityID         int64
	TimeSlotID         sql.NullInt64
	Status             BookingStatus
	BookingDate        string
	StartTime          string
	EndTime            string
	TotalHours         int64
	PricePerHourCents  int64
	TotalAmountCents   int64
	PlatformFeeCents   int64
	TaxCents           int64
	DiscountCents      int64
	FinalAmountCents   int64
	ConfirmedAt        sql.NullTime
	CancelledAt        sql.NullTime
	CompletedAt        sql.NullTime
	NoShowAt           sql.NullTime
	CancellationReason sql.NullString
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Payment struct {
	ID               int64
	BookingID        int64
	Status           PaymentStatus
	AmountCents      int64
	PlatformFeeCents int64
	TaxCents         int64
	TotalAmountCents int64
	GatewayPaymentID sql.NullString
	TransactionID    sql.NullString
	PaidAt           sql.NullTime
	FailureReason    sql.NullString
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Coupon struct {
	ID                     int64
	Code                   string
	DiscountType           DiscountType
	DiscountValue          int64
	MinBookingAmountCents  sql.NullInt64
	MaxDiscountAmountCents sql.NullInt64
	UsageLimit             sql.NullInt64
	UserUsageLimit         sql.NullInt64
	CurrentUsage           int64
	ValidFrom              time.Time
	ValidUntil             time.Time
	IsActive               bool
}

type BookingCoupon struct {
	ID            int64
	BookingID     int64
	CouponID      int64
	UserID        int64
	DiscountCents int64
	CreatedAt     time.Time
}

type Review struct {
	ID        int64
	BookingID int64
	UserID    int64
	Rating    int64
	Comment   sql.NullString
	CreatedAt time.Time
}
