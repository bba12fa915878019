package models

import "time"

// Payment statuses.
const (
	PaymentPending  = "PENDING"
	PaymentPaid     = "PAID"
	PaymentRefunded = "REFUNDED"
)

// Booking statuses. CONFIRMED is the only state with an outgoing transition.
const (
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
)

// Booking reserves a number of seats on a route for a user.
type Booking struct {
	ID            int64     `gorm:"primaryKey"`
	UserID        int64     `gorm:"index;not null"`
	User          *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	RouteID       int64     `gorm:"index;not null"`
	Route         *Route    `gorm:"foreignKey:RouteID"`
	BookingDate   time.Time `gorm:"column:booking_date;not null"`
	Seats         int       `gorm:"not null"`
	TotalPrice    float64   `gorm:"column:total_price;not null"`
	PaymentStatus string    `gorm:"column:payment_status;type:varchar(16);not null"`
	BookingStatus string    `gorm:"column:booking_status;type:varchar(16);not null;index"`
	UpdatedAt     time.Time
}

// TableName returns the database table name for the Booking model.
func (Booking) TableName() string {
	return "bookings"
}

// IsCancelled reports whether the booking reached its terminal state.
func (b *Booking) IsCancelled() bool {
	return b.BookingStatus == BookingCancelled
}

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}
