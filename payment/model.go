package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/thebrando/brando/booking"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Reservation is a booking requested together with a payment.
type Reservation struct {
	RoomID   string     `json:"roomId"`
	Email    string     `json:"email,omitempty"`
	CheckIn  *time.Time `json:"checkIn,omitempty"`
	CheckOut *time.Time `json:"checkOut,omitempty"`
}

// Payment is a ledger row. It is written once and never updated; whether it
// has been settled is recorded separately in Settlement.
type Payment struct {
	ID            string                           `json:"_id" gorm:"primaryKey;size:36"`
	Email         string                           `json:"email" gorm:"index;not null"`
	Amount        float64                          `json:"amount"`
	Currency      string                           `json:"currency"`
	TransactionID string                           `json:"transactionId" gorm:"index"`
	RoomIDs       datatypes.JSONSlice[string]      `json:"roomIds"`
	CartIDs       datatypes.JSONSlice[string]      `json:"cartIds"`
	Reservations  datatypes.JSONSlice[Reservation] `json:"reservations"`
	CreatedAt     time.Time                        `json:"createdAt" gorm:"index"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type Settlement struct {
	PaymentID string    `json:"paymentId" gorm:"primaryKey;size:36"`
	SettledAt time.Time `json:"settledAt"`
}

// Receipt is what confirm and reconcile return.
type Receipt struct {
	Payment   Payment           `json:"payment"`
	Settled   bool              `json:"settled"`
	SettledAt *time.Time        `json:"settledAt,omitempty"`
	Bookings  []booking.Booking `json:"bookings"`
}
