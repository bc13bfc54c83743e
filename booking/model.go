package booking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	Confirmed Status = "confirmed"
	Cancelled Status = "cancelled"
)

type Booking struct {
	ID        string     `json:"_id" gorm:"primaryKey;size:36"`
	Email     string     `json:"email" gorm:"index;not null"`
	RoomID    string     `json:"roomId" gorm:"index;not null"`
	PaymentID string     `json:"paymentId,omitempty" gorm:"index"`
	Status    Status     `json:"status" gorm:"index;not null;default:confirmed"`
	CheckIn   *time.Time `json:"checkIn,omitempty"`
	CheckOut  *time.Time `json:"checkOut,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (b *Booking) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = Confirmed
	}
	return nil
}
