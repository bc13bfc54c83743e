package cart

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	Pending   OrderStatus = "pending"
	Cancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	return s == Pending || s == Cancelled
}

// Entry is a room the owner has selected but not paid for yet. Title and
// Price are copied from the room when it is added.
type Entry struct {
	ID          string      `json:"_id" gorm:"primaryKey;size:36"`
	Email       string      `json:"email" gorm:"index;not null"`
	RoomID      string      `json:"roomId" gorm:"index;not null"`
	Title       string      `json:"title"`
	Price       float64     `json:"price"`
	OrderStatus OrderStatus `json:"orderStatus" gorm:"not null;default:pending"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func (Entry) TableName() string { return "cart_entries" }

func (e *Entry) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OrderStatus == "" {
		e.OrderStatus = Pending
	}
	return nil
}
