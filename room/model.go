package room

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	Available   Status = "available"
	Booking     Status = "booking"
	Unavailable Status = "unavailable"
)

func (s Status) Valid() bool {
	switch s {
	case Available, Booking, Unavailable:
		return true
	}
	return false
}

type Room struct {
	ID          string            `json:"_id" gorm:"primaryKey;size:36"`
	Title       string            `json:"title" gorm:"not null"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Attributes  datatypes.JSONMap `json:"attributes"`
	Status      Status            `json:"status" gorm:"index;not null;default:available"`
	CreatedAt   time.Time         `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func (r *Room) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = Available
	}
	return nil
}
