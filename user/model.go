package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	Guest Role = "guest"
	Admin Role = "admin"
)

func (r Role) Valid() bool {
	return r == Guest || r == Admin
}

type User struct {
	ID        string    `json:"_id" gorm:"primaryKey;size:36"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Name      string    `json:"name"`
	Role      Role      `json:"role" gorm:"not null;default:guest"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = Guest
	}
	return nil
}
