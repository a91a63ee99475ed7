package models

import (
	"time"
)

type UserRole string

const (
	RoleAdmin       UserRole = "admin"
	RoleParticipant UserRole = "participant"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// User is the subject being assessed. Demographic fields (province, gender)
// are used only for display and report filtering.
type User struct {
	ID       uint     `json:"id" gorm:"primaryKey"`
	NIK      string   `json:"nik" gorm:"uniqueIndex;size:16;not null"`
	Name     string   `json:"name" gorm:"size:255;not null"`
	Email    string   `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Password string   `json:"-" gorm:"size:255;not null"`
	Role     UserRole `json:"role" gorm:"default:participant;index"`

	Gender       *Gender    `json:"gender" gorm:"size:10"`
	ProvinceCode *string    `json:"province_code" gorm:"size:10;index"`
	BirthDate    *time.Time `json:"birth_date"`
	Phone        *string    `json:"phone" gorm:"size:20"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Attempts     []TestAttempt        `json:"attempts,omitempty" gorm:"foreignKey:UserID"`
	AuthSessions []AuthSession        `json:"-" gorm:"foreignKey:UserID"`
	Sessions     []SessionParticipant `json:"-" gorm:"foreignKey:UserID"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
