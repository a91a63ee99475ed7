package models

import "time"

// AuthSession is a login session. Not to be confused with TestSession, the
// scheduled batch of test modules.
type AuthSession struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"user_id" gorm:"not null;index"`

	TokenHash string `json:"-" gorm:"uniqueIndex;size:64;not null"`

	IPAddress *string `json:"ip_address" gorm:"size:45"`
	UserAgent *string `json:"user_agent" gorm:"type:text"`

	IsActive   bool      `json:"is_active" gorm:"default:true;index"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"not null;index"`
	LastUsedAt time.Time `json:"last_used_at" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
}

// IsExpired reports whether the session's expiry is in the past.
func (s *AuthSession) IsExpired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
