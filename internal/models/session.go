package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

// Derived from the session time window at read time, never stored.
const (
	SessionUpcoming  SessionStatus = "upcoming"
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

type ParticipantStatus string

const (
	ParticipantRegistered ParticipantStatus = "registered"
	ParticipantInvited    ParticipantStatus = "invited"
	ParticipantCompleted  ParticipantStatus = "completed"
	ParticipantNoShow     ParticipantStatus = "no_show"
)

// TestSession is a scheduled batch of test modules assigned to participants.
// Distinct from AuthSession, the login-session concept.
type TestSession struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	SessionName string  `json:"session_name" gorm:"size:255;not null"`
	SessionCode string  `json:"session_code" gorm:"uniqueIndex;size:50;not null"`
	Description *string `json:"description" gorm:"type:text"`

	StartTime time.Time `json:"start_time" gorm:"not null;index"`
	EndTime   time.Time `json:"end_time" gorm:"not null;index"`

	TargetPosition  *string `json:"target_position" gorm:"size:100"`
	MaxParticipants *int    `json:"max_participants"`
	Location        *string `json:"location" gorm:"size:255"`

	ProctorID *uint          `json:"proctor_id"`
	Metadata  datatypes.JSON `json:"metadata" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Modules      []SessionModule      `json:"session_modules,omitempty" gorm:"foreignKey:SessionID"`
	Participants []SessionParticipant `json:"participants,omitempty" gorm:"foreignKey:SessionID"`
}

// Status derives the session state from the current time. Computed at read
// time so it is never stale.
func (s *TestSession) Status(now time.Time) SessionStatus {
	switch {
	case s.StartTime.After(now):
		return SessionUpcoming
	case s.EndTime.Before(now):
		return SessionCompleted
	default:
		return SessionActive
	}
}

// SessionModule assigns one test to a session. Sequence values are unique
// within a session and start at 1; Weight is bounded to [0.1, 5.0].
type SessionModule struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	SessionID uint `json:"session_id" gorm:"not null;index;uniqueIndex:idx_session_module_sequence"`
	TestID    uint `json:"test_id" gorm:"not null;index"`

	Sequence   int     `json:"sequence" gorm:"not null;uniqueIndex:idx_session_module_sequence"`
	IsRequired bool    `json:"is_required" gorm:"default:true"`
	Weight     float64 `json:"weight" gorm:"default:1.0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Session TestSession `json:"-" gorm:"foreignKey:SessionID"`
	Test    Test        `json:"test,omitempty" gorm:"foreignKey:TestID"`
}

type SessionParticipant struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	SessionID uint `json:"session_id" gorm:"not null;index;uniqueIndex:idx_session_participant"`
	UserID    uint `json:"user_id" gorm:"not null;index;uniqueIndex:idx_session_participant"`

	Status       ParticipantStatus `json:"status" gorm:"default:registered"`
	RegisteredAt time.Time         `json:"registered_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Session TestSession `json:"-" gorm:"foreignKey:SessionID"`
	User    User        `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
