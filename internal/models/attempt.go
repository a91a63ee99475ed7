package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptStarted    AttemptStatus = "started"
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
	AttemptExpired    AttemptStatus = "expired"
)

// IsTerminal reports whether the attempt can no longer change.
func (s AttemptStatus) IsTerminal() bool {
	return s == AttemptCompleted || s == AttemptAbandoned || s == AttemptExpired
}

// TestAttempt is one participant's run through one test. Created on test
// start, mutated as answers arrive, finalized on finish/timeout/abandonment.
type TestAttempt struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	UserID uint `json:"user_id" gorm:"not null;index"`
	TestID uint `json:"test_id" gorm:"not null;index"`

	// Optional link to the session-module this attempt was taken under.
	SessionModuleID *uint `json:"session_test_id" gorm:"index"`

	Status AttemptStatus `json:"status" gorm:"default:started;index"`

	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	CompletedAt *time.Time `json:"completed_at"`
	TimeSpent   int        `json:"time_spent"` // seconds

	QuestionsAnswered int `json:"questions_answered"`
	TotalQuestions    int `json:"total_questions"`

	IPAddress *string        `json:"ip_address" gorm:"size:45"`
	UserAgent *string        `json:"user_agent" gorm:"type:text"`
	Browser   datatypes.JSON `json:"browser_info" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User          User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Test          Test           `json:"test,omitempty" gorm:"foreignKey:TestID"`
	SessionModule *SessionModule `json:"session_module,omitempty" gorm:"foreignKey:SessionModuleID"`
	Answers       []UserAnswer   `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
}

// UserAnswer is one response to one question within an attempt. Immutable
// once the attempt is finalized; enforced by the attempt service, not here.
type UserAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;index;uniqueIndex:idx_attempt_question"`
	QuestionID uint `json:"question_id" gorm:"not null;index;uniqueIndex:idx_attempt_question"`
	UserID     uint `json:"user_id" gorm:"not null;index"`

	Answer     *string        `json:"answer" gorm:"type:text"`
	AnswerData datatypes.JSON `json:"answer_data" gorm:"type:jsonb"`

	Score     *float64 `json:"score"`
	IsCorrect *bool    `json:"is_correct"`

	TimeTaken       int  `json:"time_taken"` // seconds
	ConfidenceLevel *int `json:"confidence_level"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Attempt  TestAttempt `json:"-" gorm:"foreignKey:AttemptID"`
	Question Question    `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}
