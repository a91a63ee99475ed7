package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event topics
const (
	TopicReports     = "psychotest.reports"
	TopicMaintenance = "psychotest.maintenance"
	TopicAttempts    = "psychotest.attempts"
)

// Event types
const (
	EventReportGenerated      = "report.generated"
	EventMaintenanceSweepDone = "maintenance.sweep_completed"
	EventAttemptCompleted     = "attempt.completed"
	EventAuthSessionsRevoked  = "auth.sessions_revoked"
)

// Event is the envelope every published message shares.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an event envelope with identity and timing filled in.
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "psychotest-service",
		Version:   "1.0",
		Timestamp: time.Now(),
		Data:      data,
	}
}

// ReportGeneratedEvent is emitted after a report page has been assembled.
type ReportGeneratedEvent struct {
	ReportType   string `json:"report_type"` // "individual" or "session"
	RequestedBy  uint   `json:"requested_by"`
	ResultCount  int    `json:"result_count"`
	PageSize     int    `json:"page_size"`
	Page         int    `json:"page"`
	DurationMS   int64  `json:"duration_ms"`
}

// MaintenanceSweepEvent is emitted after a full maintenance sweep finishes.
type MaintenanceSweepEvent struct {
	ExpiredDeleted int64 `json:"expired_deleted"`
	UnusedDeleted  int64 `json:"unused_deleted"`
	UsersLimited   int   `json:"users_limited"`
	Failures       int   `json:"failures"`
	DurationMS     int64 `json:"duration_ms"`
}

// AttemptCompletedEvent is emitted when a subject finishes an attempt.
type AttemptCompletedEvent struct {
	AttemptID         uint    `json:"attempt_id"`
	UserID            uint    `json:"user_id"`
	TestID            uint    `json:"test_id"`
	QuestionsAnswered int     `json:"questions_answered"`
	TimeSpent         int     `json:"time_spent"`
	Score             float64 `json:"score"`
}

// AuthSessionsRevokedEvent is emitted after a bulk session revocation.
type AuthSessionsRevokedEvent struct {
	UserID        uint  `json:"user_id"`
	KeptSessionID uint  `json:"kept_session_id"`
	RevokedCount  int64 `json:"revoked_count"`
}

// EventPublisher abstracts the message broker behind a publish call.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
	Close() error
}
