package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/panjiggm/syntegra-app-sub008/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Search       string           `json:"search"` // matches name/email/NIK, case-insensitive
	Role         *models.UserRole `json:"role"`
	ProvinceCode *string          `json:"province_code"`
	UserIDs      []uint           `json:"user_ids"`
	SessionID    *uint            `json:"session_id"`
	HasReports   *bool            `json:"has_reports"` // has at least one completed attempt
	Limit        int              `json:"limit"`
	Offset       int              `json:"offset"`
	SortBy       string           `json:"sort_by"`
	SortOrder    string           `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	UserIDs   []uint                `json:"user_ids"`
	TestID    *uint                 `json:"test_id"`
	SessionID *uint                 `json:"session_id"`
	Status    *models.AttemptStatus `json:"status"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
}

type SessionFilters struct {
	Search    string     `json:"search"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`
	SortOrder string     `json:"sort_order"`
}

// ===== SHARED STATISTICS STRUCTS =====

// UserAttemptStatsRow aggregates attempt counts and timing per subject.
type UserAttemptStatsRow struct {
	UserID            uint       `json:"user_id"`
	TotalAttempts     int        `json:"total_attempts"`
	CompletedAttempts int        `json:"completed_attempts"`
	TotalTimeSpent    int        `json:"total_time_spent"` // seconds
	FirstTestDate     *time.Time `json:"first_test_date"`
	LastTestDate      *time.Time `json:"last_test_date"`
}

// ParticipationRow links a subject to one session they are registered in.
type ParticipationRow struct {
	UserID      uint                     `json:"user_id"`
	SessionID   uint                     `json:"session_id"`
	SessionName string                   `json:"session_name"`
	SessionCode string                   `json:"session_code"`
	Status      models.ParticipantStatus `json:"status"`
}

// SessionStatsRow aggregates module and participation counts per session.
type SessionStatsRow struct {
	SessionID       uint       `json:"session_id"`
	ModulesCount    int        `json:"modules_count"`
	TotalDuration   int        `json:"total_duration"` // minutes, sum of module time limits
	TotalRegistered int        `json:"total_registered"`
	TotalCompleted  int        `json:"total_completed"`
	FirstActivity   *time.Time `json:"first_activity"`
	LastActivity    *time.Time `json:"last_activity"`
}

// ===== REPOSITORY INTERFACES =====

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.User, error)
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
}

type TestRepository interface {
	Create(ctx context.Context, tx *gorm.DB, test *models.Test) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Test, error)
	List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*models.Test, int64, error)
	GetQuestions(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Question, error)
	GetQuestionsByTests(ctx context.Context, tx *gorm.DB, testIDs []uint) ([]*models.Question, error)
}

type SessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, session *models.TestSession) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TestSession, error)
	List(ctx context.Context, tx *gorm.DB, filters SessionFilters) ([]*models.TestSession, int64, error)
	GetModules(ctx context.Context, tx *gorm.DB, sessionID uint) ([]*models.SessionModule, error)
	GetModuleByID(ctx context.Context, tx *gorm.DB, moduleID uint) (*models.SessionModule, error)
	AddParticipant(ctx context.Context, tx *gorm.DB, participant *models.SessionParticipant) error
	GetParticipantUserIDs(ctx context.Context, tx *gorm.DB, sessionID uint) ([]uint, error)
	GetParticipationByUsers(ctx context.Context, tx *gorm.DB, userIDs []uint) ([]ParticipationRow, error)
}

type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.TestAttempt) error
	Update(ctx context.Context, tx *gorm.DB, attempt *models.TestAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TestAttempt, error)
	GetByFilters(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.TestAttempt, error)
	GetStatsByUsers(ctx context.Context, tx *gorm.DB, userIDs []uint) ([]UserAttemptStatsRow, error)
}

type AnswerRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, answer *models.UserAnswer) error
	GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.UserAnswer, error)
	GetByAttempts(ctx context.Context, tx *gorm.DB, attemptIDs []uint) ([]*models.UserAnswer, error)
}

type AuthSessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, session *models.AuthSession) error
	GetByTokenHash(ctx context.Context, tx *gorm.DB, tokenHash string) (*models.AuthSession, error)
	GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uint, now time.Time) ([]*models.AuthSession, error)
	TouchLastUsed(ctx context.Context, tx *gorm.DB, id uint, now time.Time) error
	DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
	DeleteUnusedSince(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uint) (int64, error)
	Revoke(ctx context.Context, tx *gorm.DB, id uint) error
	RevokeOthers(ctx context.Context, tx *gorm.DB, userID uint, keepID uint) (int64, error)
}

// ReportRepository serves the cross-table aggregate queries used by report
// assembly.
type ReportRepository interface {
	GetSessionStats(ctx context.Context, tx *gorm.DB, sessionIDs []uint) ([]SessionStatsRow, error)
	CountDistinctTestsTaken(ctx context.Context, tx *gorm.DB, userIDs []uint) (map[uint]int, error)
}
