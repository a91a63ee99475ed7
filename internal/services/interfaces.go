package services

import (
	"context"
	"time"

	"github.com/panjiggm/syntegra-app-sub008/internal/models"
)

// ===== SERVICE INTERFACES =====

// FreshScoreService recomputes scores on demand from raw answers and
// attempts rather than trusting possibly-stale cached result rows.
type FreshScoreService interface {
	CalculateForUsers(ctx context.Context, userIDs []uint, sessionID *uint, dateFrom, dateTo *time.Time) ([]FreshScore, error)
	CalculateForSession(ctx context.Context, sessionID uint) ([]FreshScore, error)
}

// ReportService assembles the individual report list.
type ReportService interface {
	GetIndividualReports(ctx context.Context, params IndividualReportParams, callerID uint, callerRole models.UserRole) (*IndividualReportsResult, error)
}

// SessionReportService assembles the admin-only session report list.
type SessionReportService interface {
	GetSessionReports(ctx context.Context, params SessionReportParams, callerID uint, callerRole models.UserRole) (*SessionReportsResult, error)
}

// SessionMaintenanceService houses the auth-session housekeeping operations.
// Every operation is idempotent and individually fault-isolated.
type SessionMaintenanceService interface {
	CleanupExpiredSessions(ctx context.Context) int64
	CleanupInactiveSessions(ctx context.Context) int64
	LimitUserSessions(ctx context.Context, userID uint, max int) (int64, error)
	RevokeSession(ctx context.Context, sessionID uint) error
	RevokeOtherUserSessions(ctx context.Context, userID, keepSessionID uint) (int64, error)
	RunSweep(ctx context.Context) MaintenanceSweepResult
}

// AttemptService is the write path producing the data the reporting core
// reads.
type AttemptService interface {
	StartAttempt(ctx context.Context, userID uint, req *StartAttemptRequest) (*models.TestAttempt, error)
	SubmitAnswer(ctx context.Context, userID, attemptID uint, req *SubmitAnswerRequest) (*models.UserAnswer, error)
	FinishAttempt(ctx context.Context, userID, attemptID uint) (*models.TestAttempt, error)
}

// SessionService administers scheduled test sessions and their modules.
type SessionService interface {
	CreateSession(ctx context.Context, req *CreateSessionRequest) (*models.TestSession, error)
	GetSession(ctx context.Context, id uint) (*models.TestSession, error)
	ListSessions(ctx context.Context, params ListSessionsParams) (*SessionListResult, error)
	AddParticipant(ctx context.Context, sessionID, userID uint) error
}

// AuthService authenticates subjects and manages their login sessions.
type AuthService interface {
	Login(ctx context.Context, req *LoginRequest, ipAddress, userAgent string) (*LoginResult, error)
	ValidateSession(ctx context.Context, rawToken string) (*models.User, error)
	Logout(ctx context.Context, rawToken string) error
}

// ServiceManager wires every service behind one lifecycle-managed handle.
type ServiceManager interface {
	FreshScore() FreshScoreService
	Report() ReportService
	SessionReport() SessionReportService
	SessionMaintenance() SessionMaintenanceService
	Attempt() AttemptService
	Session() SessionService
	Auth() AuthService

	// Health and lifecycle
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
