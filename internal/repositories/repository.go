package repositories

import "context"

// Repository aggregates all sub-repository interfaces behind one handle.
type Repository interface {
	// Subject domain
	User() UserRepository

	// Test domain
	Test() TestRepository

	// Session domain (scheduled test sessions)
	Session() SessionRepository

	// Attempt domain
	Attempt() AttemptRepository
	Answer() AnswerRepository

	// Login sessions
	AuthSession() AuthSessionRepository

	// Reporting aggregates
	Report() ReportRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
