package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjiggm/syntegra-app-sub008/internal/cache"
	"github.com/panjiggm/syntegra-app-sub008/internal/events"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
	"github.com/panjiggm/syntegra-app-sub008/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	JWTSecret          string
	TokenTTL           time.Duration
	MaxSessionsPerUser int
	InactiveThreshold  time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo         repositories.Repository
	cacheManager *cache.CacheManager
	publisher    events.EventPublisher
	logger       *slog.Logger
	validator    *validator.Validator
	config       ServiceManagerConfig

	// Service instances
	freshScoreService         FreshScoreService
	reportService             ReportService
	sessionReportService      SessionReportService
	sessionMaintenanceService SessionMaintenanceService
	attemptService            AttemptService
	sessionService            SessionService
	authService               AuthService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(repo repositories.Repository, cacheManager *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		repo:         repo,
		cacheManager: cacheManager,
		publisher:    publisher,
		logger:       logger,
		validator:    validator,
		config:       config,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.freshScoreService = NewFreshScoreService(sm.repo, sm.logger)
	sm.reportService = NewReportService(sm.repo, sm.freshScoreService, sm.publisher, sm.logger, sm.validator)
	sm.sessionReportService = NewSessionReportService(sm.repo, sm.freshScoreService, sm.publisher, sm.logger, sm.validator)
	sm.sessionMaintenanceService = NewSessionMaintenanceService(sm.repo, sm.publisher, sm.logger, sm.config.InactiveThreshold)
	sm.attemptService = NewAttemptService(sm.repo, sm.publisher, sm.logger, sm.validator)
	sm.sessionService = NewSessionService(sm.repo, sm.cacheManager, sm.logger, sm.validator)
	sm.authService = NewAuthService(sm.repo, sm.sessionMaintenanceService, sm.logger, sm.validator, sm.config.JWTSecret, sm.config.TokenTTL, sm.config.MaxSessionsPerUser)

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository not healthy: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")
	return nil
}

func (sm *serviceManager) FreshScore() FreshScoreService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.freshScoreService
}

func (sm *serviceManager) Report() ReportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.reportService
}

func (sm *serviceManager) SessionReport() SessionReportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessionReportService
}

func (sm *serviceManager) SessionMaintenance() SessionMaintenanceService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessionMaintenanceService
}

func (sm *serviceManager) Attempt() AttemptService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.attemptService
}

func (sm *serviceManager) Session() SessionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessionService
}

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.authService
}

// HealthCheck verifies the manager and its backing stores are usable
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}
	return sm.repo.Ping(ctx)
}

// Shutdown releases service resources
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Warn("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down")
	return nil
}
