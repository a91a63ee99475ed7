package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjiggm/syntegra-app-sub008/internal/cache"
	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
	"github.com/panjiggm/syntegra-app-sub008/internal/validator"
)

type ModuleAssignment struct {
	TestID     uint    `json:"test_id" validate:"required"`
	Sequence   int     `json:"sequence" validate:"module_sequence"`
	IsRequired bool    `json:"is_required"`
	Weight     float64 `json:"weight" validate:"module_weight"`
}

type CreateSessionRequest struct {
	SessionName     string             `json:"session_name" validate:"required,max=255"`
	SessionCode     string             `json:"session_code" validate:"required,max=50"`
	Description     *string            `json:"description"`
	StartTime       time.Time          `json:"start_time" validate:"required"`
	EndTime         time.Time          `json:"end_time" validate:"required"`
	TargetPosition  *string            `json:"target_position"`
	MaxParticipants *int               `json:"max_participants"`
	Location        *string            `json:"location"`
	Modules         []ModuleAssignment `json:"session_modules" validate:"required,min=1,dive"`
}

type ListSessionsParams struct {
	Page      int        `json:"page"`
	PerPage   int        `json:"per_page"`
	Search    string     `json:"search"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	SortBy    string     `json:"sort_by"`
	SortOrder string     `json:"sort_order" validate:"sort_order"`
}

type SessionListResult struct {
	Sessions   []*models.TestSession `json:"sessions"`
	Pagination Pagination            `json:"pagination"`
}

type sessionService struct {
	repo         repositories.Repository
	cacheManager *cache.CacheManager
	logger       *slog.Logger
	validator    *validator.Validator
}

func NewSessionService(repo repositories.Repository, cacheManager *cache.CacheManager, logger *slog.Logger, validator *validator.Validator) SessionService {
	return &sessionService{
		repo:         repo,
		cacheManager: cacheManager,
		logger:       logger,
		validator:    validator,
	}
}

// CreateSession creates a test session together with its module assignments.
// Module sequences must be unique starting at 1 and weights bounded to
// [0.1, 5.0].
func (s *sessionService) CreateSession(ctx context.Context, req *CreateSessionRequest) (*models.TestSession, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError("session", errs.Error())
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, NewValidationError("end_time", "must be after start_time")
	}
	if err := validateModuleSequences(req.Modules); err != nil {
		return nil, err
	}

	session := &models.TestSession{
		SessionName:     req.SessionName,
		SessionCode:     req.SessionCode,
		Description:     req.Description,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		TargetPosition:  req.TargetPosition,
		MaxParticipants: req.MaxParticipants,
		Location:        req.Location,
	}
	for _, module := range req.Modules {
		session.Modules = append(session.Modules, models.SessionModule{
			TestID:     module.TestID,
			Sequence:   module.Sequence,
			IsRequired: module.IsRequired,
			Weight:     module.Weight,
		})
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		for _, module := range req.Modules {
			if _, err := txRepo.Test().GetByID(ctx, nil, module.TestID); err != nil {
				if repositories.IsNotFoundError(err) {
					return ErrTestNotFound
				}
				return fmt.Errorf("failed to check test %d: %w", module.TestID, err)
			}
		}
		return txRepo.Session().Create(ctx, nil, session)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Test session created",
		"session_id", session.ID,
		"session_code", session.SessionCode,
		"modules", len(session.Modules))
	return session, nil
}

// GetSession fetches one session with ordered modules, cached briefly since
// session metadata rarely changes once scheduled.
func (s *sessionService) GetSession(ctx context.Context, id uint) (*models.TestSession, error) {
	var session models.TestSession
	key := fmt.Sprintf("id:%d", id)

	err := s.cacheManager.Session.CacheOrExecute(ctx, key, &session, cache.SessionCacheConfig.TTL, func() (interface{}, error) {
		found, err := s.repo.Session().GetByID(ctx, nil, id)
		if err != nil {
			return nil, err
		}
		return found, nil
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (s *sessionService) ListSessions(ctx context.Context, params ListSessionsParams) (*SessionListResult, error) {
	if errs := s.validator.Validate(&params); errs.HasErrors() {
		return nil, NewValidationError("sort_order", errs.Error())
	}

	page, perPage := normalizePagination(params.Page, params.PerPage)
	sessions, total, err := s.repo.Session().List(ctx, nil, repositories.SessionFilters{
		Search:    params.Search,
		DateFrom:  params.DateFrom,
		DateTo:    params.DateTo,
		Limit:     perPage,
		Offset:    (page - 1) * perPage,
		SortBy:    params.SortBy,
		SortOrder: params.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return &SessionListResult{
		Sessions:   sessions,
		Pagination: NewPagination(page, perPage, total),
	}, nil
}

// AddParticipant registers a subject into a session, honoring the
// participant cap.
func (s *sessionService) AddParticipant(ctx context.Context, sessionID, userID uint) error {
	session, err := s.repo.Session().GetByID(ctx, nil, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to get session: %w", err)
	}

	if _, err := s.repo.User().GetByID(ctx, nil, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if session.MaxParticipants != nil {
		registered, err := s.repo.Session().GetParticipantUserIDs(ctx, nil, sessionID)
		if err != nil {
			return fmt.Errorf("failed to count participants: %w", err)
		}
		if len(registered) >= *session.MaxParticipants {
			return NewValidationError("session_id", "session is at participant capacity")
		}
	}

	participant := &models.SessionParticipant{
		SessionID:    sessionID,
		UserID:       userID,
		Status:       models.ParticipantRegistered,
		RegisteredAt: time.Now(),
	}
	if err := s.repo.Session().AddParticipant(ctx, nil, participant); err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}

	if err := s.cacheManager.InvalidateSession(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to invalidate session cache", "error", err, "session_id", sessionID)
	}
	return nil
}

func validateModuleSequences(modules []ModuleAssignment) error {
	seen := make(map[int]bool, len(modules))
	for _, module := range modules {
		if module.Sequence < 1 {
			return NewValidationError("sequence", "module sequence must start at 1")
		}
		if seen[module.Sequence] {
			return NewValidationError("sequence", fmt.Sprintf("duplicate module sequence %d", module.Sequence))
		}
		seen[module.Sequence] = true
	}
	return nil
}
