package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
)

type SessionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (s *SessionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *SessionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, session *models.TestSession) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (s *SessionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TestSession, error) {
	db := s.getDB(tx)
	var session models.TestSession
	err := db.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		Preload("Modules.Test").
		First(&session, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}
	return &session, nil
}

func (s *SessionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.SessionFilters) ([]*models.TestSession, int64, error) {
	db := s.getDB(tx)

	query := db.WithContext(ctx).Model(&models.TestSession{})
	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		query = query.Where("session_name ILIKE ? OR session_code ILIKE ?", pattern, pattern)
	}
	if filters.DateFrom != nil {
		query = query.Where("start_time >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("start_time <= ?", *filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	query = s.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var sessions []*models.TestSession
	if err := query.Find(&sessions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, total, nil
}

func (s *SessionPostgreSQL) GetModules(ctx context.Context, tx *gorm.DB, sessionID uint) ([]*models.SessionModule, error) {
	db := s.getDB(tx)
	var modules []*models.SessionModule
	err := db.WithContext(ctx).
		Preload("Test").
		Where("session_id = ?", sessionID).
		Order("sequence ASC").
		Find(&modules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get session modules: %w", err)
	}
	return modules, nil
}

func (s *SessionPostgreSQL) GetModuleByID(ctx context.Context, tx *gorm.DB, moduleID uint) (*models.SessionModule, error) {
	db := s.getDB(tx)
	var module models.SessionModule
	err := db.WithContext(ctx).Preload("Test").First(&module, moduleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session module: %w", err)
	}
	return &module, nil
}

func (s *SessionPostgreSQL) AddParticipant(ctx context.Context, tx *gorm.DB, participant *models.SessionParticipant) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Create(participant).Error; err != nil {
		return fmt.Errorf("failed to add session participant: %w", err)
	}
	return nil
}

func (s *SessionPostgreSQL) GetParticipantUserIDs(ctx context.Context, tx *gorm.DB, sessionID uint) ([]uint, error) {
	db := s.getDB(tx)
	var userIDs []uint
	err := db.WithContext(ctx).
		Model(&models.SessionParticipant{}).
		Where("session_id = ?", sessionID).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get participant user ids: %w", err)
	}
	return userIDs, nil
}

func (s *SessionPostgreSQL) GetParticipationByUsers(ctx context.Context, tx *gorm.DB, userIDs []uint) ([]repositories.ParticipationRow, error) {
	if len(userIDs) == 0 {
		return []repositories.ParticipationRow{}, nil
	}

	db := s.getDB(tx)
	var rows []repositories.ParticipationRow
	err := db.WithContext(ctx).
		Table("session_participants sp").
		Select("sp.user_id, sp.session_id, ts.session_name, ts.session_code, sp.status").
		Joins("JOIN test_sessions ts ON ts.id = sp.session_id").
		Where("sp.user_id IN ?", userIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get participation by users: %w", err)
	}
	return rows, nil
}
