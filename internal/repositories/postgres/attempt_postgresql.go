package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
)

type AttemptPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (a *AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.TestAttempt) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

func (a *AttemptPostgreSQL) Update(ctx context.Context, tx *gorm.DB, attempt *models.TestAttempt) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).Save(attempt).Error; err != nil {
		return fmt.Errorf("failed to update attempt: %w", err)
	}
	return nil
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TestAttempt, error) {
	db := a.getDB(tx)
	var attempt models.TestAttempt
	err := db.WithContext(ctx).Preload("Test").First(&attempt, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get attempt by id: %w", err)
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByFilters(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.TestAttempt, error) {
	db := a.getDB(tx)

	query := db.WithContext(ctx).Model(&models.TestAttempt{})
	query = a.helpers.ApplyAttemptFilters(query, filters)

	if filters.SessionID != nil {
		query = query.Joins("JOIN session_modules sm ON sm.id = test_attempts.session_module_id").
			Where("sm.session_id = ?", *filters.SessionID)
	}

	query = query.Preload("Test").Order("start_time DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var attempts []*models.TestAttempt
	if err := query.Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempts by filters: %w", err)
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) GetStatsByUsers(ctx context.Context, tx *gorm.DB, userIDs []uint) ([]repositories.UserAttemptStatsRow, error) {
	if len(userIDs) == 0 {
		return []repositories.UserAttemptStatsRow{}, nil
	}

	db := a.getDB(tx)
	var rows []repositories.UserAttemptStatsRow
	err := db.WithContext(ctx).
		Model(&models.TestAttempt{}).
		Select(`user_id,
			COUNT(*) AS total_attempts,
			COUNT(*) FILTER (WHERE status = ?) AS completed_attempts,
			COALESCE(SUM(time_spent), 0) AS total_time_spent,
			MIN(start_time) AS first_test_date,
			MAX(start_time) AS last_test_date`, models.AttemptCompleted).
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt stats by users: %w", err)
	}
	return rows, nil
}
