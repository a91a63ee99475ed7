package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
)

type TestPostgreSQL struct {
	db *gorm.DB
}

func NewTestPostgreSQL(db *gorm.DB) repositories.TestRepository {
	return &TestPostgreSQL{db: db}
}

func (t *TestPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return t.db
}

func (t *TestPostgreSQL) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	db := t.getDB(tx)
	if err := db.WithContext(ctx).Create(test).Error; err != nil {
		return fmt.Errorf("failed to create test: %w", err)
	}
	return nil
}

func (t *TestPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	db := t.getDB(tx)
	var test models.Test
	err := db.WithContext(ctx).First(&test, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get test by id: %w", err)
	}
	return &test, nil
}

func (t *TestPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Test, error) {
	if len(ids) == 0 {
		return []*models.Test{}, nil
	}
	db := t.getDB(tx)
	var tests []*models.Test
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&tests).Error; err != nil {
		return nil, fmt.Errorf("failed to get tests by ids: %w", err)
	}
	return tests, nil
}

func (t *TestPostgreSQL) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*models.Test, int64, error) {
	db := t.getDB(tx)

	query := db.WithContext(ctx).Model(&models.Test{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tests: %w", err)
	}

	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var tests []*models.Test
	if err := query.Find(&tests).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list tests: %w", err)
	}
	return tests, total, nil
}

func (t *TestPostgreSQL) GetQuestions(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Question, error) {
	db := t.getDB(tx)
	var questions []*models.Question
	err := db.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("sequence ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get questions for test: %w", err)
	}
	return questions, nil
}

func (t *TestPostgreSQL) GetQuestionsByTests(ctx context.Context, tx *gorm.DB, testIDs []uint) ([]*models.Question, error) {
	if len(testIDs) == 0 {
		return []*models.Question{}, nil
	}
	db := t.getDB(tx)
	var questions []*models.Question
	err := db.WithContext(ctx).
		Where("test_id IN ?", testIDs).
		Order("test_id ASC, sequence ASC").
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get questions for tests: %w", err)
	}
	return questions, nil
}
