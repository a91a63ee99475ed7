package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

func (a *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// Upsert stores an answer, replacing any previous answer for the same
// question within the attempt.
func (a *AnswerPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, answer *models.UserAnswer) error {
	db := a.getDB(tx)
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"answer", "answer_data", "score", "is_correct", "time_taken", "confidence_level", "updated_at",
			}),
		}).
		Create(answer).Error
	if err != nil {
		return fmt.Errorf("failed to upsert answer: %w", err)
	}
	return nil
}

func (a *AnswerPostgreSQL) GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.UserAnswer, error) {
	db := a.getDB(tx)
	var answers []*models.UserAnswer
	err := db.WithContext(ctx).
		Preload("Question").
		Where("attempt_id = ?", attemptID).
		Order("question_id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get answers by attempt: %w", err)
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) GetByAttempts(ctx context.Context, tx *gorm.DB, attemptIDs []uint) ([]*models.UserAnswer, error) {
	if len(attemptIDs) == 0 {
		return []*models.UserAnswer{}, nil
	}
	db := a.getDB(tx)
	var answers []*models.UserAnswer
	err := db.WithContext(ctx).
		Preload("Question").
		Where("attempt_id IN ?", attemptIDs).
		Order("attempt_id ASC, question_id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get answers by attempts: %w", err)
	}
	return answers, nil
}
