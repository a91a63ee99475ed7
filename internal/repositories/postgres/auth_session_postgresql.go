package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
)

type AuthSessionPostgreSQL struct {
	db *gorm.DB
}

func NewAuthSessionPostgreSQL(db *gorm.DB) repositories.AuthSessionRepository {
	return &AuthSessionPostgreSQL{db: db}
}

func (s *AuthSessionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *AuthSessionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, session *models.AuthSession) error {
	db := s.getDB(tx)
	if err := db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create auth session: %w", err)
	}
	return nil
}

func (s *AuthSessionPostgreSQL) GetByTokenHash(ctx context.Context, tx *gorm.DB, tokenHash string) (*models.AuthSession, error) {
	db := s.getDB(tx)
	var session models.AuthSession
	err := db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get auth session by token hash: %w", err)
	}
	return &session, nil
}

func (s *AuthSessionPostgreSQL) GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uint, now time.Time) ([]*models.AuthSession, error) {
	db := s.getDB(tx)
	var sessions []*models.AuthSession
	err := db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, now).
		Order("last_used_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get active auth sessions: %w", err)
	}
	return sessions, nil
}

func (s *AuthSessionPostgreSQL) TouchLastUsed(ctx context.Context, tx *gorm.DB, id uint, now time.Time) error {
	db := s.getDB(tx)
	err := db.WithContext(ctx).
		Model(&models.AuthSession{}).
		Where("id = ?", id).
		Update("last_used_at", now).Error
	if err != nil {
		return fmt.Errorf("failed to touch auth session: %w", err)
	}
	return nil
}

func (s *AuthSessionPostgreSQL) DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	db := s.getDB(tx)
	result := db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.AuthSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired auth sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *AuthSessionPostgreSQL) DeleteUnusedSince(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	db := s.getDB(tx)
	result := db.WithContext(ctx).
		Where("last_used_at < ?", cutoff).
		Delete(&models.AuthSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete unused auth sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *AuthSessionPostgreSQL) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	db := s.getDB(tx)
	result := db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&models.AuthSession{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete auth sessions by ids: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *AuthSessionPostgreSQL) Revoke(ctx context.Context, tx *gorm.DB, id uint) error {
	db := s.getDB(tx)
	err := db.WithContext(ctx).
		Model(&models.AuthSession{}).
		Where("id = ?", id).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("failed to revoke auth session: %w", err)
	}
	return nil
}

func (s *AuthSessionPostgreSQL) RevokeOthers(ctx context.Context, tx *gorm.DB, userID uint, keepID uint) (int64, error) {
	db := s.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.AuthSession{}).
		Where("user_id = ? AND id <> ? AND is_active = ?", userID, keepID, true).
		Update("is_active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to revoke other auth sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}
