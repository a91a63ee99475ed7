package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjiggm/syntegra-app-sub008/internal/events"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
)

// DefaultInactiveThreshold is how long an auth session may sit unused before
// the inactive sweep removes it.
const DefaultInactiveThreshold = 30 * 24 * time.Hour

// DefaultMaxSessionsPerUser caps concurrent logins per user.
const DefaultMaxSessionsPerUser = 3

type sessionMaintenanceService struct {
	repo              repositories.Repository
	publisher         events.EventPublisher
	logger            *slog.Logger
	inactiveThreshold time.Duration
}

func NewSessionMaintenanceService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, inactiveThreshold time.Duration) SessionMaintenanceService {
	if inactiveThreshold <= 0 {
		inactiveThreshold = DefaultInactiveThreshold
	}
	return &sessionMaintenanceService{
		repo:              repo,
		publisher:         publisher,
		logger:            logger,
		inactiveThreshold: inactiveThreshold,
	}
}

// CleanupExpiredSessions deletes auth sessions whose expiry has passed.
// A storage error logs and returns 0 so a combined sweep keeps going.
func (s *sessionMaintenanceService) CleanupExpiredSessions(ctx context.Context) int64 {
	deleted, err := s.repo.AuthSession().DeleteExpired(ctx, nil, time.Now())
	if err != nil {
		s.logger.Error("Failed to cleanup expired auth sessions", "error", err)
		return 0
	}
	if deleted > 0 {
		s.logger.Info("Expired auth sessions removed", "count", deleted)
	}
	return deleted
}

// CleanupInactiveSessions deletes auth sessions unused longer than the
// configured threshold.
func (s *sessionMaintenanceService) CleanupInactiveSessions(ctx context.Context) int64 {
	cutoff := time.Now().Add(-s.inactiveThreshold)
	deleted, err := s.repo.AuthSession().DeleteUnusedSince(ctx, nil, cutoff)
	if err != nil {
		s.logger.Error("Failed to cleanup inactive auth sessions", "error", err)
		return 0
	}
	if deleted > 0 {
		s.logger.Info("Inactive auth sessions removed", "count", deleted, "cutoff", cutoff)
	}
	return deleted
}

// LimitUserSessions keeps only the max most-recently-used active unexpired
// sessions for one user and deletes the rest. Called on every successful
// login.
func (s *sessionMaintenanceService) LimitUserSessions(ctx context.Context, userID uint, max int) (int64, error) {
	if max <= 0 {
		max = DefaultMaxSessionsPerUser
	}

	active, err := s.repo.AuthSession().GetActiveByUser(ctx, nil, userID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to list active auth sessions: %w", err)
	}
	if len(active) <= max {
		return 0, nil
	}

	// GetActiveByUser orders by last_used_at descending, so everything past
	// max is the least recently used overflow.
	overflow := make([]uint, 0, len(active)-max)
	for _, session := range active[max:] {
		overflow = append(overflow, session.ID)
	}

	deleted, err := s.repo.AuthSession().DeleteByIDs(ctx, nil, overflow)
	if err != nil {
		return 0, fmt.Errorf("failed to delete overflow auth sessions: %w", err)
	}

	s.logger.Info("User auth sessions limited",
		"user_id", userID,
		"max", max,
		"deleted", deleted)
	return deleted, nil
}

// RevokeSession soft-revokes one auth session.
func (s *sessionMaintenanceService) RevokeSession(ctx context.Context, sessionID uint) error {
	if err := s.repo.AuthSession().Revoke(ctx, nil, sessionID); err != nil {
		return fmt.Errorf("failed to revoke auth session: %w", err)
	}
	return nil
}

// RevokeOtherUserSessions soft-revokes every active session of a user except
// the one to keep.
func (s *sessionMaintenanceService) RevokeOtherUserSessions(ctx context.Context, userID, keepSessionID uint) (int64, error) {
	revoked, err := s.repo.AuthSession().RevokeOthers(ctx, nil, userID, keepSessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke other auth sessions: %w", err)
	}

	if revoked > 0 && s.publisher != nil {
		event := events.NewEvent(events.EventAuthSessionsRevoked, events.AuthSessionsRevokedEvent{
			UserID:        userID,
			KeptSessionID: keepSessionID,
			RevokedCount:  revoked,
		})
		if err := s.publisher.Publish(ctx, events.TopicMaintenance, event); err != nil {
			s.logger.Warn("Failed to publish session revocation event", "error", err)
		}
	}
	return revoked, nil
}

// RunSweep runs the cleanup operations fault-isolated and publishes a sweep
// event. Safe to run redundantly: every operation is a set-based statement.
func (s *sessionMaintenanceService) RunSweep(ctx context.Context) MaintenanceSweepResult {
	started := time.Now()

	result := MaintenanceSweepResult{
		ExpiredDeleted: s.CleanupExpiredSessions(ctx),
		UnusedDeleted:  s.CleanupInactiveSessions(ctx),
	}
	result.Duration = time.Since(started)

	s.logger.Info("Maintenance sweep completed",
		"expired_deleted", result.ExpiredDeleted,
		"unused_deleted", result.UnusedDeleted,
		"duration", result.Duration)

	if s.publisher != nil {
		event := events.NewEvent(events.EventMaintenanceSweepDone, events.MaintenanceSweepEvent{
			ExpiredDeleted: result.ExpiredDeleted,
			UnusedDeleted:  result.UnusedDeleted,
			DurationMS:     result.Duration.Milliseconds(),
		})
		if err := s.publisher.Publish(ctx, events.TopicMaintenance, event); err != nil {
			s.logger.Warn("Failed to publish maintenance sweep event", "error", err)
		}
	}

	return result
}

// MaintenanceSweepResult summarizes one combined maintenance run.
type MaintenanceSweepResult struct {
	ExpiredDeleted int64         `json:"expired_deleted"`
	UnusedDeleted  int64         `json:"unused_deleted"`
	Duration       time.Duration `json:"duration"`
}
