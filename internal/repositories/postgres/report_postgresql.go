package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
)

type ReportPostgreSQL struct {
	db *gorm.DB
}

func NewReportPostgreSQL(db *gorm.DB) repositories.ReportRepository {
	return &ReportPostgreSQL{db: db}
}

func (r *ReportPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *ReportPostgreSQL) GetSessionStats(ctx context.Context, tx *gorm.DB, sessionIDs []uint) ([]repositories.SessionStatsRow, error) {
	if len(sessionIDs) == 0 {
		return []repositories.SessionStatsRow{}, nil
	}

	db := r.getDB(tx)
	var rows []repositories.SessionStatsRow
	err := db.WithContext(ctx).Raw(`
		SELECT
			ts.id AS session_id,
			COALESCE(m.modules_count, 0) AS modules_count,
			COALESCE(m.total_duration, 0) AS total_duration,
			COALESCE(p.total_registered, 0) AS total_registered,
			COALESCE(p.total_completed, 0) AS total_completed,
			a.first_activity,
			a.last_activity
		FROM test_sessions ts
		LEFT JOIN (
			SELECT sm.session_id,
				COUNT(*) AS modules_count,
				COALESCE(SUM(t.time_limit), 0) AS total_duration
			FROM session_modules sm
			JOIN tests t ON t.id = sm.test_id
			GROUP BY sm.session_id
		) m ON m.session_id = ts.id
		LEFT JOIN (
			SELECT sp.session_id,
				COUNT(*) AS total_registered,
				COUNT(*) FILTER (WHERE sp.status = 'completed') AS total_completed
			FROM session_participants sp
			GROUP BY sp.session_id
		) p ON p.session_id = ts.id
		LEFT JOIN (
			SELECT sm.session_id,
				MIN(ta.start_time) AS first_activity,
				MAX(ta.start_time) AS last_activity
			FROM test_attempts ta
			JOIN session_modules sm ON sm.id = ta.session_module_id
			GROUP BY sm.session_id
		) a ON a.session_id = ts.id
		WHERE ts.id IN ?`, sessionIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get session stats: %w", err)
	}
	return rows, nil
}

func (r *ReportPostgreSQL) CountDistinctTestsTaken(ctx context.Context, tx *gorm.DB, userIDs []uint) (map[uint]int, error) {
	result := make(map[uint]int)
	if len(userIDs) == 0 {
		return result, nil
	}

	db := r.getDB(tx)
	var rows []struct {
		UserID uint `json:"user_id"`
		Count  int  `json:"count"`
	}
	err := db.WithContext(ctx).Raw(`
		SELECT user_id, COUNT(DISTINCT test_id) AS count
		FROM test_attempts
		WHERE user_id IN ?
		GROUP BY user_id`, userIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count distinct tests taken: %w", err)
	}

	for _, row := range rows {
		result[row.UserID] = row.Count
	}
	return result, nil
}
