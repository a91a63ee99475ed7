package services

import (
	"time"

	"github.com/panjiggm/syntegra-app-sub008/internal/models"
)

// ===== PAGINATION =====

type Pagination struct {
	Page        int   `json:"page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNextPage bool  `json:"has_next_page"`
	HasPrevPage bool  `json:"has_prev_page"`
}

// NewPagination computes the derived page fields from a total row count.
func NewPagination(page, perPage int, total int64) Pagination {
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return Pagination{
		Page:        page,
		PerPage:     perPage,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}

// ===== INDIVIDUAL REPORTS =====

type IndividualReportParams struct {
	Page       int        `json:"page"`
	PerPage    int        `json:"per_page"`
	Search     string     `json:"search"`
	SessionID  *uint      `json:"session_id"`
	HasReports *bool      `json:"has_reports"`
	DateFrom   *time.Time `json:"date_from"`
	DateTo     *time.Time `json:"date_to"`
	SortBy     string     `json:"sort_by"`
	SortOrder  string     `json:"sort_order"`
}

// ParticipationInfo is one session a subject is registered in.
type ParticipationInfo struct {
	SessionID   uint                     `json:"session_id"`
	SessionName string                   `json:"session_name"`
	SessionCode string                   `json:"session_code"`
	Status      models.ParticipantStatus `json:"status"`
}

// IndividualReport merges subject identity, attempt statistics, session
// participation and aggregated fresh scores for one subject.
type IndividualReport struct {
	UserID       uint           `json:"user_id"`
	NIK          string         `json:"nik"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Gender       *models.Gender `json:"gender"`
	ProvinceCode *string        `json:"province_code"`

	TotalAttempts     int        `json:"total_attempts"`
	CompletedAttempts int        `json:"completed_attempts"`
	TotalTimeSpent    int        `json:"total_time_spent"`
	CompletionRate    float64    `json:"completion_rate"`
	DistinctTests     int        `json:"distinct_tests"`
	FirstTestDate     *time.Time `json:"first_test_date"`
	LastTestDate      *time.Time `json:"last_test_date"`

	Sessions []ParticipationInfo `json:"sessions"`

	OverallScore      float64  `json:"overall_score"`
	OverallPercentile *float64 `json:"overall_percentile"`
	OverallGrade      *string  `json:"overall_grade"`
	ScorableTests     int      `json:"scorable_tests"`
}

// IndividualReportSummary covers the current page, not the full filtered set.
type IndividualReportSummary struct {
	TotalIndividuals      int        `json:"total_individuals"`
	WithCompletedTests    int        `json:"with_completed_tests"`
	AverageCompletionRate float64    `json:"average_completion_rate"`
	DistinctSessions      int        `json:"distinct_sessions"`
	EarliestTestDate      *time.Time `json:"earliest_test_date"`
	LatestTestDate        *time.Time `json:"latest_test_date"`
	DiversityScore        float64    `json:"diversity_score"`
}

type IndividualReportsResult struct {
	Individuals []IndividualReport      `json:"individuals"`
	Pagination  Pagination              `json:"pagination"`
	Summary     IndividualReportSummary `json:"summary"`
	SortApplied string                  `json:"sort_applied"`
}

// ===== SESSION REPORTS =====

type SessionReportParams struct {
	Page      int        `json:"page"`
	PerPage   int        `json:"per_page"`
	Search    string     `json:"search"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	SortBy    string     `json:"sort_by"`
	SortOrder string     `json:"sort_order"`
}

// SessionReport merges session identity with independently queried
// statistics. Status is derived from the time window at read time, never
// stored.
type SessionReport struct {
	SessionID      uint                 `json:"session_id"`
	SessionName    string               `json:"session_name"`
	SessionCode    string               `json:"session_code"`
	TargetPosition *string              `json:"target_position"`
	StartTime      time.Time            `json:"start_time"`
	EndTime        time.Time            `json:"end_time"`
	Status         models.SessionStatus `json:"status"`

	ModulesCount    int        `json:"modules_count"`
	TotalDuration   int        `json:"total_duration"`
	TotalRegistered int        `json:"total_registered"`
	TotalCompleted  int        `json:"total_completed"`
	CompletionRate  float64    `json:"completion_rate"`
	FirstActivity   *time.Time `json:"first_activity"`
	LastActivity    *time.Time `json:"last_activity"`

	AverageScore *float64    `json:"average_score"`
	ScoreRange   *ScoreRange `json:"score_range"`
}

type SessionReportSummary struct {
	TotalSessions    int     `json:"total_sessions"`
	ActiveSessions   int     `json:"active_sessions"`
	TotalRegistered  int     `json:"total_registered"`
	TotalCompleted   int     `json:"total_completed"`
	AverageCompletion float64 `json:"average_completion"`
}

type SessionReportsResult struct {
	Sessions    []SessionReport      `json:"sessions"`
	Pagination  Pagination           `json:"pagination"`
	Summary     SessionReportSummary `json:"summary"`
	SortApplied string               `json:"sort_applied"`
}
