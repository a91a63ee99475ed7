package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/panjiggm/syntegra-app-sub008/internal/events"
	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
	"github.com/panjiggm/syntegra-app-sub008/internal/validator"
)

// Caps the concurrent per-session score fan-out within one request.
const sessionScoreFanout = 8

var sessionSortColumns = map[string]bool{
	"session_name": true,
	"start_time":   true,
	"created_at":   true,
}

type sessionReportService struct {
	repo        repositories.Repository
	freshScores FreshScoreService
	publisher   events.EventPublisher
	logger      *slog.Logger
	validator   *validator.Validator
}

func NewSessionReportService(repo repositories.Repository, freshScores FreshScoreService, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) SessionReportService {
	return &sessionReportService{
		repo:        repo,
		freshScores: freshScores,
		publisher:   publisher,
		logger:      logger,
		validator:   validator,
	}
}

// GetSessionReports assembles the admin-only session report list. Session
// status is derived from the time window at read time. Per-session score
// statistics are fetched concurrently and merged partial-join-tolerantly.
func (s *sessionReportService) GetSessionReports(ctx context.Context, params SessionReportParams, callerID uint, callerRole models.UserRole) (*SessionReportsResult, error) {
	if callerRole != models.RoleAdmin {
		return nil, NewPermissionError(callerID, "session_reports", "Access denied: admin role required")
	}

	started := time.Now()

	page, perPage := normalizePagination(params.Page, params.PerPage)
	sortBy, sortApplied := resolveSessionSort(params.SortBy)
	sortOrder := params.SortOrder
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	sessions, total, err := s.repo.Session().List(ctx, nil, repositories.SessionFilters{
		Search:    params.Search,
		DateFrom:  params.DateFrom,
		DateTo:    params.DateTo,
		Limit:     perPage,
		Offset:    (page - 1) * perPage,
		SortBy:    sortBy,
		SortOrder: sortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions for reports: %w", err)
	}

	now := time.Now()
	reports := make(map[uint]*SessionReport, len(sessions))
	order := make([]uint, 0, len(sessions))
	sessionIDs := make([]uint, 0, len(sessions))
	for _, session := range sessions {
		reports[session.ID] = &SessionReport{
			SessionID:      session.ID,
			SessionName:    session.SessionName,
			SessionCode:    session.SessionCode,
			TargetPosition: session.TargetPosition,
			StartTime:      session.StartTime,
			EndTime:        session.EndTime,
			Status:         session.Status(now),
		}
		order = append(order, session.ID)
		sessionIDs = append(sessionIDs, session.ID)
	}

	s.mergeSessionStats(ctx, sessionIDs, reports)
	s.mergeSessionScores(ctx, sessionIDs, reports)

	result := &SessionReportsResult{
		Sessions:    make([]SessionReport, 0, len(order)),
		Pagination:  NewPagination(page, perPage, total),
		SortApplied: sortApplied,
	}
	for _, id := range order {
		result.Sessions = append(result.Sessions, *reports[id])
	}
	result.Summary = buildSessionSummary(result.Sessions)

	s.publishReportEvent(ctx, callerID, len(result.Sessions), page, perPage, started)
	return result, nil
}

func (s *sessionReportService) mergeSessionStats(ctx context.Context, sessionIDs []uint, reports map[uint]*SessionReport) {
	stats, err := s.repo.Report().GetSessionStats(ctx, nil, sessionIDs)
	if err != nil {
		s.logger.Error("Failed to fetch session statistics, using zeroed defaults", "error", err)
		return
	}
	for _, row := range stats {
		report, ok := reports[row.SessionID]
		if !ok {
			continue
		}
		report.ModulesCount = row.ModulesCount
		report.TotalDuration = row.TotalDuration
		report.TotalRegistered = row.TotalRegistered
		report.TotalCompleted = row.TotalCompleted
		report.FirstActivity = row.FirstActivity
		report.LastActivity = row.LastActivity
		if row.TotalRegistered > 0 {
			report.CompletionRate = roundFloat(float64(row.TotalCompleted)/float64(row.TotalRegistered)*100, 2)
		}
	}
}

// mergeSessionScores fans out one fresh-score computation per session. A
// failed session logs and keeps its nil score fields; the rest of the page
// is unaffected.
func (s *sessionReportService) mergeSessionScores(ctx context.Context, sessionIDs []uint, reports map[uint]*SessionReport) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sessionScoreFanout)

	var mu sync.Mutex
	for _, sessionID := range sessionIDs {
		sessionID := sessionID
		g.Go(func() error {
			scores, err := s.freshScores.CalculateForSession(gctx, sessionID)
			if err != nil {
				s.logger.Error("Failed to calculate session scores, omitting score fields",
					"error", err,
					"session_id", sessionID)
				return nil
			}
			summary := CalculateSessionScoreStats(scores)

			mu.Lock()
			if report, ok := reports[sessionID]; ok {
				report.AverageScore = summary.AverageScore
				report.ScoreRange = summary.Range
			}
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()
}

func buildSessionSummary(sessions []SessionReport) SessionReportSummary {
	summary := SessionReportSummary{TotalSessions: len(sessions)}
	if len(sessions) == 0 {
		return summary
	}

	var completionSum float64
	for _, session := range sessions {
		if session.Status == models.SessionActive {
			summary.ActiveSessions++
		}
		summary.TotalRegistered += session.TotalRegistered
		summary.TotalCompleted += session.TotalCompleted
		completionSum += session.CompletionRate
	}
	summary.AverageCompletion = roundFloat(completionSum/float64(len(sessions)), 2)
	return summary
}

func resolveSessionSort(requested string) (column, applied string) {
	if requested == "" {
		return "start_time", "start_time"
	}
	if sessionSortColumns[requested] {
		return requested, requested
	}
	// Aggregate keys (completion_rate, average_score) would need every
	// session scored before pagination.
	return "start_time", "start_time"
}

func (s *sessionReportService) publishReportEvent(ctx context.Context, callerID uint, count, page, perPage int, started time.Time) {
	if s.publisher == nil {
		return
	}
	event := events.NewEvent(events.EventReportGenerated, events.ReportGeneratedEvent{
		ReportType:  "session",
		RequestedBy: callerID,
		ResultCount: count,
		Page:        page,
		PageSize:    perPage,
		DurationMS:  time.Since(started).Milliseconds(),
	})
	if err := s.publisher.Publish(ctx, events.TopicReports, event); err != nil {
		s.logger.Warn("Failed to publish report event", "error", err, "report_type", "session")
	}
}
