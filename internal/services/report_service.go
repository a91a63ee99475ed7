package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/panjiggm/syntegra-app-sub008/internal/events"
	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
	"github.com/panjiggm/syntegra-app-sub008/internal/validator"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100

	// Indonesia's province count, the ceiling for the diversity
	// normalization.
	provinceCategories = 38
)

// Sort keys that would need a cross-table aggregate computed for every
// subject before pagination. They fall back to a stable proxy sort, surfaced
// to callers via sort_applied.
var aggregateSortFallbacks = map[string]string{
	"overall_score":   "name",
	"completion_rate": "name",
	"last_test_date":  "created_at",
}

var individualSortColumns = map[string]bool{
	"name":       true,
	"email":      true,
	"created_at": true,
}

type reportService struct {
	repo        repositories.Repository
	freshScores FreshScoreService
	publisher   events.EventPublisher
	logger      *slog.Logger
	validator   *validator.Validator
}

func NewReportService(repo repositories.Repository, freshScores FreshScoreService, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ReportService {
	return &reportService{
		repo:        repo,
		freshScores: freshScores,
		publisher:   publisher,
		logger:      logger,
		validator:   validator,
	}
}

// GetIndividualReports assembles the paginated individual report list.
// Non-admin callers are silently narrowed to their own subject id. Statistics
// sources are merged partial-join-tolerantly: a failed sub-query logs and
// leaves defaults, only the subject list fetch is fatal.
func (s *reportService) GetIndividualReports(ctx context.Context, params IndividualReportParams, callerID uint, callerRole models.UserRole) (*IndividualReportsResult, error) {
	started := time.Now()

	page, perPage := normalizePagination(params.Page, params.PerPage)
	sortBy, sortApplied := resolveIndividualSort(params.SortBy)
	sortOrder := params.SortOrder
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "asc"
	}

	// has_reports runs inside the subject query so pagination totals count
	// the filtered set, not the raw population.
	filters := repositories.UserFilters{
		Search:     params.Search,
		SessionID:  params.SessionID,
		HasReports: params.HasReports,
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
		SortBy:     sortBy,
		SortOrder:  sortOrder,
	}
	role := models.RoleParticipant
	filters.Role = &role

	if callerRole != models.RoleAdmin {
		filters.UserIDs = []uint{callerID}
	}

	users, total, err := s.repo.User().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subjects for individual reports: %w", err)
	}

	userIDs := make([]uint, 0, len(users))
	for _, user := range users {
		userIDs = append(userIDs, user.ID)
	}

	// Pre-seed defaults so a subject missing from any statistics source
	// still appears with zeroed fields.
	reports := make(map[uint]*IndividualReport, len(users))
	order := make([]uint, 0, len(users))
	for _, user := range users {
		reports[user.ID] = &IndividualReport{
			UserID:       user.ID,
			NIK:          user.NIK,
			Name:         user.Name,
			Email:        user.Email,
			Gender:       user.Gender,
			ProvinceCode: user.ProvinceCode,
			Sessions:     []ParticipationInfo{},
		}
		order = append(order, user.ID)
	}

	s.mergeAttemptStats(ctx, userIDs, reports)
	s.mergeParticipation(ctx, userIDs, reports)
	s.mergeFreshScores(ctx, userIDs, params, reports)
	s.mergeDistinctTests(ctx, userIDs, reports)

	individuals := make([]IndividualReport, 0, len(order))
	for _, id := range order {
		individuals = append(individuals, *reports[id])
	}

	result := &IndividualReportsResult{
		Individuals: individuals,
		Pagination:  NewPagination(page, perPage, total),
		Summary:     buildIndividualSummary(individuals),
		SortApplied: sortApplied,
	}

	s.publishReportEvent(ctx, "individual", callerID, len(individuals), page, perPage, started)
	return result, nil
}

func (s *reportService) mergeAttemptStats(ctx context.Context, userIDs []uint, reports map[uint]*IndividualReport) {
	stats, err := s.repo.Attempt().GetStatsByUsers(ctx, nil, userIDs)
	if err != nil {
		s.logger.Error("Failed to fetch attempt statistics, using zeroed defaults", "error", err)
		return
	}
	for _, row := range stats {
		report, ok := reports[row.UserID]
		if !ok {
			continue
		}
		report.TotalAttempts = row.TotalAttempts
		report.CompletedAttempts = row.CompletedAttempts
		report.TotalTimeSpent = row.TotalTimeSpent
		report.FirstTestDate = row.FirstTestDate
		report.LastTestDate = row.LastTestDate
		if row.TotalAttempts > 0 {
			report.CompletionRate = roundFloat(float64(row.CompletedAttempts)/float64(row.TotalAttempts)*100, 2)
		}
	}
}

func (s *reportService) mergeParticipation(ctx context.Context, userIDs []uint, reports map[uint]*IndividualReport) {
	rows, err := s.repo.Session().GetParticipationByUsers(ctx, nil, userIDs)
	if err != nil {
		s.logger.Error("Failed to fetch session participation, using empty defaults", "error", err)
		return
	}
	for _, row := range rows {
		report, ok := reports[row.UserID]
		if !ok {
			continue
		}
		report.Sessions = append(report.Sessions, ParticipationInfo{
			SessionID:   row.SessionID,
			SessionName: row.SessionName,
			SessionCode: row.SessionCode,
			Status:      row.Status,
		})
	}
}

func (s *reportService) mergeFreshScores(ctx context.Context, userIDs []uint, params IndividualReportParams, reports map[uint]*IndividualReport) {
	scores, err := s.freshScores.CalculateForUsers(ctx, userIDs, params.SessionID, params.DateFrom, params.DateTo)
	if err != nil {
		s.logger.Error("Failed to calculate fresh scores, omitting score fields", "error", err)
		return
	}
	for userID, userScores := range GroupFreshScoresByUser(scores) {
		report, ok := reports[userID]
		if !ok {
			continue
		}
		summary := CalculateUserAverageFromFreshScores(userScores)
		report.OverallScore = summary.OverallScore
		report.OverallPercentile = summary.OverallPercentile
		report.OverallGrade = summary.OverallGrade
		report.ScorableTests = summary.ScorableTests
	}
}

func (s *reportService) mergeDistinctTests(ctx context.Context, userIDs []uint, reports map[uint]*IndividualReport) {
	counts, err := s.repo.Report().CountDistinctTestsTaken(ctx, nil, userIDs)
	if err != nil {
		s.logger.Error("Failed to count distinct tests taken, using zeroed defaults", "error", err)
		return
	}
	for userID, count := range counts {
		if report, ok := reports[userID]; ok {
			report.DistinctTests = count
		}
	}
}

func buildIndividualSummary(individuals []IndividualReport) IndividualReportSummary {
	summary := IndividualReportSummary{TotalIndividuals: len(individuals)}
	if len(individuals) == 0 {
		return summary
	}

	var completionSum float64
	sessionSet := make(map[uint]struct{})
	provinces := make(map[string]int)

	for _, report := range individuals {
		if report.CompletedAttempts > 0 {
			summary.WithCompletedTests++
		}
		completionSum += report.CompletionRate
		for _, session := range report.Sessions {
			sessionSet[session.SessionID] = struct{}{}
		}
		if report.FirstTestDate != nil {
			if summary.EarliestTestDate == nil || report.FirstTestDate.Before(*summary.EarliestTestDate) {
				summary.EarliestTestDate = report.FirstTestDate
			}
		}
		if report.LastTestDate != nil {
			if summary.LatestTestDate == nil || report.LastTestDate.After(*summary.LatestTestDate) {
				summary.LatestTestDate = report.LastTestDate
			}
		}
		province := "unknown"
		if report.ProvinceCode != nil && *report.ProvinceCode != "" {
			province = *report.ProvinceCode
		}
		provinces[province]++
	}

	summary.AverageCompletionRate = roundFloat(completionSum/float64(len(individuals)), 2)
	summary.DistinctSessions = len(sessionSet)
	summary.DiversityScore = diversityScore(provinces, provinceCategories)
	return summary
}

// diversityScore is a normalized Shannon entropy over a categorical
// distribution: 0 when everyone shares one category, approaching 1 as the
// population spreads evenly over more categories.
func diversityScore(counts map[string]int, maxCategories int) float64 {
	total := 0
	for _, count := range counts {
		total += count
	}
	if total == 0 || len(counts) < 2 {
		return 0
	}

	entropy := 0.0
	for _, count := range counts {
		if count == 0 {
			continue
		}
		p := float64(count) / float64(total)
		entropy -= p * math.Log(p)
	}

	normalized := entropy / math.Log(float64(maxCategories))
	return roundFloat(clamp(normalized, 0, 1), 4)
}

func normalizePagination(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func resolveIndividualSort(requested string) (column, applied string) {
	if requested == "" {
		return "name", "name"
	}
	if fallback, ok := aggregateSortFallbacks[requested]; ok {
		return fallback, fallback
	}
	if individualSortColumns[requested] {
		return requested, requested
	}
	return "name", "name"
}

func (s *reportService) publishReportEvent(ctx context.Context, reportType string, callerID uint, count, page, perPage int, started time.Time) {
	if s.publisher == nil {
		return
	}
	event := events.NewEvent(events.EventReportGenerated, events.ReportGeneratedEvent{
		ReportType:  reportType,
		RequestedBy: callerID,
		ResultCount: count,
		Page:        page,
		PageSize:    perPage,
		DurationMS:  time.Since(started).Milliseconds(),
	})
	if err := s.publisher.Publish(ctx, events.TopicReports, event); err != nil {
		s.logger.Warn("Failed to publish report event", "error", err, "report_type", reportType)
	}
}
