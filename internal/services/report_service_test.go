package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/panjiggm/syntegra-app-sub008/internal/events"
	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
	"github.com/panjiggm/syntegra-app-sub008/internal/validator"
)

func makeParticipant(id uint, name, email string, province string) *models.User {
	user := &models.User{
		ID:    id,
		Name:  name,
		Email: email,
		Role:  models.RoleParticipant,
	}
	if province != "" {
		user.ProvinceCode = strPtr(province)
	}
	return user
}

func newReportService(repo *mockRepository, fresh FreshScoreService, publisher events.EventPublisher) ReportService {
	return NewReportService(repo, fresh, publisher, testLogger(), validator.New())
}

func TestGetIndividualReports_NonAdminNarrowedToSelf(t *testing.T) {
	repo := newMockRepository()
	var captured repositories.UserFilters
	repo.user.listFn = func(filters repositories.UserFilters) ([]*models.User, int64, error) {
		captured = filters
		return []*models.User{makeParticipant(5, "Budi", "budi@example.com", "31")}, 1, nil
	}

	svc := newReportService(repo, &stubFreshScoreService{}, nil)
	result, err := svc.GetIndividualReports(context.Background(), IndividualReportParams{}, 5, models.RoleParticipant)
	if err != nil {
		t.Fatalf("GetIndividualReports returned error: %v", err)
	}

	if len(captured.UserIDs) != 1 || captured.UserIDs[0] != 5 {
		t.Errorf("filters.UserIDs = %v, want [5]", captured.UserIDs)
	}
	if captured.Role == nil || *captured.Role != models.RoleParticipant {
		t.Error("expected subject list to be restricted to participants")
	}
	if len(result.Individuals) != 1 || result.Individuals[0].UserID != 5 {
		t.Errorf("got %d individuals, want only the caller", len(result.Individuals))
	}
}

func TestGetIndividualReports_AdminSeesUnfilteredPopulation(t *testing.T) {
	repo := newMockRepository()
	var captured repositories.UserFilters
	repo.user.listFn = func(filters repositories.UserFilters) ([]*models.User, int64, error) {
		captured = filters
		return []*models.User{
			makeParticipant(5, "Budi", "budi@example.com", "31"),
			makeParticipant(6, "Sari", "sari@example.com", "32"),
		}, 2, nil
	}

	svc := newReportService(repo, &stubFreshScoreService{}, nil)
	result, err := svc.GetIndividualReports(context.Background(), IndividualReportParams{}, 1, models.RoleAdmin)
	if err != nil {
		t.Fatalf("GetIndividualReports returned error: %v", err)
	}

	if len(captured.UserIDs) != 0 {
		t.Errorf("admin calls must not carry a UserIDs restriction, got %v", captured.UserIDs)
	}
	if len(result.Individuals) != 2 {
		t.Errorf("got %d individuals, want 2", len(result.Individuals))
	}
}

func TestGetIndividualReports_PaginationMath(t *testing.T) {
	repo := newMockRepository()
	var captured repositories.UserFilters
	repo.user.listFn = func(filters repositories.UserFilters) ([]*models.User, int64, error) {
		captured = filters
		return []*models.User{makeParticipant(5, "Budi", "budi@example.com", "")}, 45, nil
	}

	svc := newReportService(repo, &stubFreshScoreService{}, nil)
	result, err := svc.GetIndividualReports(context.Background(), IndividualReportParams{Page: 2, PerPage: 20}, 1, models.RoleAdmin)
	if err != nil {
		t.Fatalf("GetIndividualReports returned error: %v", err)
	}

	if captured.Offset != 20 || captured.Limit != 20 {
		t.Errorf("offset/limit = %d/%d, want 20/20", captured.Offset, captured.Limit)
	}
	p := result.Pagination
	if p.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", p.TotalPages)
	}
	if !p.HasNextPage || !p.HasPrevPage {
		t.Errorf("HasNextPage/HasPrevPage = %v/%v, want true/true", p.HasNextPage, p.HasPrevPage)
	}
}

func TestGetIndividualReports_PerPageClamped(t *testing.T) {
	repo := newMockRepository()
	var captured repositories.UserFilters
	repo.user.listFn = func(filters repositories.UserFilters) ([]*models.User, int64, error) {
		captured = filters
		return []*models.User{}, 0, nil
	}

	svc := newReportService(repo, &stubFreshScoreService{}, nil)
	if _, err := svc.GetIndividualReports(context.Background(), IndividualReportParams{Page: 0, PerPage: 500}, 1, models.RoleAdmin); err != nil {
		t.Fatalf("GetIndividualReports returned error: %v", err)
	}
	if captured.Limit != maxPerPage {
		t.Errorf("Limit = %d, want clamped to %d", captured.Limit, maxPerPage)
	}
	if captured.Offset != 0 {
		t.Errorf("Offset = %d, want 0 for normalized page 1", captured.Offset)
	}
}

func TestGetIndividualReports_AggregateSortFallsBack(t *testing.T) {
	repo := newMockRepository()
	var captured repositories.UserFilters
	repo.user.listFn = func(filters repositories.UserFilters) ([]*models.User, int64, error) {
		captured = filters
		return []*models.User{}, 0, nil
	}

	svc := newReportService(repo, &stubFreshScoreService{}, nil)
	result, err := svc.GetIndividualReports(context.Background(), IndividualReportParams{SortBy: "overall_score"}, 1, models.RoleAdmin)
	if err != nil {
		t.Fatalf("GetIndividualReports returned error: %v", err)
	}
	if captured.SortBy != "name" {
		t.Errorf("SortBy passed to storage = %q, want fallback %q", captured.SortBy, "name")
	}
	if result.SortApplied != "name" {
		t.Errorf("SortApplied = %q, want %q", result.SortApplied, "name")
	}
}

func TestGetIndividualReports_SubjectListFailureIsFatal(t *testing.T) {
	repo := newMockRepository()
	repo.user.listFn = func(filters repositories.UserFilters) ([]*models.User, int64, error) {
		return nil, 0, errors.New("connection refused")
	}

	svc := newReportService(repo, &stubFreshScoreService{}, nil)
	if _, err := svc.GetIndividualReports(context.Background(), IndividualReportParams{}, 1, models.RoleAdmin); err == nil {
		t.Fatal("expected error when the subject list fetch fails")
	}
}

func TestGetIndividualReports_PartialJoinKeepsSubjects(t *testing.T) {
	repo := newMockRepository()
	repo.user.listFn = func(filters repositories.UserFilters) ([]*models.User, int64, error) {
		return []*models.User{
			makeParticipant(5, "Budi", "budi@example.com", "31"),
			makeParticipant(6, "Sari", "sari@example.com", "32"),
		}, 2, nil
	}
	// Every statistics source fails; subjects must still be listed with
	// zeroed defaults.
	repo.attempt.statsFn = func(userIDs []uint) ([]repositories.UserAttemptStatsRow, error) {
		return nil, errors.New("timeout")
	}
	repo.session.participationFn = func(userIDs []uint) ([]repositories.ParticipationRow, error) {
		return nil, errors.New("timeout")
	}
	repo.report.distinctTestsFn = func(userIDs []uint) (map[uint]int, error) {
		return nil, errors.New("timeout")
	}
	fresh := &stubFreshScoreService{forUsersFn: func(userIDs []uint) ([]FreshScore, error) {
		return nil, errors.New("timeout")
	}}

	svc := newReportService(repo, fresh, nil)
	result, err := svc.GetIndividualReports(context.Background(), IndividualReportParams{}, 1, models.RoleAdmin)
	if err != nil {
		t.Fatalf("GetIndividualReports returned error: %v", err)
	}

	if len(result.Individuals) != 2 {
		t.Fatalf("got %d individuals, want 2 despite failed sub-queries", len(result.Individuals))
	}
	first := result.Individuals[0]
	if first.TotalAttempts != 0 || first.CompletionRate != 0 || first.OverallScore != 0 {
		t.Errorf("expected zeroed defaults, got %+v", first)
	}
	if first.Sessions == nil || len(first.Sessions) != 0 {
		t.Errorf("Sessions = %v, want empty non-nil slice", first.Sessions)
	}
}

func TestGetIndividualReports_MergesAllSources(t *testing.T) {
	firstDate := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	lastDate := time.Date(2026, 3, 15, 14, 0, 0, 0, time.UTC)

	repo := newMockRepository()
	repo.user.listFn = func(filters repositories.UserFilters) ([]*models.User, int64, error) {
		return []*models.User{makeParticipant(5, "Budi", "budi@example.com", "31")}, 1, nil
	}
	repo.attempt.statsFn = func(userIDs []uint) ([]repositories.UserAttemptStatsRow, error) {
		return []repositories.UserAttemptStatsRow{{
			UserID:            5,
			TotalAttempts:     4,
			CompletedAttempts: 3,
			TotalTimeSpent:    3600,
			FirstTestDate:     &firstDate,
			LastTestDate:      &lastDate,
		}}, nil
	}
	repo.session.participationFn = func(userIDs []uint) ([]repositories.ParticipationRow, error) {
		return []repositories.ParticipationRow{{
			UserID:      5,
			SessionID:   7,
			SessionName: "Batch March",
			SessionCode: "PSY-2026-03",
			Status:      models.ParticipantCompleted,
		}}, nil
	}
	repo.report.distinctTestsFn = func(userIDs []uint) (map[uint]int, error) {
		return map[uint]int{5: 3}, nil
	}
	fresh := &stubFreshScoreService{forUsersFn: func(userIDs []uint) ([]FreshScore, error) {
		return []FreshScore{
			{UserID: 5, TestID: 1, ScaledScore: 90, Percentile: floatPtr(80)},
			{UserID: 5, TestID: 2, ScaledScore: 80, Percentile: floatPtr(60)},
		}, nil
	}}

	svc := newReportService(repo, fresh, nil)
	result, err := svc.GetIndividualReports(context.Background(), IndividualReportParams{}, 1, models.RoleAdmin)
	if err != nil {
		t.Fatalf("GetIndividualReports returned error: %v", err)
	}

	if len(result.Individuals) != 1 {
		t.Fatalf("got %d individuals, want 1", len(result.Individuals))
	}
	report := result.Individuals[0]
	if report.CompletionRate != 75 {
		t.Errorf("CompletionRate = %v, want 75", report.CompletionRate)
	}
	if report.DistinctTests != 3 {
		t.Errorf("DistinctTests = %d, want 3", report.DistinctTests)
	}
	if len(report.Sessions) != 1 || report.Sessions[0].SessionCode != "PSY-2026-03" {
		t.Errorf("Sessions = %+v, want the registered session", report.Sessions)
	}
	if report.OverallScore != 85 {
		t.Errorf("OverallScore = %v, want 85", report.OverallScore)
	}
	if report.OverallGrade == nil || *report.OverallGrade != "B" {
		t.Errorf("OverallGrade = %v, want B", report.OverallGrade)
	}
	if report.OverallPercentile == nil || *report.OverallPercentile != 70 {
		t.Errorf("OverallPercentile = %v, want 70", report.OverallPercentile)
	}
	if report.FirstTestDate == nil || !report.FirstTestDate.Equal(firstDate) {
		t.Errorf("FirstTestDate = %v, want %v", report.FirstTestDate, firstDate)
	}
}

func TestGetIndividualReports_HasReportsFilter(t *testing.T) {
	repo := newMockRepository()
	var gotFilters repositories.UserFilters
	repo.user.listFn = func(filters repositories.UserFilters) ([]*models.User, int64, error) {
		gotFilters = filters
		// The storage layer resolves has_reports, so only the matching
		// subject comes back and the total counts the filtered set.
		return []*models.User{
			makeParticipant(5, "Budi", "budi@example.com", ""),
		}, 1, nil
	}
	repo.attempt.statsFn = func(userIDs []uint) ([]repositories.UserAttemptStatsRow, error) {
		return []repositories.UserAttemptStatsRow{
			{UserID: 5, TotalAttempts: 2, CompletedAttempts: 2},
		}, nil
	}

	hasReports := true
	svc := newReportService(repo, &stubFreshScoreService{}, nil)
	result, err := svc.GetIndividualReports(context.Background(), IndividualReportParams{HasReports: &hasReports}, 1, models.RoleAdmin)
	if err != nil {
		t.Fatalf("GetIndividualReports returned error: %v", err)
	}
	if gotFilters.HasReports == nil || !*gotFilters.HasReports {
		t.Fatal("has_reports was not pushed into the subject query")
	}
	if len(result.Individuals) != 1 || result.Individuals[0].UserID != 5 {
		t.Errorf("got %d individuals, want only the subject with completed attempts", len(result.Individuals))
	}
	if result.Pagination.Total != 1 {
		t.Errorf("Pagination.Total = %d, want 1: totals must count the filtered set", result.Pagination.Total)
	}
}

func TestGetIndividualReports_PublishesEvent(t *testing.T) {
	repo := newMockRepository()
	repo.user.listFn = func(filters repositories.UserFilters) ([]*models.User, int64, error) {
		return []*models.User{makeParticipant(5, "Budi", "budi@example.com", "")}, 1, nil
	}
	publisher := events.NewMockEventPublisher(testLogger())

	svc := newReportService(repo, &stubFreshScoreService{}, publisher)
	if _, err := svc.GetIndividualReports(context.Background(), IndividualReportParams{}, 1, models.RoleAdmin); err != nil {
		t.Fatalf("GetIndividualReports returned error: %v", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("got %d published events, want 1", len(published))
	}
	event := published[0]
	if event.Type != events.EventReportGenerated {
		t.Errorf("event type = %q, want %q", event.Type, events.EventReportGenerated)
	}
	if event.ID == "" {
		t.Error("event ID must be set")
	}
	if event.Version != "1.0" {
		t.Errorf("event version = %q, want 1.0", event.Version)
	}
	if event.Timestamp.IsZero() {
		t.Error("event timestamp must be set")
	}
}

func TestDiversityScore(t *testing.T) {
	tests := []struct {
		name   string
		counts map[string]int
		want   float64
	}{
		{
			name:   "single category is zero",
			counts: map[string]int{"31": 10},
			want:   0,
		},
		{
			name:   "empty is zero",
			counts: map[string]int{},
			want:   0,
		},
		{
			name:   "even split over two categories",
			counts: map[string]int{"31": 5, "32": 5},
			want:   roundFloat(math.Log(2)/math.Log(38), 4),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := diversityScore(tt.counts, provinceCategories)
			if got != tt.want {
				t.Errorf("diversityScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiversityScore_GrowsWithSpread(t *testing.T) {
	two := diversityScore(map[string]int{"31": 5, "32": 5}, provinceCategories)
	four := diversityScore(map[string]int{"31": 5, "32": 5, "33": 5, "34": 5}, provinceCategories)
	if four <= two {
		t.Errorf("diversity over four categories (%v) should exceed two (%v)", four, two)
	}
	if four < 0 || four > 1 {
		t.Errorf("diversity %v outside [0,1]", four)
	}
}
