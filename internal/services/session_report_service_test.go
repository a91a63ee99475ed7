package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/panjiggm/syntegra-app-sub008/internal/events"
	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
	"github.com/panjiggm/syntegra-app-sub008/internal/validator"
)

func makeSession(id uint, name, code string, start, end time.Time) *models.TestSession {
	return &models.TestSession{
		ID:          id,
		SessionName: name,
		SessionCode: code,
		StartTime:   start,
		EndTime:     end,
	}
}

func newSessionReportService(repo *mockRepository, fresh FreshScoreService, publisher events.EventPublisher) SessionReportService {
	return NewSessionReportService(repo, fresh, publisher, testLogger(), validator.New())
}

func TestGetSessionReports_NonAdminForbidden(t *testing.T) {
	svc := newSessionReportService(newMockRepository(), &stubFreshScoreService{}, nil)
	_, err := svc.GetSessionReports(context.Background(), SessionReportParams{}, 5, models.RoleParticipant)
	if err == nil {
		t.Fatal("expected permission error for non-admin caller")
	}
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("error %v should unwrap to ErrForbidden", err)
	}
	var permErr *PermissionError
	if !errors.As(err, &permErr) {
		t.Fatalf("error %v should be a *PermissionError", err)
	}
	if permErr.Message != "Access denied: admin role required" {
		t.Errorf("message = %q, want the fixed denial message", permErr.Message)
	}
}

func TestGetSessionReports_DerivedStatus(t *testing.T) {
	now := time.Now()
	repo := newMockRepository()
	repo.session.listFn = func(filters repositories.SessionFilters) ([]*models.TestSession, int64, error) {
		return []*models.TestSession{
			makeSession(1, "Past", "PSY-1", now.Add(-48*time.Hour), now.Add(-24*time.Hour)),
			makeSession(2, "Running", "PSY-2", now.Add(-time.Hour), now.Add(time.Hour)),
			makeSession(3, "Upcoming", "PSY-3", now.Add(24*time.Hour), now.Add(48*time.Hour)),
		}, 3, nil
	}

	svc := newSessionReportService(repo, &stubFreshScoreService{}, nil)
	result, err := svc.GetSessionReports(context.Background(), SessionReportParams{}, 1, models.RoleAdmin)
	if err != nil {
		t.Fatalf("GetSessionReports returned error: %v", err)
	}
	if len(result.Sessions) != 3 {
		t.Fatalf("got %d sessions, want 3", len(result.Sessions))
	}

	want := []models.SessionStatus{models.SessionCompleted, models.SessionActive, models.SessionUpcoming}
	for i, session := range result.Sessions {
		if session.Status != want[i] {
			t.Errorf("session %d status = %q, want %q", session.SessionID, session.Status, want[i])
		}
	}
	if result.Summary.ActiveSessions != 1 {
		t.Errorf("ActiveSessions = %d, want 1", result.Summary.ActiveSessions)
	}
}

func TestGetSessionReports_CompletionRate(t *testing.T) {
	now := time.Now()
	repo := newMockRepository()
	repo.session.listFn = func(filters repositories.SessionFilters) ([]*models.TestSession, int64, error) {
		return []*models.TestSession{
			makeSession(1, "Filled", "PSY-1", now, now.Add(time.Hour)),
			makeSession(2, "Empty", "PSY-2", now, now.Add(time.Hour)),
		}, 2, nil
	}
	repo.report.sessionStatsFn = func(sessionIDs []uint) ([]repositories.SessionStatsRow, error) {
		return []repositories.SessionStatsRow{
			{SessionID: 1, TotalRegistered: 10, TotalCompleted: 4},
			{SessionID: 2, TotalRegistered: 0, TotalCompleted: 0},
		}, nil
	}

	svc := newSessionReportService(repo, &stubFreshScoreService{}, nil)
	result, err := svc.GetSessionReports(context.Background(), SessionReportParams{}, 1, models.RoleAdmin)
	if err != nil {
		t.Fatalf("GetSessionReports returned error: %v", err)
	}

	if result.Sessions[0].CompletionRate != 40 {
		t.Errorf("CompletionRate = %v, want 40", result.Sessions[0].CompletionRate)
	}
	if result.Sessions[1].CompletionRate != 0 {
		t.Errorf("CompletionRate for empty session = %v, want 0", result.Sessions[1].CompletionRate)
	}
	if result.Summary.TotalRegistered != 10 || result.Summary.TotalCompleted != 4 {
		t.Errorf("summary registered/completed = %d/%d, want 10/4",
			result.Summary.TotalRegistered, result.Summary.TotalCompleted)
	}
	if result.Summary.AverageCompletion != 20 {
		t.Errorf("AverageCompletion = %v, want 20", result.Summary.AverageCompletion)
	}
}

func TestGetSessionReports_ScoreFanout(t *testing.T) {
	now := time.Now()
	repo := newMockRepository()
	repo.session.listFn = func(filters repositories.SessionFilters) ([]*models.TestSession, int64, error) {
		return []*models.TestSession{
			makeSession(1, "Scored", "PSY-1", now, now.Add(time.Hour)),
			makeSession(2, "Failing", "PSY-2", now, now.Add(time.Hour)),
		}, 2, nil
	}
	fresh := &stubFreshScoreService{forSessionFn: func(sessionID uint) ([]FreshScore, error) {
		if sessionID == 2 {
			return nil, errors.New("timeout")
		}
		return []FreshScore{
			{UserID: 5, TestID: 1, ScaledScore: 40},
			{UserID: 6, TestID: 1, ScaledScore: 90},
		}, nil
	}}

	svc := newSessionReportService(repo, fresh, nil)
	result, err := svc.GetSessionReports(context.Background(), SessionReportParams{}, 1, models.RoleAdmin)
	if err != nil {
		t.Fatalf("GetSessionReports returned error: %v", err)
	}

	scored := result.Sessions[0]
	if scored.AverageScore == nil || *scored.AverageScore != 65 {
		t.Errorf("AverageScore = %v, want 65", scored.AverageScore)
	}
	if scored.ScoreRange == nil || scored.ScoreRange.Min != 40 || scored.ScoreRange.Max != 90 {
		t.Errorf("ScoreRange = %+v, want 40-90", scored.ScoreRange)
	}

	failing := result.Sessions[1]
	if failing.AverageScore != nil || failing.ScoreRange != nil {
		t.Error("failed score computation must leave nil score fields, not zeros")
	}
}

func TestGetSessionReports_AggregateSortFallsBack(t *testing.T) {
	repo := newMockRepository()
	var captured repositories.SessionFilters
	repo.session.listFn = func(filters repositories.SessionFilters) ([]*models.TestSession, int64, error) {
		captured = filters
		return []*models.TestSession{}, 0, nil
	}

	svc := newSessionReportService(repo, &stubFreshScoreService{}, nil)
	result, err := svc.GetSessionReports(context.Background(), SessionReportParams{SortBy: "completion_rate"}, 1, models.RoleAdmin)
	if err != nil {
		t.Fatalf("GetSessionReports returned error: %v", err)
	}
	if captured.SortBy != "start_time" {
		t.Errorf("SortBy passed to storage = %q, want fallback start_time", captured.SortBy)
	}
	if result.SortApplied != "start_time" {
		t.Errorf("SortApplied = %q, want start_time", result.SortApplied)
	}
}

func TestGetSessionReports_EmptyPage(t *testing.T) {
	repo := newMockRepository()
	repo.session.listFn = func(filters repositories.SessionFilters) ([]*models.TestSession, int64, error) {
		return []*models.TestSession{}, 0, nil
	}

	svc := newSessionReportService(repo, &stubFreshScoreService{}, nil)
	result, err := svc.GetSessionReports(context.Background(), SessionReportParams{}, 1, models.RoleAdmin)
	if err != nil {
		t.Fatalf("GetSessionReports returned error: %v", err)
	}
	if len(result.Sessions) != 0 {
		t.Errorf("got %d sessions, want 0", len(result.Sessions))
	}
	if result.Summary.TotalSessions != 0 || result.Summary.AverageCompletion != 0 {
		t.Errorf("empty page summary = %+v, want zeroes", result.Summary)
	}
}

func TestGetSessionReports_PublishesEvent(t *testing.T) {
	repo := newMockRepository()
	repo.session.listFn = func(filters repositories.SessionFilters) ([]*models.TestSession, int64, error) {
		return []*models.TestSession{}, 0, nil
	}
	publisher := events.NewMockEventPublisher(testLogger())

	svc := newSessionReportService(repo, &stubFreshScoreService{}, publisher)
	if _, err := svc.GetSessionReports(context.Background(), SessionReportParams{}, 1, models.RoleAdmin); err != nil {
		t.Fatalf("GetSessionReports returned error: %v", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("got %d published events, want 1", len(published))
	}
	if published[0].Type != events.EventReportGenerated {
		t.Errorf("event type = %q, want %q", published[0].Type, events.EventReportGenerated)
	}
}
