package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeCompletedAttempt(id, userID, testID uint) *models.TestAttempt {
	return &models.TestAttempt{
		ID:     id,
		UserID: userID,
		TestID: testID,
		Status: models.AttemptCompleted,
	}
}

func TestFreshScoreService_CalculateForUsers(t *testing.T) {
	repo := newMockRepository()

	var capturedFilters repositories.AttemptFilters
	repo.attempt.getByFiltersFn = func(filters repositories.AttemptFilters) ([]*models.TestAttempt, error) {
		capturedFilters = filters
		return []*models.TestAttempt{
			makeCompletedAttempt(10, 5, 1),
			makeCompletedAttempt(11, 6, 1),
		}, nil
	}
	repo.answer.getByAttemptsFn = func(attemptIDs []uint) ([]*models.UserAnswer, error) {
		return []*models.UserAnswer{
			{AttemptID: 10, QuestionID: 1, UserID: 5, Answer: strPtr("a")},
			{AttemptID: 10, QuestionID: 2, UserID: 5, Answer: strPtr("b")},
			{AttemptID: 11, QuestionID: 1, UserID: 6, Answer: strPtr("a")},
			{AttemptID: 11, QuestionID: 2, UserID: 6, Answer: strPtr("x")},
		}, nil
	}
	repo.test.getByIDsFn = func(ids []uint) ([]*models.Test, error) {
		return []*models.Test{{ID: 1, QuestionType: models.MultipleChoice}}, nil
	}
	repo.test.getQuestionsByTestsFn = func(testIDs []uint) ([]*models.Question, error) {
		return []*models.Question{
			makeQuestion(1, models.MultipleChoice, "a"),
			makeQuestion(2, models.MultipleChoice, "b"),
		}, nil
	}

	svc := NewFreshScoreService(repo, testLogger())
	scores, err := svc.CalculateForUsers(context.Background(), []uint{5, 6}, nil, nil, nil)
	if err != nil {
		t.Fatalf("CalculateForUsers returned error: %v", err)
	}

	if capturedFilters.Status == nil || *capturedFilters.Status != models.AttemptCompleted {
		t.Error("expected attempt fetch to filter on completed status")
	}
	if len(scores) != 2 {
		t.Fatalf("got %d scores, want 2", len(scores))
	}
	if scores[0].ScaledScore != 100 {
		t.Errorf("first subject ScaledScore = %v, want 100", scores[0].ScaledScore)
	}
	if scores[1].ScaledScore != 50 {
		t.Errorf("second subject ScaledScore = %v, want 50", scores[1].ScaledScore)
	}
	// Two scores per test population: 100 is above 50, so 50th percentile.
	if scores[0].Percentile == nil || *scores[0].Percentile != 50 {
		t.Errorf("first subject Percentile = %v, want 50", scores[0].Percentile)
	}
	if scores[1].Percentile == nil || *scores[1].Percentile != 0 {
		t.Errorf("second subject Percentile = %v, want 0", scores[1].Percentile)
	}
}

func TestFreshScoreService_EmptyUserIDs(t *testing.T) {
	repo := newMockRepository()
	called := false
	repo.attempt.getByFiltersFn = func(filters repositories.AttemptFilters) ([]*models.TestAttempt, error) {
		called = true
		return nil, nil
	}

	svc := NewFreshScoreService(repo, testLogger())
	scores, err := svc.CalculateForUsers(context.Background(), nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("CalculateForUsers returned error: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("got %d scores, want 0", len(scores))
	}
	if called {
		t.Error("attempt repository should not be queried for an empty id set")
	}
}

func TestFreshScoreService_AttemptFetchFailureIsFatal(t *testing.T) {
	repo := newMockRepository()
	repo.attempt.getByFiltersFn = func(filters repositories.AttemptFilters) ([]*models.TestAttempt, error) {
		return nil, errors.New("connection refused")
	}

	svc := NewFreshScoreService(repo, testLogger())
	_, err := svc.CalculateForUsers(context.Background(), []uint{5}, nil, nil, nil)
	if err == nil {
		t.Fatal("expected error when attempt fetch fails")
	}
}

func TestFreshScoreService_AnswerFetchFailureDegradesToZero(t *testing.T) {
	repo := newMockRepository()
	repo.attempt.getByFiltersFn = func(filters repositories.AttemptFilters) ([]*models.TestAttempt, error) {
		return []*models.TestAttempt{makeCompletedAttempt(10, 5, 1)}, nil
	}
	repo.answer.getByAttemptsFn = func(attemptIDs []uint) ([]*models.UserAnswer, error) {
		return nil, errors.New("timeout")
	}
	repo.test.getByIDsFn = func(ids []uint) ([]*models.Test, error) {
		return []*models.Test{{ID: 1, QuestionType: models.MultipleChoice}}, nil
	}
	repo.test.getQuestionsByTestsFn = func(testIDs []uint) ([]*models.Question, error) {
		return []*models.Question{makeQuestion(1, models.MultipleChoice, "a")}, nil
	}

	svc := NewFreshScoreService(repo, testLogger())
	scores, err := svc.CalculateForUsers(context.Background(), []uint{5}, nil, nil, nil)
	if err != nil {
		t.Fatalf("CalculateForUsers returned error: %v", err)
	}
	if len(scores) != 1 {
		t.Fatalf("got %d scores, want 1", len(scores))
	}
	if scores[0].ScaledScore != 0 {
		t.Errorf("ScaledScore = %v, want 0 when answers are unavailable", scores[0].ScaledScore)
	}
}

func TestFreshScoreService_UnknownTestSkipsAttempt(t *testing.T) {
	repo := newMockRepository()
	repo.attempt.getByFiltersFn = func(filters repositories.AttemptFilters) ([]*models.TestAttempt, error) {
		return []*models.TestAttempt{
			makeCompletedAttempt(10, 5, 1),
			makeCompletedAttempt(11, 5, 2), // no test definition
		}, nil
	}
	repo.test.getByIDsFn = func(ids []uint) ([]*models.Test, error) {
		return []*models.Test{{ID: 1, QuestionType: models.MultipleChoice}}, nil
	}
	repo.test.getQuestionsByTestsFn = func(testIDs []uint) ([]*models.Question, error) {
		return []*models.Question{makeQuestion(1, models.MultipleChoice, "a")}, nil
	}

	svc := NewFreshScoreService(repo, testLogger())
	scores, err := svc.CalculateForUsers(context.Background(), []uint{5}, nil, nil, nil)
	if err != nil {
		t.Fatalf("CalculateForUsers returned error: %v", err)
	}
	if len(scores) != 1 {
		t.Fatalf("got %d scores, want 1 (unknown test skipped)", len(scores))
	}
	if scores[0].AttemptID != 10 {
		t.Errorf("surviving score AttemptID = %d, want 10", scores[0].AttemptID)
	}
}

func TestFreshScoreService_CalculateForSession(t *testing.T) {
	repo := newMockRepository()
	repo.session.participantIDsFn = func(sessionID uint) ([]uint, error) {
		if sessionID != 7 {
			t.Errorf("participant lookup sessionID = %d, want 7", sessionID)
		}
		return []uint{5, 6}, nil
	}
	var capturedFilters repositories.AttemptFilters
	repo.attempt.getByFiltersFn = func(filters repositories.AttemptFilters) ([]*models.TestAttempt, error) {
		capturedFilters = filters
		return []*models.TestAttempt{}, nil
	}

	svc := NewFreshScoreService(repo, testLogger())
	scores, err := svc.CalculateForSession(context.Background(), 7)
	if err != nil {
		t.Fatalf("CalculateForSession returned error: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("got %d scores, want 0", len(scores))
	}
	if capturedFilters.SessionID == nil || *capturedFilters.SessionID != 7 {
		t.Error("expected attempt filters to carry the session id")
	}
	if len(capturedFilters.UserIDs) != 2 {
		t.Errorf("attempt filter UserIDs = %v, want the two participants", capturedFilters.UserIDs)
	}
}

func TestFreshScoreService_SessionWithNoParticipants(t *testing.T) {
	repo := newMockRepository()
	repo.session.participantIDsFn = func(sessionID uint) ([]uint, error) {
		return []uint{}, nil
	}

	svc := NewFreshScoreService(repo, testLogger())
	scores, err := svc.CalculateForSession(context.Background(), 7)
	if err != nil {
		t.Fatalf("CalculateForSession returned error: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("got %d scores, want 0", len(scores))
	}
}
