package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
)

type freshScoreService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewFreshScoreService(repo repositories.Repository, logger *slog.Logger) FreshScoreService {
	return &freshScoreService{
		repo:   repo,
		logger: logger,
	}
}

// CalculateForUsers recomputes fresh scores for a set of subjects from raw
// answers. One attempt query covers the whole id set; answer, test and
// question lookups degrade to skipped subjects on failure so a partial report
// can still be delivered. Only the attempt fetch itself is fatal.
func (s *freshScoreService) CalculateForUsers(ctx context.Context, userIDs []uint, sessionID *uint, dateFrom, dateTo *time.Time) ([]FreshScore, error) {
	if len(userIDs) == 0 {
		return []FreshScore{}, nil
	}

	status := models.AttemptCompleted
	attempts, err := s.repo.Attempt().GetByFilters(ctx, nil, repositories.AttemptFilters{
		UserIDs:   userIDs,
		SessionID: sessionID,
		Status:    &status,
		DateFrom:  dateFrom,
		DateTo:    dateTo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attempts for fresh scores: %w", err)
	}
	if len(attempts) == 0 {
		return []FreshScore{}, nil
	}

	attemptIDs := make([]uint, 0, len(attempts))
	testIDSet := make(map[uint]struct{})
	for _, attempt := range attempts {
		attemptIDs = append(attemptIDs, attempt.ID)
		testIDSet[attempt.TestID] = struct{}{}
	}
	testIDs := make([]uint, 0, len(testIDSet))
	for id := range testIDSet {
		testIDs = append(testIDs, id)
	}

	answersByAttempt := make(map[uint][]*models.UserAnswer)
	answers, err := s.repo.Answer().GetByAttempts(ctx, nil, attemptIDs)
	if err != nil {
		s.logger.Error("Failed to fetch answers for fresh scores, degrading to zero scores",
			"error", err,
			"attempt_count", len(attemptIDs))
	} else {
		for _, answer := range answers {
			answersByAttempt[answer.AttemptID] = append(answersByAttempt[answer.AttemptID], answer)
		}
	}

	testsByID := make(map[uint]*models.Test)
	tests, err := s.repo.Test().GetByIDs(ctx, nil, testIDs)
	if err != nil {
		s.logger.Error("Failed to fetch tests for fresh scores, skipping affected attempts",
			"error", err,
			"test_count", len(testIDs))
	} else {
		for _, test := range tests {
			testsByID[test.ID] = test
		}
	}

	questionsByTest := make(map[uint][]*models.Question)
	questions, err := s.repo.Test().GetQuestionsByTests(ctx, nil, testIDs)
	if err != nil {
		s.logger.Error("Failed to fetch questions for fresh scores, skipping affected attempts",
			"error", err,
			"test_count", len(testIDs))
	} else {
		for _, question := range questions {
			questionsByTest[question.TestID] = append(questionsByTest[question.TestID], question)
		}
	}

	scores := make([]FreshScore, 0, len(attempts))
	for _, attempt := range attempts {
		test, ok := testsByID[attempt.TestID]
		if !ok {
			s.logger.Warn("Skipping attempt with unknown test",
				"attempt_id", attempt.ID,
				"test_id", attempt.TestID)
			continue
		}
		testQuestions := questionsByTest[attempt.TestID]
		if len(testQuestions) == 0 {
			s.logger.Warn("Skipping attempt with no question definitions",
				"attempt_id", attempt.ID,
				"test_id", attempt.TestID)
			continue
		}

		fresh := NormalizeAttempt(attempt, answersByAttempt[attempt.ID], testQuestions, test)
		scores = append(scores, fresh)
	}

	AttachPercentiles(scores)
	return scores, nil
}

// CalculateForSession recomputes fresh scores for every registered
// participant of one session.
func (s *freshScoreService) CalculateForSession(ctx context.Context, sessionID uint) ([]FreshScore, error) {
	userIDs, err := s.repo.Session().GetParticipantUserIDs(ctx, nil, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session participants: %w", err)
	}
	if len(userIDs) == 0 {
		return []FreshScore{}, nil
	}
	return s.CalculateForUsers(ctx, userIDs, &sessionID, nil, nil)
}
