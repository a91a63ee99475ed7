package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/panjiggm/syntegra-app-sub008/internal/events"
	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
	"github.com/panjiggm/syntegra-app-sub008/internal/validator"
)

type StartAttemptRequest struct {
	TestID          uint  `json:"test_id" validate:"required"`
	SessionModuleID *uint `json:"session_test_id"`
}

type SubmitAnswerRequest struct {
	QuestionID      uint    `json:"question_id" validate:"required"`
	Answer          *string `json:"answer"`
	AnswerData      []byte  `json:"answer_data"`
	TimeTaken       int     `json:"time_taken" validate:"min=0"`
	ConfidenceLevel *int    `json:"confidence_level" validate:"omitempty,min=1,max=5"`
}

type attemptService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAttemptService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) AttemptService {
	return &attemptService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// StartAttempt opens a new attempt for the subject on one test, optionally
// linked to a session module.
func (s *attemptService) StartAttempt(ctx context.Context, userID uint, req *StartAttemptRequest) (*models.TestAttempt, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError("test_id", errs.Error())
	}

	test, err := s.repo.Test().GetByID(ctx, nil, req.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	if req.SessionModuleID != nil {
		module, err := s.repo.Session().GetModuleByID(ctx, nil, *req.SessionModuleID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrSessionNotFound
			}
			return nil, fmt.Errorf("failed to get session module: %w", err)
		}
		if module.TestID != req.TestID {
			return nil, NewValidationError("session_test_id", "module does not belong to the requested test")
		}

		session, err := s.repo.Session().GetByID(ctx, nil, module.SessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
		if session.Status(time.Now()) != models.SessionActive {
			return nil, ErrSessionNotActive
		}
	}

	attempt := &models.TestAttempt{
		UserID:          userID,
		TestID:          req.TestID,
		SessionModuleID: req.SessionModuleID,
		Status:          models.AttemptStarted,
		StartTime:       time.Now(),
		TotalQuestions:  test.TotalQuestions,
	}
	if err := s.repo.Attempt().Create(ctx, nil, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.logger.Info("Attempt started",
		"attempt_id", attempt.ID,
		"user_id", userID,
		"test_id", req.TestID)
	return attempt, nil
}

// SubmitAnswer stores one answer with autosave semantics: resubmitting the
// same question replaces the earlier answer.
func (s *attemptService) SubmitAnswer(ctx context.Context, userID, attemptID uint, req *SubmitAnswerRequest) (*models.UserAnswer, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError("answer", errs.Error())
	}

	attempt, err := s.getOwnedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status.IsTerminal() {
		return nil, ErrAttemptFinalized
	}

	answer := &models.UserAnswer{
		AttemptID:       attemptID,
		QuestionID:      req.QuestionID,
		UserID:          userID,
		Answer:          req.Answer,
		AnswerData:      datatypes.JSON(req.AnswerData),
		TimeTaken:       req.TimeTaken,
		ConfidenceLevel: req.ConfidenceLevel,
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Answer().Upsert(ctx, nil, answer); err != nil {
			return err
		}

		answers, err := txRepo.Answer().GetByAttempt(ctx, nil, attemptID)
		if err != nil {
			return err
		}
		attempt.QuestionsAnswered = len(answers)
		attempt.Status = models.AttemptInProgress
		return txRepo.Attempt().Update(ctx, nil, attempt)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit answer: %w", err)
	}

	return answer, nil
}

// FinishAttempt finalizes the attempt and emits a completion event carrying
// the freshly normalized score.
func (s *attemptService) FinishAttempt(ctx context.Context, userID, attemptID uint) (*models.TestAttempt, error) {
	attempt, err := s.getOwnedAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status.IsTerminal() {
		return nil, ErrAttemptFinalized
	}

	now := time.Now()
	attempt.Status = models.AttemptCompleted
	attempt.EndTime = &now
	attempt.CompletedAt = &now
	attempt.TimeSpent = int(now.Sub(attempt.StartTime).Seconds())

	if err := s.repo.Attempt().Update(ctx, nil, attempt); err != nil {
		return nil, fmt.Errorf("failed to finalize attempt: %w", err)
	}

	s.logger.Info("Attempt completed",
		"attempt_id", attempt.ID,
		"user_id", userID,
		"time_spent", attempt.TimeSpent)

	s.publishCompletion(ctx, attempt)
	return attempt, nil
}

func (s *attemptService) getOwnedAttempt(ctx context.Context, userID, attemptID uint) (*models.TestAttempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, NewPermissionError(userID, "attempt_access", "attempt belongs to another user")
	}
	return attempt, nil
}

func (s *attemptService) publishCompletion(ctx context.Context, attempt *models.TestAttempt) {
	if s.publisher == nil {
		return
	}

	var score float64
	answers, err := s.repo.Answer().GetByAttempt(ctx, nil, attempt.ID)
	if err == nil {
		questions, qerr := s.repo.Test().GetQuestions(ctx, nil, attempt.TestID)
		test, terr := s.repo.Test().GetByID(ctx, nil, attempt.TestID)
		if qerr == nil && terr == nil {
			fresh := NormalizeAttempt(attempt, answers, questions, test)
			score = fresh.ScaledScore
		}
	}

	event := events.NewEvent(events.EventAttemptCompleted, events.AttemptCompletedEvent{
		AttemptID:         attempt.ID,
		UserID:            attempt.UserID,
		TestID:            attempt.TestID,
		QuestionsAnswered: attempt.QuestionsAnswered,
		TimeSpent:         attempt.TimeSpent,
		Score:             score,
	})
	if err := s.publisher.Publish(ctx, events.TopicAttempts, event); err != nil {
		s.logger.Warn("Failed to publish attempt completion event",
			"error", err,
			"attempt_id", attempt.ID)
	}
}
