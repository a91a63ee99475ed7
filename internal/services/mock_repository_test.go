package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
)

// mockRepository wires function-field sub-repositories so each test overrides
// only the calls it cares about.
type mockRepository struct {
	user        *mockUserRepo
	test        *mockTestRepo
	session     *mockSessionRepo
	attempt     *mockAttemptRepo
	answer      *mockAnswerRepo
	authSession *mockAuthSessionRepo
	report      *mockReportRepo
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		user:        &mockUserRepo{},
		test:        &mockTestRepo{},
		session:     &mockSessionRepo{},
		attempt:     &mockAttemptRepo{},
		answer:      &mockAnswerRepo{},
		authSession: &mockAuthSessionRepo{},
		report:      &mockReportRepo{},
	}
}

func (m *mockRepository) User() repositories.UserRepository               { return m.user }
func (m *mockRepository) Test() repositories.TestRepository               { return m.test }
func (m *mockRepository) Session() repositories.SessionRepository         { return m.session }
func (m *mockRepository) Attempt() repositories.AttemptRepository         { return m.attempt }
func (m *mockRepository) Answer() repositories.AnswerRepository           { return m.answer }
func (m *mockRepository) AuthSession() repositories.AuthSessionRepository { return m.authSession }
func (m *mockRepository) Report() repositories.ReportRepository           { return m.report }
func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== USER =====

type mockUserRepo struct {
	getByEmailFn func(email string) (*models.User, error)
	getByIDFn    func(id uint) (*models.User, error)
	listFn       func(filters repositories.UserFilters) ([]*models.User, int64, error)
}

func (m *mockUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error { return nil }
func (m *mockUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(id)
	}
	return nil, repositories.ErrNotFound
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(email)
	}
	return nil, repositories.ErrNotFound
}
func (m *mockUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.User, error) {
	return nil, nil
}
func (m *mockUserRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	if m.listFn != nil {
		return m.listFn(filters)
	}
	return []*models.User{}, 0, nil
}
func (m *mockUserRepo) Update(ctx context.Context, tx *gorm.DB, user *models.User) error { return nil }

// ===== TEST =====

type mockTestRepo struct {
	getByIDFn             func(id uint) (*models.Test, error)
	getByIDsFn            func(ids []uint) ([]*models.Test, error)
	getQuestionsFn        func(testID uint) ([]*models.Question, error)
	getQuestionsByTestsFn func(testIDs []uint) ([]*models.Question, error)
}

func (m *mockTestRepo) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error { return nil }
func (m *mockTestRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(id)
	}
	return nil, repositories.ErrNotFound
}
func (m *mockTestRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Test, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ids)
	}
	return []*models.Test{}, nil
}
func (m *mockTestRepo) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*models.Test, int64, error) {
	return nil, 0, nil
}
func (m *mockTestRepo) GetQuestions(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Question, error) {
	if m.getQuestionsFn != nil {
		return m.getQuestionsFn(testID)
	}
	return []*models.Question{}, nil
}
func (m *mockTestRepo) GetQuestionsByTests(ctx context.Context, tx *gorm.DB, testIDs []uint) ([]*models.Question, error) {
	if m.getQuestionsByTestsFn != nil {
		return m.getQuestionsByTestsFn(testIDs)
	}
	return []*models.Question{}, nil
}

// ===== SESSION =====

type mockSessionRepo struct {
	getByIDFn          func(id uint) (*models.TestSession, error)
	listFn             func(filters repositories.SessionFilters) ([]*models.TestSession, int64, error)
	participantIDsFn   func(sessionID uint) ([]uint, error)
	participationFn    func(userIDs []uint) ([]repositories.ParticipationRow, error)
	addParticipantFn   func(p *models.SessionParticipant) error
	getModuleByIDFn    func(moduleID uint) (*models.SessionModule, error)
	createFn           func(session *models.TestSession) error
}

func (m *mockSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *models.TestSession) error {
	if m.createFn != nil {
		return m.createFn(session)
	}
	return nil
}
func (m *mockSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TestSession, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(id)
	}
	return nil, repositories.ErrNotFound
}
func (m *mockSessionRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.SessionFilters) ([]*models.TestSession, int64, error) {
	if m.listFn != nil {
		return m.listFn(filters)
	}
	return []*models.TestSession{}, 0, nil
}
func (m *mockSessionRepo) GetModules(ctx context.Context, tx *gorm.DB, sessionID uint) ([]*models.SessionModule, error) {
	return []*models.SessionModule{}, nil
}
func (m *mockSessionRepo) GetModuleByID(ctx context.Context, tx *gorm.DB, moduleID uint) (*models.SessionModule, error) {
	if m.getModuleByIDFn != nil {
		return m.getModuleByIDFn(moduleID)
	}
	return nil, repositories.ErrNotFound
}
func (m *mockSessionRepo) AddParticipant(ctx context.Context, tx *gorm.DB, participant *models.SessionParticipant) error {
	if m.addParticipantFn != nil {
		return m.addParticipantFn(participant)
	}
	return nil
}
func (m *mockSessionRepo) GetParticipantUserIDs(ctx context.Context, tx *gorm.DB, sessionID uint) ([]uint, error) {
	if m.participantIDsFn != nil {
		return m.participantIDsFn(sessionID)
	}
	return []uint{}, nil
}
func (m *mockSessionRepo) GetParticipationByUsers(ctx context.Context, tx *gorm.DB, userIDs []uint) ([]repositories.ParticipationRow, error) {
	if m.participationFn != nil {
		return m.participationFn(userIDs)
	}
	return []repositories.ParticipationRow{}, nil
}

// ===== ATTEMPT =====

type mockAttemptRepo struct {
	createFn       func(attempt *models.TestAttempt) error
	updateFn       func(attempt *models.TestAttempt) error
	getByIDFn      func(id uint) (*models.TestAttempt, error)
	getByFiltersFn func(filters repositories.AttemptFilters) ([]*models.TestAttempt, error)
	statsFn        func(userIDs []uint) ([]repositories.UserAttemptStatsRow, error)
}

func (m *mockAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *models.TestAttempt) error {
	if m.createFn != nil {
		return m.createFn(attempt)
	}
	return nil
}
func (m *mockAttemptRepo) Update(ctx context.Context, tx *gorm.DB, attempt *models.TestAttempt) error {
	if m.updateFn != nil {
		return m.updateFn(attempt)
	}
	return nil
}
func (m *mockAttemptRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.TestAttempt, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(id)
	}
	return nil, repositories.ErrNotFound
}
func (m *mockAttemptRepo) GetByFilters(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.TestAttempt, error) {
	if m.getByFiltersFn != nil {
		return m.getByFiltersFn(filters)
	}
	return []*models.TestAttempt{}, nil
}
func (m *mockAttemptRepo) GetStatsByUsers(ctx context.Context, tx *gorm.DB, userIDs []uint) ([]repositories.UserAttemptStatsRow, error) {
	if m.statsFn != nil {
		return m.statsFn(userIDs)
	}
	return []repositories.UserAttemptStatsRow{}, nil
}

// ===== ANSWER =====

type mockAnswerRepo struct {
	upsertFn        func(answer *models.UserAnswer) error
	getByAttemptFn  func(attemptID uint) ([]*models.UserAnswer, error)
	getByAttemptsFn func(attemptIDs []uint) ([]*models.UserAnswer, error)
}

func (m *mockAnswerRepo) Upsert(ctx context.Context, tx *gorm.DB, answer *models.UserAnswer) error {
	if m.upsertFn != nil {
		return m.upsertFn(answer)
	}
	return nil
}
func (m *mockAnswerRepo) GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.UserAnswer, error) {
	if m.getByAttemptFn != nil {
		return m.getByAttemptFn(attemptID)
	}
	return []*models.UserAnswer{}, nil
}
func (m *mockAnswerRepo) GetByAttempts(ctx context.Context, tx *gorm.DB, attemptIDs []uint) ([]*models.UserAnswer, error) {
	if m.getByAttemptsFn != nil {
		return m.getByAttemptsFn(attemptIDs)
	}
	return []*models.UserAnswer{}, nil
}

// ===== AUTH SESSION =====

type mockAuthSessionRepo struct {
	createFn            func(session *models.AuthSession) error
	getByTokenHashFn    func(tokenHash string) (*models.AuthSession, error)
	getActiveByUserFn   func(userID uint, now time.Time) ([]*models.AuthSession, error)
	deleteExpiredFn     func(now time.Time) (int64, error)
	deleteUnusedSinceFn func(cutoff time.Time) (int64, error)
	deleteByIDsFn       func(ids []uint) (int64, error)
	revokeFn            func(id uint) error
	revokeOthersFn      func(userID, keepID uint) (int64, error)
}

func (m *mockAuthSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *models.AuthSession) error {
	if m.createFn != nil {
		return m.createFn(session)
	}
	return nil
}
func (m *mockAuthSessionRepo) GetByTokenHash(ctx context.Context, tx *gorm.DB, tokenHash string) (*models.AuthSession, error) {
	if m.getByTokenHashFn != nil {
		return m.getByTokenHashFn(tokenHash)
	}
	return nil, repositories.ErrNotFound
}
func (m *mockAuthSessionRepo) GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uint, now time.Time) ([]*models.AuthSession, error) {
	if m.getActiveByUserFn != nil {
		return m.getActiveByUserFn(userID, now)
	}
	return []*models.AuthSession{}, nil
}
func (m *mockAuthSessionRepo) TouchLastUsed(ctx context.Context, tx *gorm.DB, id uint, now time.Time) error {
	return nil
}
func (m *mockAuthSessionRepo) DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(now)
	}
	return 0, nil
}
func (m *mockAuthSessionRepo) DeleteUnusedSince(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	if m.deleteUnusedSinceFn != nil {
		return m.deleteUnusedSinceFn(cutoff)
	}
	return 0, nil
}
func (m *mockAuthSessionRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uint) (int64, error) {
	if m.deleteByIDsFn != nil {
		return m.deleteByIDsFn(ids)
	}
	return 0, nil
}
func (m *mockAuthSessionRepo) Revoke(ctx context.Context, tx *gorm.DB, id uint) error {
	if m.revokeFn != nil {
		return m.revokeFn(id)
	}
	return nil
}
func (m *mockAuthSessionRepo) RevokeOthers(ctx context.Context, tx *gorm.DB, userID uint, keepID uint) (int64, error) {
	if m.revokeOthersFn != nil {
		return m.revokeOthersFn(userID, keepID)
	}
	return 0, nil
}

// ===== REPORT =====

type mockReportRepo struct {
	sessionStatsFn  func(sessionIDs []uint) ([]repositories.SessionStatsRow, error)
	distinctTestsFn func(userIDs []uint) (map[uint]int, error)
}

func (m *mockReportRepo) GetSessionStats(ctx context.Context, tx *gorm.DB, sessionIDs []uint) ([]repositories.SessionStatsRow, error) {
	if m.sessionStatsFn != nil {
		return m.sessionStatsFn(sessionIDs)
	}
	return []repositories.SessionStatsRow{}, nil
}
func (m *mockReportRepo) CountDistinctTestsTaken(ctx context.Context, tx *gorm.DB, userIDs []uint) (map[uint]int, error) {
	if m.distinctTestsFn != nil {
		return m.distinctTestsFn(userIDs)
	}
	return map[uint]int{}, nil
}

// ===== FRESH SCORE STUB =====

type stubFreshScoreService struct {
	forUsersFn   func(userIDs []uint) ([]FreshScore, error)
	forSessionFn func(sessionID uint) ([]FreshScore, error)
}

func (s *stubFreshScoreService) CalculateForUsers(ctx context.Context, userIDs []uint, sessionID *uint, dateFrom, dateTo *time.Time) ([]FreshScore, error) {
	if s.forUsersFn != nil {
		return s.forUsersFn(userIDs)
	}
	return []FreshScore{}, nil
}

func (s *stubFreshScoreService) CalculateForSession(ctx context.Context, sessionID uint) ([]FreshScore, error) {
	if s.forSessionFn != nil {
		return s.forSessionFn(sessionID)
	}
	return []FreshScore{}, nil
}
