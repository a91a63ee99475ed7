package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
	"github.com/panjiggm/syntegra-app-sub008/internal/validator"
)

const testJWTSecret = "unit-test-secret-key"

func newAuthService(repo *mockRepository) AuthService {
	maintenance := NewSessionMaintenanceService(repo, nil, testLogger(), 0)
	return NewAuthService(repo, maintenance, testLogger(), validator.New(), testJWTSecret, time.Hour, 3)
}

func activeUser(t *testing.T, id uint, email, password string) *models.User {
	t.Helper()
	hashed, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	return &models.User{
		ID:       id,
		Email:    email,
		Password: hashed,
		Role:     models.RoleParticipant,
		IsActive: true,
	}
}

func TestLogin(t *testing.T) {
	repo := newMockRepository()
	user := activeUser(t, 5, "budi@example.com", "s3cret-pass")
	repo.user.getByEmailFn = func(email string) (*models.User, error) {
		if email != user.Email {
			t.Errorf("lookup email = %q, want %q", email, user.Email)
		}
		return user, nil
	}
	var recorded *models.AuthSession
	repo.authSession.createFn = func(session *models.AuthSession) error {
		recorded = session
		return nil
	}

	svc := newAuthService(repo)
	result, err := svc.Login(context.Background(), &LoginRequest{Email: user.Email, Password: "s3cret-pass"}, "10.0.0.1", "go-test")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a signed token")
	}
	if result.ExpiresAt.Before(time.Now()) {
		t.Error("token expiry must be in the future")
	}
	if recorded == nil {
		t.Fatal("auth session was not recorded")
	}
	if recorded.UserID != 5 || !recorded.IsActive {
		t.Errorf("auth session = %+v, want active session for user 5", recorded)
	}
	if recorded.TokenHash == result.Token {
		t.Error("stored token must be hashed, never the raw token")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newMockRepository()
	user := activeUser(t, 5, "budi@example.com", "s3cret-pass")
	repo.user.getByEmailFn = func(email string) (*models.User, error) { return user, nil }

	svc := newAuthService(repo)
	_, err := svc.Login(context.Background(), &LoginRequest{Email: user.Email, Password: "wrong-pass"}, "", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newAuthService(newMockRepository())
	_, err := svc.Login(context.Background(), &LoginRequest{Email: "nobody@example.com", Password: "whatever1"}, "", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("error = %v, want ErrInvalidCredentials, never a user-enumeration hint", err)
	}
}

func TestLogin_InactiveUser(t *testing.T) {
	repo := newMockRepository()
	user := activeUser(t, 5, "budi@example.com", "s3cret-pass")
	user.IsActive = false
	repo.user.getByEmailFn = func(email string) (*models.User, error) { return user, nil }

	svc := newAuthService(repo)
	_, err := svc.Login(context.Background(), &LoginRequest{Email: user.Email, Password: "s3cret-pass"}, "", "")
	if !errors.Is(err, ErrUserInactive) {
		t.Errorf("error = %v, want ErrUserInactive", err)
	}
}

func TestValidateSession_RoundTrip(t *testing.T) {
	repo := newMockRepository()
	user := activeUser(t, 5, "budi@example.com", "s3cret-pass")
	repo.user.getByEmailFn = func(email string) (*models.User, error) { return user, nil }
	repo.user.getByIDFn = func(id uint) (*models.User, error) { return user, nil }

	var stored *models.AuthSession
	repo.authSession.createFn = func(session *models.AuthSession) error {
		session.ID = 42
		stored = session
		return nil
	}
	repo.authSession.getByTokenHashFn = func(tokenHash string) (*models.AuthSession, error) {
		if stored != nil && stored.TokenHash == tokenHash {
			return stored, nil
		}
		return nil, repositories.ErrNotFound
	}

	svc := newAuthService(repo)
	result, err := svc.Login(context.Background(), &LoginRequest{Email: user.Email, Password: "s3cret-pass"}, "", "")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	validated, err := svc.ValidateSession(context.Background(), result.Token)
	if err != nil {
		t.Fatalf("ValidateSession returned error: %v", err)
	}
	if validated.ID != 5 {
		t.Errorf("validated user ID = %d, want 5", validated.ID)
	}
}

func TestValidateSession_GarbageToken(t *testing.T) {
	svc := newAuthService(newMockRepository())
	_, err := svc.ValidateSession(context.Background(), "not-a-jwt")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
}

func TestValidateSession_RevokedSession(t *testing.T) {
	repo := newMockRepository()
	user := activeUser(t, 5, "budi@example.com", "s3cret-pass")
	repo.user.getByEmailFn = func(email string) (*models.User, error) { return user, nil }

	var stored *models.AuthSession
	repo.authSession.createFn = func(session *models.AuthSession) error {
		stored = session
		return nil
	}
	repo.authSession.getByTokenHashFn = func(tokenHash string) (*models.AuthSession, error) {
		return stored, nil
	}

	svc := newAuthService(repo)
	result, err := svc.Login(context.Background(), &LoginRequest{Email: user.Email, Password: "s3cret-pass"}, "", "")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	stored.IsActive = false
	if _, err := svc.ValidateSession(context.Background(), result.Token); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized for a revoked session", err)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	svc := newAuthService(newMockRepository())
	// No stored session behind the token: logout still succeeds.
	if err := svc.Logout(context.Background(), "already-gone"); err != nil {
		t.Errorf("Logout returned error: %v, want nil for unknown token", err)
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	repo := newMockRepository()
	repo.authSession.getByTokenHashFn = func(tokenHash string) (*models.AuthSession, error) {
		return &models.AuthSession{ID: 42, IsActive: true}, nil
	}
	var revokedID uint
	repo.authSession.revokeFn = func(id uint) error {
		revokedID = id
		return nil
	}

	svc := newAuthService(repo)
	if err := svc.Logout(context.Background(), "some-token"); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if revokedID != 42 {
		t.Errorf("revoked session id = %d, want 42", revokedID)
	}
}
