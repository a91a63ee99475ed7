package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/repositories"
	"github.com/panjiggm/syntegra-app-sub008/internal/validator"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// TokenClaims is the JWT payload issued on login.
type TokenClaims struct {
	UserID uint            `json:"user_id"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	repo        repositories.Repository
	maintenance SessionMaintenanceService
	logger      *slog.Logger
	validator   *validator.Validator
	jwtSecret   []byte
	tokenTTL    time.Duration
	maxSessions int
}

func NewAuthService(repo repositories.Repository, maintenance SessionMaintenanceService, logger *slog.Logger, validator *validator.Validator, jwtSecret string, tokenTTL time.Duration, maxSessions int) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessionsPerUser
	}
	return &authService{
		repo:        repo,
		maintenance: maintenance,
		logger:      logger,
		validator:   validator,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
		maxSessions: maxSessions,
	}
}

// Login verifies credentials, issues a JWT, records the auth session and
// enforces the per-user concurrent-session cap.
func (s *authService) Login(ctx context.Context, req *LoginRequest, ipAddress, userAgent string) (*LoginResult, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, NewValidationError("credentials", errs.Error())
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	token, err := s.issueToken(user, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	authSession := &models.AuthSession{
		UserID:     user.ID,
		TokenHash:  hashToken(token),
		IPAddress:  &ipAddress,
		UserAgent:  &userAgent,
		IsActive:   true,
		ExpiresAt:  expiresAt,
		LastUsedAt: time.Now(),
	}
	if err := s.repo.AuthSession().Create(ctx, nil, authSession); err != nil {
		return nil, fmt.Errorf("failed to record auth session: %w", err)
	}

	if _, err := s.maintenance.LimitUserSessions(ctx, user.ID, s.maxSessions); err != nil {
		// The login itself succeeded; the cap will be re-applied next time.
		s.logger.Warn("Failed to limit user auth sessions", "error", err, "user_id", user.ID)
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// ValidateSession checks the bearer token against both the JWT signature and
// the stored auth session, touching last_used_at on success.
func (s *authService) ValidateSession(ctx context.Context, rawToken string) (*models.User, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrUnauthorized
	}

	session, err := s.repo.AuthSession().GetByTokenHash(ctx, nil, hashToken(rawToken))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to look up auth session: %w", err)
	}
	if !session.IsActive || session.IsExpired(time.Now()) {
		return nil, ErrUnauthorized
	}

	if err := s.repo.AuthSession().TouchLastUsed(ctx, nil, session.ID, time.Now()); err != nil {
		s.logger.Warn("Failed to touch auth session", "error", err, "session_id", session.ID)
	}

	user, err := s.repo.User().GetByID(ctx, nil, claims.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

// Logout revokes the auth session behind the presented token.
func (s *authService) Logout(ctx context.Context, rawToken string) error {
	session, err := s.repo.AuthSession().GetByTokenHash(ctx, nil, hashToken(rawToken))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil // Already gone, logout is idempotent
		}
		return fmt.Errorf("failed to look up auth session: %w", err)
	}
	return s.maintenance.RevokeSession(ctx, session.ID)
}

func (s *authService) issueToken(user *models.User, expiresAt time.Time) (string, error) {
	claims := TokenClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// HashPassword is used by seeding and user administration.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Join(errors.New("failed to hash password"), err)
	}
	return string(hashed), nil
}
