// Package auth implements registration, login, and refresh token rotation.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/trekkr-app/trekkr-backend/internal/config"
	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// userRepo defines the user repository interface needed by the auth service.
type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}

// tokenRepo defines the refresh token repository interface needed by the auth service.
type tokenRepo interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeByID(ctx context.Context, id uuid.UUID) error
	RevokeAllByUser(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context) (int, error)
}

// jwtManager defines the JWT token management interface needed by the auth service.
type jwtManager interface {
	GenerateAccessToken(userID uuid.UUID) (string, error)
	ValidateAccessToken(token string) (uuid.UUID, error)
	GenerateRefreshToken() (raw string, hash string, err error)
}

// Service implements auth operations.
type Service struct {
	log    *slog.Logger
	users  userRepo
	tokens tokenRepo
	jwt    jwtManager
	cfg    config.AuthConfig
}

// NewService creates a new auth service instance.
func NewService(logger *slog.Logger, users userRepo, tokens tokenRepo, jwt jwtManager, cfg config.AuthConfig) *Service {
	return &Service{
		log:    logger.With("service", "auth"),
		users:  users,
		tokens: tokens,
		jwt:    jwt,
		cfg:    cfg,
	}
}

// issueTokens generates access and refresh tokens for the given user, stores
// the refresh token hash, and returns an AuthResult.
func (s *Service) issueTokens(ctx context.Context, user *domain.User) (*AuthResult, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	rawRefresh, hashRefresh, err := s.jwt.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	refreshToken := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashRefresh,
		ExpiresAt: time.Now().Add(s.cfg.RefreshTokenTTL),
	}
	if err := s.tokens.Create(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		User:         user,
	}, nil
}

// ValidateToken validates an access token and returns the user ID.
// Returns ErrUnauthorized if the token is invalid or expired.
func (s *Service) ValidateToken(ctx context.Context, token string) (uuid.UUID, error) {
	userID, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return userID, nil
}

// CleanupExpiredTokens removes expired and revoked refresh tokens, returning
// the number deleted. Maintenance operation.
func (s *Service) CleanupExpiredTokens(ctx context.Context) (int, error) {
	count, err := s.tokens.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("auth.CleanupExpiredTokens: %w", err)
	}

	if count > 0 {
		s.log.InfoContext(ctx, "cleaned up expired tokens", slog.Int("count", count))
	}
	return count, nil
}
