package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// Register creates a new user with email + password.
// Returns ErrAlreadyExists if the email or username is already taken.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	// Normalize input before validation.
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Username = strings.TrimSpace(input.Username)

	if err := input.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cfg.PasswordHashCost)
	if err != nil {
		return nil, fmt.Errorf("auth.Register hash password: %w", err)
	}

	// Email and username uniqueness are enforced by DB constraints.
	now := time.Now()
	user, err := s.users.Create(ctx, &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, fmt.Errorf("auth.Register: %w", domain.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("auth.Register: %w", err)
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("auth.Register issue tokens: %w", err)
	}

	s.log.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID.String()))

	return result, nil
}
