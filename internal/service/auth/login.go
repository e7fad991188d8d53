package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// Login authenticates a user with email + password.
// Returns ErrUnauthorized if the email is not found or the password is wrong;
// the two cases are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if err := input.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("auth.Login get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("auth.Login issue tokens: %w", err)
	}

	s.log.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID.String()))

	return result, nil
}
