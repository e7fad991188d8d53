package auth

import (
	"net/mail"

	"github.com/trekkr-app/trekkr-backend/internal/domain"
)

// RegisterInput holds parameters for user registration.
type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// Validate validates the registration input.
func (i RegisterInput) Validate() error {
	var errs []domain.FieldError

	if i.Email == "" {
		errs = append(errs, domain.FieldError{Field: "email", Message: "required"})
	} else if _, err := mail.ParseAddress(i.Email); err != nil {
		errs = append(errs, domain.FieldError{Field: "email", Message: "invalid email address"})
	}

	if i.Username == "" {
		errs = append(errs, domain.FieldError{Field: "username", Message: "required"})
	} else if len(i.Username) < 3 || len(i.Username) > 32 {
		errs = append(errs, domain.FieldError{Field: "username", Message: "must be 3-32 characters"})
	}

	if len(i.Password) < 8 {
		errs = append(errs, domain.FieldError{Field: "password", Message: "must be at least 8 characters"})
	} else if len(i.Password) > 72 {
		// bcrypt truncates past 72 bytes.
		errs = append(errs, domain.FieldError{Field: "password", Message: "too long"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// LoginInput holds parameters for password login.
type LoginInput struct {
	Email    string
	Password string
}

// Validate validates the login input.
func (i LoginInput) Validate() error {
	var errs []domain.FieldError

	if i.Email == "" {
		errs = append(errs, domain.FieldError{Field: "email", Message: "required"})
	}
	if i.Password == "" {
		errs = append(errs, domain.FieldError{Field: "password", Message: "required"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// RefreshInput holds parameters for token refresh.
type RefreshInput struct {
	RefreshToken string
}

// Validate validates the refresh input.
func (i RefreshInput) Validate() error {
	var errs []domain.FieldError

	if i.RefreshToken == "" {
		errs = append(errs, domain.FieldError{Field: "refresh_token", Message: "required"})
	} else if len(i.RefreshToken) > 512 {
		errs = append(errs, domain.FieldError{Field: "refresh_token", Message: "too long"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
