package services

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"studynotes-dashboard/internal/models"
)

type AuthBackend interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthTokens, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error)
	Logout(ctx context.Context) error
	GetMe(ctx context.Context) (*models.User, error)
	UpdateMe(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error)
	DeleteMe(ctx context.Context) error
}

// AuthService validates credentials locally before they reach the backend.
type AuthService struct {
	backend AuthBackend
}

func NewAuthService(backend AuthBackend) *AuthService {
	return &AuthService{backend: backend}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthTokens, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)

	// Validate all fields at once
	fieldErrors := make(map[string]string)

	if req.FullName == "" {
		fieldErrors["full_name"] = "Full name is required"
	}
	if !emailRegex.MatchString(req.Email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if msg := validatePassword(req.Password); msg != "" {
		fieldErrors["password"] = msg
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		fieldErrors["confirm_password"] = "Passwords do not match"
	}

	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	tokens, err := s.backend.Register(ctx, req)
	if err != nil {
		return nil, translate(err)
	}
	return tokens, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	req.Email = strings.TrimSpace(req.Email)

	fieldErrors := make(map[string]string)
	if req.Email == "" {
		fieldErrors["email"] = "Email is required"
	}
	if req.Password == "" {
		fieldErrors["password"] = "Password is required"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	tokens, err := s.backend.Login(ctx, req)
	if err != nil {
		if _, ok := translate(err).(*UnauthorizedError); ok {
			return nil, &UnauthorizedError{Message: "Invalid email or password"}
		}
		return nil, translate(err)
	}
	return tokens, nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	return translate(s.backend.Logout(ctx))
}

func (s *AuthService) Me(ctx context.Context) (*models.User, error) {
	u, err := s.backend.GetMe(ctx)
	return u, translate(err)
}

func (s *AuthService) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return nil, &ValidationError{Fields: map[string]string{"full_name": "Full name cannot be empty"}}
	}
	u, err := s.backend.UpdateMe(ctx, req)
	return u, translate(err)
}

func (s *AuthService) DeleteAccount(ctx context.Context) error {
	return translate(s.backend.DeleteMe(ctx))
}

func validatePassword(pw string) string {
	if len(pw) < 8 {
		return "Password must be at least 8 characters"
	}
	for _, ch := range pw {
		if unicode.IsDigit(ch) {
			return ""
		}
	}
	return "Password must contain at least one number"
}
