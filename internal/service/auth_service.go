package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmynk/expense-tracker/internal/auth"
	"github.com/mmynk/expense-tracker/internal/errs"
	"github.com/mmynk/expense-tracker/internal/models"
	"github.com/mmynk/expense-tracker/internal/repository"
)

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  models.UserRef `json:"user"`
	Token string         `json:"token"`
}

// AuthService registers and authenticates users.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         *repository.UserRepository
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users *repository.UserRepository, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		logger:        logger,
	}
}

// Register creates a new user account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	s.logger.Info("Register request", "email", email)

	// Validate input
	if email == "" || password == "" || name == "" {
		return nil, errs.Validation("email, password and name are required")
	}

	// Register user
	user, err := s.authenticator.Register(ctx, email, name, password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", email, "error", err)
		return nil, err
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return result, nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	s.logger.Info("Login request", "email", email)

	// Validate input
	if email == "" || password == "" {
		return nil, errs.Validation("email and password are required")
	}

	// Authenticate user
	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		s.logger.Warn("Login failed", "email", email, "error", err)
		return nil, err
	}

	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return result, nil
}

// CurrentUser returns the public identity of userID.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.UserRef, error) {
	s.logger.Info("GetCurrentUser request", "user_id", userID)

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.NotFound("user %s", userID)
	}
	ref := user.Ref()
	return &ref, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, err
	}
	return &AuthResult{User: user.Ref(), Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
