package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mmynk/pantry/internal/auth"
	"github.com/mmynk/pantry/internal/models"
)

// AuthService registers and logs in users.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, email, displayName, password string) (*AuthResult, error) {
	s.logger.Info("Register request", "email", email)

	// Validate input
	if strings.TrimSpace(email) == "" || strings.TrimSpace(displayName) == "" {
		return nil, newError(CodeValidation, "email and display_name are required", nil)
	}

	// Register user
	user, err := s.authenticator.Register(ctx, email, strings.TrimSpace(displayName), password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			s.logger.Warn("Registration failed", "email", email, "error", err)
			return nil, newError(CodeEmailExists, "Email already registered", err)
		case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrPasswordTooLong):
			return nil, &Error{
				Code:    CodeValidation,
				Message: "Invalid request body",
				Details: map[string]any{"password": []string{err.Error()}},
				Err:     err,
			}
		}
		s.logger.Error("Registration failed", "email", email, "error", err)
		return nil, dbError("failed to register user", err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, newError(CodeInternal, "failed to generate token", err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	s.logger.Info("Login request", "email", email)

	if email == "" || password == "" {
		return nil, newError(CodeValidation, "email and password are required", nil)
	}

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.logger.Warn("Login failed", "email", email, "error", err)
		return nil, newError(CodeInvalidCredentials, "Invalid email or password", err)
	}
	if err != nil {
		s.logger.Error("Login failed", "email", email, "error", err)
		return nil, dbError("failed to look up user", err)
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, newError(CodeInternal, "failed to generate token", err)
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return &AuthResult{User: user, Token: token}, nil
}
