package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/pantry/internal/models"
	"github.com/mmynk/pantry/internal/storage"
)

const (
	minPasswordRunes = 8

	// bcrypt only reads the first 72 bytes.
	maxPasswordBytes = 72
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordRunes)
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes", maxPasswordBytes)
	ErrEmailExists        = errors.New("email already registered")
)

// Accounts is the part of the store PasswordAuthenticator needs.
type Accounts interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// PasswordAuthenticator signs pantry owners in with an email and a bcrypt
// hashed password.
type PasswordAuthenticator struct {
	accounts Accounts
	cost     int
}

// NewPasswordAuthenticator returns an authenticator backed by accounts.
func NewPasswordAuthenticator(accounts Accounts) *PasswordAuthenticator {
	return &PasswordAuthenticator{accounts: accounts, cost: bcrypt.DefaultCost}
}

// ValidateCredential enforces the password length bounds.
func (a *PasswordAuthenticator) ValidateCredential(password string) error {
	switch {
	case utf8.RuneCountInString(password) < minPasswordRunes:
		return ErrWeakPassword
	case len(password) > maxPasswordBytes:
		return ErrPasswordTooLong
	}
	return nil
}

// Register stores a new account. A taken email surfaces as ErrEmailExists
// through the store's unique constraint.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, displayName, password string) (*models.User, error) {
	if err := a.ValidateCredential(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(normalizeEmail(email), displayName, string(hash))
	err = a.accounts.CreateUser(ctx, user)
	switch {
	case errors.Is(err, storage.ErrConflict):
		return nil, ErrEmailExists
	case err != nil:
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate returns the account matching email and password.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := a.accounts.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		// Spend the same bcrypt work so unknown emails are not faster.
		_ = bcrypt.CompareHashAndPassword(placeholderHash(), []byte(password))
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

var placeholderHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("pantry-placeholder"), bcrypt.DefaultCost)
	return hash
})

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
