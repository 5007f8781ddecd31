package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmynk/pantry/internal/models"
	"github.com/mmynk/pantry/internal/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// memoryUsers is an in-memory Accounts.
type memoryUsers struct {
	byEmail   map[string]*models.User
	lookupErr error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byEmail: make(map[string]*models.User)}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	if _, ok := m.byEmail[user.Email]; ok {
		return storage.ErrConflict
	}
	m.byEmail[user.Email] = user
	return nil
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
}

func TestJWTManager(t *testing.T) {
	manager := NewJWTManager(testSecret, time.Hour)
	user := &models.User{ID: "user-1", Email: "alice@example.com"}

	token, err := manager.Generate(user)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	t.Run("Validate round trip", func(t *testing.T) {
		claims, err := manager.Validate(token)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if claims.Subject != "user-1" || claims.Email != "alice@example.com" || claims.Issuer != issuer {
			t.Errorf("unexpected claims: %+v", claims)
		}
		if id := claims.Identity(); id.UserID != "user-1" || id.Email != "alice@example.com" {
			t.Errorf("unexpected identity: %+v", id)
		}
	})

	t.Run("Resolve returns identity", func(t *testing.T) {
		id, ok := manager.Resolve(context.Background(), token)
		if !ok {
			t.Fatal("expected token to resolve")
		}
		if id.UserID != "user-1" {
			t.Errorf("UserID = %q, want user-1", id.UserID)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("another-secret-another-secret-xx", time.Hour)
		if _, err := other.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
		if _, ok := other.Resolve(context.Background(), token); ok {
			t.Error("expected token signed with another secret not to resolve")
		}
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewJWTManager(testSecret, -time.Minute)
		old, err := expired.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if _, err := manager.Validate(old); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, ok := manager.Resolve(context.Background(), "not-a-jwt"); ok {
			t.Error("expected garbage not to resolve")
		}
	})

	t.Run("none algorithm rejected", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("failed to build unsigned token: %v", err)
		}
		if _, ok := manager.Resolve(context.Background(), unsigned); ok {
			t.Error("expected unsigned token not to resolve")
		}
	})

	t.Run("token without subject", func(t *testing.T) {
		claims := &Claims{
			Email: "alice@example.com",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		if _, err := manager.Validate(signed); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("foreign issuer", func(t *testing.T) {
		claims := &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "someone-else",
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("failed to sign token: %v", err)
		}
		if _, ok := manager.Resolve(context.Background(), signed); ok {
			t.Error("expected token from another issuer not to resolve")
		}
	})
}

func TestPasswordAuthenticator(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUsers()
	authn := NewPasswordAuthenticator(users)

	t.Run("Register hashes the password", func(t *testing.T) {
		user, err := authn.Register(ctx, " Alice@Example.com ", "Alice", "correct horse")
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if user.Email != "alice@example.com" {
			t.Errorf("expected normalized email, got %q", user.Email)
		}
		if user.PasswordHash == "" || user.PasswordHash == "correct horse" {
			t.Errorf("expected bcrypt hash, got %q", user.PasswordHash)
		}
	})

	t.Run("Register duplicate email", func(t *testing.T) {
		_, err := authn.Register(ctx, "alice@example.com", "Alice", "correct horse")
		if !errors.Is(err, ErrEmailExists) {
			t.Errorf("expected ErrEmailExists, got %v", err)
		}
	})

	t.Run("Register weak password", func(t *testing.T) {
		_, err := authn.Register(ctx, "bob@example.com", "Bob", "short")
		if !errors.Is(err, ErrWeakPassword) {
			t.Errorf("expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("Register counts characters for the minimum", func(t *testing.T) {
		if _, err := authn.Register(ctx, "carol@example.com", "Carol", strings.Repeat("é", 8)); err != nil {
			t.Errorf("Register failed: %v", err)
		}
		if _, err := authn.Register(ctx, "dave@example.com", "Dave", strings.Repeat("é", 7)); !errors.Is(err, ErrWeakPassword) {
			t.Errorf("expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("Register overlong password", func(t *testing.T) {
		_, err := authn.Register(ctx, "bob@example.com", "Bob", strings.Repeat("x", 73))
		if !errors.Is(err, ErrPasswordTooLong) {
			t.Errorf("expected ErrPasswordTooLong, got %v", err)
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		user, err := authn.Authenticate(ctx, "ALICE@example.com", "correct horse")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if user.DisplayName != "Alice" {
			t.Errorf("DisplayName = %q, want Alice", user.DisplayName)
		}
	})

	t.Run("Authenticate wrong password", func(t *testing.T) {
		_, err := authn.Authenticate(ctx, "alice@example.com", "wrong password")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("Authenticate unknown user", func(t *testing.T) {
		_, err := authn.Authenticate(ctx, "nobody@example.com", "whatever123")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("Authenticate store failure", func(t *testing.T) {
		broken := newMemoryUsers()
		broken.lookupErr = errors.New("database is locked")
		_, err := NewPasswordAuthenticator(broken).Authenticate(ctx, "alice@example.com", "correct horse")
		if err == nil || errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected lookup error to surface, got %v", err)
		}
	})
}
