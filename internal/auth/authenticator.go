// Package auth holds account credentials and session tokens for the pantry
// API.
package auth

import (
	"context"

	"github.com/mmynk/pantry/internal/models"
)

// Authenticator registers pantry owners and checks their sign-in secret.
// AuthService only sees this interface; PasswordAuthenticator is the one
// implementation.
type Authenticator interface {
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns ErrInvalidCredentials for an unknown email and
	// for a wrong secret alike.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	ValidateCredential(credential string) error
}

// Identity is the pantry owner a request acts for.
type Identity struct {
	UserID string
	Email  string
}

// IdentityResolver turns a bearer token into an identity.
// ok is false for a missing, malformed or expired token; callers treat that
// as an anonymous request.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (id Identity, ok bool)
}

// ResolverFunc adapts a function to IdentityResolver.
type ResolverFunc func(ctx context.Context, token string) (Identity, bool)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, token string) (Identity, bool) {
	return f(ctx, token)
}
