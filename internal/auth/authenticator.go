package auth

import (
	"context"

	"github.com/mmynk/expense-tracker/internal/models"
)

// Authenticator registers accounts and checks credentials. AuthService only
// depends on this interface; PasswordAuthenticator is the implementation.
type Authenticator interface {
	// Register stores a new account for email. Errors wrap errs.ErrValidation
	// for an unacceptable credential and errs.ErrConflict for a taken email.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the account for email when credential matches it,
	// and ErrInvalidCredentials otherwise.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential reports whether credential is acceptable before anything is stored.
	ValidateCredential(credential string) error
}
