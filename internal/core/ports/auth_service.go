package ports

import (
	"context"

	"github.com/censusware/population-system/internal/core/domain"
)

// SignupInput carries the fields required to create an account.
type SignupInput struct {
	FirstName string
	LastName  string
	Username  string
	Password  string
}

// DeleteUserResult reports the place author rewrites performed alongside a
// user deletion.
type DeleteUserResult struct {
	Creations domain.UpdateCount
	Updates   domain.UpdateCount
}

// AuthService covers credential issuance and caller-identity resolution.
type AuthService interface {
	// Signup creates the user and mints a signed token for it.
	Signup(ctx context.Context, in SignupInput) (string, *domain.User, error)
	// Signin verifies the candidate password against the stored hash. An
	// unknown username and a wrong password are indistinguishable to the
	// caller.
	Signin(ctx context.Context, username, password string) (string, *domain.User, error)
	// ResolveIdentity maps a verified token subject to a live user.
	ResolveIdentity(ctx context.Context, userID string) (*domain.User, error)
	// DeleteUser removes the account and rewrites place author references to
	// the "Deleted" marker.
	DeleteUser(ctx context.Context, userID string) (*DeleteUserResult, error)
}
