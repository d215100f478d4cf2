package ports

import (
	"context"

	"github.com/censusware/population-system/internal/core/domain"
)

// UserRepository defines persistence for user credentials.
type UserRepository interface {
	// Create inserts the user. A username collision yields domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
