package ports

import (
	"context"

	"github.com/censusware/population-system/internal/core/domain"
)

// PlaceRepository defines persistence operations for places.
type PlaceRepository interface {
	Create(ctx context.Context, p *domain.Place) (*domain.Place, error)
	FindByID(ctx context.Context, id string) (*domain.Place, error)
	// List returns all places sorted newest-created-first.
	List(ctx context.Context) ([]*domain.Place, error)
	// ListByParent returns the direct children of parentID.
	ListByParent(ctx context.Context, parentID string) ([]*domain.Place, error)
	// Update persists the mutable fields of p and returns the stored state.
	Update(ctx context.Context, p *domain.Place) (*domain.Place, error)
	Delete(ctx context.Context, id string) error

	// ReassignParent rewrites parentPlaceId on every direct child of parentID
	// to newParent, stamping updatedBy.
	ReassignParent(ctx context.Context, parentID, newParent, updatedBy string) (domain.UpdateCount, error)
	// RewriteCreatedBy / RewriteUpdatedBy replace author references with the
	// given marker when a user is removed. History is kept, not deleted.
	RewriteCreatedBy(ctx context.Context, userID, marker string) (domain.UpdateCount, error)
	RewriteUpdatedBy(ctx context.Context, userID, marker string) (domain.UpdateCount, error)
}
