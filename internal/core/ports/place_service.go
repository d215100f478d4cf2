package ports

import (
	"context"

	"github.com/censusware/population-system/internal/core/domain"
)

// CreatePlaceInput carries a validated create request. Caller is the id of
// the authenticated user and stamps createdBy/updatedBy.
type CreatePlaceInput struct {
	Name          string
	Male          int64
	Female        int64
	ParentPlaceID string
	Caller        string
}

// UpdatePlaceInput carries a partial update; nil fields are left untouched.
type UpdatePlaceInput struct {
	Name          *string
	Male          *int64
	Female        *int64
	Total         *int64
	ParentPlaceID *string
	Caller        string
}

// PlaceWriteResult is returned by create/update. ParentUpdate is the parent's
// post-cascade state, nil when no cascade ran.
type PlaceWriteResult struct {
	Place        *domain.Place
	ParentUpdate *domain.Place
}

// DeletePlaceResult reports the reparenting of the deleted place's children.
type DeletePlaceResult struct {
	Reassigned domain.UpdateCount
}

// PlaceService defines the use-case operations on places, including the
// parent cascade.
type PlaceService interface {
	Create(ctx context.Context, in CreatePlaceInput) (*PlaceWriteResult, error)
	Get(ctx context.Context, id string) (*domain.Place, error)
	List(ctx context.Context) ([]*domain.Place, error)
	Update(ctx context.Context, id string, in UpdatePlaceInput) (*PlaceWriteResult, error)
	Delete(ctx context.Context, id, caller string) (*DeletePlaceResult, error)
}
