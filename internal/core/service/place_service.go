package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/censusware/population-system/internal/core/domain"
	"github.com/censusware/population-system/internal/core/ports"
)

// CascadeStrategy selects how a parent's counts absorb a child write.
type CascadeStrategy string

const (
	// CascadeDelta adds the child's current counts to the parent on every
	// create and edit. Repeated edits of the same child compound, which is
	// the behavior the API has always had.
	CascadeDelta CascadeStrategy = "delta"
	// CascadeRecompute sets the parent's counts to the sum of its direct
	// children, eliminating double-counting across repeated edits.
	CascadeRecompute CascadeStrategy = "recompute"
)

// ParseCascadeStrategy maps a config string to a strategy, defaulting to delta.
func ParseCascadeStrategy(s string) CascadeStrategy {
	if CascadeStrategy(s) == CascadeRecompute {
		return CascadeRecompute
	}
	return CascadeDelta
}

// NopTransactor runs the function without any transaction scope, reproducing
// the non-atomic two-step cascade write. Used on standalone deployments and
// in tests.
type NopTransactor struct{}

func (NopTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// PlaceService implements place CRUD and the parent cascade.
type PlaceService struct {
	repo     ports.PlaceRepository
	tx       ports.Transactor
	strategy CascadeStrategy
	audit    ports.AuditRecorder
	log      zerolog.Logger
}

func NewPlaceService(
	repo ports.PlaceRepository,
	tx ports.Transactor,
	strategy CascadeStrategy,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) *PlaceService {
	if tx == nil {
		tx = NopTransactor{}
	}
	if strategy == "" {
		strategy = CascadeDelta
	}
	return &PlaceService{repo: repo, tx: tx, strategy: strategy, audit: audit, log: log}
}

// Create persists a new place. When the input references a parent, the
// parent's counts are updated first and both writes share one transaction
// scope, so a failed child save rolls the parent back.
func (s *PlaceService) Create(ctx context.Context, in ports.CreatePlaceInput) (*ports.PlaceWriteResult, error) {
	if in.Name == "" || in.Male < 0 || in.Female < 0 {
		return nil, domain.ErrMissingParameters
	}

	now := time.Now().UTC()
	place := &domain.Place{
		ParentPlaceID: in.ParentPlaceID,
		Name:          in.Name,
		Male:          in.Male,
		Female:        in.Female,
		Total:         in.Male + in.Female,
		CreatedBy:     in.Caller,
		CreatedAt:     now,
		UpdatedBy:     in.Caller,
		UpdatedAt:     now,
	}

	if !place.HasParent() {
		created, err := s.repo.Create(ctx, place)
		if err != nil {
			return nil, err
		}
		s.record(ports.AuditPlaceCreated, created.ID, in.Caller, created.Name)
		return &ports.PlaceWriteResult{Place: created}, nil
	}

	var created, parent *domain.Place
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		// Parent write strictly precedes the child save; the response
		// depends on the parent's post-update state.
		parent, err = s.cascadeInto(ctx, place, in.Caller)
		if err != nil {
			return err
		}
		created, err = s.repo.Create(ctx, place)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("place_id", created.ID).
		Str("parent_id", parent.ID).
		Int64("parent_total", parent.Total).
		Msg("place created with parent cascade")

	s.record(ports.AuditPlaceCreated, created.ID, in.Caller, created.Name)
	s.record(ports.AuditParentCascaded, parent.ID, in.Caller, created.ID)

	return &ports.PlaceWriteResult{Place: created, ParentUpdate: parent}, nil
}

func (s *PlaceService) Get(ctx context.Context, id string) (*domain.Place, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *PlaceService) List(ctx context.Context) ([]*domain.Place, error) {
	return s.repo.List(ctx)
}

// Update applies a partial edit. The child write happens first; when the
// resulting record still references a parent, the cascade follows inside the
// same transaction scope.
func (s *PlaceService) Update(ctx context.Context, id string, in ports.UpdatePlaceInput) (*ports.PlaceWriteResult, error) {
	place, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		place.Name = *in.Name
	}
	if in.Male != nil {
		place.Male = *in.Male
	}
	if in.Female != nil {
		place.Female = *in.Female
	}
	if in.Total != nil {
		place.Total = *in.Total
	}
	if in.ParentPlaceID != nil {
		place.ParentPlaceID = *in.ParentPlaceID
	}
	if place.Male < 0 || place.Female < 0 {
		return nil, domain.ErrMissingParameters
	}
	// Total is only reconciled when the payload touched it; an edit that
	// changes male alone leaves the stored total as-is.
	if in.Total != nil {
		place.RecomputeTotal()
	}
	place.UpdatedBy = in.Caller
	place.UpdatedAt = time.Now().UTC()

	if !place.HasParent() {
		updated, err := s.repo.Update(ctx, place)
		if err != nil {
			return nil, err
		}
		return &ports.PlaceWriteResult{Place: updated}, nil
	}

	var updated, parent *domain.Place
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.repo.Update(ctx, place)
		if err != nil {
			return err
		}
		parent, err = s.cascadeInto(ctx, updated, in.Caller)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.record(ports.AuditParentCascaded, parent.ID, in.Caller, updated.ID)

	return &ports.PlaceWriteResult{Place: updated, ParentUpdate: parent}, nil
}

// Delete removes the place and rewrites its direct children's parentPlaceId
// to the "Deleted" marker. No totals are recomputed; grandchildren and the
// deleted place's own former parent are untouched.
func (s *PlaceService) Delete(ctx context.Context, id, caller string) (*ports.DeletePlaceResult, error) {
	place, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, place.ID); err != nil {
		return nil, err
	}

	reassigned, err := s.repo.ReassignParent(ctx, place.ID, domain.DeletedSentinel, caller)
	if err != nil {
		return nil, err
	}

	s.record(ports.AuditPlaceDeleted, place.ID, caller, place.Name)
	if reassigned.Matched > 0 {
		s.record(ports.AuditChildrenRewired, place.ID, caller, "")
	}

	s.log.Info().
		Str("place_id", place.ID).
		Int64("children_reparented", reassigned.Modified).
		Msg("place deleted")

	return &ports.DeletePlaceResult{Reassigned: reassigned}, nil
}

// cascadeInto folds the child's counts into its parent and persists the
// parent. Exactly one level is walked; the parent's own ancestors are never
// touched.
func (s *PlaceService) cascadeInto(ctx context.Context, child *domain.Place, caller string) (*domain.Place, error) {
	parent, err := s.repo.FindByID(ctx, child.ParentPlaceID)
	if err != nil {
		if errors.Is(err, domain.ErrPlaceNotFound) {
			return nil, domain.ErrParentPlaceNotFound
		}
		return nil, err
	}

	switch s.strategy {
	case CascadeRecompute:
		siblings, err := s.repo.ListByParent(ctx, parent.ID)
		if err != nil {
			return nil, err
		}
		var male, female int64
		for _, sib := range siblings {
			if sib.ID == child.ID {
				continue
			}
			male += sib.Male
			female += sib.Female
		}
		parent.Male = male + child.Male
		parent.Female = female + child.Female
	default:
		parent.Male += child.Male
		parent.Female += child.Female
	}
	parent.Total = parent.Male + parent.Female
	parent.UpdatedBy = caller
	parent.UpdatedAt = time.Now().UTC()

	return s.repo.Update(ctx, parent)
}

func (s *PlaceService) record(action, subject, actor, note string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ports.AuditInput{
		Action:    action,
		Subject:   subject,
		Actor:     actor,
		Note:      note,
		Timestamp: time.Now().UTC(),
	})
}
