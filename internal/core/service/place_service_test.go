package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/rs/zerolog"

	"github.com/censusware/population-system/internal/core/domain"
	"github.com/censusware/population-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubPlaceRepo struct {
	places    map[string]*domain.Place
	nextID    int
	createErr error // if set, Create returns this error
	updateErr error // if set, Update returns this error
}

func newStubPlaceRepo() *stubPlaceRepo {
	return &stubPlaceRepo{places: make(map[string]*domain.Place)}
}

func (r *stubPlaceRepo) seed(p *domain.Place) *domain.Place {
	clone := *p
	r.places[p.ID] = &clone
	return &clone
}

func (r *stubPlaceRepo) Create(_ context.Context, p *domain.Place) (*domain.Place, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	clone := *p
	clone.ID = "place_" + strconv.Itoa(r.nextID)
	r.places[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubPlaceRepo) FindByID(_ context.Context, id string) (*domain.Place, error) {
	p, ok := r.places[id]
	if !ok {
		return nil, domain.ErrPlaceNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubPlaceRepo) List(_ context.Context) ([]*domain.Place, error) {
	var out []*domain.Place
	for _, p := range r.places {
		clone := *p
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubPlaceRepo) ListByParent(_ context.Context, parentID string) ([]*domain.Place, error) {
	var out []*domain.Place
	for _, p := range r.places {
		if p.ParentPlaceID == parentID {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubPlaceRepo) Update(_ context.Context, p *domain.Place) (*domain.Place, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	if _, ok := r.places[p.ID]; !ok {
		return nil, domain.ErrPlaceNotFound
	}
	clone := *p
	r.places[p.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubPlaceRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.places[id]; !ok {
		return domain.ErrPlaceNotFound
	}
	delete(r.places, id)
	return nil
}

func (r *stubPlaceRepo) ReassignParent(_ context.Context, parentID, newParent, updatedBy string) (domain.UpdateCount, error) {
	var n int64
	for _, p := range r.places {
		if p.ParentPlaceID == parentID {
			p.ParentPlaceID = newParent
			p.UpdatedBy = updatedBy
			n++
		}
	}
	return domain.UpdateCount{Matched: n, Modified: n}, nil
}

func (r *stubPlaceRepo) RewriteCreatedBy(_ context.Context, userID, marker string) (domain.UpdateCount, error) {
	var n int64
	for _, p := range r.places {
		if p.CreatedBy == userID {
			p.CreatedBy = marker
			n++
		}
	}
	return domain.UpdateCount{Matched: n, Modified: n}, nil
}

func (r *stubPlaceRepo) RewriteUpdatedBy(_ context.Context, userID, marker string) (domain.UpdateCount, error) {
	var n int64
	for _, p := range r.places {
		if p.UpdatedBy == userID {
			p.UpdatedBy = marker
			n++
		}
	}
	return domain.UpdateCount{Matched: n, Modified: n}, nil
}

type recordingAudit struct {
	entries []ports.AuditInput
}

func (a *recordingAudit) Record(entry ports.AuditInput) {
	a.entries = append(a.entries, entry)
}

func newPlaceService(repo *stubPlaceRepo, strategy CascadeStrategy) (*PlaceService, *recordingAudit) {
	audit := &recordingAudit{}
	svc := NewPlaceService(repo, NopTransactor{}, strategy, audit, zerolog.Nop())
	return svc, audit
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestPlaceService_Create_NoParent(t *testing.T) {
	repo := newStubPlaceRepo()
	svc, audit := newPlaceService(repo, CascadeDelta)

	result, err := svc.Create(context.Background(), ports.CreatePlaceInput{
		Name:   "Uganda",
		Male:   1000000,
		Female: 1500000,
		Caller: "user_1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if result.Place.Total != 2500000 {
		t.Fatalf("expected total 2500000, got %d", result.Place.Total)
	}
	if result.ParentUpdate != nil {
		t.Fatalf("expected no parent update, got %+v", result.ParentUpdate)
	}
	if result.Place.CreatedBy != "user_1" || result.Place.UpdatedBy != "user_1" {
		t.Fatalf("author not stamped: %+v", result.Place)
	}
	if len(audit.entries) != 1 || audit.entries[0].Action != ports.AuditPlaceCreated {
		t.Fatalf("expected one place_created audit entry, got %+v", audit.entries)
	}
}

func TestPlaceService_Create_CascadesIntoParent(t *testing.T) {
	repo := newStubPlaceRepo()
	repo.seed(&domain.Place{ID: "parent_1", Name: "Uganda", Male: 1000000, Female: 1200000, Total: 2200000})
	svc, audit := newPlaceService(repo, CascadeDelta)

	result, err := svc.Create(context.Background(), ports.CreatePlaceInput{
		Name:          "Kampala",
		Male:          100,
		Female:        50,
		ParentPlaceID: "parent_1",
		Caller:        "user_1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if result.ParentUpdate == nil {
		t.Fatalf("expected parent update in result")
	}
	if result.ParentUpdate.Male != 1000100 {
		t.Fatalf("expected parent male 1000100, got %d", result.ParentUpdate.Male)
	}
	if result.ParentUpdate.Female != 1200050 {
		t.Fatalf("expected parent female 1200050, got %d", result.ParentUpdate.Female)
	}
	if result.ParentUpdate.Total != 2200150 {
		t.Fatalf("expected parent total 2200150, got %d", result.ParentUpdate.Total)
	}

	// The cascade stops at the immediate parent and is persisted.
	stored, _ := repo.FindByID(context.Background(), "parent_1")
	if stored.Total != 2200150 {
		t.Fatalf("parent not persisted: %+v", stored)
	}
	if stored.UpdatedBy != "user_1" {
		t.Fatalf("parent updatedBy not stamped: %q", stored.UpdatedBy)
	}

	if len(audit.entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(audit.entries))
	}
	if audit.entries[1].Action != ports.AuditParentCascaded {
		t.Fatalf("expected parent_cascaded entry, got %q", audit.entries[1].Action)
	}
}

func TestPlaceService_Create_ParentNotFound(t *testing.T) {
	repo := newStubPlaceRepo()
	svc, _ := newPlaceService(repo, CascadeDelta)

	_, err := svc.Create(context.Background(), ports.CreatePlaceInput{
		Name:          "Kampala",
		Male:          1,
		Female:        1,
		ParentPlaceID: "missing",
		Caller:        "user_1",
	})
	if !errors.Is(err, domain.ErrParentPlaceNotFound) {
		t.Fatalf("expected ErrParentPlaceNotFound, got %v", err)
	}
	// Nothing may be persisted when the parent lookup fails.
	if len(repo.places) != 0 {
		t.Fatalf("expected no writes, got %d places", len(repo.places))
	}
}

func TestPlaceService_Create_DeletedSentinelSkipsCascade(t *testing.T) {
	repo := newStubPlaceRepo()
	svc, _ := newPlaceService(repo, CascadeDelta)

	result, err := svc.Create(context.Background(), ports.CreatePlaceInput{
		Name:          "Orphan",
		Male:          5,
		Female:        5,
		ParentPlaceID: domain.DeletedSentinel,
		Caller:        "user_1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if result.ParentUpdate != nil {
		t.Fatalf("sentinel parent must not cascade")
	}
}

func TestPlaceService_Create_Validation(t *testing.T) {
	repo := newStubPlaceRepo()
	svc, _ := newPlaceService(repo, CascadeDelta)

	cases := []ports.CreatePlaceInput{
		{Name: "", Male: 1, Female: 1},
		{Name: "Kampala", Male: -1, Female: 1},
		{Name: "Kampala", Male: 1, Female: -1},
	}
	for _, in := range cases {
		if _, err := svc.Create(context.Background(), in); !errors.Is(err, domain.ErrMissingParameters) {
			t.Fatalf("input %+v: expected ErrMissingParameters, got %v", in, err)
		}
	}
}

// snapshotTransactor restores the repository to its pre-transaction state
// when the scoped function fails, mirroring a Mongo session rollback.
type snapshotTransactor struct {
	repo *stubPlaceRepo
}

func (t snapshotTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := make(map[string]*domain.Place, len(t.repo.places))
	for id, p := range t.repo.places {
		clone := *p
		snapshot[id] = &clone
	}
	if err := fn(ctx); err != nil {
		t.repo.places = snapshot
		return err
	}
	return nil
}

func TestPlaceService_Create_ChildSaveFailureWithoutTransactionKeepsParentIncrement(t *testing.T) {
	repo := newStubPlaceRepo()
	repo.seed(&domain.Place{ID: "parent_1", Name: "Uganda", Male: 1000, Female: 1200, Total: 2200})
	repo.createErr = errors.New("write conflict")
	svc, _ := newPlaceService(repo, CascadeDelta)

	_, err := svc.Create(context.Background(), ports.CreatePlaceInput{
		Name:          "Kampala",
		Male:          250,
		Female:        300,
		ParentPlaceID: "parent_1",
		Caller:        "user_1",
	})
	if err == nil {
		t.Fatalf("expected child save failure to surface")
	}

	// Without a transaction scope the parent write has already landed when
	// the child save fails. The increment survives.
	parent, _ := repo.FindByID(context.Background(), "parent_1")
	if parent.Male != 1250 || parent.Female != 1500 || parent.Total != 2750 {
		t.Fatalf("expected parent partially applied {1250 1500 2750}, got {%d %d %d}",
			parent.Male, parent.Female, parent.Total)
	}
}

func TestPlaceService_Create_ChildSaveFailureUnderTransactionRollsParentBack(t *testing.T) {
	repo := newStubPlaceRepo()
	repo.seed(&domain.Place{ID: "parent_1", Name: "Uganda", Male: 1000, Female: 1200, Total: 2200})
	repo.createErr = errors.New("write conflict")
	audit := &recordingAudit{}
	svc := NewPlaceService(repo, snapshotTransactor{repo: repo}, CascadeDelta, audit, zerolog.Nop())

	_, err := svc.Create(context.Background(), ports.CreatePlaceInput{
		Name:          "Kampala",
		Male:          250,
		Female:        300,
		ParentPlaceID: "parent_1",
		Caller:        "user_1",
	})
	if err == nil {
		t.Fatalf("expected child save failure to surface")
	}

	parent, _ := repo.FindByID(context.Background(), "parent_1")
	if parent.Male != 1000 || parent.Female != 1200 || parent.Total != 2200 {
		t.Fatalf("expected parent rolled back to {1000 1200 2200}, got {%d %d %d}",
			parent.Male, parent.Female, parent.Total)
	}
	if len(audit.entries) != 0 {
		t.Fatalf("no audit entries may be recorded for a failed create, got %+v", audit.entries)
	}
}

func TestPlaceService_Create_ParentWriteFailureStopsChildSave(t *testing.T) {
	repo := newStubPlaceRepo()
	repo.seed(&domain.Place{ID: "parent_1", Name: "Uganda", Male: 1000, Female: 1200, Total: 2200})
	repo.updateErr = errors.New("write conflict")
	svc, _ := newPlaceService(repo, CascadeDelta)

	_, err := svc.Create(context.Background(), ports.CreatePlaceInput{
		Name:          "Kampala",
		Male:          250,
		Female:        300,
		ParentPlaceID: "parent_1",
		Caller:        "user_1",
	})
	if err == nil {
		t.Fatalf("expected parent write failure to surface")
	}

	// Parent write strictly precedes the child save, so a failed parent
	// write leaves no orphaned child even without a transaction scope.
	if len(repo.places) != 1 {
		t.Fatalf("expected only the seeded parent, got %d places", len(repo.places))
	}
	parent, _ := repo.FindByID(context.Background(), "parent_1")
	if parent.Total != 2200 {
		t.Fatalf("parent must be unchanged, got total %d", parent.Total)
	}
}

func TestPlaceService_Update_ParentWriteFailureUnderTransactionRollsChildBack(t *testing.T) {
	repo := newStubPlaceRepo()
	repo.seed(&domain.Place{ID: "parent_1", Name: "Uganda", Male: 1000, Female: 1200, Total: 2200})
	repo.seed(&domain.Place{ID: "child_1", Name: "Kampala", ParentPlaceID: "missing_parent", Male: 100, Female: 50, Total: 150})
	svc := NewPlaceService(repo, snapshotTransactor{repo: repo}, CascadeDelta, &recordingAudit{}, zerolog.Nop())

	// The child write succeeds inside the scope, then the cascade fails on
	// the dangling parent reference and both writes unwind together.
	male := int64(999)
	_, err := svc.Update(context.Background(), "child_1", ports.UpdatePlaceInput{
		Male:   &male,
		Caller: "user_1",
	})
	if !errors.Is(err, domain.ErrParentPlaceNotFound) {
		t.Fatalf("expected ErrParentPlaceNotFound, got %v", err)
	}

	child, _ := repo.FindByID(context.Background(), "child_1")
	if child.Male != 100 {
		t.Fatalf("expected child rolled back to male=100, got %d", child.Male)
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func int64p(v int64) *int64 { return &v }

func strp(s string) *string { return &s }

func TestPlaceService_Update_CascadeCompounds(t *testing.T) {
	repo := newStubPlaceRepo()
	repo.seed(&domain.Place{ID: "parent_1", Name: "Uganda", Male: 1500, Female: 1250, Total: 2750})
	repo.seed(&domain.Place{ID: "child_1", Name: "Kampala", ParentPlaceID: "parent_1", Male: 100, Female: 50, Total: 150})
	svc, _ := newPlaceService(repo, CascadeDelta)

	// With the delta strategy every edit re-adds the child's counts. The
	// compounding is the historical contract.
	result, err := svc.Update(context.Background(), "child_1", ports.UpdatePlaceInput{
		Male:   int64p(200),
		Caller: "user_2",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if result.ParentUpdate == nil {
		t.Fatalf("expected parent update")
	}
	if result.ParentUpdate.Male != 1700 {
		t.Fatalf("expected parent male 1700, got %d", result.ParentUpdate.Male)
	}
	if result.ParentUpdate.Female != 1300 {
		t.Fatalf("expected parent female 1300, got %d", result.ParentUpdate.Female)
	}
	if result.ParentUpdate.Total != 3000 {
		t.Fatalf("expected parent total 3000, got %d", result.ParentUpdate.Total)
	}
}

func TestPlaceService_Update_TotalUntouchedWhenNotInPayload(t *testing.T) {
	repo := newStubPlaceRepo()
	repo.seed(&domain.Place{ID: "p1", Name: "Gulu", Male: 100, Female: 50, Total: 150})
	svc, _ := newPlaceService(repo, CascadeDelta)

	result, err := svc.Update(context.Background(), "p1", ports.UpdatePlaceInput{
		Male:   int64p(999),
		Caller: "user_1",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	// Editing male alone leaves the stored total stale.
	if result.Place.Male != 999 || result.Place.Total != 150 {
		t.Fatalf("expected male=999 total=150, got male=%d total=%d", result.Place.Male, result.Place.Total)
	}
}

func TestPlaceService_Update_TotalReconciledWhenTouched(t *testing.T) {
	repo := newStubPlaceRepo()
	repo.seed(&domain.Place{ID: "p1", Name: "Gulu", Male: 100, Female: 50, Total: 150})
	svc, _ := newPlaceService(repo, CascadeDelta)

	result, err := svc.Update(context.Background(), "p1", ports.UpdatePlaceInput{
		Total:  int64p(7),
		Caller: "user_1",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if result.Place.Total != 150 {
		t.Fatalf("total must be reconciled to male+female, got %d", result.Place.Total)
	}
}

func TestPlaceService_Update_NotFound(t *testing.T) {
	repo := newStubPlaceRepo()
	svc, _ := newPlaceService(repo, CascadeDelta)

	_, err := svc.Update(context.Background(), "missing", ports.UpdatePlaceInput{Caller: "user_1"})
	if !errors.Is(err, domain.ErrPlaceNotFound) {
		t.Fatalf("expected ErrPlaceNotFound, got %v", err)
	}
}

func TestPlaceService_Update_ReparentCascadesIntoNewParent(t *testing.T) {
	repo := newStubPlaceRepo()
	repo.seed(&domain.Place{ID: "parent_2", Name: "Kenya", Male: 10, Female: 10, Total: 20})
	repo.seed(&domain.Place{ID: "child_1", Name: "Kampala", Male: 3, Female: 4, Total: 7})
	svc, _ := newPlaceService(repo, CascadeDelta)

	result, err := svc.Update(context.Background(), "child_1", ports.UpdatePlaceInput{
		ParentPlaceID: strp("parent_2"),
		Caller:        "user_1",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if result.ParentUpdate == nil || result.ParentUpdate.ID != "parent_2" {
		t.Fatalf("expected cascade into parent_2, got %+v", result.ParentUpdate)
	}
	if result.ParentUpdate.Male != 13 || result.ParentUpdate.Female != 14 || result.ParentUpdate.Total != 27 {
		t.Fatalf("unexpected parent counts: %+v", result.ParentUpdate)
	}
}

// ---------------------------------------------------------------------------
// Recompute strategy
// ---------------------------------------------------------------------------

func TestPlaceService_RecomputeStrategy_DoesNotCompound(t *testing.T) {
	repo := newStubPlaceRepo()
	repo.seed(&domain.Place{ID: "parent_1", Name: "Uganda", Male: 0, Female: 0, Total: 0})
	repo.seed(&domain.Place{ID: "child_1", Name: "Kampala", ParentPlaceID: "parent_1", Male: 100, Female: 50, Total: 150})
	repo.seed(&domain.Place{ID: "child_2", Name: "Gulu", ParentPlaceID: "parent_1", Male: 10, Female: 20, Total: 30})
	svc, _ := newPlaceService(repo, CascadeRecompute)

	// First edit.
	if _, err := svc.Update(context.Background(), "child_1", ports.UpdatePlaceInput{
		Male:   int64p(200),
		Caller: "user_1",
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	// Second edit of the same child must not double-count it.
	result, err := svc.Update(context.Background(), "child_1", ports.UpdatePlaceInput{
		Male:   int64p(300),
		Caller: "user_1",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if result.ParentUpdate.Male != 310 {
		t.Fatalf("expected parent male 310 (300 + sibling 10), got %d", result.ParentUpdate.Male)
	}
	if result.ParentUpdate.Female != 70 {
		t.Fatalf("expected parent female 70, got %d", result.ParentUpdate.Female)
	}
	if result.ParentUpdate.Total != 380 {
		t.Fatalf("expected parent total 380, got %d", result.ParentUpdate.Total)
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestPlaceService_Delete_ReparentsChildren(t *testing.T) {
	repo := newStubPlaceRepo()
	repo.seed(&domain.Place{ID: "parent_1", Name: "Uganda", Male: 100, Female: 100, Total: 200})
	repo.seed(&domain.Place{ID: "child_1", Name: "Kampala", ParentPlaceID: "parent_1"})
	repo.seed(&domain.Place{ID: "child_2", Name: "Gulu", ParentPlaceID: "parent_1"})
	repo.seed(&domain.Place{ID: "other", Name: "Nairobi"})
	svc, audit := newPlaceService(repo, CascadeDelta)

	result, err := svc.Delete(context.Background(), "parent_1", "user_1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	if result.Reassigned.Matched != 2 || result.Reassigned.Modified != 2 {
		t.Fatalf("expected 2 children reparented, got %+v", result.Reassigned)
	}
	if _, err := repo.FindByID(context.Background(), "parent_1"); !errors.Is(err, domain.ErrPlaceNotFound) {
		t.Fatalf("parent must be gone")
	}

	child, _ := repo.FindByID(context.Background(), "child_1")
	if child.ParentPlaceID != domain.DeletedSentinel {
		t.Fatalf("expected sentinel parent, got %q", child.ParentPlaceID)
	}
	if child.UpdatedBy != "user_1" {
		t.Fatalf("expected updatedBy stamped on reparented child, got %q", child.UpdatedBy)
	}

	// Deleting never decrements anyone's counts.
	other, _ := repo.FindByID(context.Background(), "other")
	if other.ParentPlaceID != "" {
		t.Fatalf("unrelated place touched: %+v", other)
	}

	if len(audit.entries) != 2 {
		t.Fatalf("expected place_deleted and children_reparented entries, got %+v", audit.entries)
	}
}

func TestPlaceService_Delete_NotFound(t *testing.T) {
	repo := newStubPlaceRepo()
	svc, _ := newPlaceService(repo, CascadeDelta)

	if _, err := svc.Delete(context.Background(), "missing", "user_1"); !errors.Is(err, domain.ErrPlaceNotFound) {
		t.Fatalf("expected ErrPlaceNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Strategy parsing
// ---------------------------------------------------------------------------

func TestParseCascadeStrategy(t *testing.T) {
	if got := ParseCascadeStrategy("recompute"); got != CascadeRecompute {
		t.Fatalf("expected recompute, got %q", got)
	}
	if got := ParseCascadeStrategy("delta"); got != CascadeDelta {
		t.Fatalf("expected delta, got %q", got)
	}
	if got := ParseCascadeStrategy("bogus"); got != CascadeDelta {
		t.Fatalf("unknown strategy must default to delta, got %q", got)
	}
}
