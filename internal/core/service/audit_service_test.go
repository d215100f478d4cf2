package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/censusware/population-system/internal/core/domain"
	"github.com/censusware/population-system/internal/core/ports"
)

type stubAuditRepo struct {
	entries   []*domain.AuditEntry
	insertErr error
}

func (r *stubAuditRepo) Insert(_ context.Context, e *domain.AuditEntry) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	clone := *e
	r.entries = append(r.entries, &clone)
	return nil
}

func (r *stubAuditRepo) ListBySubject(_ context.Context, subject string) ([]*domain.AuditEntry, error) {
	var out []*domain.AuditEntry
	for _, e := range r.entries {
		if e.Subject == subject {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

func TestAuditService_Process(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := NewAuditService(repo, zerolog.Nop())

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	err := svc.Process(context.Background(), ports.AuditInput{
		Action:    ports.AuditPlaceCreated,
		Subject:   "place_1",
		Actor:     "user_1",
		Note:      "Kampala",
		Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	got := repo.entries[0]
	if got.Action != ports.AuditPlaceCreated || got.Subject != "place_1" || !got.Timestamp.Equal(ts) {
		t.Fatalf("unexpected entry: %+v", got)
	}
}

func TestAuditService_Process_DefaultsTimestamp(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := NewAuditService(repo, zerolog.Nop())

	before := time.Now().UTC()
	if err := svc.Process(context.Background(), ports.AuditInput{
		Action:  ports.AuditUserDeleted,
		Subject: "user_1",
	}); err != nil {
		t.Fatalf("process: %v", err)
	}

	got := repo.entries[0].Timestamp
	if got.Before(before) || got.After(time.Now().UTC()) {
		t.Fatalf("expected timestamp defaulted to now, got %v", got)
	}
}

func TestAuditService_Trail(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := NewAuditService(repo, zerolog.Nop())

	for _, in := range []ports.AuditInput{
		{Action: ports.AuditPlaceCreated, Subject: "place_1", Actor: "user_1"},
		{Action: ports.AuditParentCascaded, Subject: "place_2", Actor: "user_1"},
		{Action: ports.AuditPlaceDeleted, Subject: "place_1", Actor: "user_2"},
	} {
		if err := svc.Process(context.Background(), in); err != nil {
			t.Fatalf("process: %v", err)
		}
	}

	trail, err := svc.Trail(context.Background(), "place_1")
	if err != nil {
		t.Fatalf("trail: %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("expected 2 entries for place_1, got %d", len(trail))
	}
	for _, e := range trail {
		if e.Subject != "place_1" {
			t.Fatalf("foreign subject in trail: %+v", e)
		}
	}
}

func TestAuditService_Process_InsertFailure(t *testing.T) {
	repo := &stubAuditRepo{insertErr: errors.New("collection gone")}
	svc := NewAuditService(repo, zerolog.Nop())

	err := svc.Process(context.Background(), ports.AuditInput{Action: ports.AuditPlaceDeleted, Subject: "p"})
	if err == nil {
		t.Fatalf("expected error surfaced to dispatcher")
	}
}
