package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/censusware/population-system/internal/core/domain"
	"github.com/censusware/population-system/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns the AuditService backing the async audit trail.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Process persists one audit entry. Failures are reported to the caller (the
// dispatcher), which logs and drops them; auditing never fails a request.
func (s *auditService) Process(ctx context.Context, in ports.AuditInput) error {
	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	entry := &domain.AuditEntry{
		Action:    in.Action,
		Subject:   in.Subject,
		Actor:     in.Actor,
		Note:      in.Note,
		Timestamp: ts,
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("audit insert: %w", err)
	}

	s.log.Debug().
		Str("action", in.Action).
		Str("subject", in.Subject).
		Msg("audit entry recorded")
	return nil
}

// Trail returns the recorded entries for one subject, newest first. Subjects
// of deleted places keep their history, so no existence check is made.
func (s *auditService) Trail(ctx context.Context, subject string) ([]*domain.AuditEntry, error) {
	entries, err := s.repo.ListBySubject(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("audit trail: %w", err)
	}
	return entries, nil
}
