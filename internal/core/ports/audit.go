package ports

import (
	"context"
	"time"

	"github.com/censusware/population-system/internal/core/domain"
)

// Audit actions recorded by the services.
const (
	AuditPlaceCreated    = "place_created"
	AuditParentCascaded  = "parent_cascaded"
	AuditPlaceDeleted    = "place_deleted"
	AuditChildrenRewired = "children_reparented"
	AuditUserDeleted     = "user_deleted"
	AuditAuthorRewritten = "author_rewritten"
)

// AuditInput is the DTO handed from services to the audit pipeline.
type AuditInput struct {
	Action    string
	Subject   string
	Actor     string
	Note      string
	Timestamp time.Time
}

// AuditRecorder accepts entries without blocking the request path. The
// sharded dispatcher implements it.
type AuditRecorder interface {
	Record(entry AuditInput)
}

// AuditService persists audit entries and serves the per-subject trail.
type AuditService interface {
	Process(ctx context.Context, entry AuditInput) error
	// Trail returns the recorded entries for one subject, newest first.
	Trail(ctx context.Context, subject string) ([]*domain.AuditEntry, error)
}

// AuditRepository handles audit trail persistence.
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
	// ListBySubject returns entries for one subject, newest first.
	ListBySubject(ctx context.Context, subject string) ([]*domain.AuditEntry, error)
}
