package domain

import (
	"errors"
	"time"
)

// DeletedSentinel replaces a reference whose target record no longer exists.
// Place history is preserved instead of removed when a user or a parent place
// is deleted.
const DeletedSentinel = "Deleted"

var ErrPlaceNotFound = errors.New("Place not found")
var ErrParentPlaceNotFound = errors.New("Parent place not found")
var ErrMissingParameters = errors.New("Parameter(s) missing")
var ErrNoToken = errors.New("No access token")
var ErrInvalidToken = errors.New("Invalid access token")

// ErrCastFailure marks values that could not be coerced to the schema type,
// mirroring document-store cast errors. Surfaced as a 500 with the underlying
// message.
var ErrCastFailure = errors.New("cast failure")

// Place is a named region with population counts and an optional parent
// region. CreatedBy/UpdatedBy carry the id of the caller that wrote the
// record, or DeletedSentinel once that user is gone.
type Place struct {
	ID            string    `json:"id"`
	ParentPlaceID string    `json:"parentPlaceId,omitempty"`
	Name          string    `json:"name"`
	Male          int64     `json:"male"`
	Female        int64     `json:"female"`
	Total         int64     `json:"total"`
	CreatedBy     string    `json:"createdBy,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedBy     string    `json:"updatedBy,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasParent reports whether the place carries a live parent reference.
// The "Deleted" sentinel counts as no parent.
func (p *Place) HasParent() bool {
	return p.ParentPlaceID != "" && p.ParentPlaceID != DeletedSentinel
}

// RecomputeTotal enforces the total == male + female invariant. A total that
// already matches is left untouched.
func (p *Place) RecomputeTotal() {
	if p.Total != p.Male+p.Female {
		p.Total = p.Male + p.Female
	}
}

// UpdateCount reports how many documents a bulk rewrite touched.
type UpdateCount struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}

// AuditEntry is one record in the mutation audit trail.
type AuditEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	Actor     string    `json:"actor"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
