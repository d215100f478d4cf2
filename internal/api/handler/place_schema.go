package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/censusware/population-system/internal/core/domain"
)

// count accepts JSON numbers and numeric strings, mirroring the document
// store's cast semantics. An uncoercible value fails with ErrCastFailure,
// which surfaces as a 500 carrying the underlying message.
type count int64

func (n *count) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(b), `"`))
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*n = count(v)
		return nil
	}
	// fractional input truncates, the way parseInt-style coercion always has
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%w: cast to number failed for value %q", domain.ErrCastFailure, s)
	}
	*n = count(int64(f))
	return nil
}

func (n *count) int64Ptr() *int64 {
	if n == nil {
		return nil
	}
	v := int64(*n)
	return &v
}

type createPlaceRequest struct {
	Name          string `json:"name"   validate:"required"`
	Male          *count `json:"male"   validate:"required"`
	Female        *count `json:"female" validate:"required"`
	ParentPlaceID string `json:"parentPlaceId"`
}

// updatePlaceRequest is a partial edit; nil fields are left untouched.
type updatePlaceRequest struct {
	Name          *string `json:"name"`
	Male          *count  `json:"male"`
	Female        *count  `json:"female"`
	Total         *count  `json:"total"`
	ParentPlaceID *string `json:"parentPlaceId"`
}

// placeEnvelope wraps single-place responses. ParentUpdateResult carries the
// parent's post-cascade state; creates always emit the key (an empty object
// when no cascade ran), updates emit it only after a cascade.
type placeEnvelope struct {
	Message            string        `json:"message"`
	Data               *domain.Place `json:"data"`
	ParentUpdateResult any           `json:"parentUpdateResult,omitempty"`
}

type placeListEnvelope struct {
	Message string          `json:"message"`
	Data    []*domain.Place `json:"data"`
}

type placeDeletedEnvelope struct {
	Message      string              `json:"message"`
	UpdatedPlace updateCountResponse `json:"updatedPlace"`
}
