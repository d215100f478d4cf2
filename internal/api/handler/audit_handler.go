package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/censusware/population-system/internal/core/domain"
	"github.com/censusware/population-system/internal/core/ports"
)

// AuditHandler serves the per-place audit trail.
type AuditHandler struct {
	service ports.AuditService
}

func NewAuditHandler(service ports.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

type auditTrailEnvelope struct {
	Message string               `json:"message"`
	Data    []*domain.AuditEntry `json:"data"`
}

// Trail returns the recorded mutations for a place, newest first. Deleted
// places keep their trail, so an unknown id simply answers an empty list.
//
// @Summary      Place audit trail
// @Tags         places
// @Produce      json
// @Param        x-access-token  header    string  true  "Signed token"
// @Param        id              path      string  true  "Place id"
// @Success      200             {object}  auditTrailEnvelope
// @Failure      401             {object}  map[string]any
// @Router       /places/{id}/audit [get]
func (h *AuditHandler) Trail(c echo.Context) error {
	entries, err := h.service.Trail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []*domain.AuditEntry{}
	}

	return c.JSON(http.StatusOK, auditTrailEnvelope{
		Message: "Audit trail fetched successfully",
		Data:    entries,
	})
}
