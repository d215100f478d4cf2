package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/censusware/population-system/internal/api/metrics"
	"github.com/censusware/population-system/internal/core/domain"
	"github.com/censusware/population-system/internal/core/ports"
)

// PlaceHandler handles HTTP requests for place operations.
type PlaceHandler struct {
	service ports.PlaceService
}

func NewPlaceHandler(service ports.PlaceService) *PlaceHandler {
	return &PlaceHandler{service: service}
}

// List returns all places, newest created first.
//
// @Summary      List places
// @Tags         places
// @Produce      json
// @Param        x-access-token  header    string  true  "Signed token"
// @Success      200             {object}  placeListEnvelope
// @Failure      401             {object}  map[string]any
// @Router       /places [get]
func (h *PlaceHandler) List(c echo.Context) error {
	places, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	if places == nil {
		places = []*domain.Place{}
	}

	return c.JSON(http.StatusOK, placeListEnvelope{
		Message: "Places fetched successfully",
		Data:    places,
	})
}

// Create stores a new place; a parentPlaceId triggers the parent cascade and
// the response then carries the parent's post-update state.
//
// @Summary      Create a place
// @Tags         places
// @Accept       json
// @Produce      json
// @Param        x-access-token  header    string              true  "Signed token"
// @Param        body            body      createPlaceRequest  true  "Place details"
// @Success      201             {object}  placeEnvelope
// @Failure      404             {object}  map[string]any
// @Failure      422             {object}  map[string]any
// @Router       /places [post]
func (h *PlaceHandler) Create(c echo.Context) error {
	var req createPlaceRequest
	if err := bindPlace(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrMissingParameters, err)
	}
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	result, err := h.service.Create(c.Request().Context(), ports.CreatePlaceInput{
		Name:          req.Name,
		Male:          int64(*req.Male),
		Female:        int64(*req.Female),
		ParentPlaceID: req.ParentPlaceID,
		Caller:        caller.ID,
	})
	if err != nil {
		return err
	}

	resp := placeEnvelope{
		Message: "Place created successfully",
		Data:    result.Place,
	}
	if result.ParentUpdate != nil {
		resp.ParentUpdateResult = result.ParentUpdate
		metrics.PlacesCreatedTotal.WithLabelValues("true").Inc()
		metrics.CascadeUpdatesTotal.WithLabelValues("create").Inc()
	} else {
		resp.ParentUpdateResult = struct{}{}
		metrics.PlacesCreatedTotal.WithLabelValues("false").Inc()
	}

	return c.JSON(http.StatusCreated, resp)
}

// Get returns a single place by id.
//
// @Summary      Get a place
// @Tags         places
// @Produce      json
// @Param        x-access-token  header    string  true  "Signed token"
// @Param        id              path      string  true  "Place id"
// @Success      200             {object}  placeEnvelope
// @Failure      404             {object}  map[string]any
// @Router       /places/{id} [get]
func (h *PlaceHandler) Get(c echo.Context) error {
	place, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, placeEnvelope{
		Message: "Place fetched successfully",
		Data:    place,
	})
}

// Update applies a partial edit. When the resulting record references a
// parent, the parent absorbs the child's counts and the response carries the
// parent's new state.
//
// @Summary      Update a place
// @Tags         places
// @Accept       json
// @Produce      json
// @Param        x-access-token  header    string              true  "Signed token"
// @Param        id              path      string              true  "Place id"
// @Param        body            body      updatePlaceRequest  true  "Fields to update"
// @Success      200             {object}  placeEnvelope
// @Failure      404             {object}  map[string]any
// @Router       /places/{id} [put]
func (h *PlaceHandler) Update(c echo.Context) error {
	var req updatePlaceRequest
	if err := bindPlace(c, &req); err != nil {
		return err
	}
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	result, err := h.service.Update(c.Request().Context(), c.Param("id"), ports.UpdatePlaceInput{
		Name:          req.Name,
		Male:          req.Male.int64Ptr(),
		Female:        req.Female.int64Ptr(),
		Total:         req.Total.int64Ptr(),
		ParentPlaceID: req.ParentPlaceID,
		Caller:        caller.ID,
	})
	if err != nil {
		return err
	}

	resp := placeEnvelope{
		Message: "Place updated successfully",
		Data:    result.Place,
	}
	if result.ParentUpdate != nil {
		resp.ParentUpdateResult = result.ParentUpdate
		metrics.CascadeUpdatesTotal.WithLabelValues("update").Inc()
	}

	return c.JSON(http.StatusOK, resp)
}

// Delete removes a place and reparents its direct children to the "Deleted"
// marker.
//
// @Summary      Delete a place
// @Tags         places
// @Produce      json
// @Param        x-access-token  header    string  true  "Signed token"
// @Param        id              path      string  true  "Place id"
// @Success      200             {object}  placeDeletedEnvelope
// @Failure      404             {object}  map[string]any
// @Router       /places/{id} [delete]
func (h *PlaceHandler) Delete(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	result, err := h.service.Delete(c.Request().Context(), c.Param("id"), caller.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, placeDeletedEnvelope{
		Message: "Place was deleted",
		UpdatedPlace: updateCountResponse{
			Matched:  result.Reassigned.Matched,
			Modified: result.Reassigned.Modified,
		},
	})
}

// bindPlace decodes the request body. A count field that fails numeric
// coercion is a schema cast failure and keeps its 500-class classification
// instead of echo's generic 400.
func bindPlace(c echo.Context, req any) error {
	err := c.Bind(req)
	if err == nil {
		return nil
	}

	var he *echo.HTTPError
	if errors.As(err, &he) && he.Internal != nil && errors.Is(he.Internal, domain.ErrCastFailure) {
		return he.Internal
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
}
