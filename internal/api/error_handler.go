package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/censusware/population-system/internal/core/domain"
)

type errorBody struct {
	Message string `json:"message"`
}

// errorEnvelope is the canonical error shape for all API failures:
// {"error":{"message":"..."}}.
type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Rewrites router misses to the canonical "Resource not found" message.
//   - Passes store failures through verbatim as 500s (message text only, no
//     stack traces).
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorEnvelope{Error: errorBody{Message: msg}})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404/405 from the router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if errors.Is(err, echo.ErrNotFound) {
			return http.StatusNotFound, "Resource not found"
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes. Validation errors keep
	// their field detail; the rest answer with the sentinel's message.
	switch {
	case errors.Is(err, domain.ErrMissingParameters):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, domain.ErrUserExists.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrNoToken):
		return http.StatusUnauthorized, domain.ErrNoToken.Error()
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, domain.ErrInvalidToken.Error()
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, domain.ErrUserNotFound.Error()
	case errors.Is(err, domain.ErrParentPlaceNotFound):
		return http.StatusNotFound, domain.ErrParentPlaceNotFound.Error()
	case errors.Is(err, domain.ErrPlaceNotFound):
		return http.StatusNotFound, domain.ErrPlaceNotFound.Error()
	}

	// Store and cast failures: log, then surface the underlying message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, err.Error()
}
