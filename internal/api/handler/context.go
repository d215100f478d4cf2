package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/censusware/population-system/internal/api/middleware"
	"github.com/censusware/population-system/internal/core/domain"
)

// ctxCaller extracts the caller identity attached by the Auth middleware.
// Its presence proves the middleware ran; a protected route reached without
// it is a wiring error, rejected with 401.
func ctxCaller(c echo.Context) (*domain.User, error) {
	caller, _ := c.Get(middleware.CallerKey).(*domain.User)
	if caller == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication context")
	}
	return caller, nil
}
