package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const allowedHeaders = "Origin, X-Requested-With, Content-Type, Accept, x-access-token"

// CORS implements the API's historical cross-origin contract: every origin
// is allowed and preflight requests short-circuit with 200 and an empty JSON
// object. Echo's stock CORS middleware answers preflights with 204, which
// existing clients of this API do not expect.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			h.Set(echo.HeaderAccessControlAllowHeaders, allowedHeaders)

			if c.Request().Method == http.MethodOptions {
				h.Set(echo.HeaderAccessControlAllowMethods, "GET, POST, PUT, DELETE")
				return c.JSON(http.StatusOK, map[string]string{})
			}
			return next(c)
		}
	}
}
