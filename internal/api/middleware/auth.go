package middleware

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/censusware/population-system/internal/api/metrics"
	"github.com/censusware/population-system/internal/core/domain"
)

// TokenHeader is the fixed request header carrying the signed credential.
const TokenHeader = "x-access-token"

// CallerKey is the echo context key under which the resolved caller identity
// is stored for downstream handlers.
const CallerKey = "caller"

// IdentityResolver maps a verified token subject to a live user.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, userID string) (*domain.User, error)
}

// Auth validates the token in TokenHeader, resolves the embedded identity,
// and attaches it to the request context. Every credential-verification
// failure answers 401; only a token whose user no longer exists answers 404.
func Auth(jwtSecret string, resolver IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(TokenHeader)
			if token == "" {
				metrics.AuthFailuresTotal.WithLabelValues("no_token").Inc()
				return domain.ErrNoToken
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
				if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				metrics.AuthFailuresTotal.WithLabelValues("invalid_token").Inc()
				return domain.ErrInvalidToken
			}

			userID, _ := claims["id"].(string)
			user, err := resolver.ResolveIdentity(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					metrics.AuthFailuresTotal.WithLabelValues("user_not_found").Inc()
				}
				return err
			}

			c.Set(CallerKey, user)
			return next(c)
		}
	}
}
