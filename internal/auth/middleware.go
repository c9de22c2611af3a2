package auth

import (
	"context"
	"net/http"
	"os"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "auth").Logger()

const contextKey = "user"

type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// JWT verifies the bearer token and rejects revoked ones. Handlers read the
// result with ClaimsFrom.
func JWT(secret string, revoked RevocationChecker) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		ContextKey: contextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		checkRevoked := func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}
			if revoked != nil && claims.ID != "" {
				isRevoked, err := revoked.IsRevoked(c.Request().Context(), claims.ID)
				if err != nil {
					logger.Error().Err(err).Msg("Error checking token revocation")
					return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Session check unavailable"})
				}
				if isRevoked {
					return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Session has ended"})
				}
			}
			return next(c)
		}
		return verify(checkRevoked)
	}
}

// RequireAdmin must run after JWT.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := ClaimsFrom(c)
		if !ok || !claims.IsAdmin() {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Admin access required"})
		}
		return next(c)
	}
}

// ClaimsFrom returns the verified claims stored by JWT.
func ClaimsFrom(c echo.Context) (*Claims, bool) {
	token, ok := c.Get(contextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, false
	}
	claims, ok := token.Claims.(*Claims)
	return claims, ok
}
