package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// AdminChecker reports whether an account carries the administrator flag.
// Implemented by the account service.
type AdminChecker interface {
	IsAdmin(ctx context.Context, accountID int64) (bool, error)
}

// TokenAuth validates the Authorization bearer token on admin API requests
// and injects the authenticated principal into the request context.
//
// Failure taxonomy, all 401 but distinguishable to the caller:
//   - no Authorization header   → "missing authorization header"
//   - malformed/invalid token   → "invalid token"
//   - expired token             → "token expired"
func TokenAuth(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			accountID, err := issuer.Verify(parts[1])
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := WithPrincipal(c.Request().Context(), Principal{AccountID: accountID})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireAdmin rejects requests whose authenticated principal is not an
// administrator. Valid token for a non-admin account → 403.
func RequireAdmin(checker AdminChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			isAdmin, err := checker.IsAdmin(c.Request().Context(), p.AccountID)
			if err != nil || !isAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
