package auth

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// SessionCookieName is the cookie carrying the patient session.
const SessionCookieName = "dermhub_session"

// SessionTTL is the lifetime of a patient session.
const SessionTTL = 7 * 24 * time.Hour

// SessionManager issues and verifies the cookie-backed patient session. The
// session value is a signed JWT whose subject is the account id, so the
// cookie is tamper-evident without server-side session storage.
type SessionManager struct {
	secret []byte
}

func NewSessionManager(secret string) *SessionManager {
	return &SessionManager{secret: []byte(secret)}
}

// Issue sets the session cookie for the given account on the response.
func (s *SessionManager) Issue(c echo.Context, accountID int64) error {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(accountID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(SessionTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (s *SessionManager) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Verify parses a raw session cookie value and returns the account id.
func (s *SessionManager) Verify(value string) (int64, error) {
	return verifySubjectToken(value, s.secret)
}

// SessionAuth gates the patient-facing routes. Requests without a valid
// session are redirected to /login; valid sessions get the principal
// injected into the request context.
func (s *SessionManager) SessionAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				return c.Redirect(http.StatusSeeOther, "/login")
			}

			accountID, err := s.Verify(cookie.Value)
			if err != nil {
				s.Clear(c)
				return c.Redirect(http.StatusSeeOther, "/login")
			}

			ctx := WithPrincipal(c.Request().Context(), Principal{AccountID: accountID})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
