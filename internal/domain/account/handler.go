package account

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dermhub/dermhub/internal/platform/auth"
)

type Handler struct {
	svc      *Service
	sessions *auth.SessionManager
	tokens   *auth.TokenIssuer
}

func NewHandler(svc *Service, sessions *auth.SessionManager, tokens *auth.TokenIssuer) *Handler {
	return &Handler{svc: svc, sessions: sessions, tokens: tokens}
}

// RegisterRoutes wires the public auth endpoints onto the root router, the
// session-gated pages onto the patient group and the admin provisioning
// endpoint onto the token-gated admin group.
func (h *Handler) RegisterRoutes(e *echo.Echo, patient *echo.Group, admin *echo.Group) {
	e.POST("/signup", h.Signup)
	e.POST("/login", h.Login)
	e.POST("/api/admin/login", h.AdminLogin)

	patient.POST("/logout", h.Logout)
	patient.GET("/dashboard", h.Dashboard)

	admin.POST("/admin/signup", h.AdminSignup)
}

// Signup registers a patient account and starts a session.
func (h *Handler) Signup(c echo.Context) error {
	var in SignupInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.Signup(c.Request().Context(), in)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return echo.NewHTTPError(http.StatusBadRequest, "Username or email taken")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.sessions.Issue(c, a.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to start session")
	}
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

// Login authenticates a patient and starts a session.
func (h *Handler) Login(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	a, err := h.svc.Authenticate(c.Request().Context(), username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.sessions.Issue(c, a.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to start session")
	}
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

// Logout clears the session cookie.
func (h *Handler) Logout(c echo.Context) error {
	h.sessions.Clear(c)
	return c.Redirect(http.StatusSeeOther, "/login")
}

// Dashboard returns the landing payload for a logged-in patient.
func (h *Handler) Dashboard(c echo.Context) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	a, err := h.svc.GetByID(c.Request().Context(), p.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.sessions.Clear(c)
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"account": a,
		"message": "Start an eConsultation",
	})
}

type adminCredentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// AdminLogin exchanges admin credentials for a bearer token.
func (h *Handler) AdminLogin(c echo.Context) error {
	var creds adminCredentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if creds.Username == "" || creds.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	a, err := h.svc.Authenticate(c.Request().Context(), creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !a.IsAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}

	token, err := h.tokens.Issue(a.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}
	return c.JSON(http.StatusOK, map[string]string{"access_token": token})
}

// AdminSignup provisions a new administrator. Callers must already hold an
// admin token.
func (h *Handler) AdminSignup(c echo.Context) error {
	var in SignupInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if in.Username == "" || in.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	if _, err := h.svc.CreateAdmin(c.Request().Context(), in); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return echo.NewHTTPError(http.StatusBadRequest, "Username or email taken")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]string{"message": "Admin created successfully"})
}
