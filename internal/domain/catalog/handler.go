package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dermhub/dermhub/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the catalogue CRUD onto the token-gated admin group.
func (h *Handler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/questions", h.ListQuestions)
	admin.POST("/questions", h.CreateQuestion)
	admin.GET("/questions/:id", h.GetQuestion)
	admin.PATCH("/questions/:id", h.PatchQuestion)
	admin.DELETE("/questions/:id", h.DeleteQuestion)

	admin.GET("/questions/:id/followups", h.ListFollowups)
	admin.POST("/questions/:id/followups", h.CreateFollowup)
	admin.GET("/followups/:id", h.GetFollowup)
	admin.PATCH("/followups/:id", h.PatchFollowup)
	admin.DELETE("/followups/:id", h.DeleteFollowup)
}

func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func catalogError(err error) error {
	switch {
	case errors.Is(err, ErrQuestionNotFound), errors.Is(err, ErrFollowupNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrFormNotFound), errors.Is(err, ErrPromptRequired), errors.Is(err, ErrFormRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) ListQuestions(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListQuestions(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateQuestion(c echo.Context) error {
	var in QuestionInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	q, err := h.svc.CreateQuestion(c.Request().Context(), in)
	if err != nil {
		return catalogError(err)
	}
	return c.JSON(http.StatusCreated, q)
}

func (h *Handler) GetQuestion(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	q, err := h.svc.GetQuestion(c.Request().Context(), id)
	if err != nil {
		return catalogError(err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *Handler) PatchQuestion(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in QuestionInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	q, err := h.svc.PatchQuestion(c.Request().Context(), id, in)
	if err != nil {
		return catalogError(err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *Handler) DeleteQuestion(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteQuestion(c.Request().Context(), id); err != nil {
		return catalogError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListFollowups(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.ListFollowups(c.Request().Context(), id)
	if err != nil {
		return catalogError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateFollowup(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in FollowupInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	fq, err := h.svc.CreateFollowup(c.Request().Context(), id, in)
	if err != nil {
		return catalogError(err)
	}
	return c.JSON(http.StatusCreated, fq)
}

func (h *Handler) GetFollowup(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	fq, err := h.svc.GetFollowup(c.Request().Context(), id)
	if err != nil {
		return catalogError(err)
	}
	return c.JSON(http.StatusOK, fq)
}

func (h *Handler) PatchFollowup(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in FollowupInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	fq, err := h.svc.PatchFollowup(c.Request().Context(), id, in)
	if err != nil {
		return catalogError(err)
	}
	return c.JSON(http.StatusOK, fq)
}

func (h *Handler) DeleteFollowup(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteFollowup(c.Request().Context(), id); err != nil {
		return catalogError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
