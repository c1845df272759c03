package consultation

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dermhub/dermhub/internal/domain/catalog"
	"github.com/dermhub/dermhub/internal/platform/auth"
	"github.com/dermhub/dermhub/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the patient intake flow onto the session-gated group
// and the review reads onto the token-gated admin group.
func (h *Handler) RegisterRoutes(patient *echo.Group, admin *echo.Group) {
	patient.GET("/consult/:id", h.ShowForm)
	patient.POST("/consult/:id", h.Start)
	patient.GET("/consult/:id/followup", h.ShowFollowups)
	patient.POST("/consult/:id/followup", h.SubmitFollowups)
	patient.GET("/feedback", h.Feedback)

	admin.GET("/consultations", h.List)
	admin.GET("/consultations/:id", h.Detail)
}

// ShowForm returns the form and its primary questions for the first step.
func (h *Handler) ShowForm(c echo.Context) error {
	formID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form id")
	}

	form, questions, err := h.svc.FormPage(c.Request().Context(), formID)
	if err != nil {
		if errors.Is(err, catalog.ErrFormNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"form":      form,
		"questions": questions,
	})
}

// Start handles the primary-concern selection. An empty concern never
// creates a consultation row.
func (h *Handler) Start(c echo.Context) error {
	formID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form id")
	}

	concern := strings.TrimSpace(c.FormValue("concern"))
	if concern == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "please select a concern")
	}
	questionID, err := strconv.ParseInt(concern, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid concern selection")
	}

	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	consult, err := h.svc.Start(c.Request().Context(), p.AccountID, formID, questionID)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrFormNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, catalog.ErrQuestionNotFound), errors.Is(err, ErrQuestionNotInForm):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/consult/%d/followup", consult.ID))
}

// ShowFollowups returns the follow-up questions for the chosen concern.
func (h *Handler) ShowFollowups(c echo.Context) error {
	consultationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}

	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	consult, questions, err := h.svc.FollowupPage(c.Request().Context(), consultationID, p.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotOwner) {
			return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"consultation": consult,
		"questions":    questions,
	})
}

// SubmitFollowups handles the second step. Text answers arrive as
// f_answer_<question id> fields; per-question images as f_file_<question id>
// multipart parts.
func (h *Handler) SubmitFollowups(c echo.Context) error {
	consultationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consultation id")
	}

	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	inputs, closeFiles, err := parseAnswerInputs(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer closeFiles()

	if err := h.svc.SubmitFollowups(c.Request().Context(), consultationID, p.AccountID, inputs); err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotOwner):
			return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
		case errors.Is(err, ErrNoAnswers), errors.Is(err, ErrUnknownFollowup),
			errors.Is(err, ErrAlreadySubmitted):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.Redirect(http.StatusSeeOther, "/feedback")
}

const (
	answerFieldPrefix = "f_answer_"
	fileFieldPrefix   = "f_file_"
)

// parseAnswerInputs collects the answer fields from a form-encoded or
// multipart body. The returned closer releases any opened upload parts.
func parseAnswerInputs(c echo.Context) ([]AnswerInput, func(), error) {
	noop := func() {}

	params, err := c.FormParams()
	if err != nil {
		return nil, noop, errors.New("malformed form body")
	}

	byQuestion := make(map[int64]*AnswerInput)
	var order []int64
	for key, vals := range params {
		if !strings.HasPrefix(key, answerFieldPrefix) || len(vals) == 0 {
			continue
		}
		qid, err := strconv.ParseInt(strings.TrimPrefix(key, answerFieldPrefix), 10, 64)
		if err != nil {
			continue
		}
		text := strings.TrimSpace(vals[0])
		if text == "" {
			continue
		}
		byQuestion[qid] = &AnswerInput{QuestionID: qid, Text: text}
		order = append(order, qid)
	}

	var closers []func()
	closeAll := func() {
		for _, fn := range closers {
			fn()
		}
	}

	if form, err := c.MultipartForm(); err == nil && form != nil {
		for key, headers := range form.File {
			if !strings.HasPrefix(key, fileFieldPrefix) || len(headers) == 0 {
				continue
			}
			qid, err := strconv.ParseInt(strings.TrimPrefix(key, fileFieldPrefix), 10, 64)
			if err != nil {
				continue
			}

			src, err := headers[0].Open()
			if err != nil {
				closeAll()
				return nil, noop, errors.New("could not read uploaded file")
			}
			closers = append(closers, func() { src.Close() })

			upload := &FileUpload{Filename: headers[0].Filename, Content: src}
			if in, ok := byQuestion[qid]; ok {
				in.File = upload
			} else {
				byQuestion[qid] = &AnswerInput{QuestionID: qid, File: upload}
				order = append(order, qid)
			}
		}
	}

	inputs := make([]AnswerInput, 0, len(order))
	for _, qid := range order {
		inputs = append(inputs, *byQuestion[qid])
	}
	return inputs, closeAll, nil
}

// Feedback is the post-submission confirmation page.
func (h *Handler) Feedback(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Thank you! Your consultation has been submitted.",
	})
}

// List returns the paginated admin summaries.
func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListSummaries(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// Detail returns the full admin view of one consultation.
func (h *Handler) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	d, err := h.svc.GetDetail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}
