package consultation

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/dermhub/dermhub/internal/domain/account"
	"github.com/dermhub/dermhub/internal/domain/catalog"
	"github.com/dermhub/dermhub/internal/platform/notification"
	"github.com/dermhub/dermhub/internal/platform/uploads"
)

var (
	ErrNotOwner          = errors.New("consultation belongs to another account")
	ErrQuestionNotInForm = errors.New("question does not belong to this form")
	ErrNoAnswers         = errors.New("no follow-up answers supplied")
	ErrAlreadySubmitted  = errors.New("consultation already submitted")
	ErrUnknownFollowup   = errors.New("answer references an unknown follow-up question")
)

// CatalogReader is the slice of the catalogue used by the intake workflow.
// Satisfied by catalog.Repository.
type CatalogReader interface {
	GetFormByID(ctx context.Context, id int64) (*catalog.ConsultForm, error)
	GetQuestion(ctx context.Context, id int64) (*catalog.PrimaryQuestion, error)
	ListQuestionsByForm(ctx context.Context, formID int64) ([]*catalog.PrimaryQuestion, error)
	ListFollowupsByQuestion(ctx context.Context, questionID int64) ([]*catalog.FollowupQuestion, error)
	GetFollowup(ctx context.Context, id int64) (*catalog.FollowupQuestion, error)
}

// AccountReader resolves the owning account for projections and email.
// Satisfied by account.Repository.
type AccountReader interface {
	GetByID(ctx context.Context, id int64) (*account.Account, error)
}

// Service drives the two-step intake workflow and the admin review reads.
type Service struct {
	repo      Repository
	catalog   CatalogReader
	accounts  AccountReader
	store     uploads.Store
	mailer    notification.EmailSender
	templates *notification.TemplateEngine
	logger    zerolog.Logger
}

func NewService(repo Repository, cat CatalogReader, accounts AccountReader, store uploads.Store,
	mailer notification.EmailSender, templates *notification.TemplateEngine, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		catalog:   cat,
		accounts:  accounts,
		store:     store,
		mailer:    mailer,
		templates: templates,
		logger:    logger,
	}
}

// FormPage returns the form and its primary questions for the first step.
func (s *Service) FormPage(ctx context.Context, formID int64) (*catalog.ConsultForm, []*catalog.PrimaryQuestion, error) {
	form, err := s.catalog.GetFormByID(ctx, formID)
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.catalog.ListQuestionsByForm(ctx, formID)
	if err != nil {
		return nil, nil, err
	}
	return form, questions, nil
}

// Start records the chosen primary concern and creates a draft consultation.
// The question must belong to the form; otherwise no row is created.
func (s *Service) Start(ctx context.Context, accountID, formID, questionID int64) (*Consultation, error) {
	if _, err := s.catalog.GetFormByID(ctx, formID); err != nil {
		return nil, err
	}
	q, err := s.catalog.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q.FormID != formID {
		return nil, ErrQuestionNotInForm
	}

	c := &Consultation{
		AccountID:         &accountID,
		FormID:            formID,
		PrimaryQuestionID: questionID,
		Status:            StatusDraft,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// FollowupPage loads the consultation and the follow-up questions for its
// chosen primary question, verifying ownership.
func (s *Service) FollowupPage(ctx context.Context, consultationID, accountID int64) (*Consultation, []*catalog.FollowupQuestion, error) {
	c, err := s.ownedConsultation(ctx, consultationID, accountID)
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.catalog.ListFollowupsByQuestion(ctx, c.PrimaryQuestionID)
	if err != nil {
		return nil, nil, err
	}
	return c, questions, nil
}

// FileUpload is an image attached to a single follow-up answer.
type FileUpload struct {
	Filename string
	Content  io.Reader
}

// AnswerInput is one follow-up answer as supplied by the caller. Each answer
// carries its own optional upload.
type AnswerInput struct {
	QuestionID int64
	Text       string
	File       *FileUpload
}

// SubmitFollowups persists the supplied answers in one transaction, marks the
// consultation submitted and sends the confirmation email. An empty
// submission is an error and the consultation stays in draft. Email failures
// are logged, not surfaced.
func (s *Service) SubmitFollowups(ctx context.Context, consultationID, accountID int64, inputs []AnswerInput) error {
	c, err := s.ownedConsultation(ctx, consultationID, accountID)
	if err != nil {
		return err
	}
	if c.Status == StatusSubmitted {
		return ErrAlreadySubmitted
	}
	if len(inputs) == 0 {
		return ErrNoAnswers
	}

	followups, err := s.catalog.ListFollowupsByQuestion(ctx, c.PrimaryQuestionID)
	if err != nil {
		return err
	}
	known := make(map[int64]bool, len(followups))
	for _, fq := range followups {
		known[fq.ID] = true
	}

	answers := make([]*FollowupAnswer, 0, len(inputs))
	for _, in := range inputs {
		if !known[in.QuestionID] {
			return ErrUnknownFollowup
		}

		a := &FollowupAnswer{QuestionID: in.QuestionID}
		if in.Text != "" {
			text := in.Text
			a.TextAnswer = &text
		}
		if in.File != nil {
			path, err := s.store.Save(ctx, in.File.Filename, in.File.Content)
			if err != nil {
				return err
			}
			a.FilePath = &path
		}
		answers = append(answers, a)
	}

	if err := s.repo.SubmitAnswers(ctx, c.ID, answers); err != nil {
		return err
	}

	s.sendConfirmation(ctx, c)
	return nil
}

func (s *Service) sendConfirmation(ctx context.Context, c *Consultation) {
	if s.mailer == nil || s.templates == nil || c.AccountID == nil {
		return
	}

	owner, err := s.accounts.GetByID(ctx, *c.AccountID)
	if err != nil || owner.Email == nil {
		return
	}

	concern := ""
	if q, err := s.catalog.GetQuestion(ctx, c.PrimaryQuestionID); err == nil {
		concern = q.Prompt
	}
	firstName := ""
	if owner.FirstName != nil {
		firstName = *owner.FirstName
	}

	subject, body, err := s.templates.Render("consultation-received", map[string]string{
		"first_name": firstName,
		"concern":    concern,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("render confirmation email")
		return
	}
	if err := s.mailer.SendEmail(ctx, *owner.Email, subject, body); err != nil {
		s.logger.Error().Err(err).Int64("consultation_id", c.ID).Msg("send confirmation email")
	}
}

func (s *Service) ownedConsultation(ctx context.Context, consultationID, accountID int64) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if c.AccountID == nil || *c.AccountID != accountID {
		return nil, ErrNotOwner
	}
	return c, nil
}

// ListSummaries returns the admin list view. Related rows that no longer
// exist degrade to null fields.
func (s *Service) ListSummaries(ctx context.Context, limit, offset int) ([]*Summary, int, error) {
	items, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]*Summary, 0, len(items))
	for _, c := range items {
		sum := &Summary{ID: c.ID, Status: c.Status, CreatedAt: c.CreatedAt}
		if c.AccountID != nil {
			if owner, err := s.accounts.GetByID(ctx, *c.AccountID); err == nil {
				sum.Username = &owner.Username
			}
		}
		if q, err := s.catalog.GetQuestion(ctx, c.PrimaryQuestionID); err == nil {
			sum.Concern = &q.Prompt
		}
		summaries = append(summaries, sum)
	}
	return summaries, total, nil
}

// GetDetail assembles the full admin view of one consultation.
func (s *Service) GetDetail(ctx context.Context, id int64) (*Detail, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &Detail{ID: c.ID, Status: c.Status, CreatedAt: c.CreatedAt}

	if c.AccountID != nil {
		if owner, err := s.accounts.GetByID(ctx, *c.AccountID); err == nil {
			d.Account = &AccountInfo{
				ID:        owner.ID,
				Username:  owner.Username,
				Email:     owner.Email,
				FirstName: owner.FirstName,
				LastName:  owner.LastName,
			}
		}
	}

	if q, err := s.catalog.GetQuestion(ctx, c.PrimaryQuestionID); err == nil {
		d.PrimaryPrompt = &q.Prompt
	}

	if legacy, err := s.repo.FirstLegacyAnswer(ctx, c.AccountID, c.PrimaryQuestionID); err == nil && legacy != nil {
		d.LegacyAnswer = legacy.AnswerText
	}

	answers, err := s.repo.ListFollowupAnswers(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	d.Answers = make([]AnswerDetail, 0, len(answers))
	for _, a := range answers {
		ad := AnswerDetail{
			QuestionID: a.QuestionID,
			TextAnswer: a.TextAnswer,
			FilePath:   a.FilePath,
		}
		if fq, err := s.catalog.GetFollowup(ctx, a.QuestionID); err == nil {
			ad.Prompt = &fq.Prompt
		}
		d.Answers = append(d.Answers, ad)
	}
	return d, nil
}
