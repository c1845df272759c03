package consultation

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dermhub/dermhub/internal/domain/account"
	"github.com/dermhub/dermhub/internal/domain/catalog"
	"github.com/dermhub/dermhub/internal/platform/notification"
)

type mockRepo struct {
	consultations map[int64]*Consultation
	answers       map[int64][]*FollowupAnswer
	legacy        []*ConsultAnswer
	nextID        int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		consultations: make(map[int64]*Consultation),
		answers:       make(map[int64][]*FollowupAnswer),
	}
}

func (m *mockRepo) Create(_ context.Context, c *Consultation) error {
	m.nextID++
	c.ID = m.nextID
	if c.Status == "" {
		c.Status = StatusDraft
	}
	c.CreatedAt = time.Now()
	cp := *c
	m.consultations[c.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Consultation, error) {
	c, ok := m.consultations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Consultation, int, error) {
	var all []*Consultation
	for i := int64(1); i <= m.nextID; i++ {
		if c, ok := m.consultations[i]; ok {
			cp := *c
			all = append(all, &cp)
		}
	}
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *mockRepo) SubmitAnswers(_ context.Context, consultationID int64, answers []*FollowupAnswer) error {
	c, ok := m.consultations[consultationID]
	if !ok {
		return ErrNotFound
	}
	for _, a := range answers {
		m.nextID++
		a.ID = m.nextID
		a.ConsultationID = consultationID
		cp := *a
		m.answers[consultationID] = append(m.answers[consultationID], &cp)
	}
	c.Status = StatusSubmitted
	return nil
}

func (m *mockRepo) ListFollowupAnswers(_ context.Context, consultationID int64) ([]*FollowupAnswer, error) {
	return m.answers[consultationID], nil
}

func (m *mockRepo) FirstLegacyAnswer(_ context.Context, accountID *int64, questionID int64) (*ConsultAnswer, error) {
	for _, a := range m.legacy {
		if a.QuestionID != questionID {
			continue
		}
		if accountID != nil && (a.AccountID == nil || *a.AccountID != *accountID) {
			continue
		}
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

type mockCatalog struct {
	forms     map[int64]*catalog.ConsultForm
	questions map[int64]*catalog.PrimaryQuestion
	followups map[int64]*catalog.FollowupQuestion
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		forms:     make(map[int64]*catalog.ConsultForm),
		questions: make(map[int64]*catalog.PrimaryQuestion),
		followups: make(map[int64]*catalog.FollowupQuestion),
	}
}

func (m *mockCatalog) GetFormByID(_ context.Context, id int64) (*catalog.ConsultForm, error) {
	f, ok := m.forms[id]
	if !ok {
		return nil, catalog.ErrFormNotFound
	}
	return f, nil
}

func (m *mockCatalog) GetQuestion(_ context.Context, id int64) (*catalog.PrimaryQuestion, error) {
	q, ok := m.questions[id]
	if !ok {
		return nil, catalog.ErrQuestionNotFound
	}
	return q, nil
}

func (m *mockCatalog) ListQuestionsByForm(_ context.Context, formID int64) ([]*catalog.PrimaryQuestion, error) {
	var items []*catalog.PrimaryQuestion
	for i := int64(1); i <= 100; i++ {
		if q, ok := m.questions[i]; ok && q.FormID == formID {
			items = append(items, q)
		}
	}
	return items, nil
}

func (m *mockCatalog) ListFollowupsByQuestion(_ context.Context, questionID int64) ([]*catalog.FollowupQuestion, error) {
	var items []*catalog.FollowupQuestion
	for i := int64(1); i <= 100; i++ {
		if fq, ok := m.followups[i]; ok && fq.ParentQuestionID == questionID {
			items = append(items, fq)
		}
	}
	return items, nil
}

func (m *mockCatalog) GetFollowup(_ context.Context, id int64) (*catalog.FollowupQuestion, error) {
	fq, ok := m.followups[id]
	if !ok {
		return nil, catalog.ErrFollowupNotFound
	}
	return fq, nil
}

type mockAccounts struct {
	accounts map[int64]*account.Account
}

func (m *mockAccounts) GetByID(_ context.Context, id int64) (*account.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return a, nil
}

type memStore struct {
	saved map[string]string
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string]string)}
}

func (m *memStore) Save(_ context.Context, filename string, content io.Reader) (string, error) {
	b, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	m.saved[filename] = string(b)
	return "uploads/" + filename, nil
}

type recordingMailer struct {
	sent []string
	err  error
}

func (m *recordingMailer) SendEmail(_ context.Context, to, _, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

type fixture struct {
	repo     *mockRepo
	catalog  *mockCatalog
	accounts *mockAccounts
	store    *memStore
	mailer   *recordingMailer
	svc      *Service
}

func strPtr(s string) *string { return &s }
func intPtr(i int64) *int64   { return &i }

// newFixture seeds form 1 with primary question 1 (two follow-ups, ids 10 and
// 11) and a patient account with id 1.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	cat := newMockCatalog()
	cat.forms[1] = &catalog.ConsultForm{ID: 1, Name: "Dermatology eConsultation"}
	cat.questions[1] = &catalog.PrimaryQuestion{ID: 1, Prompt: "Acne or Rosacea?", FormID: 1}
	cat.questions[2] = &catalog.PrimaryQuestion{ID: 2, Prompt: "Hair Loss", FormID: 2}
	cat.followups[10] = &catalog.FollowupQuestion{ID: 10, Prompt: "How long have you had symptoms?", ParentQuestionID: 1}
	cat.followups[11] = &catalog.FollowupQuestion{ID: 11, Prompt: "What treatments have you tried?", ParentQuestionID: 1}

	email := "jdoe@example.com"
	accounts := &mockAccounts{accounts: map[int64]*account.Account{
		1: {ID: 1, Username: "jdoe2024", Email: &email, FirstName: strPtr("Jane"), LastName: strPtr("Doe")},
	}}

	f := &fixture{
		repo:     newMockRepo(),
		catalog:  cat,
		accounts: accounts,
		store:    newMemStore(),
		mailer:   &recordingMailer{},
	}
	f.svc = NewService(f.repo, f.catalog, f.accounts, f.store, f.mailer,
		notification.NewTemplateEngine(), zerolog.Nop())
	return f
}

func (f *fixture) startConsultation(t *testing.T) *Consultation {
	t.Helper()
	c, err := f.svc.Start(context.Background(), 1, 1, 1)
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	return c
}

func TestStart(t *testing.T) {
	f := newFixture(t)

	c := f.startConsultation(t)
	if c.PrimaryQuestionID != 1 {
		t.Errorf("primary question id = %d, want 1", c.PrimaryQuestionID)
	}
	if c.Status != StatusDraft {
		t.Errorf("status = %q, want draft", c.Status)
	}
	if c.AccountID == nil || *c.AccountID != 1 {
		t.Errorf("consultation not bound to account: %+v", c.AccountID)
	}
}

func TestStart_QuestionNotInForm(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Start(context.Background(), 1, 1, 2); !errors.Is(err, ErrQuestionNotInForm) {
		t.Fatalf("expected ErrQuestionNotInForm, got %v", err)
	}
	if len(f.repo.consultations) != 0 {
		t.Error("no consultation row may be created on validation failure")
	}
}

func TestStart_UnknownFormOrQuestion(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.Start(context.Background(), 1, 99, 1); !errors.Is(err, catalog.ErrFormNotFound) {
		t.Errorf("unknown form: expected ErrFormNotFound, got %v", err)
	}
	if _, err := f.svc.Start(context.Background(), 1, 1, 99); !errors.Is(err, catalog.ErrQuestionNotFound) {
		t.Errorf("unknown question: expected ErrQuestionNotFound, got %v", err)
	}
	if len(f.repo.consultations) != 0 {
		t.Error("no consultation row may be created on validation failure")
	}
}

func TestSubmitFollowups(t *testing.T) {
	f := newFixture(t)
	c := f.startConsultation(t)

	err := f.svc.SubmitFollowups(context.Background(), c.ID, 1, []AnswerInput{
		{QuestionID: 10, Text: "More than 6 months"},
	})
	if err != nil {
		t.Fatalf("SubmitFollowups() error: %v", err)
	}

	answers := f.repo.answers[c.ID]
	if len(answers) != 1 {
		t.Fatalf("expected exactly one answer row, got %d", len(answers))
	}
	if answers[0].TextAnswer == nil || *answers[0].TextAnswer != "More than 6 months" {
		t.Errorf("unexpected answer text %+v", answers[0].TextAnswer)
	}
	if f.repo.consultations[c.ID].Status != StatusSubmitted {
		t.Errorf("status = %q, want submitted", f.repo.consultations[c.ID].Status)
	}
	if len(f.mailer.sent) != 1 || f.mailer.sent[0] != "jdoe@example.com" {
		t.Errorf("expected confirmation email to jdoe@example.com, got %v", f.mailer.sent)
	}
}

func TestSubmitFollowups_Empty(t *testing.T) {
	f := newFixture(t)
	c := f.startConsultation(t)

	if err := f.svc.SubmitFollowups(context.Background(), c.ID, 1, nil); !errors.Is(err, ErrNoAnswers) {
		t.Fatalf("expected ErrNoAnswers, got %v", err)
	}
	if f.repo.consultations[c.ID].Status != StatusDraft {
		t.Error("empty submission must not advance the consultation")
	}
	if len(f.mailer.sent) != 0 {
		t.Error("no email may be sent on failed submission")
	}
}

func TestSubmitFollowups_UnknownFollowup(t *testing.T) {
	f := newFixture(t)
	c := f.startConsultation(t)

	err := f.svc.SubmitFollowups(context.Background(), c.ID, 1, []AnswerInput{
		{QuestionID: 999, Text: "x"},
	})
	if !errors.Is(err, ErrUnknownFollowup) {
		t.Fatalf("expected ErrUnknownFollowup, got %v", err)
	}
	if len(f.repo.answers[c.ID]) != 0 {
		t.Error("no answer rows may be created for unknown follow-ups")
	}
}

func TestSubmitFollowups_NotOwner(t *testing.T) {
	f := newFixture(t)
	c := f.startConsultation(t)

	err := f.svc.SubmitFollowups(context.Background(), c.ID, 2, []AnswerInput{
		{QuestionID: 10, Text: "x"},
	})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
}

func TestSubmitFollowups_AlreadySubmitted(t *testing.T) {
	f := newFixture(t)
	c := f.startConsultation(t)

	answers := []AnswerInput{{QuestionID: 10, Text: "x"}}
	if err := f.svc.SubmitFollowups(context.Background(), c.ID, 1, answers); err != nil {
		t.Fatalf("first submit error: %v", err)
	}
	if err := f.svc.SubmitFollowups(context.Background(), c.ID, 1, answers); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
}

func TestSubmitFollowups_PerQuestionFiles(t *testing.T) {
	f := newFixture(t)
	c := f.startConsultation(t)

	err := f.svc.SubmitFollowups(context.Background(), c.ID, 1, []AnswerInput{
		{QuestionID: 10, Text: "see photo", File: &FileUpload{Filename: "cheek.png", Content: strings.NewReader("img-a")}},
		{QuestionID: 11, File: &FileUpload{Filename: "chin.png", Content: strings.NewReader("img-b")}},
	})
	if err != nil {
		t.Fatalf("SubmitFollowups() error: %v", err)
	}

	answers := f.repo.answers[c.ID]
	if len(answers) != 2 {
		t.Fatalf("expected two answer rows, got %d", len(answers))
	}

	paths := map[int64]string{}
	for _, a := range answers {
		if a.FilePath != nil {
			paths[a.QuestionID] = *a.FilePath
		}
	}
	if paths[10] != "uploads/cheek.png" || paths[11] != "uploads/chin.png" {
		t.Errorf("each answer must carry its own upload path, got %v", paths)
	}
	if f.store.saved["cheek.png"] != "img-a" || f.store.saved["chin.png"] != "img-b" {
		t.Errorf("uploads not persisted: %v", f.store.saved)
	}
}

func TestSubmitFollowups_MailFailureIsSoft(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("mailgun down")
	c := f.startConsultation(t)

	err := f.svc.SubmitFollowups(context.Background(), c.ID, 1, []AnswerInput{
		{QuestionID: 10, Text: "x"},
	})
	if err != nil {
		t.Fatalf("mail failure must not surface, got %v", err)
	}
	if f.repo.consultations[c.ID].Status != StatusSubmitted {
		t.Error("submission must persist despite mail failure")
	}
}

func TestListSummaries_DegradesMissingRows(t *testing.T) {
	f := newFixture(t)
	c := f.startConsultation(t)

	// An orphaned consultation whose account and question are gone.
	orphan := &Consultation{AccountID: intPtr(42), FormID: 1, PrimaryQuestionID: 77}
	if err := f.repo.Create(context.Background(), orphan); err != nil {
		t.Fatalf("seed orphan: %v", err)
	}

	summaries, total, err := f.svc.ListSummaries(context.Background(), 20, 0)
	if err != nil {
		t.Fatalf("ListSummaries() error: %v", err)
	}
	if total != 2 || len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d (total %d)", len(summaries), total)
	}

	byID := map[int64]*Summary{}
	for _, s := range summaries {
		byID[s.ID] = s
	}
	if s := byID[c.ID]; s.Username == nil || *s.Username != "jdoe2024" || s.Concern == nil {
		t.Errorf("expected resolved summary, got %+v", s)
	}
	if s := byID[orphan.ID]; s.Username != nil || s.Concern != nil {
		t.Errorf("expected null fields for orphan, got %+v", s)
	}
}

func TestGetDetail(t *testing.T) {
	f := newFixture(t)
	c := f.startConsultation(t)
	f.repo.legacy = append(f.repo.legacy, &ConsultAnswer{
		ID: 500, AccountID: intPtr(1), QuestionID: 1, AnswerText: strPtr("old free-text answer"),
	})

	if err := f.svc.SubmitFollowups(context.Background(), c.ID, 1, []AnswerInput{
		{QuestionID: 10, Text: "More than 6 months"},
	}); err != nil {
		t.Fatalf("SubmitFollowups() error: %v", err)
	}

	d, err := f.svc.GetDetail(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetDetail() error: %v", err)
	}
	if d.Account == nil || d.Account.Username != "jdoe2024" {
		t.Errorf("unexpected account %+v", d.Account)
	}
	if d.PrimaryPrompt == nil || *d.PrimaryPrompt != "Acne or Rosacea?" {
		t.Errorf("unexpected primary prompt %+v", d.PrimaryPrompt)
	}
	if d.LegacyAnswer == nil || *d.LegacyAnswer != "old free-text answer" {
		t.Errorf("unexpected legacy answer %+v", d.LegacyAnswer)
	}
	if len(d.Answers) != 1 {
		t.Fatalf("expected one answer, got %d", len(d.Answers))
	}
	if d.Answers[0].Prompt == nil || *d.Answers[0].Prompt != "How long have you had symptoms?" {
		t.Errorf("unexpected answer prompt %+v", d.Answers[0].Prompt)
	}

	if _, err := f.svc.GetDetail(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
