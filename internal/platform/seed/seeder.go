// Package seed bootstraps the default consultation form, its fixed question
// set and the administrator account. Safe to run repeatedly.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dermhub/dermhub/internal/domain/catalog"
)

// DefaultFormName is the single intake form patients see.
const DefaultFormName = "What is your main concern today?"

// AdminProvisioner creates or refreshes the bootstrap administrator.
// Satisfied by the account service.
type AdminProvisioner interface {
	UpsertAdmin(ctx context.Context, username, password, email string) error
}

var defaultQuestions = []struct {
	prompt    string
	followups []string
}{
	{"Acne/Rosacea", []string{
		"How long have you had these breakouts?",
		"Current treatments (if any)?",
	}},
	{"Anti-Aging Regimen", []string{
		"What products are you using now?",
		"Any sensitivities or past irritation?",
	}},
	{"Excessive Sweating", []string{
		"Which body areas are affected?",
		"How often/how severe is the sweating?",
	}},
	{"Growth/Mole", []string{
		"When did you first notice it? Any changes?",
	}},
	{"Hair Loss", []string{
		"Family history or recent stress/illness/meds?",
	}},
	{"Other?", nil},
}

type Seeder struct {
	catalog catalog.Repository
	admins  AdminProvisioner
	logger  zerolog.Logger
}

func NewSeeder(cat catalog.Repository, admins AdminProvisioner, logger zerolog.Logger) *Seeder {
	return &Seeder{catalog: cat, admins: admins, logger: logger}
}

// Run seeds the catalogue and the administrator account. The catalogue is
// only created when no form of the default name exists; the admin account is
// created or refreshed on every run.
func (s *Seeder) Run(ctx context.Context, adminUsername, adminPassword, adminEmail string) error {
	if err := s.seedCatalog(ctx); err != nil {
		return err
	}
	return s.seedAdmin(ctx, adminUsername, adminPassword, adminEmail)
}

func (s *Seeder) seedCatalog(ctx context.Context) error {
	_, err := s.catalog.GetFormByName(ctx, DefaultFormName)
	if err == nil {
		s.logger.Info().Str("form", DefaultFormName).Msg("default form already exists, skipping catalogue seed")
		return nil
	}
	if !errors.Is(err, catalog.ErrFormNotFound) {
		return fmt.Errorf("look up default form: %w", err)
	}

	form := &catalog.ConsultForm{Name: DefaultFormName}
	if err := s.catalog.CreateForm(ctx, form); err != nil {
		return fmt.Errorf("create default form: %w", err)
	}

	for _, dq := range defaultQuestions {
		q := &catalog.PrimaryQuestion{Prompt: dq.prompt, FormID: form.ID}
		if err := s.catalog.CreateQuestion(ctx, q); err != nil {
			return fmt.Errorf("create question %q: %w", dq.prompt, err)
		}
		for _, prompt := range dq.followups {
			fq := &catalog.FollowupQuestion{Prompt: prompt, ParentQuestionID: q.ID}
			if err := s.catalog.CreateFollowup(ctx, fq); err != nil {
				return fmt.Errorf("create follow-up %q: %w", prompt, err)
			}
		}
	}

	s.logger.Info().Int("questions", len(defaultQuestions)).Msg("seeded default consultation form")
	return nil
}

func (s *Seeder) seedAdmin(ctx context.Context, username, password, email string) error {
	if username == "" || password == "" {
		s.logger.Warn().Msg("admin credentials not configured, skipping admin seed")
		return nil
	}
	if err := s.admins.UpsertAdmin(ctx, username, password, email); err != nil {
		return fmt.Errorf("seed admin account: %w", err)
	}
	s.logger.Info().Str("username", username).Msg("seeded administrator account")
	return nil
}
