package account

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dermhub/dermhub/internal/platform/auth"
	"github.com/dermhub/dermhub/internal/platform/notification"
)

var (
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	digitPattern  = regexp.MustCompile(`[0-9]`)
	symbolPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// Service implements account signup, authentication and admin provisioning.
// It satisfies auth.AdminChecker for the admin API middleware.
type Service struct {
	repo      Repository
	mailer    notification.EmailSender
	templates *notification.TemplateEngine
	logger    zerolog.Logger
}

func NewService(repo Repository, mailer notification.EmailSender, templates *notification.TemplateEngine, logger zerolog.Logger) *Service {
	return &Service{repo: repo, mailer: mailer, templates: templates, logger: logger}
}

// SignupInput carries the patient registration fields. The same shape, with
// only username and password required, is used for admin provisioning.
type SignupInput struct {
	Username  string `json:"username" form:"username"`
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
}

func (in *SignupInput) validate() error {
	if len(strings.TrimSpace(in.Username)) < 5 {
		return errors.New("username must be at least 5 characters")
	}
	if !emailPattern.MatchString(in.Email) {
		return errors.New("a valid email address is required")
	}
	if err := validatePassword(in.Password); err != nil {
		return err
	}
	if err := validateName(in.FirstName, "first name"); err != nil {
		return err
	}
	return validateName(in.LastName, "last name")
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	if !digitPattern.MatchString(password) {
		return errors.New("password must contain a number")
	}
	if !symbolPattern.MatchString(password) {
		return errors.New("password must contain a special character")
	}
	return nil
}

func validateName(name, label string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New(label + " is required")
	}
	if digitPattern.MatchString(name) || symbolPattern.MatchString(name) {
		return errors.New(label + " cannot contain numbers or special characters")
	}
	return nil
}

// Signup validates the registration fields, hashes the password and creates a
// patient account. A welcome email is sent on success; mail failures are
// logged and do not fail the signup.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*Account, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(in.Email)
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	a := &Account{
		Username:     strings.TrimSpace(in.Username),
		Email:        &email,
		PasswordHash: hash,
		FirstName:    &first,
		LastName:     &last,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.sendWelcome(ctx, a)
	return a, nil
}

func (s *Service) sendWelcome(ctx context.Context, a *Account) {
	if s.mailer == nil || s.templates == nil || a.Email == nil {
		return
	}
	subject, body, err := s.templates.Render("welcome", map[string]string{
		"first_name": deref(a.FirstName),
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("render welcome email")
		return
	}
	if err := s.mailer.SendEmail(ctx, *a.Email, subject, body); err != nil {
		s.logger.Error().Err(err).Str("username", a.Username).Msg("send welcome email")
	}
}

// Authenticate verifies a username/password pair. Unknown usernames and bad
// passwords both come back as ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	a, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(a.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// CreateAdmin provisions an administrator account. Only username and password
// are required; email and names are optional.
func (s *Service) CreateAdmin(ctx context.Context, in SignupInput) (*Account, error) {
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return nil, errors.New("username and password are required")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	a := &Account{
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: hash,
		IsAdmin:      true,
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		a.Email = &email
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// UpsertAdmin creates the admin account if it does not exist, or resets its
// password and admin flag if it does. Used by the seeder.
func (s *Service) UpsertAdmin(ctx context.Context, username, password, email string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	existing, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		a := &Account{Username: username, PasswordHash: hash, IsAdmin: true}
		if email != "" {
			a.Email = &email
		}
		return s.repo.Create(ctx, a)
	}
	if err != nil {
		return err
	}

	existing.PasswordHash = hash
	existing.IsAdmin = true
	if email != "" {
		existing.Email = &email
	}
	return s.repo.Update(ctx, existing)
}

// GetByID returns the account with the given id.
func (s *Service) GetByID(ctx context.Context, id int64) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

// IsAdmin reports whether the account carries the administrator flag.
func (s *Service) IsAdmin(ctx context.Context, accountID int64) (bool, error) {
	a, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return false, err
	}
	return a.IsAdmin, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ auth.AdminChecker = (*Service)(nil)
