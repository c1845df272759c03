package catalog

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrPromptRequired = errors.New("prompt is required")
	ErrFormRequired   = errors.New("form_id is required")
)

// Service implements the question catalogue operations exposed through the
// admin API and consumed by the intake workflow.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// QuestionInput carries the writable fields of a primary question. Nil fields
// are left untouched on patch.
type QuestionInput struct {
	Prompt *string `json:"prompt"`
	FormID *int64  `json:"form_id"`
}

// FollowupInput carries the writable fields of a follow-up question.
type FollowupInput struct {
	Prompt *string `json:"prompt"`
}

// CreateQuestion adds a primary question to an existing form.
func (s *Service) CreateQuestion(ctx context.Context, in QuestionInput) (*PrimaryQuestion, error) {
	if in.Prompt == nil || strings.TrimSpace(*in.Prompt) == "" {
		return nil, ErrPromptRequired
	}
	if in.FormID == nil {
		return nil, ErrFormRequired
	}
	if _, err := s.repo.GetFormByID(ctx, *in.FormID); err != nil {
		return nil, err
	}

	q := &PrimaryQuestion{Prompt: strings.TrimSpace(*in.Prompt), FormID: *in.FormID}
	if err := s.repo.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// GetQuestion returns the primary question with the given id.
func (s *Service) GetQuestion(ctx context.Context, id int64) (*PrimaryQuestion, error) {
	return s.repo.GetQuestion(ctx, id)
}

// ListQuestions returns a page of primary questions and the total count.
func (s *Service) ListQuestions(ctx context.Context, limit, offset int) ([]*PrimaryQuestion, int, error) {
	return s.repo.ListQuestions(ctx, limit, offset)
}

// PatchQuestion applies a partial update; nil input fields keep their prior
// values.
func (s *Service) PatchQuestion(ctx context.Context, id int64, in QuestionInput) (*PrimaryQuestion, error) {
	q, err := s.repo.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Prompt != nil {
		if strings.TrimSpace(*in.Prompt) == "" {
			return nil, ErrPromptRequired
		}
		q.Prompt = strings.TrimSpace(*in.Prompt)
	}
	if in.FormID != nil {
		if _, err := s.repo.GetFormByID(ctx, *in.FormID); err != nil {
			return nil, err
		}
		q.FormID = *in.FormID
	}

	if err := s.repo.UpdateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// DeleteQuestion removes a primary question and everything hanging off it:
// follow-up questions, their answers, legacy free-text answers and any
// consultation that chose it as primary.
func (s *Service) DeleteQuestion(ctx context.Context, id int64) error {
	return s.repo.DeleteQuestionCascade(ctx, id)
}

// CreateFollowup adds a follow-up question under an existing primary question.
func (s *Service) CreateFollowup(ctx context.Context, parentID int64, in FollowupInput) (*FollowupQuestion, error) {
	if in.Prompt == nil || strings.TrimSpace(*in.Prompt) == "" {
		return nil, ErrPromptRequired
	}
	if _, err := s.repo.GetQuestion(ctx, parentID); err != nil {
		return nil, err
	}

	fq := &FollowupQuestion{Prompt: strings.TrimSpace(*in.Prompt), ParentQuestionID: parentID}
	if err := s.repo.CreateFollowup(ctx, fq); err != nil {
		return nil, err
	}
	return fq, nil
}

// GetFollowup returns the follow-up question with the given id.
func (s *Service) GetFollowup(ctx context.Context, id int64) (*FollowupQuestion, error) {
	return s.repo.GetFollowup(ctx, id)
}

// ListFollowups returns the follow-up questions under a primary question.
func (s *Service) ListFollowups(ctx context.Context, parentID int64) ([]*FollowupQuestion, error) {
	if _, err := s.repo.GetQuestion(ctx, parentID); err != nil {
		return nil, err
	}
	return s.repo.ListFollowupsByQuestion(ctx, parentID)
}

// PatchFollowup applies a partial update to a follow-up question.
func (s *Service) PatchFollowup(ctx context.Context, id int64, in FollowupInput) (*FollowupQuestion, error) {
	fq, err := s.repo.GetFollowup(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Prompt != nil {
		if strings.TrimSpace(*in.Prompt) == "" {
			return nil, ErrPromptRequired
		}
		fq.Prompt = strings.TrimSpace(*in.Prompt)
	}

	if err := s.repo.UpdateFollowup(ctx, fq); err != nil {
		return nil, err
	}
	return fq, nil
}

// DeleteFollowup removes a follow-up question and its answers.
func (s *Service) DeleteFollowup(ctx context.Context, id int64) error {
	return s.repo.DeleteFollowup(ctx, id)
}
