package catalog

import (
	"context"
	"errors"
)

var (
	ErrFormNotFound     = errors.New("form not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrFollowupNotFound = errors.New("follow-up question not found")
)

// Repository is the persistence contract for the question catalogue.
type Repository interface {
	CreateForm(ctx context.Context, f *ConsultForm) error
	GetFormByID(ctx context.Context, id int64) (*ConsultForm, error)
	GetFormByName(ctx context.Context, name string) (*ConsultForm, error)

	CreateQuestion(ctx context.Context, q *PrimaryQuestion) error
	GetQuestion(ctx context.Context, id int64) (*PrimaryQuestion, error)
	ListQuestions(ctx context.Context, limit, offset int) ([]*PrimaryQuestion, int, error)
	ListQuestionsByForm(ctx context.Context, formID int64) ([]*PrimaryQuestion, error)
	UpdateQuestion(ctx context.Context, q *PrimaryQuestion) error
	// DeleteQuestionCascade removes the question together with its follow-up
	// questions, all answers to them, any legacy free-text answers and any
	// consultation that referenced it as primary, in one transaction.
	DeleteQuestionCascade(ctx context.Context, id int64) error

	CreateFollowup(ctx context.Context, fq *FollowupQuestion) error
	GetFollowup(ctx context.Context, id int64) (*FollowupQuestion, error)
	ListFollowupsByQuestion(ctx context.Context, questionID int64) ([]*FollowupQuestion, error)
	UpdateFollowup(ctx context.Context, fq *FollowupQuestion) error
	DeleteFollowup(ctx context.Context, id int64) error
}
