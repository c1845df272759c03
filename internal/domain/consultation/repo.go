package consultation

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("consultation not found")

// Repository is the persistence contract for consultations and their answers.
type Repository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id int64) (*Consultation, error)
	List(ctx context.Context, limit, offset int) ([]*Consultation, int, error)

	// SubmitAnswers inserts the answer rows and marks the consultation
	// submitted in one transaction.
	SubmitAnswers(ctx context.Context, consultationID int64, answers []*FollowupAnswer) error
	ListFollowupAnswers(ctx context.Context, consultationID int64) ([]*FollowupAnswer, error)

	// FirstLegacyAnswer returns the oldest legacy free-text answer matching
	// the question, scoped to the account when one is given. Returns
	// (nil, nil) when there is none.
	FirstLegacyAnswer(ctx context.Context, accountID *int64, questionID int64) (*ConsultAnswer, error)
}
