package account

import (
	"context"
	"errors"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrDuplicate          = errors.New("username or email already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Repository is the persistence contract for accounts.
type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id int64) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	Update(ctx context.Context, a *Account) error
}
