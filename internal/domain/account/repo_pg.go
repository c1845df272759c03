package account

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dermhub/dermhub/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const acctCols = `id, username, email, password_hash, first_name, last_name,
	is_admin, has_medical_history, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName,
		&a.IsAdmin, &a.HasMedicalHistory, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Account) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO accounts (username, email, password_hash, first_name, last_name,
			is_admin, has_medical_history)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at`,
		a.Username, a.Email, a.PasswordHash, a.FirstName, a.LastName,
		a.IsAdmin, a.HasMedicalHistory).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Account, error) {
	return scanAccount(r.conn(ctx).QueryRow(ctx, `SELECT `+acctCols+` FROM accounts WHERE id = $1`, id))
}

func (r *repoPG) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return scanAccount(r.conn(ctx).QueryRow(ctx, `SELECT `+acctCols+` FROM accounts WHERE username = $1`, username))
}

func (r *repoPG) Update(ctx context.Context, a *Account) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE accounts SET email=$2, password_hash=$3, first_name=$4, last_name=$5,
			is_admin=$6, has_medical_history=$7, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Email, a.PasswordHash, a.FirstName, a.LastName,
		a.IsAdmin, a.HasMedicalHistory)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
