package consultation

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

const consultCols = `id, account_id, form_id, primary_question_id, status, created_at`

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(&c.ID, &c.AccountID, &c.FormID, &c.PrimaryQuestionID, &c.Status, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Consultation) error {
	if c.Status == "" {
		c.Status = StatusDraft
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consultations (account_id, form_id, primary_question_id, status)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at`,
		c.AccountID, c.FormID, c.PrimaryQuestionID, c.Status).Scan(&c.ID, &c.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Consultation, error) {
	return scanConsultation(r.conn(ctx).QueryRow(ctx, `
		SELECT `+consultCols+` FROM consultations WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Consultation, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM consultations`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+consultCols+` FROM consultations ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, nil
}

func (r *repoPG) SubmitAnswers(ctx context.Context, consultationID int64, answers []*FollowupAnswer) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		conn := r.conn(ctx)
		for _, a := range answers {
			a.ConsultationID = consultationID
			if err := conn.QueryRow(ctx, `
				INSERT INTO followup_answers (consultation_id, question_id, text_answer, file_path)
				VALUES ($1,$2,$3,$4) RETURNING id`,
				a.ConsultationID, a.QuestionID, a.TextAnswer, a.FilePath).Scan(&a.ID); err != nil {
				return err
			}
		}

		tag, err := conn.Exec(ctx, `
			UPDATE consultations SET status=$2 WHERE id = $1`,
			consultationID, StatusSubmitted)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *repoPG) ListFollowupAnswers(ctx context.Context, consultationID int64) ([]*FollowupAnswer, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, consultation_id, question_id, text_answer, file_path
		FROM followup_answers WHERE consultation_id = $1 ORDER BY id`, consultationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*FollowupAnswer
	for rows.Next() {
		var a FollowupAnswer
		if err := rows.Scan(&a.ID, &a.ConsultationID, &a.QuestionID, &a.TextAnswer, &a.FilePath); err != nil {
			return nil, err
		}
		items = append(items, &a)
	}
	return items, nil
}

func (r *repoPG) FirstLegacyAnswer(ctx context.Context, accountID *int64, questionID int64) (*ConsultAnswer, error) {
	var a ConsultAnswer
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, account_id, question_id, answer_text FROM consult_answers
		WHERE question_id = $1 AND ($2::bigint IS NULL OR account_id = $2)
		ORDER BY id LIMIT 1`, questionID, accountID).
		Scan(&a.ID, &a.AccountID, &a.QuestionID, &a.AnswerText)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
