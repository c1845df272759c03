package catalog

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

// -- Forms --

func (r *repoPG) CreateForm(ctx context.Context, f *ConsultForm) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consult_forms (name) VALUES ($1) RETURNING id`,
		f.Name).Scan(&f.ID)
}

func (r *repoPG) GetFormByID(ctx context.Context, id int64) (*ConsultForm, error) {
	var f ConsultForm
	err := r.conn(ctx).QueryRow(ctx, `SELECT id, name FROM consult_forms WHERE id = $1`, id).
		Scan(&f.ID, &f.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFormNotFound
	}
	return &f, err
}

func (r *repoPG) GetFormByName(ctx context.Context, name string) (*ConsultForm, error) {
	var f ConsultForm
	err := r.conn(ctx).QueryRow(ctx, `SELECT id, name FROM consult_forms WHERE name = $1`, name).
		Scan(&f.ID, &f.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFormNotFound
	}
	return &f, err
}

// -- Primary questions --

func scanQuestion(row pgx.Row) (*PrimaryQuestion, error) {
	var q PrimaryQuestion
	err := row.Scan(&q.ID, &q.Prompt, &q.FormID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	return &q, err
}

func (r *repoPG) CreateQuestion(ctx context.Context, q *PrimaryQuestion) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO consult_questions (prompt, form_id) VALUES ($1, $2) RETURNING id`,
		q.Prompt, q.FormID).Scan(&q.ID)
}

func (r *repoPG) GetQuestion(ctx context.Context, id int64) (*PrimaryQuestion, error) {
	return scanQuestion(r.conn(ctx).QueryRow(ctx, `
		SELECT id, prompt, form_id FROM consult_questions WHERE id = $1`, id))
}

func (r *repoPG) ListQuestions(ctx context.Context, limit, offset int) ([]*PrimaryQuestion, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM consult_questions`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, prompt, form_id FROM consult_questions ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*PrimaryQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, q)
	}
	return items, total, nil
}

func (r *repoPG) ListQuestionsByForm(ctx context.Context, formID int64) ([]*PrimaryQuestion, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, prompt, form_id FROM consult_questions WHERE form_id = $1 ORDER BY id`, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PrimaryQuestion
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, q)
	}
	return items, nil
}

func (r *repoPG) UpdateQuestion(ctx context.Context, q *PrimaryQuestion) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE consult_questions SET prompt=$2, form_id=$3 WHERE id = $1`,
		q.ID, q.Prompt, q.FormID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (r *repoPG) DeleteQuestionCascade(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		conn := r.conn(ctx)

		steps := []string{
			`DELETE FROM followup_answers WHERE question_id IN
				(SELECT id FROM followup_questions WHERE parent_question_id = $1)`,
			`DELETE FROM followup_answers WHERE consultation_id IN
				(SELECT id FROM consultations WHERE primary_question_id = $1)`,
			`DELETE FROM consultations WHERE primary_question_id = $1`,
			`DELETE FROM consult_answers WHERE question_id = $1`,
			`DELETE FROM followup_questions WHERE parent_question_id = $1`,
		}
		for _, sql := range steps {
			if _, err := conn.Exec(ctx, sql, id); err != nil {
				return err
			}
		}

		tag, err := conn.Exec(ctx, `DELETE FROM consult_questions WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrQuestionNotFound
		}
		return nil
	})
}

// -- Follow-up questions --

func scanFollowup(row pgx.Row) (*FollowupQuestion, error) {
	var fq FollowupQuestion
	err := row.Scan(&fq.ID, &fq.Prompt, &fq.ParentQuestionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFollowupNotFound
	}
	return &fq, err
}

func (r *repoPG) CreateFollowup(ctx context.Context, fq *FollowupQuestion) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO followup_questions (prompt, parent_question_id) VALUES ($1, $2) RETURNING id`,
		fq.Prompt, fq.ParentQuestionID).Scan(&fq.ID)
}

func (r *repoPG) GetFollowup(ctx context.Context, id int64) (*FollowupQuestion, error) {
	return scanFollowup(r.conn(ctx).QueryRow(ctx, `
		SELECT id, prompt, parent_question_id FROM followup_questions WHERE id = $1`, id))
}

func (r *repoPG) ListFollowupsByQuestion(ctx context.Context, questionID int64) ([]*FollowupQuestion, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, prompt, parent_question_id FROM followup_questions
		WHERE parent_question_id = $1 ORDER BY id`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*FollowupQuestion
	for rows.Next() {
		fq, err := scanFollowup(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, fq)
	}
	return items, nil
}

func (r *repoPG) UpdateFollowup(ctx context.Context, fq *FollowupQuestion) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE followup_questions SET prompt=$2 WHERE id = $1`,
		fq.ID, fq.Prompt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFollowupNotFound
	}
	return nil
}

func (r *repoPG) DeleteFollowup(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		conn := r.conn(ctx)
		if _, err := conn.Exec(ctx, `DELETE FROM followup_answers WHERE question_id = $1`, id); err != nil {
			return err
		}
		tag, err := conn.Exec(ctx, `DELETE FROM followup_questions WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrFollowupNotFound
		}
		return nil
	})
}
