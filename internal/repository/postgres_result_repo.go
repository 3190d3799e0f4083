package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"gsjt/internal/model"
)

type pgResultRepo struct {
	db *sql.DB
}

// NewPostgresResultRepo creates a result repository over candidate_results.
// answers and total_scores are stored as JSONB in their wire shape.
func NewPostgresResultRepo(db *sql.DB) ResultRepo {
	return &pgResultRepo{db: db}
}

const resultColumns = `candidate_id, test_id, COALESCE(status, ''), started_at, completed_at,
	answers, total_scores, COALESCE(rating, '')`

// uniqueViolation is the postgres SQLSTATE for a duplicate key
const uniqueViolation = "23505"

func scanResult(row rowScanner) (*model.CandidateResult, error) {
	var (
		r                 model.CandidateResult
		status, rating    string
		started, complete sql.NullTime
		answers, totals   []byte
	)
	if err := row.Scan(&r.CandidateID, &r.TestID, &status, &started, &complete, &answers, &totals, &rating); err != nil {
		return nil, err
	}
	r.StartedAt = timeFromNull(started)
	r.CompletedAt = timeFromNull(complete)
	r.Rating = model.Rating(rating)
	r.Status = model.ResultStatus(status)
	if r.Status == "" {
		r.Status = statusFor(r.CompletedAt)
	}

	r.Answers = []model.Answer{}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &r.Answers); err != nil {
			return nil, errors.Wrapf(err, "decode answers of %s", r.CandidateID)
		}
	}
	if len(totals) > 0 && string(totals) != "null" {
		var t model.TotalScores
		if err := json.Unmarshal(totals, &t); err != nil {
			return nil, errors.Wrapf(err, "decode total_scores of %s", r.CandidateID)
		}
		r.TotalScores = &t
	}
	return &r, nil
}

func encodeResult(r *model.CandidateResult) (answers []byte, totals interface{}, err error) {
	list := r.Answers
	if list == nil {
		list = []model.Answer{}
	}
	if answers, err = json.Marshal(list); err != nil {
		return nil, nil, errors.Wrap(err, "encode answers")
	}
	if r.TotalScores != nil {
		b, err := json.Marshal(r.TotalScores)
		if err != nil {
			return nil, nil, errors.Wrap(err, "encode total_scores")
		}
		totals = string(b)
	}
	return answers, totals, nil
}

func (r *pgResultRepo) Create(ctx context.Context, res *model.CandidateResult) error {
	answers, totals, err := encodeResult(res)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO candidate_results (candidate_id, test_id, status, started_at, completed_at, answers, total_scores, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		res.CandidateID, res.TestID, string(res.Status), nullTime(res.StartedAt), nullTime(res.CompletedAt),
		string(answers), totals, nullString(string(res.Rating)))
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return ErrDuplicate
	}
	if err != nil {
		return errors.Wrapf(err, "insert result %s", res.CandidateID)
	}
	return nil
}

func (r *pgResultRepo) GetByCandidateID(ctx context.Context, candidateID string) (*model.CandidateResult, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM candidate_results WHERE candidate_id = $1`, candidateID)
	res, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query result %s", candidateID)
	}
	return res, nil
}

func (r *pgResultRepo) Update(ctx context.Context, res *model.CandidateResult) error {
	answers, totals, err := encodeResult(res)
	if err != nil {
		return err
	}
	out, err := r.db.ExecContext(ctx, `
		UPDATE candidate_results
		   SET test_id = $2, status = $3, started_at = $4, completed_at = $5,
		       answers = $6, total_scores = $7, rating = $8
		 WHERE candidate_id = $1`,
		res.CandidateID, res.TestID, string(res.Status), nullTime(res.StartedAt), nullTime(res.CompletedAt),
		string(answers), totals, nullString(string(res.Rating)))
	if err != nil {
		return errors.Wrapf(err, "update result %s", res.CandidateID)
	}
	n, err := out.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgResultRepo) List(ctx context.Context) ([]*model.CandidateResult, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+resultColumns+` FROM candidate_results
		ORDER BY completed_at DESC NULLS LAST, started_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "query results")
	}
	defer rows.Close()

	results := []*model.CandidateResult{}
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan result")
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate results")
	}
	return results, nil
}

func (r *pgResultRepo) Delete(ctx context.Context, candidateID string) (bool, error) {
	out, err := r.db.ExecContext(ctx, `DELETE FROM candidate_results WHERE candidate_id = $1`, candidateID)
	if err != nil {
		return false, errors.Wrapf(err, "delete result %s", candidateID)
	}
	n, err := out.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return n > 0, nil
}

func (r *pgResultRepo) Latest(ctx context.Context) (*model.CandidateResult, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM candidate_results
		WHERE completed_at IS NOT NULL ORDER BY completed_at DESC LIMIT 1`)
	res, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query latest result")
	}
	return res, nil
}
