package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"gsjt/internal/model"
)

type pgScenarioRepo struct {
	db *sql.DB
}

// NewPostgresScenarioRepo creates a scenario repository over the
// scenarios and scenario_options tables
func NewPostgresScenarioRepo(db *sql.DB) ScenarioRepo {
	return &pgScenarioRepo{db: db}
}

const scenarioColumns = `scenario_id, title, COALESCE(title_zh_hk, ''), description,
	COALESCE(description_zh_hk, ''), COALESCE(illustration_id, ''), competency_tags, COALESCE(category, '')`

const optionColumns = `scenario_id, option_id, option_text, COALESCE(option_text_zh_hk, ''),
	COALESCE(next_scenario_id, ''), COALESCE(schema_version, ''),
	integrity_score, teamwork_score, service_orientation_score, discipline_score,
	problem_solving_score, stress_tolerance_score,
	integrity_and_honesty_score, problem_solving_under_stress_score, effective_communication_score`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScenario(row rowScanner) (*model.Scenario, error) {
	var s model.Scenario
	var tags []byte
	if err := row.Scan(&s.ScenarioID, &s.Title, &s.TitleZhHK, &s.Description,
		&s.DescriptionZhHK, &s.IllustrationID, &tags, &s.Category); err != nil {
		return nil, err
	}
	s.CompetencyTags = []string{}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &s.CompetencyTags); err != nil {
			return nil, errors.Wrapf(err, "decode competency_tags of %s", s.ScenarioID)
		}
	}
	s.Options = []model.Option{}
	return &s, nil
}

func scanOption(row rowScanner) (string, model.Option, error) {
	var (
		scenarioID string
		o          model.Option
		tag        string
		d          scoresDoc
		cols       [9]sql.NullInt64
	)
	err := row.Scan(&scenarioID, &o.OptionID, &o.Text, &o.TextZhHK, &o.NextScenarioID, &tag,
		&cols[0], &cols[1], &cols[2], &cols[3], &cols[4], &cols[5], &cols[6], &cols[7], &cols[8])
	if err != nil {
		return "", o, err
	}
	d.Integrity = intFromNull(cols[0])
	d.Teamwork = intFromNull(cols[1])
	d.ServiceOrientation = intFromNull(cols[2])
	d.Discipline = intFromNull(cols[3])
	d.ProblemSolving = intFromNull(cols[4])
	d.StressTolerance = intFromNull(cols[5])
	d.IntegrityAndHonesty = intFromNull(cols[6])
	d.ProblemSolvingUnderStress = intFromNull(cols[7])
	d.EffectiveCommunication = intFromNull(cols[8])
	o.Scores = d.vector(tag)
	return scenarioID, o, nil
}

func (r *pgScenarioRepo) List(ctx context.Context) ([]*model.Scenario, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+scenarioColumns+` FROM scenarios ORDER BY scenario_id`)
	if err != nil {
		return nil, errors.Wrap(err, "query scenarios")
	}
	defer rows.Close()

	var scenarios []*model.Scenario
	byID := make(map[string]*model.Scenario)
	for rows.Next() {
		s, err := scanScenario(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan scenario")
		}
		scenarios = append(scenarios, s)
		byID[s.ScenarioID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate scenarios")
	}

	optRows, err := r.db.QueryContext(ctx, `SELECT `+optionColumns+` FROM scenario_options ORDER BY scenario_id, option_id`)
	if err != nil {
		return nil, errors.Wrap(err, "query options")
	}
	defer optRows.Close()
	for optRows.Next() {
		scenarioID, o, err := scanOption(optRows)
		if err != nil {
			return nil, errors.Wrap(err, "scan option")
		}
		if s, ok := byID[scenarioID]; ok {
			s.Options = append(s.Options, o)
		}
	}
	if err := optRows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate options")
	}
	return scenarios, nil
}

func (r *pgScenarioRepo) GetByID(ctx context.Context, id string) (*model.Scenario, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+scenarioColumns+` FROM scenarios WHERE scenario_id = $1`, id)
	s, err := scanScenario(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query scenario %s", id)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+optionColumns+` FROM scenario_options WHERE scenario_id = $1 ORDER BY option_id`, id)
	if err != nil {
		return nil, errors.Wrapf(err, "query options of %s", id)
	}
	defer rows.Close()
	for rows.Next() {
		_, o, err := scanOption(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan option")
		}
		s.Options = append(s.Options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate options")
	}
	return s, nil
}

func (r *pgScenarioRepo) Upsert(ctx context.Context, s *model.Scenario) error {
	tags := s.CompetencyTags
	if tags == nil {
		tags = []string{}
	}
	tagJSON, err := json.Marshal(tags)
	if err != nil {
		return errors.Wrap(err, "encode competency_tags")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin upsert")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO scenarios (scenario_id, title, title_zh_hk, description, description_zh_hk, illustration_id, competency_tags, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (scenario_id) DO UPDATE SET
			title = EXCLUDED.title,
			title_zh_hk = EXCLUDED.title_zh_hk,
			description = EXCLUDED.description,
			description_zh_hk = EXCLUDED.description_zh_hk,
			illustration_id = EXCLUDED.illustration_id,
			competency_tags = EXCLUDED.competency_tags,
			category = EXCLUDED.category`,
		s.ScenarioID, s.Title, nullString(s.TitleZhHK), s.Description, nullString(s.DescriptionZhHK),
		nullString(s.IllustrationID), string(tagJSON), nullString(s.Category))
	if err != nil {
		return errors.Wrapf(err, "upsert scenario %s", s.ScenarioID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM scenario_options WHERE scenario_id = $1`, s.ScenarioID); err != nil {
		return errors.Wrapf(err, "clear options of %s", s.ScenarioID)
	}

	for _, o := range s.Options {
		d := newScoresDoc(o.Scores)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO scenario_options (scenario_id, option_id, option_text, option_text_zh_hk, next_scenario_id, schema_version,
				integrity_score, teamwork_score, service_orientation_score, discipline_score,
				problem_solving_score, stress_tolerance_score,
				integrity_and_honesty_score, problem_solving_under_stress_score, effective_communication_score)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			s.ScenarioID, o.OptionID, o.Text, nullString(o.TextZhHK), nullString(o.NextScenarioID), string(o.Scores.Version),
			nullInt(d.Integrity), nullInt(d.Teamwork), nullInt(d.ServiceOrientation), nullInt(d.Discipline),
			nullInt(d.ProblemSolving), nullInt(d.StressTolerance),
			nullInt(d.IntegrityAndHonesty), nullInt(d.ProblemSolvingUnderStress), nullInt(d.EffectiveCommunication))
		if err != nil {
			return errors.Wrapf(err, "insert option %s/%s", s.ScenarioID, o.OptionID)
		}
	}

	return errors.Wrap(tx.Commit(), "commit upsert")
}

func (r *pgScenarioRepo) Delete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	// Options cascade.
	res, err := r.db.ExecContext(ctx, `DELETE FROM scenarios WHERE scenario_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "delete scenarios")
	}
	return res.RowsAffected()
}

func (r *pgScenarioRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scenarios`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count scenarios")
	}
	return n, nil
}
