package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsjt/internal/model"
)

// fakeRow feeds fixed values into Scan the way database/sql would
type fakeRow struct {
	values []interface{}
}

func (r fakeRow) Scan(dest ...interface{}) error {
	for i, d := range dest {
		v := r.values[i]
		switch p := d.(type) {
		case *string:
			*p = v.(string)
		case *[]byte:
			if v != nil {
				*p = []byte(v.(string))
			}
		case *sql.NullInt64:
			if err := p.Scan(v); err != nil {
				return err
			}
		case *sql.NullTime:
			if err := p.Scan(v); err != nil {
				return err
			}
		}
	}
	return nil
}

func TestMigrationNames_Ordered(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	require.Len(t, names, 3)
	assert.Equal(t, "migrations/001_init.sql", names[0])
	assert.Equal(t, "migrations/003_explicit_schema.sql", names[2])
}

func TestScanOption(t *testing.T) {
	t.Run("tagged v2 row", func(t *testing.T) {
		row := fakeRow{values: []interface{}{
			"SCENARIO_A001", "B", "Escalate", "", "", "v2",
			nil, nil, nil, int64(1), nil, nil, int64(3), int64(2), int64(0),
		}}
		sid, o, err := scanOption(row)
		require.NoError(t, err)
		assert.Equal(t, "SCENARIO_A001", sid)
		assert.Equal(t, model.NewCurrentVector(model.CurrentScores{
			IntegrityAndHonesty: 3, ProblemSolvingUnderStress: 2, Discipline: 1,
		}), o.Scores)
	})

	t.Run("untagged legacy row infers from null v2 column", func(t *testing.T) {
		row := fakeRow{values: []interface{}{
			"S1", "A", "Help", "", "S2", "",
			int64(3), int64(2), int64(1), int64(0), int64(2), int64(1), nil, nil, nil,
		}}
		_, o, err := scanOption(row)
		require.NoError(t, err)
		assert.Equal(t, model.SchemaV1, o.Scores.Version)
		assert.Equal(t, 9, o.Scores.Sum())
		assert.Equal(t, "S2", o.NextScenarioID)
	})
}

func TestScanResult(t *testing.T) {
	started := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	row := fakeRow{values: []interface{}{
		"cand-9", "GSJT-9", "", started, nil,
		`[{"scenario_id":"A","option_id":"B","timestamp":"2026-05-01T08:01:00Z"}]`,
		nil, "",
	}}

	r, err := scanResult(row)
	require.NoError(t, err)
	assert.Equal(t, model.ResultStatusInProgress, r.Status)
	assert.Equal(t, started, *r.StartedAt)
	assert.Nil(t, r.CompletedAt)
	assert.Nil(t, r.TotalScores)
	require.Len(t, r.Answers, 1)
	assert.Equal(t, "B", r.Answers[0].OptionID)
}

func TestEncodeResult(t *testing.T) {
	r := &model.CandidateResult{CandidateID: "c"}
	answers, totals, err := encodeResult(r)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(answers))
	assert.Nil(t, totals)

	r.TotalScores = &model.TotalScores{ScoreVector: model.NewLegacyVector(model.LegacyScores{Teamwork: 2}), Total: 2}
	_, totals, err = encodeResult(r)
	require.NoError(t, err)
	assert.Contains(t, totals, `"teamwork":2`)
}
