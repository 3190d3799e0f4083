package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsjt/internal/model"
)

func TestMemoryScenarioRepo(t *testing.T) {
	repo := NewMemoryScenarioRepo()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &model.Scenario{ScenarioID: "SCENARIO_B001", Options: []model.Option{
		{OptionID: "B", Scores: model.NewLegacyVector(model.LegacyScores{Teamwork: 1})},
		{OptionID: "A", Scores: model.NewLegacyVector(model.LegacyScores{Teamwork: 2})},
	}}))
	require.NoError(t, repo.Upsert(ctx, &model.Scenario{ScenarioID: "SCENARIO_A001"}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "SCENARIO_A001", list[0].ScenarioID)
	assert.Equal(t, "A", list[1].Options[0].OptionID)
	assert.Equal(t, model.SchemaV1, list[1].Options[0].Scores.Version)

	// Mutating a returned value does not reach the store.
	list[1].Options[0].OptionID = "Z"
	again, err := repo.GetByID(ctx, "SCENARIO_B001")
	require.NoError(t, err)
	assert.Equal(t, "A", again.Options[0].OptionID)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	n, err := repo.Delete(ctx, []string{"SCENARIO_A001", "nope"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryResultRepo(t *testing.T) {
	repo := NewMemoryResultRepo()
	ctx := context.Background()
	t0 := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	require.NoError(t, repo.Create(ctx, &model.CandidateResult{CandidateID: "pending", StartedAt: &t1}))
	require.NoError(t, repo.Create(ctx, &model.CandidateResult{CandidateID: "done", StartedAt: &t0, CompletedAt: &t1}))
	assert.ErrorIs(t, repo.Create(ctx, &model.CandidateResult{CandidateID: "done"}), ErrDuplicate)
	assert.ErrorIs(t, repo.Update(ctx, &model.CandidateResult{CandidateID: "ghost"}), ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "done", list[0].CandidateID)
	assert.Equal(t, model.ResultStatusCompleted, list[0].Status)
	assert.Equal(t, model.ResultStatusInProgress, list[1].Status)
	assert.Equal(t, []model.Answer{}, list[1].Answers)

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "done", latest.CandidateID)

	removed, err := repo.Delete(ctx, "done")
	require.NoError(t, err)
	assert.True(t, removed)
	latest, err = repo.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest, "in-progress records are never the latest completion")
}
