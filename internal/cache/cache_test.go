package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsjt/internal/model"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func mixedCatalog() []*model.Scenario {
	return []*model.Scenario{
		{
			ScenarioID:     "SCENARIO_A001",
			Title:          "Found wallet",
			CompetencyTags: []string{"integrity"},
			Category:       "A",
			Options: []model.Option{
				{OptionID: "A", Text: "Hand it in", Scores: model.NewCurrentVector(model.CurrentScores{
					IntegrityAndHonesty: 3, ProblemSolvingUnderStress: 2, EffectiveCommunication: 1,
				})},
				{OptionID: "B", Text: "Keep it", NextScenarioID: "SCENARIO_A002", Scores: model.NewCurrentVector(model.CurrentScores{})},
			},
		},
		{
			ScenarioID:     "SCENARIO_B002",
			Title:          "Late shift",
			CompetencyTags: []string{},
			Options: []model.Option{
				{OptionID: "A", Text: "Stay", Scores: model.NewLegacyVector(model.LegacyScores{Teamwork: 2, Discipline: 1})},
				{OptionID: "B", Text: "Leave", Scores: model.NewLegacyVector(model.LegacyScores{})},
			},
		},
	}
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := Connect(ctx, mr.Addr())
	require.NoError(t, err)
	client.Close()

	client, err = Connect(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	client.Close()

	addr := mr.Addr()
	mr.Close()
	_, err = Connect(ctx, addr)
	assert.Error(t, err)
}

func TestCatalogCache_MissReturnsNil(t *testing.T) {
	_, client := newTestRedis(t)
	c := NewCatalogCache(client, time.Minute)

	scenarios, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, scenarios)
}

func TestCatalogCache_RoundTripKeepsScoreVersions(t *testing.T) {
	_, client := newTestRedis(t)
	c := NewCatalogCache(client, time.Minute)
	ctx := context.Background()
	in := mixedCatalog()

	require.NoError(t, c.Set(ctx, in))
	out, err := c.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, in, out)
	assert.Equal(t, model.SchemaV2, out[0].Options[1].Scores.Version, "all-zero v2 scores stay v2")
	assert.Equal(t, model.SchemaV1, out[1].Options[1].Scores.Version)
}

func TestCatalogCache_TTL(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	c := NewCatalogCache(client, 30*time.Second)
	require.NoError(t, c.Set(ctx, mixedCatalog()))
	assert.Equal(t, 30*time.Second, mr.TTL("gsjt:catalog:scenarios"))

	mr.FastForward(31 * time.Second)
	scenarios, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, scenarios, "expired entry reads as a miss")

	// Zero ttl keeps the entry until invalidated.
	c = NewCatalogCache(client, 0)
	require.NoError(t, c.Set(ctx, mixedCatalog()))
	assert.Zero(t, mr.TTL("gsjt:catalog:scenarios"))
	mr.FastForward(24 * time.Hour)
	scenarios, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, scenarios, 2)
}

func TestCatalogCache_Invalidate(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewCatalogCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, mixedCatalog()))
	require.NoError(t, c.Invalidate(ctx))
	assert.False(t, mr.Exists("gsjt:catalog:scenarios"))

	// Invalidating an absent key is not an error.
	require.NoError(t, c.Invalidate(ctx))
}

func TestCatalogCache_CorruptEntry(t *testing.T) {
	mr, client := newTestRedis(t)
	require.NoError(t, mr.Set("gsjt:catalog:scenarios", "not json"))

	_, err := NewCatalogCache(client, time.Minute).Get(context.Background())
	assert.Error(t, err)
}

func TestRatingBoard_TopRanks(t *testing.T) {
	_, client := newTestRedis(t)
	b := NewRatingBoard(client)
	ctx := context.Background()

	require.NoError(t, b.Record(ctx, "cand-low", 40))
	require.NoError(t, b.Record(ctx, "cand-high", 210))
	require.NoError(t, b.Record(ctx, "cand-mid", 130))
	// Re-recording replaces the score.
	require.NoError(t, b.Record(ctx, "cand-low", 90))

	entries, err := b.Top(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []model.BoardEntry{
		{CandidateID: "cand-high", Total: 210, Rank: 1},
		{CandidateID: "cand-mid", Total: 130, Rank: 2},
		{CandidateID: "cand-low", Total: 90, Rank: 3},
	}, entries)

	entries, err = b.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "cand-mid", entries[1].CandidateID)

	entries, err = b.Top(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRatingBoard_TiesOrderByCandidateDesc(t *testing.T) {
	_, client := newTestRedis(t)
	b := NewRatingBoard(client)
	ctx := context.Background()

	require.NoError(t, b.Record(ctx, "cand-a", 100))
	require.NoError(t, b.Record(ctx, "cand-b", 100))

	entries, err := b.Top(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "cand-b", entries[0].CandidateID)
	assert.Equal(t, "cand-a", entries[1].CandidateID)
}

func TestRatingBoard_RankAndRemove(t *testing.T) {
	_, client := newTestRedis(t)
	b := NewRatingBoard(client)
	ctx := context.Background()

	require.NoError(t, b.Record(ctx, "cand-1", 50))
	require.NoError(t, b.Record(ctx, "cand-2", 150))

	rank, err := b.Rank(ctx, "cand-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank)

	rank, err = b.Rank(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, rank, "absent members rank 0")

	require.NoError(t, b.Remove(ctx, "cand-2"))
	rank, err = b.Rank(ctx, "cand-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank)

	rank, err = b.Rank(ctx, "cand-2")
	require.NoError(t, err)
	assert.Zero(t, rank)
}

func TestRatingBoard_EmptyBoard(t *testing.T) {
	_, client := newTestRedis(t)

	entries, err := NewRatingBoard(client).Top(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
