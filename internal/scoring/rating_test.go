package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gsjt/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		version model.SchemaVersion
		want    model.Rating
	}{
		{"v2 top boundary", 270, model.SchemaV2, model.RatingHighlyRecommended},
		{"v2 just below top", 269, model.SchemaV2, model.RatingRecommended},
		{"v2 max", 360, model.SchemaV2, model.RatingHighlyRecommended},
		{"v2 recommended boundary", 180, model.SchemaV2, model.RatingRecommended},
		{"v2 borderline boundary", 120, model.SchemaV2, model.RatingBorderline},
		{"v2 below borderline", 119, model.SchemaV2, model.RatingNotRecommended},
		{"v2 zero", 0, model.SchemaV2, model.RatingNotRecommended},
		{"v1 top boundary", 108, model.SchemaV1, model.RatingHighlyRecommended},
		{"v1 just below top", 107, model.SchemaV1, model.RatingRecommended},
		{"v1 recommended boundary", 72, model.SchemaV1, model.RatingRecommended},
		{"v1 borderline boundary", 48, model.SchemaV1, model.RatingBorderline},
		{"v1 below borderline", 47, model.SchemaV1, model.RatingNotRecommended},
		{"v1 negative", -5, model.SchemaV1, model.RatingNotRecommended},
		{"unknown schema uses v1", 108, "", model.RatingHighlyRecommended},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.total, tt.version))
		})
	}
}

func TestScore_RatesTheAggregatedTotal(t *testing.T) {
	r, err := Score(exampleAnswers(), exampleCatalog(), ModeStrict)
	assert.NoError(t, err)
	assert.Equal(t, 13, r.Scores.Total)
	assert.Equal(t, model.RatingNotRecommended, r.Rating)
}
