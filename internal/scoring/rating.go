package scoring

import "gsjt/internal/model"

type threshold struct {
	min    int
	rating model.Rating
}

// v2 targets a 30-scenario instrument (max 12 per scenario), v1 an
// 8-scenario one (max 18). Checked top down, lower bounds inclusive.
var thresholds = map[model.SchemaVersion][]threshold{
	model.SchemaV2: {
		{270, model.RatingHighlyRecommended},
		{180, model.RatingRecommended},
		{120, model.RatingBorderline},
	},
	model.SchemaV1: {
		{108, model.RatingHighlyRecommended},
		{72, model.RatingRecommended},
		{48, model.RatingBorderline},
	},
}

// Classify maps a total score onto a rating label for the given schema.
// Unknown schemas use the v1 table.
func Classify(total int, version model.SchemaVersion) model.Rating {
	table, ok := thresholds[version]
	if !ok {
		table = thresholds[model.SchemaV1]
	}
	for _, t := range table {
		if total >= t.min {
			return t.rating
		}
	}
	return model.RatingNotRecommended
}

// Result is a scored and classified answer set
type Result struct {
	Breakdown
	Rating model.Rating
}

// Score aggregates answers and classifies the total
func Score(answers []model.Answer, c *Catalog, mode VariantMode) (*Result, error) {
	b, err := Aggregate(answers, c, mode)
	if err != nil {
		return nil, err
	}
	return &Result{Breakdown: *b, Rating: Classify(b.Scores.Total, b.Scores.Version)}, nil
}
