package scoring

import (
	"gsjt/internal/model"
)

// Breakdown is the outcome of one aggregation pass
type Breakdown struct {
	Scores model.TotalScores
	// Resolved and Unresolved count answers that did or did not map onto
	// a catalog option. Unresolved answers contribute nothing.
	Resolved   int
	Unresolved int
}

// Aggregate sums the option scores chosen in answers. The result does not
// depend on answer order.
func Aggregate(answers []model.Answer, c *Catalog, mode VariantMode) (*Breakdown, error) {
	version, err := DetectVariant(c, mode)
	if err != nil {
		return nil, err
	}

	b := &Breakdown{}
	var legacy model.LegacyScores
	var current model.CurrentScores
	var categories map[string]int
	if version == model.SchemaV2 {
		categories = make(map[string]int, len(DefaultCategories))
		for _, k := range DefaultCategories {
			categories[k] = 0
		}
	}

	for _, a := range answers {
		scenario, option, ok := c.Resolve(a.ScenarioID, a.OptionID)
		if !ok {
			b.Unresolved++
			continue
		}
		b.Resolved++

		if version == model.SchemaV2 {
			s := option.Scores.AsCurrent()
			current = current.Add(s)
			categories[CategoryOf(scenario)] += s.Sum()
			continue
		}
		legacy = legacy.Add(option.Scores.AsLegacy())
	}

	if version == model.SchemaV2 {
		b.Scores = model.TotalScores{
			ScoreVector:    model.NewCurrentVector(current),
			CategoryTotals: categories,
			Total:          current.Sum(),
		}
	} else {
		b.Scores = model.TotalScores{
			ScoreVector: model.NewLegacyVector(legacy),
			Total:       legacy.Sum(),
		}
	}
	return b, nil
}
