// Package scoring turns a candidate's answers into competency totals and a
// rating. Everything here is a pure function of its inputs and safe to call
// from concurrent requests.
package scoring

import (
	"regexp"

	"gsjt/internal/model"
)

// UnknownCategory collects v2 subtotals for scenarios with no category
const UnknownCategory = "Unknown"

// DefaultCategories are always present in v2 category totals
var DefaultCategories = []string{"A", "B", "C"}

var categoryPattern = regexp.MustCompile(`^SCENARIO_([A-Z])`)

// CategoryFromID parses the category letter out of a SCENARIO_<X>nnn id
func CategoryFromID(scenarioID string) (string, bool) {
	m := categoryPattern.FindStringSubmatch(scenarioID)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// CategoryOf returns the scenario's category attribute, falling back to the
// id convention for records imported before categories were stored.
func CategoryOf(s *model.Scenario) string {
	if s.Category != "" {
		return s.Category
	}
	if c, ok := CategoryFromID(s.ScenarioID); ok {
		return c
	}
	return UnknownCategory
}

// Catalog is an indexed, read-only view of the scenario catalog
type Catalog struct {
	scenarios []*model.Scenario
	byID      map[string]*model.Scenario
}

// NewCatalog indexes scenarios by id. Order is preserved for variant
// sampling; on duplicate ids the first scenario wins.
func NewCatalog(scenarios []*model.Scenario) *Catalog {
	c := &Catalog{
		scenarios: make([]*model.Scenario, 0, len(scenarios)),
		byID:      make(map[string]*model.Scenario, len(scenarios)),
	}
	for _, s := range scenarios {
		if s == nil {
			continue
		}
		c.scenarios = append(c.scenarios, s)
		if _, ok := c.byID[s.ScenarioID]; !ok {
			c.byID[s.ScenarioID] = s
		}
	}
	return c
}

// Scenarios returns the catalog in its original order
func (c *Catalog) Scenarios() []*model.Scenario {
	return c.scenarios
}

// Len returns the number of scenarios
func (c *Catalog) Len() int {
	return len(c.scenarios)
}

// Resolve looks up the scenario and option an answer points to
func (c *Catalog) Resolve(scenarioID, optionID string) (*model.Scenario, *model.Option, bool) {
	s, ok := c.byID[scenarioID]
	if !ok {
		return nil, nil, false
	}
	o := s.FindOption(optionID)
	if o == nil {
		return s, nil, false
	}
	return s, o, true
}
