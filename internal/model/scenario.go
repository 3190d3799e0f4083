package model

// Scenario is one situational judgement item with its selectable options
type Scenario struct {
	ScenarioID      string   `json:"scenario_id"`
	Title           string   `json:"title"`
	TitleZhHK       string   `json:"title_zh_hk,omitempty"`
	Description     string   `json:"description"`
	DescriptionZhHK string   `json:"description_zh_hk,omitempty"`
	IllustrationID  string   `json:"illustration_id,omitempty"`
	CompetencyTags  []string `json:"competency_tags"`
	// Category groups scenarios for subtotal reporting (A/B/C)
	Category string   `json:"category,omitempty"`
	Options  []Option `json:"options"`
}

// FindOption returns the option with the given id, or nil
func (s *Scenario) FindOption(optionID string) *Option {
	for i := range s.Options {
		if s.Options[i].OptionID == optionID {
			return &s.Options[i]
		}
	}
	return nil
}

// Option is one response to a scenario.
// NextScenarioID is informational; scenarios are traversed in catalog order.
type Option struct {
	OptionID       string      `json:"option_id"`
	Text           string      `json:"text"`
	TextZhHK       string      `json:"text_zh_hk,omitempty"`
	NextScenarioID string      `json:"next_scenario_id,omitempty"`
	Scores         ScoreVector `json:"scores"`
}
