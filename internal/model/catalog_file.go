package model

// CatalogFile is the scenario content file consumed by the importer.
// It is read from JSON or YAML.
type CatalogFile struct {
	SystemMetadata CatalogMetadata   `json:"system_metadata" yaml:"system_metadata" validate:"required"`
	Scenarios      []CatalogScenario `json:"scenarios" yaml:"scenarios" validate:"required,min=1,dive"`
}

// CatalogMetadata describes the file. Version "2.0" selects the v2 score shape.
type CatalogMetadata struct {
	Version        string        `json:"version" yaml:"version" validate:"required"`
	TotalScenarios int           `json:"total_scenarios" yaml:"total_scenarios" validate:"gte=0"`
	Competencies   []interface{} `json:"competencies" yaml:"competencies"`
}

// SchemaVersion maps the file version onto a score schema
func (m CatalogMetadata) SchemaVersion() SchemaVersion {
	if m.Version == "2.0" {
		return SchemaV2
	}
	return SchemaV1
}

type CatalogScenario struct {
	ScenarioID      string          `json:"scenario_id" yaml:"scenario_id" validate:"required"`
	Title           string          `json:"title" yaml:"title" validate:"required"`
	TitleZhHK       string          `json:"title_zh_hk" yaml:"title_zh_hk"`
	Description     string          `json:"description" yaml:"description"`
	DescriptionZhHK string          `json:"description_zh_hk" yaml:"description_zh_hk"`
	IllustrationID  string          `json:"illustration_id" yaml:"illustration_id"`
	CompetencyTags  []string        `json:"competency_tags" yaml:"competency_tags"`
	Category        string          `json:"category" yaml:"category" validate:"omitempty,len=1,uppercase"`
	Options         []CatalogOption `json:"options" yaml:"options" validate:"required,min=1,dive"`
}

type CatalogOption struct {
	OptionID       string          `json:"option_id" yaml:"option_id" validate:"required"`
	Text           string          `json:"text" yaml:"text"`
	TextZhHK       string          `json:"text_zh_hk" yaml:"text_zh_hk"`
	NextScenarioID string          `json:"next_scenario_id" yaml:"next_scenario_id"`
	Scores         map[string]*int `json:"scores" yaml:"scores"`
}
