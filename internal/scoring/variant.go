package scoring

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"gsjt/internal/model"
)

// VariantMode selects how the schema variant of a scoring pass is decided
type VariantMode string

const (
	// ModeStrict requires every option in the catalog to share one variant
	ModeStrict VariantMode = "strict"
	// ModeSample uses the first option of the first scenario in the catalog.
	// A first scenario without options scores as v1. Options of the other
	// shape are read through the sampled field names.
	ModeSample VariantMode = "sample"
)

// ParseVariantMode validates a configured mode name
func ParseVariantMode(s string) (VariantMode, error) {
	switch m := VariantMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeStrict, ModeSample:
		return m, nil
	case "":
		return ModeStrict, nil
	default:
		return "", errors.Errorf("unknown scoring variant mode %q", s)
	}
}

// ErrMixedSchema is returned in strict mode when v1 and v2 options coexist
var ErrMixedSchema = errors.New("scenario catalog mixes v1 and v2 score schemas")

// MixedSchemaError names the first option that disagreed with the catalog
type MixedSchemaError struct {
	Expected   model.SchemaVersion
	Found      model.SchemaVersion
	ScenarioID string
	OptionID   string
}

func (e *MixedSchemaError) Error() string {
	return fmt.Sprintf("%v: option %s/%s is %s, catalog is %s",
		ErrMixedSchema, e.ScenarioID, e.OptionID, e.Found, e.Expected)
}

func (e *MixedSchemaError) Is(target error) bool {
	return target == ErrMixedSchema
}

// DetectVariant decides which score shape a scoring pass uses. An empty
// catalog, or one without options, scores as v1.
func DetectVariant(c *Catalog, mode VariantMode) (model.SchemaVersion, error) {
	if mode == ModeSample {
		scenarios := c.Scenarios()
		if len(scenarios) == 0 || len(scenarios[0].Options) == 0 {
			return model.SchemaV1, nil
		}
		return versionOf(scenarios[0].Options[0].Scores), nil
	}

	var found model.SchemaVersion
	for _, s := range c.Scenarios() {
		for _, o := range s.Options {
			v := versionOf(o.Scores)
			if found == "" {
				found = v
				continue
			}
			if v != found {
				return "", &MixedSchemaError{Expected: found, Found: v, ScenarioID: s.ScenarioID, OptionID: o.OptionID}
			}
		}
	}
	if found == "" {
		return model.SchemaV1, nil
	}
	return found, nil
}

func versionOf(v model.ScoreVector) model.SchemaVersion {
	if v.Version == model.SchemaV2 {
		return model.SchemaV2
	}
	return model.SchemaV1
}
