package model

import (
	"encoding/json"
)

// SchemaVersion tags which score shape an option or a score total uses
type SchemaVersion string

const (
	SchemaV1 SchemaVersion = "v1" // six legacy dimensions
	SchemaV2 SchemaVersion = "v2" // four current dimensions
)

// Valid reports whether v is a known schema version
func (v SchemaVersion) Valid() bool {
	return v == SchemaV1 || v == SchemaV2
}

// Score field names shared by the wire format, import files and storage
const (
	FieldIntegrity                 = "integrity"
	FieldTeamwork                  = "teamwork"
	FieldServiceOrientation        = "service_orientation"
	FieldDiscipline                = "discipline"
	FieldProblemSolving            = "problem_solving"
	FieldStressTolerance           = "stress_tolerance"
	FieldIntegrityAndHonesty       = "integrity_and_honesty"
	FieldProblemSolvingUnderStress = "problem_solving_under_stress"
	FieldEffectiveCommunication    = "effective_communication"
)

// LegacyScores is the v1 six-dimension score shape
type LegacyScores struct {
	Integrity          int `json:"integrity"`
	Teamwork           int `json:"teamwork"`
	ServiceOrientation int `json:"service_orientation"`
	Discipline         int `json:"discipline"`
	ProblemSolving     int `json:"problem_solving"`
	StressTolerance    int `json:"stress_tolerance"`
}

// Sum returns the total across all six dimensions
func (s LegacyScores) Sum() int {
	return s.Integrity + s.Teamwork + s.ServiceOrientation + s.Discipline + s.ProblemSolving + s.StressTolerance
}

// Add returns the dimension-wise sum of s and o
func (s LegacyScores) Add(o LegacyScores) LegacyScores {
	return LegacyScores{
		Integrity:          s.Integrity + o.Integrity,
		Teamwork:           s.Teamwork + o.Teamwork,
		ServiceOrientation: s.ServiceOrientation + o.ServiceOrientation,
		Discipline:         s.Discipline + o.Discipline,
		ProblemSolving:     s.ProblemSolving + o.ProblemSolving,
		StressTolerance:    s.StressTolerance + o.StressTolerance,
	}
}

// CurrentScores is the v2 four-dimension score shape
type CurrentScores struct {
	IntegrityAndHonesty       int `json:"integrity_and_honesty"`
	ProblemSolvingUnderStress int `json:"problem_solving_under_stress"`
	EffectiveCommunication    int `json:"effective_communication"`
	Discipline                int `json:"discipline"`
}

// Sum returns the total across all four dimensions
func (s CurrentScores) Sum() int {
	return s.IntegrityAndHonesty + s.ProblemSolvingUnderStress + s.EffectiveCommunication + s.Discipline
}

// Add returns the dimension-wise sum of s and o
func (s CurrentScores) Add(o CurrentScores) CurrentScores {
	return CurrentScores{
		IntegrityAndHonesty:       s.IntegrityAndHonesty + o.IntegrityAndHonesty,
		ProblemSolvingUnderStress: s.ProblemSolvingUnderStress + o.ProblemSolvingUnderStress,
		EffectiveCommunication:    s.EffectiveCommunication + o.EffectiveCommunication,
		Discipline:                s.Discipline + o.Discipline,
	}
}

// ScoreVector is the score table of one option. Version selects which of
// Legacy or Current holds the values; the other one stays zero.
type ScoreVector struct {
	Version SchemaVersion
	Legacy  LegacyScores
	Current CurrentScores
}

// NewLegacyVector tags s as a v1 vector
func NewLegacyVector(s LegacyScores) ScoreVector {
	return ScoreVector{Version: SchemaV1, Legacy: s}
}

// NewCurrentVector tags s as a v2 vector
func NewCurrentVector(s CurrentScores) ScoreVector {
	return ScoreVector{Version: SchemaV2, Current: s}
}

// Sum returns the total of the tagged variant
func (v ScoreVector) Sum() int {
	if v.Version == SchemaV2 {
		return v.Current.Sum()
	}
	return v.Legacy.Sum()
}

// AsLegacy reads the vector through v1 field names. A v2 vector only carries
// discipline across, the one dimension both shapes share.
func (v ScoreVector) AsLegacy() LegacyScores {
	if v.Version == SchemaV2 {
		return LegacyScores{Discipline: v.Current.Discipline}
	}
	return v.Legacy
}

// AsCurrent reads the vector through v2 field names
func (v ScoreVector) AsCurrent() CurrentScores {
	if v.Version == SchemaV2 {
		return v.Current
	}
	return CurrentScores{Discipline: v.Legacy.Discipline}
}

// MarshalJSON writes the flat field set of the tagged variant
func (v ScoreVector) MarshalJSON() ([]byte, error) {
	if v.Version == SchemaV2 {
		return json.Marshal(v.Current)
	}
	return json.Marshal(v.Legacy)
}

// UnmarshalJSON infers the variant from a non-null integrity_and_honesty key
func (v *ScoreVector) UnmarshalJSON(data []byte) error {
	var fields map[string]*int
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*v = VectorFromFields("", fields)
	return nil
}

// VectorFromFields builds a vector from named score fields. An empty version
// is inferred from whether the v2 field set is present and non-null; missing
// or null fields count as zero.
func VectorFromFields(version SchemaVersion, fields map[string]*int) ScoreVector {
	if !version.Valid() {
		version = SchemaV1
		if fields[FieldIntegrityAndHonesty] != nil {
			version = SchemaV2
		}
	}
	get := func(name string) int {
		if p := fields[name]; p != nil {
			return *p
		}
		return 0
	}
	if version == SchemaV2 {
		return NewCurrentVector(CurrentScores{
			IntegrityAndHonesty:       get(FieldIntegrityAndHonesty),
			ProblemSolvingUnderStress: get(FieldProblemSolvingUnderStress),
			EffectiveCommunication:    get(FieldEffectiveCommunication),
			Discipline:                get(FieldDiscipline),
		})
	}
	return NewLegacyVector(LegacyScores{
		Integrity:          get(FieldIntegrity),
		Teamwork:           get(FieldTeamwork),
		ServiceOrientation: get(FieldServiceOrientation),
		Discipline:         get(FieldDiscipline),
		ProblemSolving:     get(FieldProblemSolving),
		StressTolerance:    get(FieldStressTolerance),
	})
}

// TotalScores is the aggregated outcome of one scoring pass
type TotalScores struct {
	ScoreVector
	// CategoryTotals is only populated for v2
	CategoryTotals map[string]int
	Total          int
}

type legacyTotalsJSON struct {
	LegacyScores
	Total int `json:"total"`
}

type currentTotalsJSON struct {
	CurrentScores
	CategoryTotals map[string]int `json:"category_totals"`
	Total          int            `json:"total"`
}

// MarshalJSON writes dimension totals, category totals (v2 only) and total
func (t TotalScores) MarshalJSON() ([]byte, error) {
	if t.Version == SchemaV2 {
		categories := t.CategoryTotals
		if categories == nil {
			categories = map[string]int{}
		}
		return json.Marshal(currentTotalsJSON{CurrentScores: t.Current, CategoryTotals: categories, Total: t.Total})
	}
	return json.Marshal(legacyTotalsJSON{LegacyScores: t.Legacy, Total: t.Total})
}

// UnmarshalJSON accepts either shape, inferring the variant like ScoreVector
func (t *TotalScores) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if raw, ok := probe[FieldIntegrityAndHonesty]; ok && string(raw) != "null" {
		var c currentTotalsJSON
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		*t = TotalScores{ScoreVector: NewCurrentVector(c.CurrentScores), CategoryTotals: c.CategoryTotals, Total: c.Total}
		return nil
	}
	var l legacyTotalsJSON
	if err := json.Unmarshal(data, &l); err != nil {
		return err
	}
	*t = TotalScores{ScoreVector: NewLegacyVector(l.LegacyScores), Total: l.Total}
	return nil
}
