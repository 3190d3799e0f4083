package repository

import (
	"sort"
	"time"

	"gsjt/internal/model"
)

// Mongo document shapes. Score fields are pointers so that a missing field
// stays distinguishable from zero; untagged legacy documents rely on that to
// infer their schema.

type scoresDoc struct {
	Integrity                 *int `bson:"integrity,omitempty"`
	Teamwork                  *int `bson:"teamwork,omitempty"`
	ServiceOrientation        *int `bson:"serviceOrientation,omitempty"`
	Discipline                *int `bson:"discipline,omitempty"`
	ProblemSolving            *int `bson:"problemSolving,omitempty"`
	StressTolerance           *int `bson:"stressTolerance,omitempty"`
	IntegrityAndHonesty       *int `bson:"integrityAndHonesty,omitempty"`
	ProblemSolvingUnderStress *int `bson:"problemSolvingUnderStress,omitempty"`
	EffectiveCommunication    *int `bson:"effectiveCommunication,omitempty"`
}

type optionDoc struct {
	OptionID       string    `bson:"optionId"`
	Text           string    `bson:"text"`
	TextZhHK       string    `bson:"textZhHk,omitempty"`
	NextScenarioID string    `bson:"nextScenarioId,omitempty"`
	SchemaVersion  string    `bson:"schemaVersion,omitempty"`
	Scores         scoresDoc `bson:"scores"`
}

type scenarioDoc struct {
	ID              string      `bson:"_id"`
	Title           string      `bson:"title"`
	TitleZhHK       string      `bson:"titleZhHk,omitempty"`
	Description     string      `bson:"description"`
	DescriptionZhHK string      `bson:"descriptionZhHk,omitempty"`
	IllustrationID  string      `bson:"illustrationId,omitempty"`
	CompetencyTags  []string    `bson:"competencyTags"`
	Category        string      `bson:"category,omitempty"`
	Options         []optionDoc `bson:"options"`
	UpdatedAt       time.Time   `bson:"updatedAt"`
}

type answerDoc struct {
	ScenarioID string    `bson:"scenarioId"`
	OptionID   string    `bson:"optionId"`
	Timestamp  time.Time `bson:"timestamp"`
}

type totalsDoc struct {
	SchemaVersion  string         `bson:"schemaVersion"`
	Dimensions     scoresDoc      `bson:"dimensions"`
	CategoryTotals map[string]int `bson:"categoryTotals,omitempty"`
	Total          int            `bson:"total"`
}

type resultDoc struct {
	CandidateID string      `bson:"_id"`
	TestID      string      `bson:"testId"`
	Status      string      `bson:"status"`
	StartedAt   *time.Time  `bson:"startedAt,omitempty"`
	CompletedAt *time.Time  `bson:"completedAt,omitempty"`
	Answers     []answerDoc `bson:"answers"`
	TotalScores *totalsDoc  `bson:"totalScores,omitempty"`
	Rating      string      `bson:"rating,omitempty"`
}

func intPtr(v int) *int { return &v }

func newScoresDoc(v model.ScoreVector) scoresDoc {
	if v.Version == model.SchemaV2 {
		c := v.Current
		return scoresDoc{
			IntegrityAndHonesty:       intPtr(c.IntegrityAndHonesty),
			ProblemSolvingUnderStress: intPtr(c.ProblemSolvingUnderStress),
			EffectiveCommunication:    intPtr(c.EffectiveCommunication),
			Discipline:                intPtr(c.Discipline),
		}
	}
	l := v.Legacy
	return scoresDoc{
		Integrity:          intPtr(l.Integrity),
		Teamwork:           intPtr(l.Teamwork),
		ServiceOrientation: intPtr(l.ServiceOrientation),
		Discipline:         intPtr(l.Discipline),
		ProblemSolving:     intPtr(l.ProblemSolving),
		StressTolerance:    intPtr(l.StressTolerance),
	}
}

func (d scoresDoc) fields() map[string]*int {
	return map[string]*int{
		model.FieldIntegrity:                 d.Integrity,
		model.FieldTeamwork:                  d.Teamwork,
		model.FieldServiceOrientation:        d.ServiceOrientation,
		model.FieldDiscipline:                d.Discipline,
		model.FieldProblemSolving:            d.ProblemSolving,
		model.FieldStressTolerance:           d.StressTolerance,
		model.FieldIntegrityAndHonesty:       d.IntegrityAndHonesty,
		model.FieldProblemSolvingUnderStress: d.ProblemSolvingUnderStress,
		model.FieldEffectiveCommunication:    d.EffectiveCommunication,
	}
}

// vector uses the stored tag, inferring it for documents written without one
func (d scoresDoc) vector(tag string) model.ScoreVector {
	return model.VectorFromFields(model.SchemaVersion(tag), d.fields())
}

func newScenarioDoc(s *model.Scenario, now time.Time) *scenarioDoc {
	doc := &scenarioDoc{
		ID:              s.ScenarioID,
		Title:           s.Title,
		TitleZhHK:       s.TitleZhHK,
		Description:     s.Description,
		DescriptionZhHK: s.DescriptionZhHK,
		IllustrationID:  s.IllustrationID,
		CompetencyTags:  s.CompetencyTags,
		Category:        s.Category,
		Options:         make([]optionDoc, 0, len(s.Options)),
		UpdatedAt:       now,
	}
	if doc.CompetencyTags == nil {
		doc.CompetencyTags = []string{}
	}
	for _, o := range s.Options {
		doc.Options = append(doc.Options, optionDoc{
			OptionID:       o.OptionID,
			Text:           o.Text,
			TextZhHK:       o.TextZhHK,
			NextScenarioID: o.NextScenarioID,
			SchemaVersion:  string(o.Scores.Version),
			Scores:         newScoresDoc(o.Scores),
		})
	}
	return doc
}

func (d *scenarioDoc) toModel() *model.Scenario {
	s := &model.Scenario{
		ScenarioID:      d.ID,
		Title:           d.Title,
		TitleZhHK:       d.TitleZhHK,
		Description:     d.Description,
		DescriptionZhHK: d.DescriptionZhHK,
		IllustrationID:  d.IllustrationID,
		CompetencyTags:  d.CompetencyTags,
		Category:        d.Category,
		Options:         make([]model.Option, 0, len(d.Options)),
	}
	if s.CompetencyTags == nil {
		s.CompetencyTags = []string{}
	}
	for _, o := range d.Options {
		s.Options = append(s.Options, model.Option{
			OptionID:       o.OptionID,
			Text:           o.Text,
			TextZhHK:       o.TextZhHK,
			NextScenarioID: o.NextScenarioID,
			Scores:         o.Scores.vector(o.SchemaVersion),
		})
	}
	sortOptions(s.Options)
	return s
}

func sortOptions(opts []model.Option) {
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].OptionID < opts[j].OptionID })
}

func newResultDoc(r *model.CandidateResult) *resultDoc {
	doc := &resultDoc{
		CandidateID: r.CandidateID,
		TestID:      r.TestID,
		Status:      string(r.Status),
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		Answers:     make([]answerDoc, 0, len(r.Answers)),
		Rating:      string(r.Rating),
	}
	for _, a := range r.Answers {
		doc.Answers = append(doc.Answers, answerDoc{ScenarioID: a.ScenarioID, OptionID: a.OptionID, Timestamp: a.Timestamp})
	}
	if t := r.TotalScores; t != nil {
		doc.TotalScores = &totalsDoc{
			SchemaVersion:  string(t.Version),
			Dimensions:     newScoresDoc(t.ScoreVector),
			CategoryTotals: t.CategoryTotals,
			Total:          t.Total,
		}
	}
	return doc
}

func (d *resultDoc) toModel() *model.CandidateResult {
	r := &model.CandidateResult{
		CandidateID: d.CandidateID,
		TestID:      d.TestID,
		Status:      model.ResultStatus(d.Status),
		StartedAt:   d.StartedAt,
		CompletedAt: d.CompletedAt,
		Answers:     make([]model.Answer, 0, len(d.Answers)),
		Rating:      model.Rating(d.Rating),
	}
	for _, a := range d.Answers {
		r.Answers = append(r.Answers, model.Answer{ScenarioID: a.ScenarioID, OptionID: a.OptionID, Timestamp: a.Timestamp})
	}
	if t := d.TotalScores; t != nil {
		r.TotalScores = &model.TotalScores{
			ScoreVector:    t.Dimensions.vector(t.SchemaVersion),
			CategoryTotals: t.CategoryTotals,
			Total:          t.Total,
		}
	}
	if r.Status == "" {
		r.Status = statusFor(r.CompletedAt)
	}
	return r
}

// statusFor fills the status of records written before it was stored
func statusFor(completedAt *time.Time) model.ResultStatus {
	if completedAt != nil {
		return model.ResultStatusCompleted
	}
	return model.ResultStatusInProgress
}
