package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"gsjt/internal/model"
	"gsjt/internal/repository"
	"gsjt/internal/scoring"
)

// memResults is an in-memory ResultRepo. Records are copied in and out so
// tests observe only what was persisted.
type memResults struct {
	mu      sync.Mutex
	records map[string]*model.CandidateResult
	failGet error
	creates int
	updates int
}

func newMemResults() *memResults {
	return &memResults{records: map[string]*model.CandidateResult{}}
}

func cloneResult(r *model.CandidateResult) *model.CandidateResult {
	c := *r
	c.Answers = append([]model.Answer(nil), r.Answers...)
	if c.Answers == nil {
		c.Answers = []model.Answer{}
	}
	if r.TotalScores != nil {
		t := *r.TotalScores
		c.TotalScores = &t
	}
	return &c
}

func (m *memResults) Create(_ context.Context, r *model.CandidateResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.CandidateID]; ok {
		return repository.ErrDuplicate
	}
	m.creates++
	m.records[r.CandidateID] = cloneResult(r)
	return nil
}

func (m *memResults) GetByCandidateID(_ context.Context, id string) (*model.CandidateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return nil, m.failGet
	}
	r, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return cloneResult(r), nil
}

func (m *memResults) Update(_ context.Context, r *model.CandidateResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.CandidateID]; !ok {
		return repository.ErrNotFound
	}
	m.updates++
	m.records[r.CandidateID] = cloneResult(r)
	return nil
}

func (m *memResults) List(_ context.Context) ([]*model.CandidateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.CandidateResult, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, cloneResult(r))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.CompletedAt == nil) != (b.CompletedAt == nil) {
			return a.CompletedAt != nil
		}
		if a.CompletedAt != nil && !a.CompletedAt.Equal(*b.CompletedAt) {
			return a.CompletedAt.After(*b.CompletedAt)
		}
		return a.StartedAt.After(*b.StartedAt)
	})
	return out, nil
}

func (m *memResults) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[id]
	delete(m.records, id)
	return ok, nil
}

func (m *memResults) Latest(ctx context.Context) (*model.CandidateResult, error) {
	all, _ := m.List(ctx)
	if len(all) == 0 || all[0].CompletedAt == nil {
		return nil, nil
	}
	return all[0], nil
}

// memScenarios is an in-memory ScenarioRepo
type memScenarios struct {
	mu        sync.Mutex
	scenarios map[string]*model.Scenario
	lists     int
}

func newMemScenarios(list ...*model.Scenario) *memScenarios {
	m := &memScenarios{scenarios: map[string]*model.Scenario{}}
	for _, s := range list {
		m.scenarios[s.ScenarioID] = s
	}
	return m
}

func (m *memScenarios) List(_ context.Context) ([]*model.Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	out := make([]*model.Scenario, 0, len(m.scenarios))
	for _, s := range m.scenarios {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScenarioID < out[j].ScenarioID })
	return out, nil
}

func (m *memScenarios) GetByID(_ context.Context, id string) (*model.Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scenarios[id], nil
}

func (m *memScenarios) Upsert(_ context.Context, s *model.Scenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[s.ScenarioID] = s
	return nil
}

func (m *memScenarios) Delete(_ context.Context, ids []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.scenarios[id]; ok {
			delete(m.scenarios, id)
			n++
		}
	}
	return n, nil
}

func (m *memScenarios) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.scenarios)), nil
}

// memCatalogCache is an in-memory CatalogCache
type memCatalogCache struct {
	scenarios   []*model.Scenario
	invalidated int
}

func (c *memCatalogCache) Get(context.Context) ([]*model.Scenario, error) {
	return c.scenarios, nil
}

func (c *memCatalogCache) Set(_ context.Context, s []*model.Scenario) error {
	c.scenarios = s
	return nil
}

func (c *memCatalogCache) Invalidate(context.Context) error {
	c.scenarios = nil
	c.invalidated++
	return nil
}

// memBoard is an in-memory RatingBoard
type memBoard struct {
	scores map[string]int
}

func newMemBoard() *memBoard {
	return &memBoard{scores: map[string]int{}}
}

func (b *memBoard) Record(_ context.Context, id string, total int) error {
	b.scores[id] = total
	return nil
}

func (b *memBoard) Remove(_ context.Context, id string) error {
	delete(b.scores, id)
	return nil
}

func (b *memBoard) Top(_ context.Context, limit int) ([]model.BoardEntry, error) {
	entries := []model.BoardEntry{}
	for id, total := range b.scores {
		entries = append(entries, model.BoardEntry{CandidateID: id, Total: total})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Total > entries[j].Total })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (b *memBoard) Rank(context.Context, string) (int64, error) {
	return 0, nil
}

// recorder captures published admin events
type recorder struct {
	events []string
}

func (r *recorder) Publish(event string, _ interface{}) {
	r.events = append(r.events, event)
}

// staticCatalog serves a fixed catalog
type staticCatalog struct {
	catalog *scoring.Catalog
	err     error
}

func (s staticCatalog) Catalog(context.Context) (*scoring.Catalog, error) {
	return s.catalog, s.err
}

// fakeClock advances by step on each call
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func currentOption(id string, ih, ps, ec, d int) model.Option {
	return model.Option{
		OptionID: id,
		Scores: model.NewCurrentVector(model.CurrentScores{
			IntegrityAndHonesty:       ih,
			ProblemSolvingUnderStress: ps,
			EffectiveCommunication:    ec,
			Discipline:                d,
		}),
	}
}

func exampleScenarios() []*model.Scenario {
	return []*model.Scenario{
		{ScenarioID: "SCENARIO_A001", Category: "A", Options: []model.Option{
			currentOption("A", 3, 2, 1, 0),
			currentOption("B", 0, 0, 0, 0),
		}},
		{ScenarioID: "SCENARIO_B002", Category: "B", Options: []model.Option{
			currentOption("A", 0, 0, 0, 3),
		}},
		{ScenarioID: "SCENARIO_C003", Category: "C", Options: []model.Option{
			currentOption("A", 1, 1, 1, 1),
		}},
	}
}
