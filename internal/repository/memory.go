package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"gsjt/internal/model"
)

// clone deep-copies v through its JSON form so callers never share state
// with the store
func clone(src, dst interface{}) error {
	data, err := json.Marshal(src)
	if err != nil {
		return errors.Wrap(err, "encode record")
	}
	return errors.Wrap(json.Unmarshal(data, dst), "decode record")
}

type memScenarioRepo struct {
	mu        sync.RWMutex
	scenarios map[string]*model.Scenario
}

// NewMemoryScenarioRepo creates a process-local scenario repository.
// Contents are lost on exit.
func NewMemoryScenarioRepo() ScenarioRepo {
	return &memScenarioRepo{scenarios: make(map[string]*model.Scenario)}
}

func (r *memScenarioRepo) List(_ context.Context) ([]*model.Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.scenarios))
	for id := range r.scenarios {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*model.Scenario, 0, len(ids))
	for _, id := range ids {
		var s model.Scenario
		if err := clone(r.scenarios[id], &s); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, nil
}

func (r *memScenarioRepo) GetByID(_ context.Context, id string) (*model.Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.scenarios[id]
	if !ok {
		return nil, nil
	}
	var s model.Scenario
	if err := clone(stored, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *memScenarioRepo) Upsert(_ context.Context, scenario *model.Scenario) error {
	var s model.Scenario
	if err := clone(scenario, &s); err != nil {
		return err
	}
	sort.Slice(s.Options, func(i, j int) bool { return s.Options[i].OptionID < s.Options[j].OptionID })
	if s.CompetencyTags == nil {
		s.CompetencyTags = []string{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenarios[s.ScenarioID] = &s
	return nil
}

func (r *memScenarioRepo) Delete(_ context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.scenarios[id]; ok {
			delete(r.scenarios, id)
			n++
		}
	}
	return n, nil
}

func (r *memScenarioRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.scenarios)), nil
}

type memResultRepo struct {
	mu      sync.RWMutex
	results map[string]*model.CandidateResult
}

// NewMemoryResultRepo creates a process-local result repository
func NewMemoryResultRepo() ResultRepo {
	return &memResultRepo{results: make(map[string]*model.CandidateResult)}
}

func (r *memResultRepo) put(result *model.CandidateResult) error {
	var c model.CandidateResult
	if err := clone(result, &c); err != nil {
		return err
	}
	if c.Answers == nil {
		c.Answers = []model.Answer{}
	}
	if c.Status == "" {
		c.Status = statusFor(c.CompletedAt)
	}
	r.results[c.CandidateID] = &c
	return nil
}

func (r *memResultRepo) get(id string) (*model.CandidateResult, error) {
	var c model.CandidateResult
	if err := clone(r.results[id], &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *memResultRepo) Create(_ context.Context, result *model.CandidateResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.results[result.CandidateID]; ok {
		return ErrDuplicate
	}
	return r.put(result)
}

func (r *memResultRepo) GetByCandidateID(_ context.Context, candidateID string) (*model.CandidateResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.results[candidateID]; !ok {
		return nil, nil
	}
	return r.get(candidateID)
}

func (r *memResultRepo) Update(_ context.Context, result *model.CandidateResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.results[result.CandidateID]; !ok {
		return ErrNotFound
	}
	return r.put(result)
}

// resultBefore orders by completed_at DESC NULLS LAST, then started_at DESC
func resultBefore(a, b *model.CandidateResult) bool {
	if (a.CompletedAt == nil) != (b.CompletedAt == nil) {
		return a.CompletedAt != nil
	}
	if a.CompletedAt != nil && !a.CompletedAt.Equal(*b.CompletedAt) {
		return a.CompletedAt.After(*b.CompletedAt)
	}
	if (a.StartedAt == nil) != (b.StartedAt == nil) {
		return a.StartedAt != nil
	}
	if a.StartedAt != nil && !a.StartedAt.Equal(*b.StartedAt) {
		return a.StartedAt.After(*b.StartedAt)
	}
	return a.CandidateID < b.CandidateID
}

func (r *memResultRepo) List(_ context.Context) ([]*model.CandidateResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.CandidateResult, 0, len(r.results))
	for id := range r.results {
		c, err := r.get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return resultBefore(out[i], out[j]) })
	return out, nil
}

func (r *memResultRepo) Delete(_ context.Context, candidateID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.results[candidateID]
	delete(r.results, candidateID)
	return ok, nil
}

func (r *memResultRepo) Latest(ctx context.Context) (*model.CandidateResult, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 || all[0].CompletedAt == nil {
		return nil, nil
	}
	return all[0], nil
}
