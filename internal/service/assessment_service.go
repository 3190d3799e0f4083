package service

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gsjt/internal/cache"
	"gsjt/internal/logger"
	"gsjt/internal/metrics"
	"gsjt/internal/model"
	"gsjt/internal/repository"
	"gsjt/internal/scoring"
)

// AssessmentService runs the candidate lifecycle: start, incremental
// answers, final submission and result administration
type AssessmentService struct {
	results     repository.ResultRepo
	catalog     CatalogSource
	ids         IDGenerator
	mode        scoring.VariantMode
	now         func() time.Time
	board       cache.RatingBoard
	broadcaster Broadcaster
	metrics     *metrics.Metrics
}

// NewAssessmentService creates a new assessment service
func NewAssessmentService(
	results repository.ResultRepo,
	catalog CatalogSource,
	ids IDGenerator,
	mode scoring.VariantMode,
) *AssessmentService {
	return &AssessmentService{
		results: results,
		catalog: catalog,
		ids:     ids,
		mode:    mode,
		now:     time.Now,
	}
}

// SetClock replaces the wall clock
func (s *AssessmentService) SetClock(now func() time.Time) {
	s.now = now
}

// SetRatingBoard enables the Redis leaderboard
func (s *AssessmentService) SetRatingBoard(b cache.RatingBoard) {
	s.board = b
}

// SetBroadcaster sets the broadcaster for admin feed events
func (s *AssessmentService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetMetrics sets the prometheus collectors
func (s *AssessmentService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

func (s *AssessmentService) timestamp() time.Time {
	return s.now().UTC()
}

func (s *AssessmentService) publish(event string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.Publish(event, payload)
	}
}

func (s *AssessmentService) newRecord(candidateID string, now time.Time) *model.CandidateResult {
	return &model.CandidateResult{
		CandidateID: candidateID,
		TestID:      s.ids.NewTestID(),
		Status:      model.ResultStatusInProgress,
		StartedAt:   &now,
		Answers:     []model.Answer{},
	}
}

// reload fetches a record that a concurrent request created first
func (s *AssessmentService) reload(ctx context.Context, candidateID string) (*model.CandidateResult, error) {
	record, err := s.results.GetByCandidateID(ctx, candidateID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reload result")
	}
	if record == nil {
		return nil, errors.Wrapf(repository.ErrNotFound, "reload result %s", candidateID)
	}
	return record, nil
}

// restart resets a record for a new attempt. completed_at, scores and
// rating of a previous completion are kept.
func restart(r *model.CandidateResult, now time.Time) {
	if r.StartedAt == nil {
		r.StartedAt = &now
	}
	r.Answers = []model.Answer{}
	r.Status = model.ResultStatusInProgress
}

// Start creates the candidate's record or resets an existing one
func (s *AssessmentService) Start(ctx context.Context, candidateID string) (*model.StartResponse, error) {
	if candidateID == "" {
		return nil, ErrMissingCandidateID
	}
	now := s.timestamp()

	existing, err := s.results.GetByCandidateID(ctx, candidateID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get result")
	}

	var record *model.CandidateResult
	if existing == nil {
		record = s.newRecord(candidateID, now)
		err = s.results.Create(ctx, record)
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with a concurrent start; reset the winner's record.
			if record, err = s.reload(ctx, candidateID); err != nil {
				return nil, err
			}
			restart(record, now)
			err = s.results.Update(ctx, record)
		}
	} else {
		record = existing
		restart(record, now)
		err = s.results.Update(ctx, record)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to save result")
	}

	s.publish(EventResultStarted, record)
	return &model.StartResponse{
		Success:     true,
		TestID:      record.TestID,
		CandidateID: candidateID,
	}, nil
}

// SaveAnswer records one answer, replacing any earlier answer to the same scenario
func (s *AssessmentService) SaveAnswer(ctx context.Context, candidateID, scenarioID, optionID string) error {
	if candidateID == "" {
		return ErrMissingCandidateID
	}
	if scenarioID == "" || optionID == "" {
		return ErrMissingAnswerFields
	}
	now := s.timestamp()
	answer := model.Answer{ScenarioID: scenarioID, OptionID: optionID, Timestamp: now}

	record, err := s.results.GetByCandidateID(ctx, candidateID)
	if err != nil {
		return errors.Wrap(err, "failed to get result")
	}

	if record == nil {
		record = s.newRecord(candidateID, now)
		record.UpsertAnswer(answer)
		err = s.results.Create(ctx, record)
		if !errors.Is(err, repository.ErrDuplicate) {
			if err != nil {
				return errors.Wrap(err, "failed to create result")
			}
			s.metrics.ObserveAnswerSaved()
			return nil
		}
		if record, err = s.reload(ctx, candidateID); err != nil {
			return err
		}
	}

	record.UpsertAnswer(answer)
	if err := s.results.Update(ctx, record); err != nil {
		return errors.Wrap(err, "failed to save answer")
	}
	s.metrics.ObserveAnswerSaved()
	return nil
}

// Submit scores the final answer set and stores the completed result
func (s *AssessmentService) Submit(ctx context.Context, candidateID string, answers []model.Answer) (*model.SubmitResponse, error) {
	if candidateID == "" {
		return nil, ErrMissingCandidateID
	}
	if len(answers) == 0 {
		return nil, ErrMissingAnswers
	}

	ctx, span := tracer.Start(ctx, "assessment.submit", trace.WithAttributes(
		attribute.String("candidate.id", candidateID),
		attribute.Int("answers", len(answers)),
	))
	defer span.End()

	began := time.Now()
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "catalog")
		return nil, errors.Wrap(err, "failed to load catalog")
	}

	scored, err := scoring.Score(answers, catalog, s.mode)
	if err != nil {
		logger.Error("scoring %s failed: %v", candidateID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring")
		return nil, err
	}
	if scored.Unresolved > 0 {
		logger.Warn("%d of %d answers from %s reference unknown scenarios or options",
			scored.Unresolved, len(answers), candidateID)
	}
	span.SetAttributes(
		attribute.String("schema", string(scored.Scores.Version)),
		attribute.Int("total", scored.Scores.Total),
		attribute.String("rating", string(scored.Rating)),
	)

	now := s.timestamp()
	totals := scored.Scores
	stored := make([]model.Answer, len(answers))
	copy(stored, answers)

	record, err := s.results.GetByCandidateID(ctx, candidateID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get result")
	}
	if record == nil {
		record = &model.CandidateResult{
			CandidateID: candidateID,
			TestID:      s.ids.NewTestID(),
			StartedAt:   &now,
		}
		s.complete(record, stored, &totals, scored.Rating, now)
		err = s.results.Create(ctx, record)
		if errors.Is(err, repository.ErrDuplicate) {
			if record, err = s.reload(ctx, candidateID); err != nil {
				return nil, err
			}
			s.complete(record, stored, &totals, scored.Rating, now)
			err = s.results.Update(ctx, record)
		}
	} else {
		s.complete(record, stored, &totals, scored.Rating, now)
		err = s.results.Update(ctx, record)
	}
	if err != nil {
		span.SetStatus(codes.Error, "store")
		return nil, errors.Wrap(err, "failed to save result")
	}

	s.metrics.ObserveSubmission(scored.Rating, scored.Scores.Version, scored.Unresolved, time.Since(began))
	if s.board != nil {
		if err := s.board.Record(ctx, candidateID, totals.Total); err != nil {
			logger.Warn("leaderboard update for %s failed: %v", candidateID, err)
		}
	}
	s.publish(EventResultCompleted, record)
	logger.Info("result %s: total=%d rating=%s", candidateID, totals.Total, scored.Rating)

	return &model.SubmitResponse{
		Success:     true,
		TestID:      record.TestID,
		TotalScores: &totals,
		Rating:      scored.Rating,
	}, nil
}

// complete applies a scored submission; test_id and started_at are kept
func (s *AssessmentService) complete(r *model.CandidateResult, answers []model.Answer, totals *model.TotalScores, rating model.Rating, now time.Time) {
	r.Answers = answers
	r.TotalScores = totals
	r.Rating = rating
	r.CompletedAt = &now
	r.Status = model.ResultStatusCompleted
	if r.StartedAt == nil {
		r.StartedAt = &now
	}
}

// Get returns one candidate's result
func (s *AssessmentService) Get(ctx context.Context, candidateID string) (*model.CandidateResult, error) {
	if candidateID == "" {
		return nil, ErrMissingCandidateID
	}
	record, err := s.results.GetByCandidateID(ctx, candidateID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get result")
	}
	if record == nil {
		return nil, ErrResultNotFound
	}
	return record, nil
}

// List returns all results, most recently completed first, unfinished last
func (s *AssessmentService) List(ctx context.Context) ([]*model.CandidateResult, error) {
	results, err := s.results.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list results")
	}
	return results, nil
}

// Delete removes a candidate's result
func (s *AssessmentService) Delete(ctx context.Context, candidateID string) error {
	if candidateID == "" {
		return ErrMissingCandidateID
	}
	removed, err := s.results.Delete(ctx, candidateID)
	if err != nil {
		return errors.Wrap(err, "failed to delete result")
	}
	if !removed {
		return ErrResultNotFound
	}
	if s.board != nil {
		if err := s.board.Remove(ctx, candidateID); err != nil {
			logger.Warn("leaderboard removal for %s failed: %v", candidateID, err)
		}
	}
	s.publish(EventResultDeleted, map[string]string{"candidate_id": candidateID})
	return nil
}

// Latest returns the most recently completed result
func (s *AssessmentService) Latest(ctx context.Context) (*model.CandidateResult, error) {
	record, err := s.results.Latest(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get latest result")
	}
	if record == nil {
		return nil, ErrResultNotFound
	}
	return record, nil
}

// Leaderboard returns the top completed candidates by total. Without a
// Redis board it is computed from stored results. A board holding fewer
// entries than the store is rebuilt from the store first.
func (s *AssessmentService) Leaderboard(ctx context.Context, limit int) ([]model.BoardEntry, error) {
	if limit <= 0 {
		return []model.BoardEntry{}, nil
	}

	var boarded []model.BoardEntry
	boardOK := false
	if s.board != nil {
		entries, err := s.board.Top(ctx, limit)
		if err != nil {
			logger.Warn("leaderboard read failed, falling back to store: %v", err)
		} else if len(entries) == limit {
			return entries, nil
		} else {
			boarded, boardOK = entries, true
		}
	}

	completed, err := s.completedEntries(ctx)
	if err != nil {
		return nil, err
	}
	if boardOK {
		if len(completed) <= len(boarded) {
			return boarded, nil
		}
		s.rebuildBoard(ctx, completed)
	}

	if len(completed) > limit {
		completed = completed[:limit]
	}
	for i := range completed {
		completed[i].Rank = i + 1
	}
	return completed, nil
}

// completedEntries ranks every completed result in the store by total desc,
// then candidate id desc
func (s *AssessmentService) completedEntries(ctx context.Context) ([]model.BoardEntry, error) {
	results, err := s.results.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list results")
	}
	entries := []model.BoardEntry{}
	for _, r := range results {
		if r.CompletedAt == nil || r.TotalScores == nil {
			continue
		}
		entries = append(entries, model.BoardEntry{CandidateID: r.CandidateID, Total: r.TotalScores.Total})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].CandidateID > entries[j].CandidateID
	})
	return entries, nil
}

func (s *AssessmentService) rebuildBoard(ctx context.Context, entries []model.BoardEntry) {
	logger.Info("rebuilding leaderboard from %d stored results", len(entries))
	for _, e := range entries {
		if err := s.board.Record(ctx, e.CandidateID, e.Total); err != nil {
			logger.Warn("leaderboard rebuild stopped at %s: %v", e.CandidateID, err)
			return
		}
	}
}
