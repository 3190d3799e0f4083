package service

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"gsjt/internal/cache"
	"gsjt/internal/logger"
	"gsjt/internal/model"
	"gsjt/internal/repository"
	"gsjt/internal/scoring"
)

var tracer = otel.Tracer("gsjt/internal/service")

// CatalogSource supplies the scenario catalog used for scoring
type CatalogSource interface {
	Catalog(ctx context.Context) (*scoring.Catalog, error)
}

// CatalogService serves scenarios, reading through an optional cache
type CatalogService struct {
	repo  repository.ScenarioRepo
	cache cache.CatalogCache
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo repository.ScenarioRepo) *CatalogService {
	return &CatalogService{repo: repo}
}

// SetCache enables the Redis catalog cache
func (s *CatalogService) SetCache(c cache.CatalogCache) {
	s.cache = c
}

// List returns every scenario with its options, ordered by scenario id.
// Cache failures fall back to the repository.
func (s *CatalogService) List(ctx context.Context) ([]*model.Scenario, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			logger.Warn("catalog cache read failed: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	scenarios, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list scenarios")
	}

	if s.cache != nil && len(scenarios) > 0 {
		if err := s.cache.Set(ctx, scenarios); err != nil {
			logger.Warn("catalog cache write failed: %v", err)
		}
	}
	return scenarios, nil
}

// Get returns one scenario or ErrScenarioNotFound
func (s *CatalogService) Get(ctx context.Context, id string) (*model.Scenario, error) {
	scenario, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get scenario %s", id)
	}
	if scenario == nil {
		return nil, ErrScenarioNotFound
	}
	return scenario, nil
}

// Catalog assembles the scoring catalog
func (s *CatalogService) Catalog(ctx context.Context) (*scoring.Catalog, error) {
	ctx, span := tracer.Start(ctx, "catalog.load")
	defer span.End()

	scenarios, err := s.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load catalog")
		return nil, err
	}
	c := scoring.NewCatalog(scenarios)
	span.SetAttributes(attribute.Int("catalog.scenarios", c.Len()))
	return c, nil
}

// Count returns the number of stored scenarios
func (s *CatalogService) Count(ctx context.Context) (int64, error) {
	n, err := s.repo.Count(ctx)
	return n, errors.Wrap(err, "count scenarios")
}

// Invalidate drops the cached catalog, if any
func (s *CatalogService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.Warn("catalog cache invalidate failed: %v", err)
	}
}
