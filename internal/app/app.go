// Package app builds the stores and services described by a Config.
package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"gsjt/internal/cache"
	"gsjt/internal/config"
	"gsjt/internal/logger"
	"gsjt/internal/metrics"
	"gsjt/internal/repository"
	"gsjt/internal/scoring"
	"gsjt/internal/service"
	"gsjt/internal/transport/rest"
	"gsjt/internal/transport/ws"
)

type App struct {
	Config *config.Config

	ScenarioRepo repository.ScenarioRepo
	ResultRepo   repository.ResultRepo

	CatalogService *service.CatalogService
	AssessService  *service.AssessmentService
	ImportService  *service.ImportService
	AuthService    *service.AuthService

	WSHub    *ws.Hub
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry

	mongoDB *mongo.Database
	sqlDB   *sql.DB
	redis   *redis.Client
}

// New connects the configured stores and wires every service
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}
	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	mode, err := scoring.ParseVariantMode(cfg.Scoring.VariantMode)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	ids, err := service.NewIDGenerator(cfg.Scoring.TestIDFormat, time.Now)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.AuthService, err = service.NewAuthService(cfg.Auth)
	if err != nil {
		a.Close(ctx)
		return nil, errors.Wrap(err, "admin credentials")
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.Registry)

	a.CatalogService = service.NewCatalogService(a.ScenarioRepo)
	a.ImportService = service.NewImportService(a.ScenarioRepo, a.CatalogService)
	a.AssessService = service.NewAssessmentService(a.ResultRepo, a.CatalogService, ids, mode)
	a.AssessService.SetMetrics(a.Metrics)

	if cfg.Redis.Enabled() {
		a.redis, err = cache.Connect(ctx, cfg.Redis.URI)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		logger.Info("Connected to Redis")
		a.CatalogService.SetCache(cache.NewCatalogCache(a.redis, cfg.Redis.CatalogTTL))
		a.AssessService.SetRatingBoard(cache.NewRatingBoard(a.redis))
	}

	a.WSHub = ws.NewHub()
	a.AssessService.SetBroadcaster(a.WSHub)

	logger.Info("Scoring: variant mode %s, test ids %s", mode, cfg.Scoring.TestIDFormat)
	if !a.AuthService.Enabled() {
		logger.Warn("ADMIN_PASSWORD not set, admin routes are unauthenticated")
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.Config.Store.Driver {
	case "postgres":
		db, err := repository.OpenPostgres(ctx, a.Config.Store.PostgresURL)
		if err != nil {
			return err
		}
		logger.Info("Connected to PostgreSQL")
		a.sqlDB = db
		a.ScenarioRepo = repository.NewPostgresScenarioRepo(db)
		a.ResultRepo = repository.NewPostgresResultRepo(db)
	case "memory":
		logger.Warn("Using in-memory store; data is lost on exit")
		a.ScenarioRepo = repository.NewMemoryScenarioRepo()
		a.ResultRepo = repository.NewMemoryResultRepo()
	default:
		db, err := repository.OpenMongo(ctx, a.Config.Store.MongoURI, a.Config.Store.MongoDatabase)
		if err != nil {
			return err
		}
		logger.Info("Connected to MongoDB (%s)", a.Config.Store.MongoDatabase)
		a.mongoDB = db
		a.ScenarioRepo = repository.NewScenarioRepo(db)
		a.ResultRepo = repository.NewResultRepo(db)
	}
	return nil
}

// Migrate applies the postgres schema or ensures the mongo indexes
func (a *App) Migrate(ctx context.Context) error {
	switch {
	case a.sqlDB != nil:
		return repository.Migrate(ctx, a.sqlDB)
	case a.mongoDB != nil:
		return repository.EnsureIndexes(ctx, a.mongoDB)
	default:
		return nil
	}
}

// Router builds the HTTP handler
func (a *App) Router() http.Handler {
	return rest.NewRouter(&rest.Container{
		Config:         a.Config,
		CatalogService: a.CatalogService,
		AssessService:  a.AssessService,
		AuthService:    a.AuthService,
		WSHub:          a.WSHub,
		Metrics:        a.Metrics,
		Gatherer:       a.Registry,
	})
}

// Close releases every connection; it is safe on a partially built App
func (a *App) Close(ctx context.Context) {
	if a.WSHub != nil {
		a.WSHub.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Warn("close redis: %v", err)
		}
	}
	if a.sqlDB != nil {
		if err := a.sqlDB.Close(); err != nil {
			logger.Warn("close postgres: %v", err)
		}
	}
	if a.mongoDB != nil {
		if err := a.mongoDB.Client().Disconnect(ctx); err != nil {
			logger.Warn("close mongodb: %v", err)
		}
	}
}
