package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gsjt/internal/app"
	"gsjt/internal/logger"
)

const shutdownTimeout = 30 * time.Second

//nolint:gochecknoglobals // Cobra boilerplate
var serveSkipMigrate bool

//nolint:gochecknoglobals // Cobra boilerplate
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Runs the HTTP API until SIGINT or SIGTERM.

On startup the store schema is migrated and, when SEED_FILE is set and the
catalog is empty, the seed file is imported.`,
	RunE: runServe,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveSkipMigrate, "skip-migrate", false, "do not migrate the store on startup")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return withApp(ctx, func(a *app.App) error {
		if !serveSkipMigrate {
			if err := a.Migrate(ctx); err != nil {
				return errors.Wrap(err, "migrate")
			}
		}
		seed(ctx, a)
		return serve(ctx, a)
	})
}

// seed imports SEED_FILE into an empty catalog; failures are logged only
func seed(ctx context.Context, a *app.App) {
	path := a.Config.SeedFile
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		logger.Warn("seed file %s not readable: %v", path, err)
		return
	}
	ran, err := a.ImportService.SeedIfEmpty(ctx, path)
	if err != nil {
		logger.Error("seed import failed: %v", err)
		return
	}
	if ran {
		logger.Info("Seeded catalog from %s", path)
	}
}

func serve(ctx context.Context, a *app.App) error {
	srv := &http.Server{
		Addr:              a.Config.HTTP.Addr(),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting on %s", srv.Addr)
		logger.Info("Endpoints:")
		logger.Info("  GET  /api/scenarios, /api/scenarios/{id}")
		logger.Info("  POST /api/candidates/{id}/start, /api/candidates/{id}/answer")
		logger.Info("  POST /api/results/submit")
		logger.Info("  GET  /api/results/{candidate_id}")
		logger.Info("  GET/DELETE /api/results (admin)")
		logger.Info("  WS   /api/ws/admin (admin)")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "server forced to shutdown")
		}
		logger.Info("Server exited")
		return nil
	})
	return g.Wait()
}
