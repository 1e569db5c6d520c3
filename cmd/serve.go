// ABOUTME: Serve command running the capacity planner HTTP API
// ABOUTME: Wires configuration, scenario store, result cache and metrics into the handlers

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/obgclub/capacity-planner/cache"
	"github.com/obgclub/capacity-planner/config"
	"github.com/obgclub/capacity-planner/handlers"
	"github.com/obgclub/capacity-planner/logger"
	"github.com/obgclub/capacity-planner/metrics"
	"github.com/obgclub/capacity-planner/store"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the capacity planner HTTP API.

Configuration comes from the environment (and an optional .env file):
  PORT, CACHE_TTL, CORS_ALLOWED_ORIGINS, SCENARIO_FILE, SCENARIO_DIR, DATABASE_URL,
  REDIS_URL, SOLVER_TIMEOUT_MS, SWEEP_WORKERS, MAX_CANDIDATES, METRICS_ENABLED,
  RATE_LIMIT_ENABLED, RATE_LIMIT_WRITE, RATE_LIMIT_DEFAULT`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		logger.Init()
		if err := runServe(ctx); err != nil {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if scenarioPath != "" {
		cfg.ScenarioFile = scenarioPath
	}

	slog.Info("Starting capacity planner")

	scenario, err := config.LoadScenario(cfg.ScenarioFile)
	if err != nil {
		return err
	}
	slog.Info("Scenario loaded", "name", scenario.Name, "fingerprint", scenario.Fingerprint())

	resultCache, err := openCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer resultCache.Close()

	scenarios, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer scenarios.Close()

	opts := []handlers.Option{handlers.WithCache(resultCache), handlers.WithStore(scenarios)}
	if cfg.MetricsEnabled {
		opts = append(opts, handlers.WithMetrics(metrics.New()))
		slog.Info("Metrics enabled", "path", "/metrics")
	}
	h := handlers.NewHandler(cfg, scenario, opts...)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.NewMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type closingCache interface {
	cache.Store
	io.Closer
}

// openCache returns Redis when REDIS_URL is set, otherwise the in-memory cache.
func openCache(ctx context.Context, cfg *config.Config) (closingCache, error) {
	ttl := time.Duration(cfg.CacheTTL) * time.Second
	if cfg.RedisURL == "" {
		slog.Info("Cache initialized", "backend", "memory", "ttl", ttl)
		return cache.New(ttl), nil
	}
	r, err := cache.NewRedis(ctx, cfg.RedisURL, ttl, "capacity")
	if err != nil {
		return nil, fmt.Errorf("opening redis cache: %w", err)
	}
	return r, nil
}

// openStore returns Postgres when DATABASE_URL is set, otherwise a file store.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseURL != "" {
		p, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		slog.Info("Scenario store initialized", "backend", "postgres")
		return p, nil
	}
	fs, err := store.NewFileStore(cfg.ScenarioDir)
	if err != nil {
		return nil, fmt.Errorf("opening file store: %w", err)
	}
	slog.Info("Scenario store initialized", "backend", "file", "dir", cfg.ScenarioDir)
	return fs, nil
}
