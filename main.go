package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"

	"recipes_backend/auth"
	"recipes_backend/config"
	"recipes_backend/handlers"
	"recipes_backend/logging"
	"recipes_backend/metrics"
	"recipes_backend/services"
	"recipes_backend/store"
)

const name = "recipes"

// overridden during build with ldflags
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:    name,
		Usage:   "Recipe and saved-recipe JSON API",
		Version: version,
		Flags:   config.Flags(),
		Action:  serve,
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg := config.FromCommand(cmd)
	logger := logging.SetDefault(name, version, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	authService := auth.NewService(st.Users(), cfg.JWTSecret, cfg.BcryptCost)
	recipes := services.NewRecipeService(st.Recipes(), m)

	router := handlers.NewRouter(handlers.Options{
		Recipes:        recipes,
		Saved:          services.NewSavedRecipeService(st.Users(), st.Recipes(), m),
		Auth:           authService,
		Metrics:        m,
		Gatherer:       prometheus.DefaultGatherer,
		Logger:         logger,
		Limiter:        rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
		AllowedOrigins: cfg.AllowedOrigins,
		ImageHeight:    uint(cfg.ImageHeight),
		HTTPClient:     &http.Client{Timeout: 15 * time.Second},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server", "timeout", cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store {
	case config.StoreFirestore:
		s, err := store.NewFirestore(ctx, cfg.ProjectID, cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("open firestore: %w", err)
		}
		return s, nil
	case config.StoreSQLite:
		s, err := store.OpenSQLite(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
