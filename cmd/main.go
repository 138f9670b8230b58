package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/admetrics/internal/adapters/http/api"
	"github.com/okian/admetrics/internal/adapters/http/site"
	"github.com/okian/admetrics/internal/adapters/http/swagger"
	"github.com/okian/admetrics/internal/adapters/postgres"
	"github.com/okian/admetrics/internal/adapters/repository"
	app "github.com/okian/admetrics/internal/app"
	"github.com/okian/admetrics/internal/config"
	"github.com/okian/admetrics/pkg/logger"
	"github.com/okian/admetrics/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 30 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		// logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := initLogging(cfg); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "admetrics exited", logger.Error(err))
		os.Exit(1)
	}
}

func initLogging(cfg *config.Config) error {
	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		return err
	}
	return logger.SetLevelString(cfg.LogLevel)
}

// run starts the service and HTTP server and blocks until ctx is cancelled
// or the server fails.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	store, err := openHistoryStore(ctx, cfg)
	if err != nil {
		return err
	}

	opts := append(app.OptionsFromConfig(cfg), app.WithLogger(log.Named("service")), app.WithHistoryStore(store))
	svc, err := app.New(opts...)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("build service: %w", err)
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	if cfg.HistoryFile != "" {
		if _, err := svc.LoadHistory(ctx, cfg.HistoryFile); err != nil {
			_ = svc.Stop(context.Background())
			return fmt.Errorf("preload history: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
		if err := svc.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("service stop: %w", err))
		}
		log.Info(context.Background(), "server stopped")
		return errors.Join(errs...)
	})
	return g.Wait()
}

// openHistoryStore picks the configured history backend.
func openHistoryStore(ctx context.Context, cfg *config.Config) (repository.HistoryStore, error) {
	switch cfg.HistoryBackend {
	case config.BackendPostgres:
		store, err := postgres.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		logger.Get().Info(ctx, "using postgres history store")
		return store, nil
	default:
		logger.Get().Info(ctx, "using in-memory history store")
		return repository.NewMemoryStore(ctx), nil
	}
}

// newHandler mounts the docs, landing page and business API on one mux.
func newHandler(ctx context.Context, svc *app.Service) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)
	api.NewServer(svc).Register(ctx, mux)
	return mux
}

func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}
