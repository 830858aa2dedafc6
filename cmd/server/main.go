package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/expense-tracker/internal/auth"
	"github.com/mmynk/expense-tracker/internal/config"
	"github.com/mmynk/expense-tracker/internal/docstore"
	"github.com/mmynk/expense-tracker/internal/repository"
	"github.com/mmynk/expense-tracker/internal/rpc"
	"github.com/mmynk/expense-tracker/internal/service"
	"github.com/mmynk/expense-tracker/internal/settlement"
	"github.com/mmynk/expense-tracker/internal/storage"
	"github.com/mmynk/expense-tracker/internal/storage/jsonfile"
	"github.com/mmynk/expense-tracker/internal/storage/sqlite"
	"github.com/mmynk/expense-tracker/pkg/logging"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := logging.Configure(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Auth.JWTSecret == config.DevelopmentSecret {
		slog.Warn("JWT_SECRET not set, using the development secret")
	}

	backend, err := openBackend(cfg.Storage)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}

	opts := []docstore.Option{docstore.WithLogger(logger)}
	if cfg.HTTP.MetricsEnabled {
		opts = append(opts, docstore.WithMetrics(docstore.NewMetrics(prometheus.DefaultRegisterer)))
	}
	store, err := docstore.Open(ctx, backend, opts...)
	if err != nil {
		backend.Close()
		return fmt.Errorf("open document store: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.Storage.Driver)

	repos := repository.New(store)
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiresIn)

	mux := http.NewServeMux()

	// Register Connect services
	rpc.Register(mux, rpc.Services{
		Auth:          service.NewAuthService(auth.NewPasswordAuthenticator(repos.Users), jwtManager, repos.Users, logger),
		Expenses:      service.NewExpenseService(repos, logger),
		Groups:        service.NewGroupService(repos, logger),
		GroupExpenses: service.NewGroupExpenseService(repos, settlement.NewEngine(repos), settlement.NewAggregator(repos), logger),
	}, jwtManager)

	if cfg.HTTP.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	staticDir, err := filepath.Abs(cfg.HTTP.StaticPath)
	if err != nil {
		return fmt.Errorf("resolve static path: %w", err)
	}
	slog.Info("Serving static files", "path", staticDir)
	mux.HandleFunc("/", staticHandler(staticDir))

	// Add logging and CORS middleware
	loggedHandler := loggingMiddleware(corsMiddleware(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	h2cHandler := h2c.NewHandler(loggedHandler, &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      h2cHandler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "timeout", cfg.HTTP.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openBackend(cfg config.StorageConfig) (storage.Backend, error) {
	if cfg.Driver == config.DriverSQLite {
		b, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	b, err := jsonfile.New(cfg.DataPath)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// staticHandler serves the frontend for every non-API route.
func staticHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Check if this is an API request (Connect RPC)
		if strings.HasPrefix(r.URL.Path, rpc.PathPrefix) {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))

		// Unknown paths fall back to index.html
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
