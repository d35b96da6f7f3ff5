// Package main is the entry point for the recipe-auth service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plateful/recipe-auth/internal/auth"
	"github.com/plateful/recipe-auth/internal/auth/oauth"
	"github.com/plateful/recipe-auth/internal/cache"
	"github.com/plateful/recipe-auth/internal/config"
	"github.com/plateful/recipe-auth/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	listenAddr  string
	metricsAddr string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	cfg := loadConfig(flags.configPath)
	logger := initLogger(cfg)
	defer func() { _ = logger.Sync() }()

	app := initApplication(cfg, logger)
	runService(app, flags, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("RECIPE_AUTH_CONFIG_PATH", "configs/recipe-auth.yaml"),
		"Path to configuration file")
	listenAddr := flag.String("listen", getEnvOrDefault("RECIPE_AUTH_LISTEN", ":8080"),
		"Listen address for the HTTP server")
	metricsAddr := flag.String("metrics-listen", getEnvOrDefault("RECIPE_AUTH_METRICS_LISTEN", ":9090"),
		"Listen address for the metrics server")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		listenAddr:  *listenAddr,
		metricsAddr: *metricsAddr,
		showVersion: *showVersion,
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("recipe-auth version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// loadConfig loads and validates the configuration.
func loadConfig(configPath string) *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// initLogger initializes the logger from config.
func initLogger(cfg *config.Config) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting recipe-auth",
		observability.String("version", version),
		observability.String("environment", cfg.Environment),
		observability.String("authMode", string(cfg.Auth.Mode)))
	return logger
}

// application holds all application components.
type application struct {
	config       *config.Config
	store        cache.Cache
	registry     *auth.Registry
	tokenManager *oauth.TokenManager
	handler      http.Handler
}

// initApplication wires the cache, the auth provider and the outbound
// token manager.
func initApplication(cfg *config.Config, logger observability.Logger) *application {
	store, err := cache.New(&cfg.Cache, logger)
	if err != nil {
		fatal(logger, "failed to initialize cache", err)
	}

	provider, err := auth.NewProvider(cfg, store, logger)
	if err != nil {
		fatal(logger, "failed to construct auth provider", err)
	}

	registry := auth.NewRegistry()
	registry.Set(provider)
	if err := registry.Initialize(context.Background()); err != nil {
		fatal(logger, "failed to initialize auth provider", err)
	}

	var tokenManager *oauth.TokenManager
	if cfg.ServiceToken.TokenURL != "" {
		tokenManager = oauth.NewTokenManager(
			cfg.ServiceToken.TokenURL,
			cfg.ServiceToken.ClientID,
			cfg.ServiceToken.ClientSecret,
			oauth.WithHTTPClient(&http.Client{Timeout: cfg.ServiceToken.Timeout.Duration()}),
			oauth.WithLogger(logger),
		)
	}

	authenticator := auth.NewAuthenticator(registry,
		auth.NewExtractor(cfg.Auth.APIKeyHeader), cfg.Auth.APIKeys, logger)

	mux := http.NewServeMux()
	mux.Handle("/v1/me", auth.Middleware(authenticator, logger)(http.HandlerFunc(handleWhoAmI)))
	mux.HandleFunc("/healthz", handleHealth)

	return &application{
		config:       cfg,
		store:        store,
		registry:     registry,
		tokenManager: tokenManager,
		handler:      mux,
	}
}

// handleWhoAmI returns the authenticated identity. It exists so
// deployments can smoke-test whichever auth mode is active.
func handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	result, err := auth.ResultFromContextOrError(r.Context())
	if err != nil {
		http.Error(w, "no identity", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// handleHealth reports liveness.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// runService starts the servers and blocks until shutdown.
func runService(app *application, flags cliFlags, logger observability.Logger) {
	server := &http.Server{
		Addr:              flags.listenAddr,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              flags.metricsAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http server listening", observability.String("addr", flags.listenAddr))
		errCh <- server.ListenAndServe()
	}()
	go func() {
		logger.Info("metrics server listening", observability.String("addr", flags.metricsAddr))
		errCh <- metricsServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", observability.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server failed", observability.Error(err))
	}

	shutdown(app, server, metricsServer, logger)
}

// shutdown stops the servers and tears components down exactly once.
func shutdown(app *application, server, metricsServer *http.Server, logger observability.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown failed", observability.Error(err))
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("metrics server shutdown failed", observability.Error(err))
	}

	if err := app.registry.Shutdown(ctx); err != nil {
		logger.Error("auth provider shutdown failed", observability.Error(err))
	}
	if err := app.store.Close(); err != nil {
		logger.Error("cache close failed", observability.Error(err))
	}

	logger.Info("recipe-auth stopped")
}

// fatal logs the error and exits.
func fatal(logger observability.Logger, msg string, err error) {
	logger.Error(msg, observability.Error(err))
	_ = logger.Sync()
	os.Exit(1)
}

// getEnvOrDefault returns an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
