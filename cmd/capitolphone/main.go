// Capitolphone is a telephone IVR that reads legislative information to
// callers and connects them to their elected officials. It serves the
// Twilio voice webhooks that drive the call flow.
//
// Usage:
//
//	# Start the webhook server with defaults
//	capitolphone serve
//
//	# Configure via environment
//	TWILIO_AUTH_TOKEN=... DIRECTORY_API_KEY=... capitolphone serve
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sunlightlabs/capitolphone/internal/config"
	"github.com/sunlightlabs/capitolphone/internal/directory"
	"github.com/sunlightlabs/capitolphone/internal/events"
	"github.com/sunlightlabs/capitolphone/internal/ivr"
	"github.com/sunlightlabs/capitolphone/internal/legislators"
	"github.com/sunlightlabs/capitolphone/internal/logging"
	"github.com/sunlightlabs/capitolphone/internal/store"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
)

var (
	configPath  string
	memoryStore bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "capitolphone",
	Short:   "Twilio IVR for legislative information",
	Version: fmt.Sprintf("%s (%s)", version, gitCommit),
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook server",
	Long: `Start the capitolphone webhook server.

The server answers Twilio voice webhooks: callers enter a zipcode, pick
one of their legislators, and hear contributors, votes, biography, and
committee information, or are transferred to the legislator's office.

Examples:
  # Serve with a config file
  capitolphone serve --config /etc/capitolphone/config.yaml

  # Serve with an in-memory store (local development)
  capitolphone serve --memory`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "", "path to YAML config file")
	serveCmd.Flags().BoolVar(&memoryStore, "memory", false, "use the in-memory store instead of Mongo")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	return run(ctx, cfg, logger)
}

// run initializes the store, directory client, cache, event publisher,
// and webhook server, then blocks until the context is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	var (
		st      store.Store
		closeFn func(context.Context) error
	)
	if memoryStore {
		logger.Warn("using in-memory store; call records will not survive restarts")
		st = store.NewMemoryStore()
	} else {
		mongoStore, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect store: %w", err)
		}
		st = mongoStore
		closeFn = mongoStore.Close
	}
	if closeFn != nil {
		defer func() {
			if err := closeFn(context.Background()); err != nil {
				logger.Warn("store disconnect", zap.Error(err))
			}
		}()
	}

	client, err := directory.NewClient(directory.Config{
		BaseURL:   cfg.Directory.BaseURL,
		APIKey:    cfg.Directory.APIKey.Value(),
		Timeout:   cfg.Directory.Timeout,
		RateLimit: cfg.Directory.RateLimit,
	}, logger)
	if err != nil {
		return fmt.Errorf("build directory client: %w", err)
	}

	registry := prometheus.NewRegistry()

	cache := legislators.NewCache(st, client, logger)
	cache.RegisterMetrics(registry)

	var publisher *events.Publisher
	if cfg.NATS.Enabled {
		publisher, err = events.Connect(cfg.NATS.URL, logger)
		if err != nil {
			return fmt.Errorf("connect event stream: %w", err)
		}
		defer publisher.Close()
	}

	server, err := ivr.NewServer(st, cache, client, publisher, registry, logger, &ivr.Config{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		PublicBaseURL: cfg.Server.PublicBaseURL,
		AuthToken:     cfg.Twilio.AuthToken.Value(),
		AudioBaseURL:  cfg.Audio.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server shutdown complete")
	return nil
}
