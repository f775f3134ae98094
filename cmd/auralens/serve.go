package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/auralens/auralens/app/landing"
	"github.com/auralens/auralens/app/uploader"
	"github.com/auralens/auralens/internal/config"
	"github.com/auralens/auralens/internal/telemetry"
	"github.com/auralens/auralens/pkg/middleware"
	"github.com/auralens/auralens/pkg/preview"
	"github.com/auralens/auralens/pkg/server"
	"github.com/auralens/auralens/pkg/upload"
)

func serveCmd() *cobra.Command {
	var (
		port       int
		host       string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the landing page",
		Long: `Serve the landing page with live sessions, uploads, previews,
health checks and Prometheus metrics.

Examples:
  auralens serve
  auralens serve --port=3000
  auralens serve --host=0.0.0.0 --config=auralens.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			// Apply command-line overrides
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return runServe(cmd, cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from auralens.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from auralens.json)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to auralens.json")

	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	logger := newLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	printBanner(cmd)
	success(cmd, "Listening on http://%s", cfg.Address())
	if cfg.Telemetry.Enabled {
		info(cmd, "Tracing to %s", cfg.Telemetry.Endpoint)
	}
	info(cmd, "Metrics at %s", server.PathMetrics)

	return a.server.ListenAndServe(ctx)
}

// app is the wired process: server, stores and telemetry.
type app struct {
	server   *server.Server
	store    *upload.MemoryStore
	previews *preview.Registry
	metrics  *middleware.Metrics
	tracing  *telemetry.Provider
	logger   *slog.Logger

	stopCleanup context.CancelFunc
}

// newApp wires every component from cfg. The upload janitor runs until
// close is called.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	tracing, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Telemetry.Environment,
		Endpoint:       cfg.Telemetry.Endpoint,
		Headers:        cfg.Telemetry.Headers,
		Insecure:       cfg.Telemetry.Insecure,
		Enabled:        cfg.Telemetry.Enabled,
	}, logger)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(middleware.WithRegistry(reg))

	store := upload.NewMemoryStore(cfg.Upload.MaxFileSize,
		upload.WithMaxTotal(cfg.Upload.MaxTotalBytes),
	)
	previews := preview.NewRegistry(preview.WithObserver(metrics))

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	go upload.RunCleanup(cleanupCtx, store, time.Minute, cfg.TempExpiry(), logger)

	sessionCfg := server.DefaultSessionConfig()
	sessionCfg.PendingTTL = cfg.PendingTTL()
	sessionCfg.ReadTimeout = cfg.ReadTimeout()
	sessionCfg.WriteTimeout = cfg.WriteTimeout()
	sessionCfg.MaxEventQueue = cfg.Session.MaxEventQueue

	serverCfg := server.DefaultServerConfig()
	serverCfg.Address = cfg.Address()
	serverCfg.ShutdownTimeout = cfg.ShutdownTimeout()
	serverCfg.MaxSessions = cfg.Session.MaxSessions
	serverCfg.SessionConfig = sessionCfg

	factory := landing.New(cfg.Content, uploader.FromRegistry(previews),
		landing.WithObserver(metrics),
	)

	srv := server.New(serverCfg, factory,
		server.WithLogger(logger),
		server.WithPage(landing.Document(cfg.Content)),
		server.WithUploads(store, &upload.Config{
			MaxFileSize: cfg.Upload.MaxFileSize,
			TempExpiry:  cfg.TempExpiry(),
		}),
		server.WithPreviews(previews),
		server.WithMetricsHandler(metrics.Handler()),
		server.WithMiddleware(
			metrics.Middleware(),
			middleware.OpenTelemetry(),
		),
		server.WithObserver(metrics),
	)

	return &app{
		server:      srv,
		store:       store,
		previews:    previews,
		metrics:     metrics,
		tracing:     tracing,
		logger:      logger,
		stopCleanup: stopCleanup,
	}, nil
}

// close stops the janitor and flushes pending spans.
func (a *app) close() {
	a.stopCleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tracing.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown failed", "error", err)
	}
}

// newLogger builds the process logger from the log section.
func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
