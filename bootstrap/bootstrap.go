// Package bootstrap wires all dependencies and starts the application.
// Configuration comes from a YAML file when one exists, with FAMILYHUB_*
// environment variables layered on top.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/familyhub/adapters/clock"
	apihttp "github.com/artpar/familyhub/adapters/http"
	"github.com/artpar/familyhub/adapters/idgen"
	"github.com/artpar/familyhub/adapters/metrics"
	"github.com/artpar/familyhub/adapters/sqlite"
	"github.com/artpar/familyhub/app"
	"github.com/artpar/familyhub/config"
	"github.com/artpar/familyhub/core/openapi"
	"github.com/artpar/familyhub/core/schema"
	"github.com/artpar/familyhub/core/validation"
	"github.com/artpar/familyhub/ports"
)

// Options control application initialization.
type Options struct {
	// ConfigPath is the YAML file to load and watch. When it is empty or
	// missing, configuration comes from the environment alone.
	ConfigPath string

	// Version is reported by /version and the API document.
	Version string

	// LogOutput receives log lines. Defaults to stdout.
	LogOutput io.Writer
}

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	Records    *app.RecordService
	Activities *app.ActivityService
	Rewards    ports.RewardStore

	registry *prometheus.Registry
}

// New loads configuration and creates the application.
func New(opts Options) (*App, error) {
	cfg, err := config.LoadWithFallback(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := SetupLogger(cfg.Logging, opts.LogOutput)

	var holder *config.Holder
	if opts.ConfigPath != "" && fileExists(opts.ConfigPath) {
		holder, err = config.NewHolder(opts.ConfigPath, logger)
		if err != nil {
			return nil, err
		}
	} else {
		holder = config.NewStaticHolder(cfg, logger)
	}

	return NewWithHolder(holder, opts.Version, logger)
}

// NewWithHolder creates the application from an existing configuration holder.
func NewWithHolder(holder *config.Holder, version string, logger zerolog.Logger) (*App, error) {
	cfg := holder.Get()
	logger.Info().Str("version", version).Msg("initializing familyhub")

	a := &App{Logger: logger, Config: holder}

	if err := a.initDatabase(cfg.Database.DSN); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.NewWithRegistry(a.registry)
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	registry, err := schema.LoadRegistry()
	if err != nil {
		a.DB.Close()
		return nil, fmt.Errorf("load schemas: %w", err)
	}
	validator := validation.New(registry)

	var m ports.Metrics = metrics.Nop{}
	if a.Metrics != nil {
		m = a.Metrics
	}
	clk := clock.Real{}
	ids := idgen.UUID{}

	a.Rewards = sqlite.NewRewardStore(a.DB)
	a.Records = app.NewRecordService(app.RecordDeps{
		Validator: validator,
		Store:     sqlite.NewRecordStore(a.DB),
		IDs:       ids,
		Clock:     clk,
		Metrics:   m,
		Logger:    logger,
	})
	RegisterHooks(a.Records, HookDeps{
		Config:  holder,
		Rewards: a.Rewards,
		IDs:     ids,
		Metrics: m,
		Logger:  logger,
	})
	a.Activities = app.NewActivityService(validator, sqlite.NewActivityStore(a.DB), ids, clk, m, logger)

	a.watchConfig()

	routerCfg := apihttp.RouterConfig{
		Records:        a.Records,
		Activities:     a.Activities,
		Health:         apihttp.NewHealthHandler(a.DB, clk, logger),
		Version:        version,
		Metrics:        a.Metrics,
		MetricsPath:    cfg.Metrics.Path,
		RequestTimeout: cfg.Server.WriteTimeout,
	}
	if a.registry != nil {
		routerCfg.MetricsHandler = promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
	}
	if cfg.OpenAPI.Enabled {
		routerCfg.OpenAPI = openapi.NewService(openapi.ServiceConfig{
			Registry: registry,
			Version:  version,
			Logger:   logger,
		})
	}

	a.HTTPServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      apihttp.NewRouter(routerCfg, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return a, nil
}

func (a *App) initDatabase(dsn string) error {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	a.DB = db
	a.Logger.Info().Str("dsn", dsn).Msg("database ready")
	return nil
}

// watchConfig hooks reload outcomes into metrics and the log level.
func (a *App) watchConfig() {
	if a.Metrics != nil {
		a.Config.OnReload(a.Metrics.ConfigReloaded)
	}
	a.Config.OnChange(func(cfg *config.Config) {
		ApplyLogLevel(cfg.Logging.Level)
	})
}

// Handler returns the HTTP handler, for tests and embedding.
func (a *App) Handler() http.Handler {
	return a.HTTPServer.Handler
}

// Run starts the server and blocks until SIGINT, SIGTERM or a server error.
func (a *App) Run() error {
	if a.Config.Path() != "" {
		if err := a.Config.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("config file watching disabled")
		}
	}
	a.Config.WatchSignals()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown stops the server, the config watchers and the database.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
			errs = append(errs, err)
		}
	}

	if a.Config != nil {
		a.Config.Stop()
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
			errs = append(errs, err)
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return errors.Join(errs...)
}

// SetupLogger builds the process logger and sets the global level.
func SetupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	ApplyLogLevel(cfg.Level)

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// ApplyLogLevel sets the global level. Unknown levels fall back to info.
func ApplyLogLevel(level string) {
	l, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		l = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(l)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
