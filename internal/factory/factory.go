package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mcoot/roster/internal/api"
	"github.com/mcoot/roster/internal/api/sse"
	"github.com/mcoot/roster/internal/blob"
	"github.com/mcoot/roster/internal/config"
	"github.com/mcoot/roster/internal/dependencies/clock"
	"github.com/mcoot/roster/internal/dependencies/idgen"
	"github.com/mcoot/roster/internal/events"
	"github.com/mcoot/roster/internal/services/auth"
	"github.com/mcoot/roster/internal/services/roster"
	"github.com/mcoot/roster/internal/storage"
	"github.com/mcoot/roster/internal/storage/memory"
	redisstorage "github.com/mcoot/roster/internal/storage/redis"
	"github.com/mcoot/roster/internal/storage/sqlstore"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage       storage.Storage
	StorageDriver string
	Blobs         blob.Store

	// External dependencies
	Clock clock.Clock
	IDs   idgen.Generator

	// Services
	AuthService   *auth.Service
	RosterService *roster.Service

	// Change feed
	Hub       *sse.Hub
	Publisher events.Publisher

	// Metrics is nil when metrics are disabled
	Metrics *prometheus.Registry

	Logger  *slog.Logger
	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// Settings is the loaded server configuration
	// If nil, config.Default() is used
	Settings *config.Config
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (app *App, err error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	settings := cfg.Settings
	if settings == nil {
		defaults := config.Default()
		settings = &defaults
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	clk := clock.New()

	var closers []io.Closer
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				_ = closers[i].Close()
			}
		}
	}()

	// Create storage based on driver
	var store storage.Storage
	var redisClient *goredis.Client
	switch settings.Storage.Driver {
	case config.StorageMemory:
		store = memory.New(clk)
	case config.StorageRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = settings.Storage.RedisURL
		redisStore, err := redisstorage.New(redisCfg, clk)
		if err != nil {
			return nil, fmt.Errorf("open redis storage: %w", err)
		}
		store = redisStore
		redisClient = redisStore.Client()
	case config.StorageSQLite, config.StoragePostgres:
		sqlStore, err := sqlstore.Open(ctx, sqlstore.Config{
			Dialect: sqlstore.Dialect(settings.Storage.Driver),
			DSN:     settings.Storage.DSN,
		}, clk)
		if err != nil {
			return nil, fmt.Errorf("open %s storage: %w", settings.Storage.Driver, err)
		}
		store = sqlStore
	default:
		return nil, fmt.Errorf("invalid storage driver %q", settings.Storage.Driver)
	}
	closers = append(closers, store)

	// Create session registry
	var registry auth.Registry
	switch settings.Sessions.Registry {
	case config.RegistryRedis:
		if redisClient == nil {
			opts, err := goredis.ParseURL(settings.Storage.RedisURL)
			if err != nil {
				return nil, fmt.Errorf("parse redis url: %w", err)
			}
			redisClient = goredis.NewClient(opts)
			closers = append(closers, redisClient)
		}
		registry = auth.NewRedisRegistry(redisClient, clk)
	default:
		registry = auth.NewMemoryRegistry()
	}

	passwordHash, err := settings.AdminPasswordHash()
	if err != nil {
		return nil, err
	}
	if passwordHash == "" {
		logger.Warn("no admin password configured; logins will be rejected")
	}

	blobs, err := blob.Open(ctx, blob.Config{
		Driver: blob.Driver(settings.Blobs.Driver),
		Root:   settings.Blobs.Root,
		S3: blob.S3Config{
			Bucket:          settings.Blobs.S3.Bucket,
			Region:          settings.Blobs.S3.Region,
			Endpoint:        settings.Blobs.S3.Endpoint,
			AccessKeyID:     settings.Blobs.S3.AccessKeyID,
			SecretAccessKey: settings.Blobs.S3.SecretAccessKey,
			PathStyle:       settings.Blobs.S3.PathStyle,
		},
	}, clk)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}

	var extra []events.Publisher
	if settings.Events.NATSURL != "" {
		natsCfg := events.DefaultNATSConfig()
		natsCfg.URL = settings.Events.NATSURL
		if settings.Events.SubjectPrefix != "" {
			natsCfg.SubjectPrefix = settings.Events.SubjectPrefix
		}
		natsPublisher, err := events.NewNATSPublisher(natsCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		extra = append(extra, natsPublisher)
		closers = append(closers, natsPublisher)
	}

	var metrics *prometheus.Registry
	if settings.Server.Metrics {
		metrics = prometheus.NewRegistry()
		metrics.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	authCfg := auth.Config{
		SessionDuration: settings.Sessions.TTL,
		PasswordHash:    passwordHash,
	}

	app = newWithDependencies(store, blobs, registry, clk, idgen.New(), authCfg, logger, extra...)
	app.StorageDriver = settings.Storage.Driver
	app.Metrics = metrics
	app.closers = append(closers, app.closers...)
	closers = nil

	if settings.Seed {
		if _, err := app.RosterService.Seed(ctx); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	blobs blob.Store,
	registry auth.Registry,
	clk clock.Clock,
	ids idgen.Generator,
	authCfg auth.Config,
	logger *slog.Logger,
	extraPublishers ...events.Publisher,
) *App {
	hub := sse.NewHub(logger)
	go hub.Run()

	publishers := events.Multi{sse.NewPublisher(hub), events.NewLogPublisher(logger)}
	publishers = append(publishers, extraPublishers...)

	authService := auth.New(registry, clk, logger, authCfg)
	rosterService := roster.New(store, blobs, publishers, ids, clk, logger)

	return &App{
		Storage:       store,
		StorageDriver: config.StorageMemory,
		Blobs:         blobs,
		Clock:         clk,
		IDs:           ids,
		AuthService:   authService,
		RosterService: rosterService,
		Hub:           hub,
		Publisher:     publishers,
		Logger:        logger,
		closers:       []io.Closer{closerFunc(hub.Close)},
	}
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

// Handler builds the HTTP handler for the app
func (a *App) Handler(allowedOrigins []string) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:         a.Logger,
		Clock:          a.Clock,
		AuthService:    a.AuthService,
		RosterService:  a.RosterService,
		Hub:            a.Hub,
		Registry:       a.Metrics,
		StorageDriver:  a.StorageDriver,
		AllowedOrigins: allowedOrigins,
	})
}

// RunBackground runs periodic maintenance until ctx is done
func (a *App) RunBackground(ctx context.Context, sweepInterval time.Duration) {
	if sweepInterval > 0 {
		go a.AuthService.RunSweeper(ctx, sweepInterval)
	}
}

// Close releases every resource the app opened, newest first
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
