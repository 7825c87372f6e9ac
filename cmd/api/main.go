// Package main is the entrypoint for the vet clinic API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/housetable/vetclinic/internal/cache"
	"github.com/housetable/vetclinic/internal/config"
	"github.com/housetable/vetclinic/internal/handler"
	"github.com/housetable/vetclinic/internal/metrics"
	"github.com/housetable/vetclinic/internal/middleware"
	"github.com/housetable/vetclinic/internal/repository"
	"github.com/housetable/vetclinic/internal/router"
	"github.com/housetable/vetclinic/internal/server"
	"github.com/housetable/vetclinic/internal/service"
	"github.com/housetable/vetclinic/internal/store"
	"github.com/housetable/vetclinic/internal/store/memory"
	"github.com/housetable/vetclinic/internal/store/mongostore"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Initialize record store
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store",
			slog.String("driver", cfg.StoreDriver),
			slog.String("error", sanitizeError(err, cfg.DatabaseURL, cfg.MongoURL)),
		)
		os.Exit(1)
	}

	// Initialize cache (optional, backs rate limiting)
	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			st.Close()
			os.Exit(1)
		}
		logger.Info("connected to Redis")
	}

	// Initialize services
	var (
		recorder    metrics.Recorder = metrics.NewNoop()
		snapshotter metrics.Snapshotter
	)
	if cfg.MetricsEnabled {
		inMemory := metrics.NewInMemory()
		recorder, snapshotter = inMemory, inMemory
	}

	patientService := service.NewPatientService(st, recorder)
	appointmentService := service.NewAppointmentService(st, cfg.Location, recorder)
	reportService := service.NewReportService(st, cfg.Location, recorder)

	// Initialize handlers
	deps := router.Deps{
		Logger:       logger,
		Index:        handler.New(),
		Patients:     handler.NewPatientHandler(patientService, logger),
		Appointments: handler.NewAppointmentHandler(appointmentService, logger),
		Reports:      handler.NewReportHandler(reportService, logger),
		Security: middleware.SecurityConfig{
			IsDevelopment:      cfg.IsDevelopment(),
			MaxRequestBodySize: cfg.MaxRequestBodySize,
		},
		CORS: corsConfig(cfg),
		RateLimit: middleware.RateLimitConfig{
			Logger:  logger,
			Metrics: recorder,
			Enabled: cfg.RateLimitEnabled,
			RPS:     cfg.RateLimitRPS,
			Burst:   cfg.RateLimitBurst,
		},
	}
	if snapshotter != nil {
		deps.Metrics = handler.NewMetricsHandler(snapshotter)
	}
	if cacheClient != nil {
		deps.Health = handler.NewHealthHandler(st, cfg.StoreDriver, cacheClient)
		deps.RateLimit.Limiter = cacheClient
	} else {
		deps.Health = handler.NewHealthHandler(st, cfg.StoreDriver, nil)
	}

	r := router.New(deps)

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	// Registered first, closed last
	srv.OnShutdown(cfg.StoreDriver+" store", func(ctx context.Context) error {
		st.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(ctx context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", cfg.StoreDriver,
		"timezone", cfg.Location.String(),
		"rate_limit", cacheClient != nil && cfg.RateLimitEnabled,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openStore connects the configured record store and prepares its schema.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Backend, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		repo, err := repository.New(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to database", slog.String("database_url", redactURL(cfg.DatabaseURL)))

		if cfg.AutoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				repo.Close()
				return nil, err
			}
			logger.Info("migrations applied")
		}
		return repo, nil

	case config.DriverMongo:
		ms, err := mongostore.New(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		logger.Info("connected to MongoDB",
			slog.String("mongo_url", redactURL(cfg.MongoURL)),
			slog.String("database", cfg.MongoDatabase),
		)

		if err := ms.EnsureIndexes(ctx); err != nil {
			ms.Close()
			return nil, err
		}
		return ms, nil

	case config.DriverMemory:
		logger.Warn("using in-memory store; records are lost on restart")
		return memory.New(), nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	c.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	return c
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
