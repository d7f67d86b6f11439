// The apiserver binary serves the learning API over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	applearning "github.com/wucy1/ProDocuX/internal/application/learning"
	"github.com/wucy1/ProDocuX/internal/config"
	"github.com/wucy1/ProDocuX/internal/domain/document"
	domlearning "github.com/wucy1/ProDocuX/internal/domain/learning"
	"github.com/wucy1/ProDocuX/internal/domain/profile"
	"github.com/wucy1/ProDocuX/internal/infrastructure/database/postgres"
	"github.com/wucy1/ProDocuX/internal/infrastructure/database/postgres/repositories"
	"github.com/wucy1/ProDocuX/internal/infrastructure/database/redis"
	"github.com/wucy1/ProDocuX/internal/infrastructure/document/docx"
	"github.com/wucy1/ProDocuX/internal/infrastructure/messaging/kafka"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/prometheus"
	filestore "github.com/wucy1/ProDocuX/internal/infrastructure/storage/file"
	"github.com/wucy1/ProDocuX/internal/infrastructure/storage/memory"
	"github.com/wucy1/ProDocuX/internal/infrastructure/storage/minio"
	httpserver "github.com/wucy1/ProDocuX/internal/interfaces/http"
	"github.com/wucy1/ProDocuX/internal/interfaces/http/handlers"
)

// Build-time variables injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.LogConfig(cfg.Log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	logger.Info("starting prodocux api server",
		logging.String("version", version),
		logging.String("profile_backend", cfg.ProfileStore.Backend))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("api server failed", logging.Err(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	metrics := prometheus.New("prodocux")

	var (
		profiles profile.Repository
		events   domlearning.EventRepository
		checkers []handlers.HealthChecker
		store    *filestore.Store
	)

	deps := applearning.Dependencies{
		Extractor: document.NewExtractor(docx.NewParser(), logger),
		Metrics:   metricsRecorder{m: metrics},
		Logger:    logger,
	}

	switch cfg.ProfileStore.Backend {
	case "postgres":
		if err := postgres.Migrate(cfg.Database, logger); err != nil {
			return err
		}
		conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer conn.Close()
		profiles = repositories.NewProfileRepo(conn.Pool(), logger)
		events = repositories.NewEventRepo(conn.Pool(), logger)
		checkers = append(checkers, pingChecker{name: "postgres", ping: conn.Ping})
	default:
		s, err := filestore.NewStore(cfg.ProfileStore.Dir, logger)
		if err != nil {
			return err
		}
		store = s
		profiles = store
		events = memory.NewEventStore()
	}
	deps.Profiles = profiles
	deps.Events = events

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		deps.Cache = redis.NewCache(client, cfg.Redis.DefaultTTL)
		deps.Locker = redis.NewLocker(client,
			redis.WithRetryCount(cfg.Learning.LockRetries),
			redis.WithRetryDelay(cfg.Learning.LockBackoff))
		checkers = append(checkers, pingChecker{name: "redis", ping: client.Ping})
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, logger)
		defer producer.Close()
		deps.Notifier = kafkaNotifier{producer: producer}
	}

	if cfg.MinIO.Enabled {
		archive, err := minio.NewArchive(ctx, cfg.MinIO, logger)
		if err != nil {
			return err
		}
		deps.Archiver = archive
	}

	svc, err := applearning.NewService(cfg.Learning, cfg.ProfileStore.CacheTTL, deps)
	if err != nil {
		return err
	}

	if store != nil && cfg.ProfileStore.WatchExternalEdits {
		watcher, err := filestore.NewWatcher(store, logger, svc.InvalidateProfile)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		LearningHandler: handlers.NewLearningHandler(svc, logger),
		ProfileHandler:  handlers.NewProfileHandler(svc, logger),
		HealthHandler:   handlers.NewHealthHandler(version, checkers...),
		Metrics:         metrics.Handler(),
		Logger:          logger,
		Mode:            cfg.Server.Mode,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
	})
	server := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return server.Stop(context.Background())
}
