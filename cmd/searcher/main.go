package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/KhaiTheTran/SystemsProgramming/internal/catalog"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/notify"
	"github.com/KhaiTheTran/SystemsProgramming/internal/searcher/cache"
	"github.com/KhaiTheTran/SystemsProgramming/internal/searcher/executor"
	"github.com/KhaiTheTran/SystemsProgramming/internal/searcher/handler"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/config"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/health"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/kafka"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/logger"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/metrics"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/middleware"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/postgres"
	pkgredis "github.com/KhaiTheTran/SystemsProgramming/pkg/redis"
	"github.com/KhaiTheTran/SystemsProgramming/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.Metrics.Enabled {
		ms, err := metrics.Listen(fmt.Sprintf(":%d", cfg.Metrics.Port), prometheus.DefaultGatherer)
		if err != nil {
			slog.Error("failed to start metrics server", "error", err)
			os.Exit(1)
		}
		go ms.Serve()
		defer ms.Shutdown(context.Background())
	}

	var db *postgres.Client
	if cfg.Postgres.Enabled {
		db, err = postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, index catalog disabled", "error", err)
		} else {
			defer db.Close()
		}
	}

	paths := cfg.Search.IndexFiles
	if len(paths) == 0 && db != nil {
		paths, err = catalogPaths(ctx, db)
		if err != nil {
			slog.Error("failed to list index files from catalog", "error", err)
			os.Exit(1)
		}
	}
	proc, err := executor.NewProcessor(paths, cfg.Index.Validate, executor.WithMetrics(m))
	if err != nil {
		slog.Error("failed to open index files", "error", err)
		os.Exit(1)
	}
	defer proc.Close()

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis)
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if cfg.Kafka.Enabled {
		var inv notify.Invalidator
		if queryCache != nil {
			inv = queryCache
		}
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete,
			notify.Handler(proc, inv, cfg.Index.Validate, resilience.RetryConfig{}))
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("index notification consumer error", "error", err)
			}
		}()
		slog.Info("listening for index completions", "topic", cfg.Kafka.Topics.IndexComplete)
	}

	checker := health.NewChecker()
	checker.Register("index_files", health.IndexFilesCheck(proc.Files))
	var redisPing, dbPing func(context.Context) error
	if redisClient != nil {
		redisPing = redisClient.Ping
	}
	if db != nil {
		dbPing = db.Ping
	}
	checker.Register("redis", health.PingCheck(redisPing, health.StatusDegraded))
	checker.Register("postgres", health.PingCheck(dbPing, health.StatusDegraded))

	h := handler.New(proc, queryCache, m, cfg.Search.DefaultLimit, cfg.Search.MaxResults)
	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.QueryTimeout)(chain)
	chain = middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr, "index_files", len(proc.Files()))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}

func catalogPaths(ctx context.Context, db *postgres.Client) ([]string, error) {
	store := catalog.NewPostgresStore(db)
	return resilience.Bounded(ctx, 10*time.Second, "catalog-list", func(ctx context.Context) ([]string, error) {
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return catalog.Paths(ctx, store)
	})
}
