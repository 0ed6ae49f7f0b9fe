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

	"github.com/minerva-search/minerva/internal/archive"
	"github.com/minerva-search/minerva/internal/cache"
	"github.com/minerva-search/minerva/internal/engine"
	"github.com/minerva-search/minerva/internal/ingest"
	"github.com/minerva-search/minerva/internal/server"
	"github.com/minerva-search/minerva/internal/stats"
	"github.com/minerva-search/minerva/pkg/config"
	"github.com/minerva-search/minerva/pkg/health"
	"github.com/minerva-search/minerva/pkg/kafka"
	"github.com/minerva-search/minerva/pkg/logger"
	"github.com/minerva-search/minerva/pkg/metrics"
	"github.com/minerva-search/minerva/pkg/middleware"
	"github.com/minerva-search/minerva/pkg/postgres"
	pkgredis "github.com/minerva-search/minerva/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
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
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	eng := engine.New(engine.WithMetrics(m))

	var docArchive *archive.Archive
	var pgClient *postgres.Client
	if cfg.Postgres.Enabled {
		pgClient, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer pgClient.Close()

		docArchive = archive.New(pgClient, m)
		if err := docArchive.EnsureSchema(ctx); err != nil {
			slog.Error("failed to ensure archive schema", "error", err)
			os.Exit(1)
		}
		replayed, err := docArchive.Replay(ctx, func(text string) error {
			eng.IndexDocument(text)
			return nil
		})
		if err != nil {
			slog.Error("failed to replay archived documents", "error", err)
			os.Exit(1)
		}
		slog.Info("index rebuilt from archive", "documents", replayed)
	}

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, search caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		slog.Info("search cache enabled",
			"addr", cfg.Redis.Addr,
			"ttl", cfg.Redis.CacheTTL,
		)
	}

	collector := stats.NewCollector(10000)
	collector.Start(ctx)
	defer collector.Close()

	var publisher *ingest.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.IngestTopic)
		defer producer.Close()
		publisher = ingest.NewPublisher(producer, m)

		indexer := ingest.NewIndexer(eng, docArchive, m)
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.IngestTopic, indexer.Handler())
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("ingest consumer error", "error", err)
			}
		}()
		slog.Info("async ingest enabled", "topic", cfg.Kafka.IngestTopic)
	}

	checker := health.NewChecker()
	checker.Register("index_engine", func(ctx context.Context) health.ComponentHealth {
		s := eng.Stats()
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d terms", s.Documents, s.Terms),
		}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	if pgClient != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := pgClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	opts := []server.Option{
		server.WithCollector(collector),
		server.WithMetrics(m),
	}
	if queryCache != nil {
		opts = append(opts, server.WithCache(queryCache))
	}
	if publisher != nil {
		opts = append(opts, server.WithPublisher(publisher))
	}
	if docArchive != nil {
		opts = append(opts, server.WithArchive(docArchive))
	}
	h := server.New(eng, cfg.Search.DefaultLimit, cfg.Search.MaxResults, opts...)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	limiter := middleware.NewRateLimiter(cfg.Search.RateLimitPerMinute, time.Minute)

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = limiter.Middleware(chain)
	chain = middleware.RequestID(chain)

	httpServer := &http.Server{
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
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("search service listening", "addr", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
