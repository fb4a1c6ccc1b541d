package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/internal/store"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Passage-Ranking-Platform/pkg/redis"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to config file")
	corpus := pflag.String("corpus", "", "JSONL corpus to index at startup (overrides indexer.corpusPath)")
	logLevel := pflag.String("log-level", "", "log level (overrides logging.level)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *corpus != "" {
		cfg.Indexer.CorpusPath = *corpus
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting passage service",
		"port", cfg.Server.Port,
		"store", cfg.Store.Engine,
		"field", cfg.Passage.Field,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, reg)
		defer shutdownMetrics(context.Background())
	}

	docs, err := store.Open(ctx, cfg.Store, cfg.Postgres)
	if err != nil {
		slog.Error("failed to open document store", "engine", cfg.Store.Engine, "error", err)
		os.Exit(1)
	}
	engine := indexer.NewEngine(cfg.Indexer, docs, m)
	defer engine.Close()

	if cfg.Indexer.CorpusPath != "" {
		n, err := engine.LoadJSONL(ctx, cfg.Indexer.CorpusPath)
		if err != nil {
			slog.Error("failed to load corpus", "path", cfg.Indexer.CorpusPath, "indexed", n, "error", err)
			os.Exit(1)
		}
	}

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, passage caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			slog.Info("passage cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	aggregator := analytics.NewAggregator()
	var tracker analytics.Tracker = aggregator
	if cfg.Kafka.Enabled {
		topic := cfg.Kafka.Topics.PassageEvents
		producer := kafka.NewProducer(cfg.Kafka, topic)
		defer producer.Close()
		collector := analytics.NewCollector(producer, analytics.CollectorConfig{})
		collector.Start(ctx)
		defer collector.Close()
		tracker = collector

		consumer := kafka.NewConsumer(cfg.Kafka, topic, analytics.HandleEvent(aggregator))
		go func() {
			if err := aggregator.Consume(ctx, consumer); err != nil {
				slog.Error("analytics aggregator error", "error", err)
			}
		}()
		slog.Info("analytics streaming through kafka", "topic", topic)
	}

	checker := health.NewChecker(3 * time.Second)
	checker.Register("document_store", health.Ping(false, engine.Ping))
	if redisClient != nil {
		checker.Register("redis", health.Ping(true, redisClient.Ping))
	}

	exec := executor.New(engine, cfg.Passage, m)
	h := handler.New(exec, queryCache, tracker, cfg.Search.DefaultRows, cfg.Search.MaxRows)
	analyticsH := analytics.NewHandler(aggregator)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/passages", h.Passages)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /api/v1/analytics", analyticsH.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst)(chain)
	chain = middleware.Metrics(m, mux)(chain)
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

	slog.Info("passage service listening", "addr", server.Addr, "documents", engine.DocCount())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("passage service stopped")
}
