package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"newssum/analysis"
	"newssum/api"
	"newssum/cache"
	"newssum/config"
	"newssum/costs"
	"newssum/fetcher"
	"newssum/sentiment"
	"newssum/storage"
	"newssum/summarizer"
	"newssum/telemetry"
	"newssum/translator"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	log := telemetry.NewLogger(cfg.LogLevel)

	allow, err := config.LoadAllowlist(cfg.AllowlistPath)
	if err != nil {
		log.Error("allowlist load failed", "path", cfg.AllowlistPath, "error", err)
		os.Exit(1)
	}
	gate := fetcher.New(allow, cfg.FetchTimeout, log)
	log.Info("allowlist loaded", "path", cfg.AllowlistPath, "domains", allow.Size())

	store := buildCache(cfg, log)
	orchestrator := buildSummarizer(cfg, log)
	sentimentGate := sentiment.New(buildClassifier(cfg), log)
	pricing := buildPricing(cfg, log)

	history, err := storage.NewSQLite(cfg.DBPath, log)
	if err != nil {
		log.Error("sqlite open failed", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer history.Close()

	archiver, err := storage.NewArchiver(context.Background(), storage.S3Config{
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		Profile:      cfg.S3Profile,
		Prefix:       cfg.S3Prefix,
		UsePathStyle: cfg.S3UsePathStyle,
	}, log)
	if err != nil {
		log.Error("s3 archiver init failed", "bucket", cfg.S3Bucket, "error", err)
		os.Exit(1)
	}

	publisher, err := telemetry.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	if err != nil {
		log.Error("kafka producer init failed", "brokers", cfg.KafkaBrokers, "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	metrics := telemetry.NewMetrics()

	pipeline := analysis.New(analysis.Deps{
		Fetcher:   gate,
		Cache:     store,
		Summary:   orchestrator,
		Sentiment: sentimentGate,
		Pricing:   pricing,
		History:   history,
		Archiver:  archiver,
		Publisher: publisher,
		Metrics:   metrics,
		Sampler:   telemetry.NewSampler(cfg.SampleRate),
		Log:       log,
		CacheTTL:  cfg.CacheTTL,
	})

	// Reap unexpired-but-stale entries at startup and every six hours.
	pruneCache(store, log)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 6h", func() { pruneCache(store, log) }); err != nil {
		log.Error("prune schedule failed", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := api.NewRouter(api.RouterDeps{
		Pipeline:      pipeline,
		History:       history,
		Cache:         store,
		Gate:          gate,
		Metrics:       metrics,
		AllowlistPath: cfg.AllowlistPath,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("starting API server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("shutdown incomplete", "error", err)
	}
}

// buildCache prefers Redis; without a REDIS_URL the process falls back to
// the in-memory store, which is fine for a single instance but shares
// nothing across replicas.
func buildCache(cfg config.Config, log *slog.Logger) cache.Store {
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not set, using in-memory cache")
		return cache.NewMemory()
	}
	rdb, err := cache.NewRedis(cfg.RedisURL, log)
	if err != nil {
		log.Warn("redis unavailable, using in-memory cache", "error", err)
		return cache.NewMemory()
	}
	log.Info("redis cache connected")
	return rdb
}

// buildSummarizer assembles the tier list from whichever provider keys are
// configured. An empty list still works: the extractive tier answers.
func buildSummarizer(cfg config.Config, log *slog.Logger) *summarizer.Orchestrator {
	var providers []summarizer.Provider
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, summarizer.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel))
	}
	if cfg.CohereAPIKey != "" {
		providers = append(providers, summarizer.NewCohereProvider(cfg.CohereAPIKey, cfg.CohereModel))
	}
	if len(providers) == 0 {
		log.Warn("no generative summarizer configured, extractive tier only")
	}

	var tr summarizer.Translator
	if cfg.TranslateURL != "" {
		tr = translator.New(cfg.TranslateURL, cfg.SummaryTimeout)
	}

	return summarizer.New(providers, tr, log)
}

func buildClassifier(cfg config.Config) sentiment.Classifier {
	if cfg.SentimentURL != "" {
		return sentiment.NewInferenceClient(cfg.SentimentURL, cfg.SentimentAPIKey, cfg.SummaryTimeout)
	}
	return sentiment.NewLocalClassifier()
}

func buildPricing(cfg config.Config, log *slog.Logger) *costs.Table {
	if cfg.PricingPath == "" {
		return costs.DefaultTable()
	}
	table, err := costs.LoadTable(cfg.PricingPath)
	if err != nil {
		log.Warn("pricing table load failed, using defaults", "path", cfg.PricingPath, "error", err)
		return costs.DefaultTable()
	}
	return table
}

func pruneCache(store cache.Store, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if deleted := store.Prune(ctx, config.PruneBatchLimit); deleted > 0 {
		log.Info("cache prune", "deleted", deleted)
	}
}
