// Command indexer builds the dictionary and postings files from a directory
// of documents named by their numeric IDs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/announce"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/redis"
)

func main() {
	inputDir := flag.String("i", "", "directory of documents named by numeric ID (required)")
	dictPath := flag.String("d", "", "dictionary file to write (required)")
	postingsPath := flag.String("p", "", "postings file to write (required)")
	configPath := flag.String("config", "", "path to config file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s -i dir -d dictionary -p postings [-config file]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if *inputDir == "" || *dictPath == "" || *postingsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		shutdown := m.StartServer(cfg.Metrics.Port)
		defer shutdown(context.Background())
	}

	slog.Info("starting index build",
		"input", *inputDir,
		"workers", cfg.Index.Workers,
		"batch_size", cfg.Index.BatchSize,
	)
	builder := indexer.NewBuilder(cfg.Index, tokenizer.English{}, m)
	manifest, err := builder.Run(ctx, indexer.NewDirSource(*inputDir), *dictPath, *postingsPath)
	if err != nil {
		slog.Error("index build failed", "error", err)
		os.Exit(1)
	}

	announceBuild(ctx, cfg, manifest)
	invalidateCache(ctx, cfg)

	fmt.Fprintf(os.Stderr, "indexed %d documents, %d terms, fingerprint %s\n",
		manifest.Documents, manifest.Terms, indexer.FormatFingerprint(manifest.Fingerprint))
}

func announceBuild(ctx context.Context, cfg *config.Config, manifest *indexer.Manifest) {
	var (
		publisher announce.Publisher
		recorder  announce.Recorder
	)
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
		defer producer.Close()
		publisher = producer
	}
	if cfg.Postgres.Enabled {
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, build not recorded", "error", err)
		} else {
			defer client.Close()
			buildLog := announce.NewBuildLog(client)
			if err := buildLog.EnsureSchema(ctx); err != nil {
				slog.Warn("build log unavailable", "error", err)
			} else {
				if prev, err := buildLog.Latest(ctx); err == nil && prev == indexer.FormatFingerprint(manifest.Fingerprint) {
					slog.Info("index content unchanged since last recorded build", "fingerprint", prev)
				}
				recorder = buildLog
			}
		}
	}
	if publisher == nil && recorder == nil {
		return
	}
	announce.New(publisher, recorder).Announce(ctx, manifest)
}

// invalidateCache drops results cached against earlier builds. Their keys
// can no longer be hit, but they would occupy Redis until their TTL expires.
func invalidateCache(ctx context.Context, cfg *config.Config) {
	if !cfg.Redis.Enabled {
		return
	}
	client, err := pkgredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, cache not invalidated", "error", err)
		return
	}
	defer client.Close()
	if err := cache.New(client, cfg.Redis.CacheTTL, nil).Invalidate(ctx); err != nil {
		slog.Warn("cache invalidation failed", "error", err)
	}
}
