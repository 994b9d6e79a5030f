// Command searcher answers a file of Boolean queries, one per line, and
// writes one line of matching document IDs per query.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/postings"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/batch"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/resilience"
)

func main() {
	dictPath := flag.String("d", "", "dictionary file (required)")
	postingsPath := flag.String("p", "", "postings file (required)")
	queriesPath := flag.String("q", "", "query file, one query per line (required)")
	outputPath := flag.String("o", "", "result file to write (required)")
	configPath := flag.String("config", "", "path to config file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s -d dictionary -p postings -q queries -o results [-config file]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if *dictPath == "" || *postingsPath == "" || *queriesPath == "" || *outputPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg, *dictPath, *postingsPath, *queriesPath, *outputPath); err != nil {
		slog.Error("search failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, dictPath, postingsPath, queriesPath, outputPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postings.Open(dictPath, postingsPath)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("index opened", "documents", store.DocCount(), "terms", store.Terms())

	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		shutdown := m.StartServer(cfg.Metrics.Port)
		defer shutdown(context.Background())
	}

	var qc *cache.QueryCache
	if cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, result caching disabled", "error", err)
		} else {
			defer client.Close()
			qc = cache.New(cache.Guard(client, resilience.NewBreaker("redis", resilience.BreakerConfig{})), cfg.Redis.CacheTTL, m)
		}
	}

	in, err := os.Open(queriesPath)
	if err != nil {
		return fmt.Errorf("opening query file: %w", err)
	}
	defer in.Close()
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating result file: %w", err)
	}

	session := searcher.NewSession(store, tokenizer.English{}, qc, m)
	stats, err := batch.Run(ctx, session, in, out, cfg.Search.Workers)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing result file: %w", cerr)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "answered %d queries (%d invalid, %d without matches) in %s\n",
		stats.Queries, stats.Invalid, stats.Empty, stats.Duration)
	return nil
}
