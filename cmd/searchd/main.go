// Command searchd serves Boolean queries over HTTP from a prebuilt index.
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

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/postings"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/resilience"
)

func main() {
	dictPath := flag.String("d", "", "dictionary file (default from config)")
	postingsPath := flag.String("p", "", "postings file (default from config)")
	configPath := flag.String("config", "", "path to config file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-d dictionary] [-p postings] [-config file]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dictPath == "" {
		*dictPath = cfg.Index.DictionaryFile
	}
	if *postingsPath == "" {
		*postingsPath = cfg.Index.PostingsFile
	}
	if *dictPath == "" || *postingsPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	store, err := postings.Open(*dictPath, *postingsPath)
	if err != nil {
		slog.Error("failed to open index", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("index opened",
		"documents", store.DocCount(),
		"terms", store.Terms(),
		"fingerprint", fmt.Sprintf("%08x", store.Fingerprint()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	m.IndexDocuments.Set(float64(store.DocCount()))
	m.IndexTerms.Set(float64(store.Terms()))
	if cfg.Metrics.Enabled {
		shutdownMetrics := m.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if _, _, err := store.All(); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d documents", store.DocCount())}
	})

	var qc *cache.QueryCache
	if cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, result caching disabled", "error", err)
		} else {
			defer client.Close()
			qc = cache.New(cache.Guard(client, resilience.NewBreaker("redis", resilience.BreakerConfig{})), cfg.Redis.CacheTTL, m)
			checker.RegisterOptional("redis", health.Ping(client))
			slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	session := searcher.NewSession(store, tokenizer.English{}, qc, m)
	h := handler.New(session, store, qc, cfg.Search.MaxResults)

	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	chain := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Metrics(m),
		middleware.Timeout(cfg.Search.Timeout),
	)
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

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}
