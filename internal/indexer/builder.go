// Package indexer builds the Boolean index: it enumerates a document source,
// normalizes every document, accumulates postings lists in ascending
// document-ID order, and writes the dictionary and postings files.
package indexer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/postings"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/tracing"
)

// Manifest describes a completed build.
type Manifest struct {
	Documents      int           `json:"documents"`
	Terms          int           `json:"terms"`
	DictionaryPath string        `json:"dictionary_path"`
	PostingsPath   string        `json:"postings_path"`
	PostingsBytes  int64         `json:"postings_bytes"`
	Fingerprint    uint32        `json:"fingerprint"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
}

// FormatFingerprint renders an index fingerprint the way logs, events and the
// build log show it.
func FormatFingerprint(fp uint32) string {
	return fmt.Sprintf("%08x", fp)
}

type Builder struct {
	cfg        config.IndexConfig
	normalizer tokenizer.Normalizer
	writer     *postings.Writer
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewBuilder creates a Builder. m may be nil.
func NewBuilder(cfg config.IndexConfig, normalizer tokenizer.Normalizer, m *metrics.Metrics) *Builder {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	return &Builder{
		cfg:        cfg,
		normalizer: normalizer,
		writer:     postings.NewWriter(),
		metrics:    m,
		logger:     slog.Default().With("component", "index-builder"),
	}
}

// Build reads every document of src into a MemoryIndex. Documents of one
// batch are normalized concurrently; the batch is then merged serially in
// ascending ID order, which keeps every postings list sorted and
// duplicate-free.
func (b *Builder) Build(ctx context.Context, src Source) (*index.MemoryIndex, error) {
	ids, err := src.IDs()
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	mi := index.NewMemoryIndex()
	for start := 0; start < len(ids); start += b.cfg.BatchSize {
		end := min(start+b.cfg.BatchSize, len(ids))
		batch := ids[start:end]
		terms := make([][]string, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(b.cfg.Workers)
		for i, id := range batch {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				docTerms, err := b.normalizeDocument(src, id)
				if err != nil {
					return err
				}
				terms[i] = docTerms
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for i, id := range batch {
			if err := mi.AddDocument(id, terms[i]); err != nil {
				return nil, fmt.Errorf("adding document %d: %w", id, err)
			}
		}
		if b.metrics != nil {
			b.metrics.DocsIndexedTotal.Add(float64(len(batch)))
		}
		b.logger.Debug("batch indexed",
			"first_doc", batch[0],
			"last_doc", batch[len(batch)-1],
			"docs", len(batch),
			"terms", mi.Terms(),
		)
	}
	return mi, nil
}

// normalizeDocument returns the distinct terms of one document in first-seen
// order.
func (b *Builder) normalizeDocument(src Source, id uint32) ([]string, error) {
	rc, err := src.Open(id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	text, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading document %d: %w", id, err)
	}
	all := b.normalizer.Normalize(string(text))
	seen := make(map[string]struct{}, len(all))
	terms := all[:0]
	for _, term := range all {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms, nil
}

// Run builds the index from src, writes it to dictPath and postingsPath, and
// reopens the result to verify it.
func (b *Builder) Run(ctx context.Context, src Source, dictPath, postingsPath string) (*Manifest, error) {
	started := time.Now()
	ctx, span := tracing.StartSpan(ctx, "index-build", fmt.Sprintf("build-%d", started.UnixNano()))
	defer func() {
		span.End()
		span.LogTo(b.logger)
	}()

	manifest, err := b.run(ctx, src, dictPath, postingsPath)
	if b.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		b.metrics.IndexBuildsTotal.WithLabelValues(status).Inc()
	}
	if err != nil {
		return nil, err
	}
	manifest.StartedAt = started
	manifest.Duration = time.Since(started)
	if b.metrics != nil {
		b.metrics.IndexBuildDuration.Observe(manifest.Duration.Seconds())
		b.metrics.IndexDocuments.Set(float64(manifest.Documents))
		b.metrics.IndexTerms.Set(float64(manifest.Terms))
	}
	span.SetAttr("documents", manifest.Documents)
	span.SetAttr("terms", manifest.Terms)
	b.logger.Info("index build complete",
		"documents", manifest.Documents,
		"terms", manifest.Terms,
		"postings_bytes", manifest.PostingsBytes,
		"duration", manifest.Duration,
	)
	return manifest, nil
}

func (b *Builder) run(ctx context.Context, src Source, dictPath, postingsPath string) (*Manifest, error) {
	buildCtx, buildSpan := tracing.StartChildSpan(ctx, "normalize")
	mi, err := b.Build(buildCtx, src)
	buildSpan.End()
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	_, writeSpan := tracing.StartChildSpan(ctx, "write")
	dict, err := b.writer.Write(dictPath, postingsPath, mi.Snapshot())
	writeSpan.End()
	if err != nil {
		return nil, fmt.Errorf("writing index: %w", err)
	}

	store, err := postings.Open(dictPath, postingsPath)
	if err != nil {
		return nil, fmt.Errorf("verifying written index: %w", err)
	}
	defer store.Close()

	return &Manifest{
		Documents:      dict.All.DocCount,
		Terms:          len(dict.Terms),
		DictionaryPath: dictPath,
		PostingsPath:   postingsPath,
		PostingsBytes:  dict.PostingsSize,
		Fingerprint:    store.Fingerprint(),
	}, nil
}
