// Package searcher answers Boolean queries against an open index. A Session
// parses a query, evaluates it with skip-list merges and optionally memoizes
// results in Redis.
package searcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/tracing"
)

// Index is an open index. *postings.Store satisfies it.
type Index interface {
	executor.Store
	Fingerprint() uint32
}

// Result is the answer to one query.
type Result struct {
	Query   string   `json:"query"`
	Postfix string   `json:"postfix"`
	DocIDs  []uint32 `json:"doc_ids"`
	Cached  bool     `json:"-"`
}

// Searcher is what the batch runner and the HTTP handler need.
type Searcher interface {
	Query(ctx context.Context, query string) (*Result, error)
}

// Session is safe for concurrent use.
type Session struct {
	index      Index
	normalizer tokenizer.Normalizer
	executor   *executor.Executor
	cache      *cache.QueryCache
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewSession binds an index to a normalizer. qc and m may be nil.
func NewSession(idx Index, normalizer tokenizer.Normalizer, qc *cache.QueryCache, m *metrics.Metrics) *Session {
	return &Session{
		index:      idx,
		normalizer: normalizer,
		executor:   executor.New(idx),
		cache:      qc,
		metrics:    m,
		logger:     slog.Default().With("component", "search-session"),
	}
}

// Search returns the ascending IDs of the documents matching query.
func (s *Session) Search(ctx context.Context, query string) ([]uint32, error) {
	res, err := s.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return res.DocIDs, nil
}

// Query is Search with the parsed form of the query attached.
func (s *Session) Query(ctx context.Context, query string) (*Result, error) {
	start := time.Now()
	ctx, span, root := s.startSpan(ctx)
	defer func() {
		span.End()
		if root {
			span.LogTo(logger.FromContext(ctx))
		}
	}()
	span.SetAttr("query", query)

	_, parseSpan := tracing.StartChildSpan(ctx, "parse")
	postfix, err := parser.Parse(query, s.normalizer)
	parseSpan.End()
	if err != nil {
		s.record(start, "disabled", nil, err)
		return nil, err
	}
	res := &Result{Query: query, Postfix: parser.Format(postfix)}
	span.SetAttr("postfix", res.Postfix)

	evalCtx, evalSpan := tracing.StartChildSpan(ctx, "evaluate")
	evaluate := func(ctx context.Context) ([]uint32, error) {
		r, err := s.executor.Execute(ctx, postfix)
		if err != nil {
			return nil, err
		}
		return r.IDs, nil
	}
	cacheStatus := "disabled"
	if s.cache != nil {
		res.DocIDs, res.Cached, err = s.cache.GetOrCompute(evalCtx, cache.Key(s.index.Fingerprint(), res.Postfix), evaluate)
		cacheStatus = "miss"
		if res.Cached {
			cacheStatus = "hit"
		}
	} else {
		res.DocIDs, err = evaluate(evalCtx)
	}
	evalSpan.SetAttr("cache", cacheStatus)
	evalSpan.End()

	s.record(start, cacheStatus, res.DocIDs, err)
	if err != nil {
		if !errors.Is(err, apperrors.ErrInvalidQuery) {
			s.logger.Error("query evaluation failed", "query", query, "error", err)
		}
		return nil, err
	}
	if res.DocIDs == nil {
		res.DocIDs = []uint32{}
	}
	span.SetAttr("hits", len(res.DocIDs))
	return res, nil
}

// startSpan joins the caller's trace if there is one; otherwise it starts a
// root span that Query logs when done.
func (s *Session) startSpan(ctx context.Context) (context.Context, *tracing.Span, bool) {
	if tracing.SpanFromContext(ctx) != nil {
		ctx, span := tracing.StartChildSpan(ctx, "search")
		return ctx, span, false
	}
	traceID := logger.RequestID(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
	}
	ctx, span := tracing.StartSpan(ctx, "search", traceID)
	return ctx, span, true
}

func (s *Session) record(start time.Time, cacheStatus string, ids []uint32, err error) {
	if s.metrics == nil {
		return
	}
	resultType := "hit"
	switch {
	case errors.Is(err, apperrors.ErrInvalidQuery):
		resultType = "invalid"
	case err != nil:
		resultType = "error"
	case len(ids) == 0:
		resultType = "zero_result"
	}
	s.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	if err == nil {
		s.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
		s.metrics.SearchResultsCount.Observe(float64(len(ids)))
	}
}
