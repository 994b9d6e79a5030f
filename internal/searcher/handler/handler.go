package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/cache"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/logger"
)

// IndexInfo describes the loaded index.
type IndexInfo interface {
	DocCount() int
	Terms() int
	Fingerprint() uint32
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Query     string   `json:"query"`
	Postfix   string   `json:"postfix"`
	TotalHits int      `json:"total_hits"`
	DocIDs    []uint32 `json:"doc_ids"`
	Cached    bool     `json:"cached"`
	TookMs    float64  `json:"took_ms"`
}

type Handler struct {
	searcher   searcher.Searcher
	index      IndexInfo
	cache      *cache.QueryCache
	maxResults int
	logger     *slog.Logger
}

// New creates a Handler. queryCache may be nil. maxResults caps the limit
// parameter; 0 means no cap.
func New(s searcher.Searcher, index IndexInfo, queryCache *cache.QueryCache, maxResults int) *Handler {
	return &Handler{
		searcher:   s,
		index:      index,
		cache:      queryCache,
		maxResults: maxResults,
		logger:     slog.Default().With("component", "search-handler"),
	}
}

// Routes registers the API endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/index", h.IndexStats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
}

// Search answers GET /api/v1/search?q=<query>[&limit=n]. total_hits always
// counts every match; limit only truncates doc_ids.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	limit := h.maxResults
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if h.maxResults == 0 || n < h.maxResults {
			limit = n
		}
	}

	res, err := h.searcher.Query(ctx, query)
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		if status >= 500 {
			log.Error("search failed", "query", query, "error", err)
		}
		h.writeError(w, status, err.Error())
		return
	}

	resp := SearchResponse{
		Query:     res.Query,
		Postfix:   res.Postfix,
		TotalHits: len(res.DocIDs),
		DocIDs:    res.DocIDs,
		Cached:    res.Cached,
		TookMs:    float64(time.Since(start).Microseconds()) / 1000,
	}
	if limit > 0 && len(resp.DocIDs) > limit {
		resp.DocIDs = resp.DocIDs[:limit]
	}
	log.Info("search completed",
		"query", query,
		"total_hits", resp.TotalHits,
		"returned", len(resp.DocIDs),
		"cached", resp.Cached,
		"took_ms", resp.TookMs,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"documents":   h.index.DocCount(),
		"terms":       h.index.Terms(),
		"fingerprint": fmt.Sprintf("%08x", h.index.Fingerprint()),
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
