// Package batch answers a file of queries, one per line, writing one result
// line per query in input order.
package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
)

// maxLineBytes bounds a single query line.
const maxLineBytes = 1 << 20

// Stats summarizes a batch run.
type Stats struct {
	Queries  int
	Invalid  int
	Empty    int
	Duration time.Duration
}

// Run reads queries from r and writes their results to w. Each output line
// holds the matching document IDs separated by single spaces; a query with
// no matches or an invalid query yields an empty line. Any other error
// aborts the run.
func Run(ctx context.Context, s searcher.Searcher, r io.Reader, w io.Writer, workers int) (Stats, error) {
	start := time.Now()
	log := slog.Default().With("component", "batch-runner")
	if workers < 1 {
		workers = 1
	}

	queries, err := readLines(r)
	if err != nil {
		return Stats{}, err
	}

	results := make([][]uint32, len(queries))
	invalid := make([]bool, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, q := range queries {
		if q.tooLong {
			log.Warn("invalid query", "line", i+1, "error", "line exceeds maximum length", "max_bytes", maxLineBytes)
			invalid[i] = true
			continue
		}
		g.Go(func() error {
			res, err := s.Query(gctx, q.text)
			switch {
			case errors.Is(err, apperrors.ErrInvalidQuery):
				log.Warn("invalid query", "line", i+1, "query", q.text, "error", err)
				invalid[i] = true
				return nil
			case err != nil:
				return fmt.Errorf("query on line %d: %w", i+1, err)
			}
			results[i] = res.DocIDs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	stats := Stats{Queries: len(queries)}
	bw := bufio.NewWriter(w)
	var line []byte
	for i, ids := range results {
		if invalid[i] {
			stats.Invalid++
		} else if len(ids) == 0 {
			stats.Empty++
		}
		line = AppendIDs(line[:0], ids)
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return stats, fmt.Errorf("writing results: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("writing results: %w", err)
	}
	stats.Duration = time.Since(start)
	log.Info("batch complete",
		"queries", stats.Queries,
		"invalid", stats.Invalid,
		"empty", stats.Empty,
		"duration", stats.Duration,
	)
	return stats, nil
}

// AppendIDs appends ids to dst as space-separated decimals.
func AppendIDs(dst []byte, ids []uint32) []byte {
	for i, id := range ids {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = strconv.AppendUint(dst, uint64(id), 10)
	}
	return dst
}

type queryLine struct {
	text    string
	tooLong bool
}

// readLines splits r into lines. A line longer than maxLineBytes is consumed
// and flagged instead of failing the whole read.
func readLines(r io.Reader) ([]queryLine, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	var (
		lines []queryLine
		buf   []byte
		long  bool
	)
	for {
		chunk, err := br.ReadSlice('\n')
		if !long {
			if len(buf)+len(chunk) > maxLineBytes+2 {
				long = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading queries: %w", err)
		}
		if len(chunk) > 0 || len(buf) > 0 || long {
			text := strings.TrimSuffix(strings.TrimSuffix(string(buf), "\n"), "\r")
			if long || len(text) > maxLineBytes {
				lines = append(lines, queryLine{tooLong: true})
			} else {
				lines = append(lines, queryLine{text: text})
			}
		}
		buf, long = buf[:0], false
		if err != nil {
			return lines, nil
		}
	}
}
