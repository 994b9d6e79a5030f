package indexer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
)

// Source enumerates the documents of a collection.
type Source interface {
	// IDs returns every document ID in ascending numeric order.
	IDs() ([]uint32, error)
	Open(id uint32) (io.ReadCloser, error)
}

// DirSource reads a directory in which each regular file is one document
// named by its numeric ID.
type DirSource struct {
	dir    string
	names  map[uint32]string
	logger *slog.Logger
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{
		dir:    dir,
		logger: slog.Default().With("component", "dir-source"),
	}
}

// IDs lists the directory. Names that are not decimal integers are skipped.
// A numeric name too large for a document ID fails the listing rather than
// silently dropping the document. IDs are sorted numerically, so "10"
// follows "9".
func (s *DirSource) IDs() ([]uint32, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading document directory %s: %w", s.dir, err)
	}
	ids := make([]uint32, 0, len(entries))
	names := make(map[uint32]string, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		id, err := strconv.ParseUint(entry.Name(), 10, 32)
		if errors.Is(err, strconv.ErrRange) {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
				"document %s in %s: ID exceeds the maximum of %d", entry.Name(), s.dir, uint32(math.MaxUint32))
		}
		if err != nil {
			s.logger.Warn("skipping file with non-numeric name", "file", entry.Name())
			continue
		}
		// "7" and "007" name the same document
		if prev, dup := names[uint32(id)]; dup {
			return nil, fmt.Errorf("files %s and %s in %s map to the same document ID %d",
				prev, entry.Name(), s.dir, id)
		}
		names[uint32(id)] = entry.Name()
		ids = append(ids, uint32(id))
	}
	slices.Sort(ids)
	s.names = names
	return ids, nil
}

// Open must not run concurrently with IDs.
func (s *DirSource) Open(id uint32) (io.ReadCloser, error) {
	name, ok := s.names[id]
	if !ok {
		name = strconv.FormatUint(uint64(id), 10)
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("opening document %d: %w", id, err)
	}
	return f, nil
}

// StringSource is an in-memory collection keyed by document ID.
type StringSource map[uint32]string

func (s StringSource) IDs() ([]uint32, error) {
	ids := make([]uint32, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s StringSource) Open(id uint32) (io.ReadCloser, error) {
	text, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("document %d not found", id)
	}
	return io.NopCloser(strings.NewReader(text)), nil
}
