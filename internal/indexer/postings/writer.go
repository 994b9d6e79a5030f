// Package postings implements the on-disk index: a postings file holding every
// postings list as comma-separated decimal document IDs, each run terminated
// by a single space, and a dictionary file mapping each term to the location
// of its run.
//
// The postings file is not self-describing. Offsets and sizes recorded in the
// dictionary are the only way to find a term's run.
package postings

import (
	"bufio"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/index"
)

const (
	FormatVersion = 2

	separator byte = ','
	delimiter byte = ' '
)

// Entry locates one postings list inside the postings file and records its
// precomputed skip stride.
type Entry struct {
	DocCount int   `json:"n"`
	Offset   int64 `json:"o"`
	Size     int64 `json:"s"`
	Stride   int   `json:"k"`
}

// Dictionary maps terms to entries. The all-documents list lives in its own
// field, so no term can ever shadow it. PostingsCRC is the CRC-32 of the
// whole postings file; it ties the dictionary to the IDs it points at.
type Dictionary struct {
	Version      int              `json:"version"`
	PostingsSize int64            `json:"postings_size"`
	PostingsCRC  uint32           `json:"postings_crc"`
	All          Entry            `json:"all"`
	Terms        map[string]Entry `json:"terms"`
}

// Lookup returns the entry for term.
func (d *Dictionary) Lookup(term string) (Entry, bool) {
	e, ok := d.Terms[term]
	return e, ok
}

// Writer serialises an index snapshot into a dictionary file and a postings
// file.
type Writer struct {
	logger *slog.Logger
}

func NewWriter() *Writer {
	return &Writer{logger: slog.Default().With("component", "postings-writer")}
}

// Write creates both files. Each file is written to a .tmp sibling first and
// renamed on success. Terms are written in snapshot order; the all-documents
// list is written first.
func (w *Writer) Write(dictPath, postingsPath string, snap index.Snapshot) (*Dictionary, error) {
	dict := &Dictionary{
		Version: FormatVersion,
		Terms:   make(map[string]Entry, len(snap.Terms)),
	}

	err := writeAtomic(postingsPath, func(f *os.File) error {
		bw := bufio.NewWriterSize(f, 1<<20)
		var (
			offset int64
			sum    uint32
		)
		buf := make([]byte, 0, 4096)

		put := func(postings index.PostingList) (Entry, error) {
			buf = AppendList(buf[:0], postings)
			n, err := bw.Write(buf)
			if err != nil {
				return Entry{}, err
			}
			sum = crc32.Update(sum, crc32.IEEETable, buf)
			e := Entry{
				DocCount: len(postings),
				Offset:   offset,
				Size:     int64(n),
				Stride:   index.Stride(len(postings)),
			}
			offset += int64(n)
			return e, nil
		}

		all, err := put(snap.All)
		if err != nil {
			return fmt.Errorf("writing all-documents list: %w", err)
		}
		dict.All = all
		for _, entry := range snap.Terms {
			e, err := put(entry.Postings)
			if err != nil {
				return fmt.Errorf("writing postings for term %q: %w", entry.Term, err)
			}
			dict.Terms[entry.Term] = e
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("flushing postings: %w", err)
		}
		dict.PostingsSize = offset
		dict.PostingsCRC = sum
		return nil
	})
	if err != nil {
		return nil, err
	}

	dictData, err := json.Marshal(dict)
	if err != nil {
		return nil, fmt.Errorf("marshaling dictionary: %w", err)
	}
	err = writeAtomic(dictPath, func(f *os.File) error {
		if _, err := f.Write(dictData); err != nil {
			return fmt.Errorf("writing dictionary: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.logger.Info("index written",
		"dictionary", dictPath,
		"postings", postingsPath,
		"terms", len(dict.Terms),
		"docs", dict.All.DocCount,
		"postings_bytes", dict.PostingsSize,
	)
	return dict, nil
}

// AppendList appends the serialised form of postings to dst: comma-joined
// decimal IDs followed by the delimiter.
func AppendList(dst []byte, postings index.PostingList) []byte {
	for i, id := range postings {
		if i > 0 {
			dst = append(dst, separator)
		}
		dst = strconv.AppendUint(dst, uint64(id), 10)
	}
	return append(dst, delimiter)
}

func writeAtomic(path string, fill func(f *os.File) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", path, err)
		}
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp file %s: %w", tmpPath, err)
	}
	defer f.Close()
	if err := fill(f); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", tmpPath, err)
	}
	f.Close()
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming %s: %w", tmpPath, err)
	}
	return nil
}
