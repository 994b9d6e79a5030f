package postings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io/fs"
	"os"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
)

// Store is an open, read-only index. It is safe for concurrent use: postings
// are read with positional reads and the dictionary is never modified.
type Store struct {
	file        *os.File
	dict        *Dictionary
	fingerprint uint32
}

// Open loads the dictionary and opens the postings file. Missing or
// unreadable files fail with ErrIndexNotFound; a dictionary that does not
// parse or does not match the postings file fails with ErrCorruptIndex.
func Open(dictPath, postingsPath string) (*Store, error) {
	dictData, err := os.ReadFile(dictPath)
	if err != nil {
		return nil, openError("dictionary", dictPath, err)
	}
	var dict Dictionary
	if err := json.Unmarshal(dictData, &dict); err != nil {
		return nil, apperrors.CorruptIndex("parsing dictionary %s: %v", dictPath, err)
	}
	if dict.Version != FormatVersion {
		return nil, apperrors.CorruptIndex("dictionary %s has format version %d, want %d",
			dictPath, dict.Version, FormatVersion)
	}
	if dict.Terms == nil {
		dict.Terms = make(map[string]Entry)
	}

	f, err := os.Open(postingsPath)
	if err != nil {
		return nil, openError("postings", postingsPath, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, openError("postings", postingsPath, err)
	}
	if info.Size() != dict.PostingsSize {
		f.Close()
		return nil, apperrors.CorruptIndex("postings file %s is %d bytes, dictionary expects %d",
			postingsPath, info.Size(), dict.PostingsSize)
	}
	if err := dict.validate(); err != nil {
		f.Close()
		return nil, err
	}

	return &Store{
		file:        f,
		dict:        &dict,
		fingerprint: crc32.ChecksumIEEE(dictData),
	}, nil
}

func openError(kind, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return apperrors.IndexNotFound("%s file %s does not exist", kind, path)
	}
	return apperrors.IndexNotFound("opening %s file %s: %v", kind, path, err)
}

func (d *Dictionary) validate() error {
	check := func(name string, e Entry) error {
		if e.Size < 1 || e.Offset < 0 || e.Offset+e.Size > d.PostingsSize || e.DocCount < 0 {
			return apperrors.CorruptIndex("entry for %s out of range: %+v", name, e)
		}
		return nil
	}
	if err := check("all documents", d.All); err != nil {
		return err
	}
	for term, e := range d.Terms {
		if err := check(strconv.Quote(term), e); err != nil {
			return err
		}
	}
	return nil
}

// Read loads the postings list located by e.
func (s *Store) Read(e Entry) (index.PostingList, error) {
	data := make([]byte, e.Size)
	if _, err := s.file.ReadAt(data, e.Offset); err != nil {
		return nil, apperrors.CorruptIndex("reading %d bytes at offset %d: %v", e.Size, e.Offset, err)
	}
	return DecodeList(data, e.DocCount)
}

// Lookup returns the postings list and stride for term. found is false when
// the term is not in the dictionary, which is not an error.
func (s *Store) Lookup(term string) (postings index.PostingList, stride int, found bool, err error) {
	e, ok := s.dict.Lookup(term)
	if !ok {
		return nil, 0, false, nil
	}
	postings, err = s.Read(e)
	if err != nil {
		return nil, 0, true, fmt.Errorf("term %q: %w", term, err)
	}
	return postings, e.Stride, true, nil
}

// All returns the list of every document in the collection.
func (s *Store) All() (index.PostingList, int, error) {
	postings, err := s.Read(s.dict.All)
	if err != nil {
		return nil, 0, fmt.Errorf("all-documents list: %w", err)
	}
	return postings, s.dict.All.Stride, nil
}

// Dictionary returns the loaded dictionary. Callers must not modify it.
func (s *Store) Dictionary() *Dictionary {
	return s.dict
}

func (s *Store) Terms() int {
	return len(s.dict.Terms)
}

func (s *Store) DocCount() int {
	return s.dict.All.DocCount
}

// Fingerprint identifies the index build. It is the CRC-32 of the dictionary
// file, which embeds the postings checksum, so it changes whenever any term or
// document ID changes.
func (s *Store) Fingerprint() uint32 {
	return s.fingerprint
}

func (s *Store) Close() error {
	return s.file.Close()
}

// DecodeList parses one delimiter-terminated run holding want IDs.
func DecodeList(data []byte, want int) (index.PostingList, error) {
	if len(data) == 0 || data[len(data)-1] != delimiter {
		return nil, apperrors.CorruptIndex("postings run is not terminated by the delimiter")
	}
	body := data[:len(data)-1]
	if len(body) == 0 {
		if want != 0 {
			return nil, apperrors.CorruptIndex("empty postings run, expected %d IDs", want)
		}
		return index.PostingList{}, nil
	}
	postings := make(index.PostingList, 0, want)
	for len(body) > 0 {
		field := body
		if i := bytes.IndexByte(body, separator); i >= 0 {
			field, body = body[:i], body[i+1:]
			if len(body) == 0 {
				return nil, apperrors.CorruptIndex("trailing separator in postings run")
			}
		} else {
			body = nil
		}
		id, err := strconv.ParseUint(string(field), 10, 32)
		if err != nil {
			return nil, apperrors.CorruptIndex("bad document ID %q", field)
		}
		if n := len(postings); n > 0 && uint32(id) <= postings[n-1] {
			return nil, apperrors.CorruptIndex("postings not ascending at %d", id)
		}
		postings = append(postings, uint32(id))
	}
	if len(postings) != want {
		return nil, apperrors.CorruptIndex("postings run holds %d IDs, expected %d", len(postings), want)
	}
	return postings, nil
}
