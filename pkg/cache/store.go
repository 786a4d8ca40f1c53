package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/microc-analysis/pkg/report"
)

// formatVersion is bumped whenever the persisted layout changes. Files with
// another version are ignored.
const formatVersion = 1

// Key derives the cache key of an analysis run from the program source and
// the analysis and solver names.
func Key(source, analysis, solver string) string {
	h := sha256.New()
	for _, part := range []string{analysis, solver, source} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ReportStore is an LRU cache of reports persisted to a msgpack file.
type ReportStore struct {
	*LRU[*report.Report]
	path string
}

type storeFile struct {
	Version int                      `msgpack:"version"`
	Entries []Entry[*report.Report] `msgpack:"entries"`
}

// NewReportStore creates a store backed by path. An empty path keeps the
// store in memory only.
func NewReportStore(path string, maxSize int) *ReportStore {
	return &ReportStore{
		LRU:  New(Options[*report.Report]{MaxSize: maxSize}),
		path: path,
	}
}

func (s *ReportStore) Path() string { return s.path }

// Save writes the entries to w.
func (s *ReportStore) Save(w io.Writer) error {
	s.mu.Lock()
	data := storeFile{Version: formatVersion, Entries: s.entries()}
	s.mu.Unlock()

	if err := msgpack.NewEncoder(w).Encode(&data); err != nil {
		return fmt.Errorf("encoding report cache: %w", err)
	}
	return nil
}

// Load replaces the entries with those read from r.
func (s *ReportStore) Load(r io.Reader) error {
	var data storeFile
	if err := msgpack.NewDecoder(r).Decode(&data); err != nil {
		return fmt.Errorf("decoding report cache: %w", err)
	}
	if data.Version != formatVersion {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.restore(data.Entries)
	return nil
}

// Persist saves the store to its file, creating parent directories.
func (s *ReportStore) Persist() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()
	return s.Save(f)
}

// Restore loads the store from its file. A missing file is not an error.
func (s *ReportStore) Restore() error {
	if s.path == "" {
		return nil
	}
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()
	return s.Load(f)
}
