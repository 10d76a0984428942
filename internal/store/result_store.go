package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// RunResult is one frame's worth of task-system output, persisted so the
// demo app's dashboard can show history across restarts. Grounded on
// internal/storage/badger/job_storage.go's models.Job record shape,
// trimmed to what the scheduler demo actually produces.
type RunResult struct {
	ID         string    `json:"id"`
	Frame      int       `json:"frame"`
	URL        string    `json:"url,omitempty"`
	Title      string    `json:"title,omitempty"`
	MarkdownLen int      `json:"markdown_len"`
	PDFPath    string    `json:"pdf_path,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ResultStore persists RunResults in an embedded Badger database via
// badgerhold, mirroring BadgerDB/JobStorage's open/Upsert/Find shape.
type ResultStore struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

// Open opens (creating if absent) a Badger database at path. If
// resetOnStartup is set, any existing database at path is removed first,
// matching the teacher's reset_on_startup config flag.
func Open(path string, resetOnStartup bool, logger arbor.ILogger) (*ResultStore, error) {
	if resetOnStartup {
		if _, err := os.Stat(path); err == nil {
			logger.Debug().Str("path", path).Msg("removing existing result store (reset_on_startup=true)")
			if err := os.RemoveAll(path); err != nil {
				logger.Warn().Err(err).Str("path", path).Msg("failed to remove result store directory")
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create result store directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil

	bh, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}

	return &ResultStore{store: bh, logger: logger}, nil
}

// Close releases the underlying Badger database.
func (s *ResultStore) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// Save upserts a RunResult keyed by its ID.
func (s *ResultStore) Save(r *RunResult) error {
	if r.ID == "" {
		return fmt.Errorf("result ID is required")
	}
	if err := s.store.Upsert(r.ID, r); err != nil {
		return fmt.Errorf("save result %s: %w", r.ID, err)
	}
	return nil
}

// Recent returns up to limit of the most recently created results.
func (s *ResultStore) Recent(limit int) ([]*RunResult, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []RunResult
	if err := s.store.Find(&results, query); err != nil {
		return nil, fmt.Errorf("list recent results: %w", err)
	}

	out := make([]*RunResult, len(results))
	for i := range results {
		out[i] = &results[i]
	}
	return out, nil
}

// Count returns the total number of stored results.
func (s *ResultStore) Count() (int, error) {
	n, err := s.store.Count(&RunResult{}, nil)
	if err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return int(n), nil
}
