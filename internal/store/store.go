// Package store owns the in-memory RBAC document and its persistence.
//
// All registry mutations go through Update, which serializes writers behind
// one mutex: a mutation reads the current snapshot, validates, and commits as
// one step, so no operation ever observes a partially-applied change. Reads
// run concurrently against the last committed snapshot via View.
package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"log/slog"
)

// Store is the single owned document passed explicitly to every service.
type Store struct {
	mu     sync.RWMutex
	doc    *Document
	path   string
	logger *slog.Logger

	// lastWritten lets the file watcher tell our own saves apart from
	// external edits.
	lastWritten []byte
}

// Open loads the document from path, creating the parent directory so later
// saves can land. A missing or unreadable file leaves an empty default
// document; that is reported but not fatal.
func Open(path string, logger *slog.Logger) *Store {
	s := &Store{doc: &Document{}, path: path, logger: logger}
	if path == "" {
		return s
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && logger != nil {
		logger.Warn("create data dir", slog.String("path", path), slog.Any("error", err))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && logger != nil {
			logger.Warn("read rbac document", slog.String("path", path), slog.Any("error", err))
		}
		return s
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		if logger != nil {
			logger.Warn("decode rbac document, using empty defaults", slog.String("path", path), slog.Any("error", err))
		}
		return s
	}
	s.doc = &doc
	s.lastWritten = data
	return s
}

// NewFromDocument builds a memory-only store, mainly for tests.
func NewFromDocument(doc *Document) *Store {
	if doc == nil {
		doc = &Document{}
	}
	return &Store{doc: doc}
}

// View runs fn with read access to the current snapshot. fn must not retain
// or mutate the document.
func (s *Store) View(fn func(doc *Document)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.doc)
}

// Update runs fn with exclusive access. When fn returns an error the
// in-memory state is assumed untouched and nothing is persisted; fn must
// validate before mutating. On success the document is written through to
// disk; a failed write is logged and does not roll back the mutation.
func (s *Store) Update(fn func(doc *Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.doc); err != nil {
		return err
	}
	s.persistLocked()
	return nil
}

func (s *Store) persistLocked() {
	if s.path == "" {
		return
	}
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("encode rbac document", slog.Any("error", err))
		}
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		if s.logger != nil {
			s.logger.Warn("persist rbac document", slog.String("path", s.path), slog.Any("error", err))
		}
		return
	}
	// Recorded only on success so the watcher never mistakes an external edit
	// for our own failed write.
	s.lastWritten = data
}

// Seed ensures the administrator role and account exist, persisting when
// anything was added.
func (s *Store) Seed(adminPasswordHash string) {
	_ = s.Update(func(doc *Document) error {
		if !doc.EnsureAdministrator(adminPasswordHash) {
			return errSeedNoop
		}
		return nil
	})
}

var errSeedNoop = errors.New("seed: nothing to do")
