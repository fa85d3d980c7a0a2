package store

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the document when the backing file is edited out of band.
// Writes made by the store itself are recognized by content and skipped.
// Watch blocks until ctx is cancelled.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return err
	}

	target, _ := filepath.Abs(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if abs, _ := filepath.Abs(event.Name); abs != target {
				continue
			}
			s.reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if s.logger != nil {
				s.logger.Warn("watch rbac document", slog.Any("error", err))
			}
		}
	}
}

func (s *Store) reload() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("reload rbac document", slog.Any("error", err))
		}
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if bytes.Equal(data, s.lastWritten) {
		return
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		if s.logger != nil {
			s.logger.Warn("decode reloaded rbac document", slog.Any("error", err))
		}
		return
	}
	s.doc = &doc
	s.lastWritten = data
	if s.logger != nil {
		s.logger.Info("rbac document reloaded from disk")
	}
}
