package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the registry whenever its backing file changes on disk and
// calls onChange with the new records when they differ from the previous
// ones. It blocks until ctx is cancelled. Reloads triggered here never write
// the file back.
func (r *Registry) Watch(ctx context.Context, onChange func([]Record)) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating registry directory: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	// Saves replace the file by rename, so watch the directory.
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(r.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if records, changed := r.reload(); changed && onChange != nil {
				onChange(records)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("registry watch error", "error", err)
		}
	}
}

func (r *Registry) reload() ([]Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.readFile()
	if err != nil {
		r.logger.Warn("reloading registry", "error", err)
		return nil, false
	}
	records = r.clean(records)
	if (len(records) == 0 && len(r.records) == 0) || reflect.DeepEqual(records, r.records) {
		return nil, false
	}
	r.records = records

	out := make([]Record, len(records))
	for i, rec := range records {
		out[i] = rec.clone()
	}
	return out, true
}
