package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// RegistryFile is the registry filename inside the user config directory.
const RegistryFile = "workspaces.json"

var (
	// ErrNotFound is returned when a path handed to the registry does not exist on disk.
	ErrNotFound = errors.New("path does not exist")

	// ErrNotRegistered is returned when a path is not in the registry.
	ErrNotRegistered = errors.New("workspace not registered")
)

// registryDoc is the on-disk shape of the registry file.
type registryDoc struct {
	Workspaces []Record `json:"workspaces"`
}

// Registry is the persisted list of known workspaces, keyed by path.
type Registry struct {
	path   string
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	records []Record
}

// NewRegistry creates a Registry backed by the file at path. Nothing is read
// until Load is called.
func NewRegistry(path string, logger *slog.Logger) *Registry {
	return &Registry{
		path:   path,
		logger: logger.With("component", "registry"),
		now:    time.Now,
	}
}

// File returns the path of the backing file.
func (r *Registry) File() string {
	return r.path
}

// Load reads the registry file, upgrades legacy project entries, drops
// workspaces whose directory is gone and writes the cleaned list back.
// A missing or corrupt file yields an empty registry. Only an unreadable
// file is reported as an error.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	unlock, err := r.lock()
	if err != nil {
		return err
	}
	defer unlock()

	records, err := r.readFile()
	if err != nil {
		return err
	}
	r.records = r.clean(records)
	return r.writeFile()
}

// List returns a copy of all records in registry order.
func (r *Registry) List() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.clone()
	}
	return out
}

// Paths returns the registered workspace roots in registry order.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	paths := make([]string, len(r.records))
	for i, rec := range r.records {
		paths[i] = rec.Path
	}
	return paths
}

// Find returns the record for path, or nil if it is not registered.
func (r *Registry) Find(path string) *Record {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.index(abs); i >= 0 {
		rec := r.records[i].clone()
		return &rec
	}
	return nil
}

// Add registers the workspace at path. It returns ErrNotFound when path does
// not exist and the existing record when path is already registered. A
// directory that does not classify as a workspace is skipped with a nil
// record and nil error: discovery probes many directories that are not.
func (r *Registry) Add(path string) (*Record, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, abs)
		}
		return nil, fmt.Errorf("checking %s: %w", abs, err)
	}

	var added *Record
	err = r.modify(func() (bool, error) {
		if i := r.index(abs); i >= 0 {
			rec := r.records[i].clone()
			added = &rec
			return false, nil
		}
		if !info.IsDir() || !IsWorkspace(abs) {
			r.logger.Debug("not a workspace, skipping", "path", abs)
			return false, nil
		}

		rec := Record{
			Name:         filepath.Base(abs),
			Path:         abs,
			Mode:         DetectMode(abs),
			Projects:     DetectProjects(abs),
			LastAccessed: r.now().UnixMilli(),
		}
		r.records = append(r.records, rec)
		r.logger.Info("workspace added", "path", abs, "projects", len(rec.Projects))
		out := rec.clone()
		added = &out
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// Remove drops path from the registry. Removing an unregistered path is a no-op.
func (r *Registry) Remove(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	return r.modify(func() (bool, error) {
		i := r.index(abs)
		if i < 0 {
			return false, nil
		}
		r.records = slices.Delete(r.records, i, i+1)
		return true, nil
	})
}

// Update re-derives the mode and child projects of a registered workspace.
func (r *Registry) Update(path string) (*Record, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	var rec Record
	err = r.modify(func() (bool, error) {
		i := r.index(abs)
		if i < 0 {
			return false, fmt.Errorf("%w: %s", ErrNotRegistered, abs)
		}
		r.records[i].Mode = DetectMode(abs)
		r.records[i].Projects = DetectProjects(abs)
		rec = r.records[i].clone()
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Touch records that a workspace was just used.
func (r *Registry) Touch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	return r.modify(func() (bool, error) {
		i := r.index(abs)
		if i < 0 {
			return false, fmt.Errorf("%w: %s", ErrNotRegistered, abs)
		}
		r.records[i].LastAccessed = r.now().UnixMilli()
		return true, nil
	})
}

// index returns the position of path in records, or -1. Callers hold mu.
func (r *Registry) index(path string) int {
	path = filepath.Clean(path)
	return slices.IndexFunc(r.records, func(rec Record) bool {
		return rec.Path == path
	})
}

// clean normalizes loaded records: legacy project names get a path,
// duplicates and vanished workspaces are dropped.
func (r *Registry) clean(records []Record) []Record {
	seen := make(map[string]bool, len(records))
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.Path == "" {
			continue
		}
		rec.Path = filepath.Clean(rec.Path)
		if seen[rec.Path] {
			continue
		}
		if !pathExists(rec.Path) {
			r.logger.Info("pruning missing workspace", "path", rec.Path)
			continue
		}
		seen[rec.Path] = true

		if rec.Name == "" {
			rec.Name = filepath.Base(rec.Path)
		}
		if rec.Mode == "" {
			rec.Mode = ModeFull
		}
		if rec.Projects == nil {
			rec.Projects = []Project{}
		}
		for i, p := range rec.Projects {
			if p.Path == "" {
				rec.Projects[i].Path = filepath.Join(rec.Path, p.Name)
			}
		}
		out = append(out, rec)
	}
	return out
}

// modify runs fn against the records currently on disk while holding the
// cross-process lock, then writes them back when fn reports a change. Other
// processes' edits made since Load are kept.
func (r *Registry) modify(fn func() (bool, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	unlock, err := r.lock()
	if err != nil {
		return err
	}
	defer unlock()

	records, err := r.readFile()
	if err != nil {
		return err
	}
	r.records = r.clean(records)

	changed, err := fn()
	if err != nil || !changed {
		return err
	}
	return r.writeFile()
}

func (r *Registry) lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating registry directory: %w", err)
	}
	fl := flock.New(r.path + ".lock")
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("locking registry: %w", err)
	}
	return func() { _ = fl.Unlock() }, nil
}

func (r *Registry) readFile() ([]Record, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading registry: %w", err)
	}

	var doc registryDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		r.logger.Warn("registry file is corrupt, starting empty", "path", r.path, "error", err)
		return nil, nil
	}
	return doc.Workspaces, nil
}

func (r *Registry) writeFile() error {
	records := r.records
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(registryDoc{Workspaces: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing registry: %w", err)
	}
	return nil
}

func (rec Record) clone() Record {
	rec.Projects = slices.Clone(rec.Projects)
	return rec
}
