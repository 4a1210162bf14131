package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moby/patternmatcher"
)

// DefaultDiscoveryDirs are scanned relative to the user's home directory.
var DefaultDiscoveryDirs = []string{"Projects", "Development", "dev", "workspace", "workspaces", "rapidkit", "Code"}

// DefaultIgnorePatterns name directories discovery never descends into.
var DefaultIgnorePatterns = []string{".*", "node_modules", "__pycache__", "venv"}

// DiscoverOptions configures AutoDiscover.
type DiscoverOptions struct {
	// Home is the directory DefaultDiscoveryDirs are relative to. Empty
	// skips the default directories.
	Home string

	// ExtraDirs are scanned in addition to the defaults.
	ExtraDirs []string

	// Ignore holds .dockerignore-style patterns matched against
	// subdirectory names. Nil means DefaultIgnorePatterns.
	Ignore []string
}

// AutoDiscover registers every workspace found in the open folders, or in
// their immediate subdirectories, and in the immediate subdirectories of
// the common project directories. Unreadable directories are skipped.
// It returns the newly added records.
func (r *Registry) AutoDiscover(ctx context.Context, openFolders []string, opts DiscoverOptions) ([]Record, error) {
	ignore := opts.Ignore
	if ignore == nil {
		ignore = DefaultIgnorePatterns
	}
	matcher, err := patternmatcher.New(ignore)
	if err != nil {
		return nil, fmt.Errorf("creating pattern matcher: %w", err)
	}

	var roots []string
	roots = append(roots, openFolders...)
	if opts.Home != "" {
		for _, d := range DefaultDiscoveryDirs {
			roots = append(roots, filepath.Join(opts.Home, d))
		}
	}
	roots = append(roots, opts.ExtraDirs...)

	before := make(map[string]bool)
	for _, p := range r.Paths() {
		before[p] = true
	}

	var added []Record
	try := func(dir string) {
		rec, err := r.Add(dir)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				r.logger.Debug("discovery skipped directory", "path", dir, "error", err)
			}
			return
		}
		if rec != nil && !before[rec.Path] {
			before[rec.Path] = true
			added = append(added, *rec)
		}
	}

	openSet := make(map[string]bool, len(openFolders))
	for _, f := range openFolders {
		openSet[f] = true
	}

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		if openSet[root] {
			try(root)
		}

		entries, err := os.ReadDir(root)
		if err != nil {
			if !os.IsNotExist(err) {
				r.logger.Debug("discovery cannot read directory", "path", root, "error", err)
			}
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			skip, err := matcher.MatchesOrParentMatches(entry.Name())
			if err != nil || skip {
				continue
			}
			try(filepath.Join(root, entry.Name()))
		}
	}

	if len(added) > 0 {
		r.logger.Info("discovered workspaces", "count", len(added))
	}
	return added, nil
}
