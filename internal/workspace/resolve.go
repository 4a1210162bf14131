package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rapidkit/rkws/internal/marker"
)

// ErrNoWorkspace is returned when no workspace encloses the start path,
// either on disk or in the registry.
var ErrNoWorkspace = errors.New("no rapidkit workspace found")

// KnownWorkspaces is the registry view the resolver falls back to.
type KnownWorkspaces interface {
	// Paths returns registered workspace roots in registry order.
	Paths() []string
}

// ResolveRoot walks up from start looking for the nearest workspace root.
// A directory qualifies when it holds a valid marker, a workspace config
// (.rapidkit/config.json with type "workspace"), or a legacy pip context
// file, checked in that order. When the walk reaches the filesystem root,
// registered workspaces that enclose start are used instead. known may be nil.
func ResolveRoot(start string, known KnownWorkspaces) (string, error) {
	absStart, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving start path: %w", err)
	}

	dir := absStart
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		if isRootCandidate(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the filesystem root.
			break
		}
		dir = parent
	}

	if known != nil {
		for _, p := range known.Paths() {
			if Contains(p, absStart) {
				return p, nil
			}
		}
	}
	return "", ErrNoWorkspace
}

// Contains reports whether path is root itself or lies below it. The match
// must end on a separator boundary, so /ws does not contain /ws-other.
func Contains(root, path string) bool {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	if path == root {
		return true
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	return strings.HasPrefix(path, root)
}

func isRootCandidate(dir string) bool {
	if marker.HasValid(dir) {
		return true
	}

	var cfg struct {
		Type string `json:"type"`
	}
	if readJSONC(filepath.Join(dir, metaDir, configFile), &cfg) && cfg.Type == workspaceTypeName {
		return true
	}

	// Pre-marker workspaces only left a context file behind.
	var ctx struct {
		Engine string `json:"engine"`
	}
	return readJSONC(filepath.Join(dir, metaDir, contextFile), &ctx) && ctx.Engine == legacyPipEngine
}
