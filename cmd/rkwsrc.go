package cmd

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// rcFile is the per-directory defaults file.
const rcFile = ".rkwsrc"

// rkwsRC holds values loaded from a .rkwsrc file.
type rkwsRC struct {
	Workspace string // default workspace directory (same as --workspace / -w)
}

// loadRC reads a .rkwsrc file from cwd. Returns nil, nil if not found.
func loadRC() (*rkwsRC, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return loadRCFrom(cwd)
}

// loadRCFrom reads dir/.rkwsrc. Format: simple "key = value" pairs, lines
// starting with # are comments, unknown keys are ignored. A relative
// workspace path is taken relative to dir.
func loadRCFrom(dir string) (*rkwsRC, error) {
	f, err := os.Open(filepath.Join(dir, rcFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	rc := &rkwsRC{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "workspace":
			rc.Workspace = strings.Trim(strings.TrimSpace(val), `"'`)
		}
	}
	if rc.Workspace != "" && !filepath.IsAbs(rc.Workspace) {
		rc.Workspace = filepath.Join(dir, rc.Workspace)
	}
	return rc, scanner.Err()
}
