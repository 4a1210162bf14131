package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/rapidkit/rkws/internal/marker"
)

const (
	metaDir           = ".rapidkit"
	projectMetaFile   = "project.json"
	contextFile       = "context.json"
	configFile        = "config.json"
	pyprojectFile     = "pyproject.toml"
	venvDir           = ".venv"
	wrapperScript     = "rapidkit"
	packageJSONFile   = "package.json"
	nestCorePackage   = "@nestjs/core"
	workspaceTypeName = "workspace"
	legacyPipEngine   = "pip"
)

// goMarkers are checked relative to a candidate project directory.
var goMarkers = []string{"go.mod", "go.sum", "main.go", filepath.Join("cmd", "main.go")}

// skipDirs are never treated as child projects.
var skipDirs = map[string]bool{
	"node_modules": true,
	"__pycache__":  true,
	venvDir:        true,
}

// IsWorkspace reports whether dir itself is a managed workspace. Unlike
// ResolveRoot it does not look at ancestors.
//
// Checks, in order: a valid marker; the pyproject.toml + .venv + wrapper
// script layout of tool-created workspaces without a marker; project
// metadata left by project-only installs.
func IsWorkspace(dir string) bool {
	if marker.HasValid(dir) {
		return true
	}
	if fileExists(filepath.Join(dir, pyprojectFile)) &&
		dirExists(filepath.Join(dir, venvDir)) &&
		hasWrapperScript(dir) {
		return true
	}
	return hasProjectMetadata(dir)
}

// DetectProjectKind classifies a candidate project directory. The empty
// kind means the directory is not a project.
//
// Structured markers win over ecosystem files, and Go wins over a
// package.json fallback so a Go service with an incidental package.json is
// still reported as Go.
func DetectProjectKind(dir string) ProjectKind {
	switch {
	case hasProjectMetadata(dir):
		return KindRapidKit
	case fileExists(filepath.Join(dir, pyprojectFile)):
		return KindPython
	case hasGoMarker(dir):
		return KindGo
	case dependsOnNest(dir):
		return KindNestJS
	}
	return ""
}

// DetectProjects lists the projects directly inside a workspace in
// directory name order.
func DetectProjects(wsDir string) []Project {
	entries, err := os.ReadDir(wsDir)
	if err != nil {
		return nil
	}

	projects := []Project{}
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") || skipDirs[name] {
			continue
		}
		dir := filepath.Join(wsDir, name)
		kind := DetectProjectKind(dir)
		if kind == "" {
			continue
		}
		projects = append(projects, Project{Name: name, Path: dir, Kind: kind})
	}
	return projects
}

func hasProjectMetadata(dir string) bool {
	return fileExists(filepath.Join(dir, metaDir, projectMetaFile)) ||
		fileExists(filepath.Join(dir, metaDir, contextFile))
}

func hasGoMarker(dir string) bool {
	for _, m := range goMarkers {
		if fileExists(filepath.Join(dir, m)) {
			return true
		}
	}
	return false
}

func hasWrapperScript(dir string) bool {
	if runtime.GOOS == "windows" {
		return fileExists(filepath.Join(dir, wrapperScript+".cmd")) ||
			fileExists(filepath.Join(dir, wrapperScript+".bat")) ||
			fileExists(filepath.Join(dir, wrapperScript))
	}
	info, err := os.Stat(filepath.Join(dir, wrapperScript))
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}

func dependsOnNest(dir string) bool {
	var pkg struct {
		Dependencies map[string]string `json:"dependencies"`
	}
	if !readJSONC(filepath.Join(dir, packageJSONFile), &pkg) {
		return false
	}
	_, ok := pkg.Dependencies[nestCorePackage]
	return ok
}

// readJSONC decodes a JSON-with-comments file into v, reporting whether the
// file existed and parsed.
func readJSONC(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(jsonc.ToJSON(data), v) == nil
}
