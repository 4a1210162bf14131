package workspace

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Mode describes how a workspace was generated.
type Mode string

const (
	ModeDemo Mode = "demo"
	ModeFull Mode = "full"
)

// demoScript is only present in workspaces generated in demo mode.
const demoScript = "generate-demo.sh"

// ProjectKind identifies what kind of project a workspace child is.
type ProjectKind string

const (
	KindRapidKit ProjectKind = "rapidkit"
	KindPython   ProjectKind = "python"
	KindGo       ProjectKind = "go"
	KindNestJS   ProjectKind = "nestjs"
)

// Record is a registry entry for a known workspace.
type Record struct {
	// Name is the workspace directory basename.
	Name string `json:"name"`

	// Path is the absolute workspace root. Unique across the registry.
	Path string `json:"path"`

	Mode Mode `json:"mode"`

	// Projects lists the projects found directly inside the workspace.
	Projects []Project `json:"projects"`

	// LastAccessed is in epoch milliseconds.
	LastAccessed int64 `json:"lastAccessed,omitempty"`
}

// Project is a child project discovered inside a workspace.
type Project struct {
	Name string      `json:"name"`
	Path string      `json:"path"`
	Kind ProjectKind `json:"kind,omitempty"`
}

type projectAlias Project

// UnmarshalJSON accepts both the object form and the legacy bare-name form.
// Legacy entries have no path; the registry fills it in on load.
func (p *Project) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*p = Project{Name: name}
		return nil
	}
	var a projectAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = Project(a)
	return nil
}

// DetectMode reports demo when the workspace carries the demo generation script.
func DetectMode(dir string) Mode {
	if fileExists(filepath.Join(dir, demoScript)) {
		return ModeDemo
	}
	return ModeFull
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
