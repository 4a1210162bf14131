package workspace

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestIsWorkspace(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
		want  bool
	}{
		{
			"valid marker",
			func(t *testing.T, dir string) {
				t.Helper()
				writeMarker(t, dir)
			},
			true,
		},
		{
			"legacy producer marker",
			func(t *testing.T, dir string) {
				t.Helper()
				writeFile(t, filepath.Join(dir, ".rapidkit-workspace"), `{"createdBy":"rapidkit-npm"}`)
			},
			true,
		},
		{
			"unrecognized marker",
			func(t *testing.T, dir string) {
				t.Helper()
				writeFile(t, filepath.Join(dir, ".rapidkit-workspace"), `{"signature":"SOMETHING_ELSE"}`)
			},
			false,
		},
		{
			"pyproject venv and wrapper",
			func(t *testing.T, dir string) {
				t.Helper()
				writeWorkspaceLayout(t, dir)
			},
			true,
		},
		{
			"pyproject and venv without wrapper",
			func(t *testing.T, dir string) {
				t.Helper()
				writeFile(t, filepath.Join(dir, "pyproject.toml"), "[project]\nname = \"x\"\n")
				mkdirAll(t, filepath.Join(dir, ".venv"))
			},
			false,
		},
		{
			"project metadata",
			func(t *testing.T, dir string) {
				t.Helper()
				mkdirAll(t, filepath.Join(dir, ".rapidkit"))
				writeFile(t, filepath.Join(dir, ".rapidkit", "project.json"), `{"kit":"fastapi.standard"}`)
			},
			true,
		},
		{
			"context metadata",
			func(t *testing.T, dir string) {
				t.Helper()
				mkdirAll(t, filepath.Join(dir, ".rapidkit"))
				writeFile(t, filepath.Join(dir, ".rapidkit", "context.json"), `{"engine":"npm"}`)
			},
			true,
		},
		{
			"plain directory",
			func(t *testing.T, dir string) {
				t.Helper()
				writeFile(t, filepath.Join(dir, "README.md"), "# hi\n")
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)
			if got := IsWorkspace(dir); got != tt.want {
				t.Errorf("IsWorkspace() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsWorkspace_WrapperMustBeExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit is not meaningful on windows")
	}
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), "")
	mkdirAll(t, filepath.Join(dir, ".venv"))
	writeFile(t, filepath.Join(dir, "rapidkit"), "#!/bin/sh\n")

	if IsWorkspace(dir) {
		t.Error("non-executable wrapper should not classify as a workspace")
	}
}

func TestDetectProjectKind(t *testing.T) {
	nestPkg := `{"name":"svc","dependencies":{"@nestjs/core":"^10.0.0"}}`

	tests := []struct {
		name  string
		files map[string]string
		want  ProjectKind
	}{
		{"rapidkit metadata", map[string]string{".rapidkit/project.json": "{}", "pyproject.toml": ""}, KindRapidKit},
		{"pyproject", map[string]string{"pyproject.toml": ""}, KindPython},
		{"go.mod", map[string]string{"go.mod": "module x\n"}, KindGo},
		{"go.sum only", map[string]string{"go.sum": ""}, KindGo},
		{"main.go", map[string]string{"main.go": "package main\n"}, KindGo},
		{"cmd/main.go", map[string]string{"cmd/main.go": "package main\n"}, KindGo},
		{"nestjs", map[string]string{"package.json": nestPkg}, KindNestJS},
		{"go wins over nestjs", map[string]string{"go.mod": "module x\n", "package.json": nestPkg}, KindGo},
		{"plain node package", map[string]string{"package.json": `{"dependencies":{"express":"^4"}}`}, ""},
		{"nest only in devDependencies", map[string]string{"package.json": `{"devDependencies":{"@nestjs/core":"^10"}}`}, ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for rel, content := range tt.files {
				path := filepath.Join(dir, filepath.FromSlash(rel))
				mkdirAll(t, filepath.Dir(path))
				writeFile(t, path, content)
			}
			if got := DetectProjectKind(dir); got != tt.want {
				t.Errorf("DetectProjectKind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectProjects(t *testing.T) {
	ws := t.TempDir()
	writeMarker(t, ws)

	mkdirAll(t, filepath.Join(ws, "api"))
	writeFile(t, filepath.Join(ws, "api", "pyproject.toml"), "[project]\nname = \"api-service\"\n")
	mkdirAll(t, filepath.Join(ws, "gateway"))
	writeFile(t, filepath.Join(ws, "gateway", "go.mod"), "module gateway\n")
	writeFile(t, filepath.Join(ws, "gateway", "package.json"), `{"dependencies":{"@nestjs/core":"^10"}}`)
	mkdirAll(t, filepath.Join(ws, "docs"))
	mkdirAll(t, filepath.Join(ws, ".venv"))
	writeFile(t, filepath.Join(ws, ".venv", "pyproject.toml"), "")
	mkdirAll(t, filepath.Join(ws, "node_modules", "pkg"))
	writeFile(t, filepath.Join(ws, "node_modules", "go.mod"), "")
	writeFile(t, filepath.Join(ws, "notes.txt"), "")

	got := DetectProjects(ws)
	want := []Project{
		{Name: "api", Path: filepath.Join(ws, "api"), Kind: KindPython},
		{Name: "gateway", Path: filepath.Join(ws, "gateway"), Kind: KindGo},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d projects, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("project[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDetectProjects_Missing(t *testing.T) {
	if got := DetectProjects(filepath.Join(t.TempDir(), "gone")); got != nil {
		t.Errorf("expected nil for missing dir, got %v", got)
	}
}

func TestDetectMode(t *testing.T) {
	dir := t.TempDir()
	if got := DetectMode(dir); got != ModeFull {
		t.Errorf("DetectMode() = %q, want %q", got, ModeFull)
	}
	writeFile(t, filepath.Join(dir, "generate-demo.sh"), "#!/bin/sh\n")
	if got := DetectMode(dir); got != ModeDemo {
		t.Errorf("DetectMode() = %q, want %q", got, ModeDemo)
	}
}

func writeWorkspaceLayout(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), "[tool.poetry]\nname = \"ws\"\n")
	mkdirAll(t, filepath.Join(dir, ".venv", "bin"))
	name := "rapidkit"
	if runtime.GOOS == "windows" {
		name = "rapidkit.cmd"
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}
