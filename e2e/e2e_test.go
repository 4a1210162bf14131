// Package e2e contains end-to-end tests that exercise the rkws binary
// against throwaway workspaces. A fake rapidkit script on PATH stands in
// for the real tool, so no network or Python install is needed.
//
// Run with:
//
//	go test ./e2e/...
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// rkwsBin is the path to the compiled rkws binary, set by TestMain.
var rkwsBin string

func TestMain(m *testing.M) {
	bin, cleanup, err := buildRkws()
	if err != nil {
		fmt.Fprintf(os.Stderr, "building rkws: %v\n", err)
		os.Exit(1)
	}
	rkwsBin = bin
	code := m.Run()
	cleanup()
	os.Exit(code)
}

// buildRkws compiles the rkws binary into a temp directory and returns its
// path along with a cleanup function.
func buildRkws() (string, func(), error) {
	dir, err := os.MkdirTemp("", "rkws-e2e-bin-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	bin := filepath.Join(dir, "rkws")
	if runtime.GOOS == "windows" {
		bin += ".exe"
	}

	// e2e/ is one level below the repo root.
	repoRoot, err := filepath.Abs("..")
	if err != nil {
		cleanup()
		return "", nil, err
	}

	cmd := exec.Command("go", "build", "-o", bin, repoRoot)
	cmd.Stdout = os.Stderr // build output goes to stderr so it doesn't pollute test output
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("go build: %w", err)
	}

	return bin, cleanup, nil
}

// env describes one isolated rkws environment.
type env struct {
	home string // RAPIDKIT_HOME
	path string // PATH, holding only the fake tools
}

func newEnv(t *testing.T) env {
	t.Helper()
	return env{home: t.TempDir(), path: t.TempDir()}
}

// runRkws runs the binary in dir and returns stdout, stderr and the exit code.
func runRkws(t *testing.T, e env, dir string, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(rkwsBin, args...)
	cmd.Dir = dir
	devNull, _ := os.Open(os.DevNull)
	cmd.Stdin = devNull
	cmd.Env = append(os.Environ(),
		"RAPIDKIT_HOME="+e.home,
		"PATH="+e.path,
		"HOME="+t.TempDir(),
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	code := 0
	if ee, ok := err.(*exec.ExitError); ok {
		code = ee.ExitCode()
	} else if err != nil {
		t.Fatalf("rkws %v: %v", args, err)
	}
	return stdout.String(), stderr.String(), code
}

// mustRunRkws runs rkws and fails the test if it exits non-zero.
func mustRunRkws(t *testing.T, e env, dir string, args ...string) string {
	t.Helper()
	out, errOut, code := runRkws(t, e, dir, args...)
	if code != 0 {
		t.Fatalf("rkws %v exited %d\nstdout:\n%s\nstderr:\n%s", args, code, out, errOut)
	}
	return out
}

const markerJSON = `{
  "signature": "RAPIDKIT_WORKSPACE",
  "createdBy": "rapidkit-npm",
  "version": "0.24.0",
  "createdAt": "2026-01-01T00:00:00Z",
  "name": "shop",
  "metadata": {"npm": {"installMethod": "poetry"}}
}
`

// setupWorkspace creates a workspace with a marker, one Go project and one
// NestJS project.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	ws := filepath.Join(t.TempDir(), "shop")
	for _, d := range []string{"api", "web"} {
		if err := os.MkdirAll(filepath.Join(ws, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	files := map[string]string{
		".rapidkit-workspace": markerJSON,
		"api/go.mod":          "module api\n",
		"web/package.json":    `{"dependencies": {"@nestjs/core": "^10.0.0"}}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(ws, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return ws
}

// writeScript writes an executable POSIX shell script.
func writeScript(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
}

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are POSIX shell scripts")
	}
}

func TestE2ERegistryLifecycle(t *testing.T) {
	e := newEnv(t)
	ws := setupWorkspace(t)
	nested := filepath.Join(ws, "api")

	out := mustRunRkws(t, e, nested, "root")
	if strings.TrimSpace(out) != ws {
		t.Errorf("root = %q, want %q", strings.TrimSpace(out), ws)
	}

	mustRunRkws(t, e, ws, "add")

	var records []struct {
		Name     string `json:"name"`
		Path     string `json:"path"`
		Mode     string `json:"mode"`
		Projects []struct {
			Name string `json:"name"`
			Kind string `json:"kind"`
		} `json:"projects"`
	}
	out = mustRunRkws(t, e, ws, "list", "--json")
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("list --json: %v\n%s", err, out)
	}
	if len(records) != 1 || records[0].Path != ws || records[0].Mode != "full" {
		t.Fatalf("records = %+v", records)
	}
	kinds := map[string]string{}
	for _, p := range records[0].Projects {
		kinds[p.Name] = p.Kind
	}
	if kinds["api"] != "go" || kinds["web"] != "nestjs" {
		t.Errorf("project kinds = %v", kinds)
	}

	if _, err := os.Stat(filepath.Join(e.home, "workspaces.json")); err != nil {
		t.Errorf("registry file not written: %v", err)
	}

	mustRunRkws(t, e, ws, "remove", ws)
	out = mustRunRkws(t, e, ws, "list", "--json")
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("list after remove = %q", out)
	}
}

func TestE2EAddPlainDirectory(t *testing.T) {
	e := newEnv(t)
	plain := t.TempDir()

	_, errOut, code := runRkws(t, e, plain, "add")
	if code == 0 {
		t.Fatal("expected add of a plain directory to fail")
	}
	if !strings.Contains(errOut, "not a RapidKit workspace") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestE2EMarkerStampPreservesNamespaces(t *testing.T) {
	e := newEnv(t)
	ws := setupWorkspace(t)

	mustRunRkws(t, e, ws, "marker", "stamp")

	data, err := os.ReadFile(filepath.Join(ws, ".rapidkit-workspace"))
	if err != nil {
		t.Fatal(err)
	}
	var m struct {
		CreatedBy string                    `json:"createdBy"`
		Metadata  map[string]map[string]any `json:"metadata"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m.CreatedBy != "rapidkit-npm" {
		t.Errorf("createdBy = %q, want the original producer", m.CreatedBy)
	}
	if m.Metadata["npm"]["installMethod"] != "poetry" {
		t.Errorf("npm namespace lost: %v", m.Metadata)
	}
	if m.Metadata["vscode"]["tool"] != "rkws" {
		t.Errorf("vscode namespace not written: %v", m.Metadata)
	}
}

func TestE2EMarkerStampFromProjectDir(t *testing.T) {
	e := newEnv(t)
	ws := setupWorkspace(t)
	api := filepath.Join(ws, "api")

	mustRunRkws(t, e, api, "marker", "stamp")

	if _, err := os.Stat(filepath.Join(api, ".rapidkit-workspace")); !os.IsNotExist(err) {
		t.Fatalf("stamp created a nested marker in %s (err=%v)", api, err)
	}
	data, err := os.ReadFile(filepath.Join(ws, ".rapidkit-workspace"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"vscode"`) {
		t.Errorf("workspace marker not stamped:\n%s", data)
	}
	if root := strings.TrimSpace(mustRunRkws(t, e, api, "root")); root != ws {
		t.Errorf("root = %q, want %q", root, ws)
	}
}

func TestE2EMarkerStampOutsideWorkspace(t *testing.T) {
	e := newEnv(t)
	dir := t.TempDir()

	if _, _, code := runRkws(t, e, dir, "marker", "stamp"); code == 0 {
		t.Error("stamp outside a workspace should fail without an explicit path")
	}
	if _, err := os.Stat(filepath.Join(dir, ".rapidkit-workspace")); !os.IsNotExist(err) {
		t.Errorf("stamp wrote a marker into %s", dir)
	}

	mustRunRkws(t, e, dir, "marker", "stamp", dir)
	if _, err := os.Stat(filepath.Join(dir, ".rapidkit-workspace")); err != nil {
		t.Errorf("explicit path should create a marker: %v", err)
	}
}

func TestE2ERunPrefersWorkspaceRunner(t *testing.T) {
	skipWithoutShell(t)
	e := newEnv(t)
	ws := setupWorkspace(t)

	writeScript(t, filepath.Join(ws, ".venv", "bin", "rapidkit"), `echo "venv $PWD $*"`+"\n")
	writeScript(t, filepath.Join(e.path, "rapidkit"), "echo global\n")

	out := mustRunRkws(t, e, filepath.Join(ws, "api"), "run", "--", "doctor", "--quick")
	if strings.TrimSpace(out) != "venv "+ws+" doctor --quick" {
		t.Errorf("run output = %q", out)
	}
}

func TestE2ERunPropagatesExitCode(t *testing.T) {
	skipWithoutShell(t)
	e := newEnv(t)
	dir := t.TempDir()

	writeScript(t, filepath.Join(e.path, "rapidkit"), "echo broken >&2\nexit 3\n")
	writeScript(t, filepath.Join(e.path, "npx"), "echo 'npm ERR! 404' >&2\nexit 7\n")

	_, errOut, code := runRkws(t, e, dir, "run", "--", "doctor")
	if code != 7 {
		t.Errorf("exit code = %d, want 7 (last tier)\nstderr:\n%s", code, errOut)
	}
	// Only the last tier's output is shown.
	if !strings.Contains(errOut, "npm ERR! 404") || strings.Contains(errOut, "broken") {
		t.Errorf("stderr = %q, want only the last tier's output", errOut)
	}
}

func TestE2EStatus(t *testing.T) {
	skipWithoutShell(t)
	e := newEnv(t)
	ws := setupWorkspace(t)

	writeScript(t, filepath.Join(ws, ".venv", "bin", "rapidkit"), "echo 'RapidKit Core 0.24.0'\n")
	// Point the package index somewhere unreachable; the lookup is best-effort.
	if err := os.WriteFile(filepath.Join(e.home, "config.toml"),
		[]byte("package_index_url = \"http://127.0.0.1:1\"\nlatest_timeout = \"200ms\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var st struct {
		Workspace string `json:"workspace"`
		Installed string `json:"installed"`
		Status    string `json:"status"`
		Location  string `json:"location"`
	}
	out := mustRunRkws(t, e, ws, "status", "--json")
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("status --json: %v\n%s", err, out)
	}
	if st.Installed != "0.24.0" || st.Location != "workspace" || st.Status != "up-to-date" {
		t.Errorf("status = %+v", st)
	}
}
