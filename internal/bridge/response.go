package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// SchemaVersion is the JSON response schema this package understands.
const SchemaVersion = 1

var (
	// ErrSchemaMismatch is reported when a JSON response carries a missing
	// or unsupported schema_version.
	ErrSchemaMismatch = errors.New("unsupported response schema")

	// ErrNotJSON is reported when stdout is not a JSON document.
	ErrNotJSON = errors.New("tool output is not JSON")
)

// Parsed is the outcome of a JSON-returning tool call. Callers branch on OK
// instead of handling a thrown error.
type Parsed[T any] struct {
	OK            bool
	Err           error
	SchemaVersion int
	Value         T
	// Result is the raw call result; nil when the tool never ran.
	Result *Result
}

// Decode parses res as a schema-versioned JSON document.
func Decode[T any](res *Result) Parsed[T] {
	out := Parsed[T]{Result: res}
	if res == nil {
		out.Err = ErrToolUnavailable
		return out
	}
	if res.ExitCode != 0 {
		out.Err = fmt.Errorf("exit code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
		return out
	}

	data := bytes.TrimSpace([]byte(res.Stdout))
	var envelope struct {
		SchemaVersion *int `json:"schema_version"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		out.Err = fmt.Errorf("%w: %w", ErrNotJSON, err)
		return out
	}
	if envelope.SchemaVersion == nil {
		out.Err = fmt.Errorf("%w: schema_version missing", ErrSchemaMismatch)
		return out
	}
	out.SchemaVersion = *envelope.SchemaVersion
	if out.SchemaVersion != SchemaVersion {
		out.Err = fmt.Errorf("%w: got %d, want %d", ErrSchemaMismatch, out.SchemaVersion, SchemaVersion)
		return out
	}
	if err := json.Unmarshal(data, &out.Value); err != nil {
		out.Err = fmt.Errorf("decoding response: %w", err)
		return out
	}
	out.OK = true
	return out
}

// RunJSON runs the tool through the tier chain and decodes its output.
func RunJSON[T any](ctx context.Context, b *Bridge, args []string, workspacePath string) Parsed[T] {
	res, err := b.Run(ctx, args, workspacePath)
	if err != nil {
		out := Decode[T](res)
		out.OK = false
		if out.Err == nil || res == nil {
			out.Err = err
		}
		return out
	}
	return Decode[T](res)
}

// VersionReport is the response of `rapidkit version --json`.
type VersionReport struct {
	Version       string `json:"version"`
	PythonVersion string `json:"python_version,omitempty"`
	Location      string `json:"location,omitempty"`
}

// ProjectDetection is the response of `rapidkit project detect --json`.
type ProjectDetection struct {
	IsProject bool   `json:"is_project"`
	Path      string `json:"path"`
	Kit       string `json:"kit,omitempty"`
	Framework string `json:"framework,omitempty"`
}

// Module is one entry of the module catalog.
type Module struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

// ModuleList is the response of `rapidkit modules list --json`.
type ModuleList struct {
	Modules []Module `json:"modules"`
}

// ToolVersion asks the install at tier to report its version. Only that
// tier runs: describing an install must not fetch a different one.
func (b *Bridge) ToolVersion(ctx context.Context, tier Tier, workspacePath string) Parsed[VersionReport] {
	res, err := b.RunTier(ctx, tier, []string{"version", "--json"}, workspacePath)
	if err != nil {
		return Parsed[VersionReport]{Err: err, Result: res}
	}
	return Decode[VersionReport](res)
}

// DetectProject asks the tool whether path is a managed project.
func (b *Bridge) DetectProject(ctx context.Context, path, workspacePath string) Parsed[ProjectDetection] {
	return RunJSON[ProjectDetection](ctx, b, []string{"project", "detect", path, "--json"}, workspacePath)
}

// ListModules returns the module catalog available to a workspace.
func (b *Bridge) ListModules(ctx context.Context, workspacePath string) Parsed[ModuleList] {
	return RunJSON[ModuleList](ctx, b, []string{"modules", "list", "--json"}, workspacePath)
}
