// Package bridge decides which installed form of the rapidkit tool to run
// and runs it.
//
// Three tiers are tried strictly in order and the first one that is
// available and succeeds services the call:
//
//  1. the runner inside the workspace's virtual environment,
//  2. the tool on PATH,
//  3. a fetch-and-run fallback (npx --yes rapidkit) that is always available.
//
// Tiers are never run concurrently.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

var (
	// ErrToolUnavailable is returned when every tier failed. The Result of
	// the last attempt is still returned alongside it.
	ErrToolUnavailable = errors.New("rapidkit is not available")

	// ErrTierUnavailable is returned by RunTier when the requested tier has
	// no executable on this machine.
	ErrTierUnavailable = errors.New("runtime tier not available")
)

// Tier identifies one way of reaching the tool.
type Tier int

const (
	TierWorkspace Tier = iota
	TierGlobal
	TierFetch
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierWorkspace:
		return "workspace"
	case TierGlobal:
		return "global"
	case TierFetch:
		return "fetch"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Tiers lists all tiers in resolution order.
var Tiers = []Tier{TierWorkspace, TierGlobal, TierFetch}

// Result is the uniform outcome of a tool call, whichever tier ran it.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Tier     Tier
}

// Options configures a Bridge. Zero values get defaults.
type Options struct {
	// Tool is the executable name. Default "rapidkit".
	Tool string

	// FetchCommand is the fetch-and-run prefix used by the last tier.
	// Default: npx --yes rapidkit.
	FetchCommand []string

	// Timeout bounds every single tier attempt. Default 15s.
	Timeout time.Duration

	// GOOS selects the virtual environment layout. Default runtime.GOOS.
	GOOS string

	// Runner executes invocations. Default ExecRunner.
	Runner Runner

	// LookPath resolves executables on PATH. Default exec.LookPath.
	LookPath func(string) (string, error)
}

// DefaultTool is the name of the external tool.
const DefaultTool = "rapidkit"

// DefaultTimeout bounds a single tier attempt.
const DefaultTimeout = 15 * time.Second

// Bridge resolves and runs the tool.
type Bridge struct {
	tool     string
	fetch    []string
	timeout  time.Duration
	goos     string
	runner   Runner
	lookPath func(string) (string, error)
	logger   *slog.Logger
}

// New creates a Bridge.
func New(opts Options, logger *slog.Logger) *Bridge {
	logger = logger.With("component", "bridge")
	b := &Bridge{
		tool:     opts.Tool,
		fetch:    opts.FetchCommand,
		timeout:  opts.Timeout,
		goos:     opts.GOOS,
		runner:   opts.Runner,
		lookPath: opts.LookPath,
		logger:   logger,
	}
	if b.tool == "" {
		b.tool = DefaultTool
	}
	if len(b.fetch) == 0 {
		b.fetch = []string{"npx", "--yes", b.tool}
	}
	if b.timeout <= 0 {
		b.timeout = DefaultTimeout
	}
	if b.goos == "" {
		b.goos = runtime.GOOS
	}
	if b.runner == nil {
		b.runner = NewExecRunner(logger)
	}
	if b.lookPath == nil {
		b.lookPath = exec.LookPath
	}
	return b
}

// Tool returns the tool name the bridge resolves.
func (b *Bridge) Tool() string {
	return b.tool
}

// RunnerPath maps a workspace to the tool runner inside its virtual
// environment for the given OS.
func RunnerPath(workspacePath, goos, tool string) string {
	if goos == "windows" {
		return filepath.Join(workspacePath, ".venv", "Scripts", tool+".exe")
	}
	return filepath.Join(workspacePath, ".venv", "bin", tool)
}

// Locate returns the executable tier would run for workspacePath and
// whether the tier is available at all.
func (b *Bridge) Locate(tier Tier, workspacePath string) (string, bool) {
	switch tier {
	case TierWorkspace:
		if workspacePath == "" {
			return "", false
		}
		p := RunnerPath(workspacePath, b.goos, b.tool)
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			return "", false
		}
		return p, true
	case TierGlobal:
		p, err := b.lookPath(b.tool)
		if err != nil {
			return "", false
		}
		return p, true
	case TierFetch:
		// The fetcher resolves itself; if it is missing the attempt fails
		// like any other.
		if p, err := b.lookPath(b.fetch[0]); err == nil {
			return p, true
		}
		return b.fetch[0], true
	}
	return "", false
}

// invocation builds the concrete call for tier, or reports the tier unavailable.
func (b *Bridge) invocation(tier Tier, args []string, workspacePath string) (Invocation, bool) {
	path, ok := b.Locate(tier, workspacePath)
	if !ok {
		return Invocation{}, false
	}
	inv := Invocation{Path: path, Args: args, Dir: workspacePath}
	if tier == TierFetch {
		inv.Args = append(append([]string{}, b.fetch[1:]...), args...)
	}
	return inv, true
}

// Run executes the tool with args in the context of workspacePath (which
// may be empty). Tiers are attempted in order; a tier that is unavailable
// is skipped without spawning anything, and one that fails to start, times
// out or exits non-zero falls through to the next. When all tiers fail, the
// last result is returned together with ErrToolUnavailable.
func (b *Bridge) Run(ctx context.Context, args []string, workspacePath string) (*Result, error) {
	var (
		last    *Result
		lastErr error
	)
	for _, tier := range Tiers {
		res, err := b.RunTier(ctx, tier, args, workspacePath)
		if errors.Is(err, ErrTierUnavailable) {
			b.logger.Debug("tier unavailable", "tier", tier.String())
			continue
		}
		if err == nil && res.ExitCode == 0 {
			return res, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}

		if err == nil {
			err = fmt.Errorf("exit code %d", res.ExitCode)
		}
		b.logger.Debug("tier failed, falling through", "tier", tier.String(), "error", err)
		last, lastErr = res, err
	}
	return last, fmt.Errorf("%w: %w", ErrToolUnavailable, lastErr)
}

// RunTier runs exactly one tier with the bridge timeout. It returns
// ErrTierUnavailable without spawning anything when the tier has no executable.
func (b *Bridge) RunTier(ctx context.Context, tier Tier, args []string, workspacePath string) (*Result, error) {
	inv, ok := b.invocation(tier, args, workspacePath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTierUnavailable, tier)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	b.logger.Debug("running tool", "tier", tier.String(), "invocation", inv.String())
	res, err := b.runner.Run(ctx, inv)
	if res == nil {
		res = &Result{ExitCode: -1}
	}
	res.Tier = tier
	return res, err
}
