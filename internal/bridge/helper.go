package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Invocation is a single concrete subprocess call.
type Invocation struct {
	// Path is the executable to run.
	Path string
	Args []string
	// Dir is the working directory; empty inherits the caller's.
	Dir string
}

// String renders the invocation for logs.
func (i Invocation) String() string {
	return strings.Join(append([]string{i.Path}, scrubArgs(i.Args)...), " ")
}

// Runner executes an invocation. A process that ran and exited non-zero is
// a Result with that exit code and a nil error; an error means the process
// could not be started or did not finish.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (*Result, error)
}

// ExecRunner runs invocations with os/exec.
type ExecRunner struct {
	logger *slog.Logger
}

// NewExecRunner creates an ExecRunner.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

// Run executes inv and captures its output.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (*Result, error) {
	r.logger.Debug("exec", "cmd", inv.Path, "args", scrubArgs(inv.Args), "dir", inv.Dir)

	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Dir = inv.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%s: %w", inv.Path, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, nil
	}
	return res, fmt.Errorf("%s: %w", inv.Path, err)
}

// sensitiveFlags name options whose value should not end up in logs.
var sensitiveFlags = []string{"--token", "--password", "--secret", "--api-key"}

// scrubArgs returns a copy of args with the values of sensitive flags redacted.
func scrubArgs(args []string) []string {
	result := make([]string, len(args))
	copy(result, args)
	for i, arg := range result {
		for _, flag := range sensitiveFlags {
			if strings.HasPrefix(arg, flag+"=") {
				result[i] = flag + "=***"
			} else if i > 0 && args[i-1] == flag {
				result[i] = "***"
			}
		}
	}
	return result
}
