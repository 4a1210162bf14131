package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rapidkit/rkws/internal/bridge"
	"github.com/rapidkit/rkws/internal/ui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [-- args...]",
	Short: "Run rapidkit through the best available runtime",
	Long: `Run the rapidkit tool with args in the context of the current workspace.

The tool is looked up in order: the workspace's .venv runner, rapidkit on
PATH, then npx --yes rapidkit. The first one that succeeds services the
call; its exit code becomes rkws's exit code.

Use -- to separate rkws flags from tool arguments:
  rkws run -- doctor
  rkws run -w ~/Projects/shop -- add module auth`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		u := newUI()

		a, err := newApp()
		if err != nil {
			return err
		}

		root, err := a.currentWorkspace(nil)
		if err != nil {
			logger.Debug("running without a workspace", "error", err)
			root = ""
		}
		if root != "" && a.registry.Find(root) != nil {
			if err := a.registry.Touch(root); err != nil {
				logger.Warn("could not update last access time", "workspace", root, "error", err)
			}
		}

		res, err := a.bridge.Run(cmd.Context(), args, root)
		if res != nil && !jsonFlag {
			title := strings.Join(append([]string{a.bridge.Tool()}, args...), " ")
			printToolOutput(u, res, title, u.IsTTY())
		}
		if jsonFlag && res != nil {
			if jerr := printJSON(cmd, runResult(res)); jerr != nil {
				return jerr
			}
		}

		switch {
		case errors.Is(err, bridge.ErrToolUnavailable):
			u.Warn(fmt.Sprintf("%s could not be run from the workspace, PATH or %s", a.bridge.Tool(), strings.Join(fetchCommand(a), " ")))
			code := 1
			if res != nil && res.ExitCode > 0 {
				code = res.ExitCode
			}
			return &exitError{code: code}
		case err != nil:
			return err
		}
		logger.Debug("tool finished", "tier", res.Tier.String())
		return nil
	},
}

// printToolOutput passes a tool's captured output through. With framed set,
// stdout is wrapped in separators so it stands apart from rkws's messages.
func printToolOutput(u *ui.UI, res *bridge.Result, title string, framed bool) {
	framed = framed && res.Stdout != ""
	if framed {
		u.StartFrame(title)
	}
	u.Passthrough(res.Stdout, false)
	if framed {
		u.EndFrame()
	}
	u.Passthrough(res.Stderr, true)
}

// runResult is the JSON shape of a tool run.
func runResult(res *bridge.Result) map[string]any {
	return map[string]any{
		"tier":     res.Tier.String(),
		"exitCode": res.ExitCode,
		"stdout":   res.Stdout,
		"stderr":   res.Stderr,
	}
}

func fetchCommand(a *app) []string {
	if len(a.cfg.FetchCommand) > 0 {
		return a.cfg.FetchCommand
	}
	return []string{"npx", "--yes", a.bridge.Tool()}
}
