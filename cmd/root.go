package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rapidkit/rkws/internal/bridge"
	"github.com/rapidkit/rkws/internal/config"
	"github.com/rapidkit/rkws/internal/ui"
	"github.com/rapidkit/rkws/internal/version"
	"github.com/rapidkit/rkws/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	debugFlag     bool
	jsonFlag      bool
	workspaceFlag string
	logger        *slog.Logger
)

// Version variables injected at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Built   = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "rkws",
	Short:   "Find RapidKit workspaces and run rapidkit in them",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelWarn
		if debugFlag || envBool("RKWS_DEBUG") {
			level = slog.LevelDebug
		}
		logger = newLogger(level)

		// Apply .rkwsrc defaults for flags not explicitly set by the user.
		if !cmd.Root().PersistentFlags().Changed("workspace") {
			if rc, err := loadRC(); err != nil {
				logger.Debug("could not load .rkwsrc", "error", err)
			} else if rc != nil && rc.Workspace != "" {
				workspaceFlag = rc.Workspace
				logger.Debug("loaded workspace from .rkwsrc", "workspace", rc.Workspace)
			}
		}

		return nil
	},
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging (or set RKWS_DEBUG=1)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "print machine-readable JSON")
	rootCmd.PersistentFlags().StringVarP(&workspaceFlag, "workspace", "w", "", "workspace directory to operate on (defaults to the one containing the current directory)")
	rootCmd.SetVersionTemplate(fmt.Sprintf("rkws version %s\n", Version))
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(touchCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(whereCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(markerCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

// exitError carries the exit code of a tool run through to Execute without
// printing anything extra.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return "exit status " + strconv.Itoa(e.code)
}

// Execute runs the root command with signal handling.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger = newLogger(slog.LevelWarn)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		u := newUI()
		u.Error(err.Error())
		os.Exit(1)
	}
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.TimeValue(t.UTC())
				}
			}
			return a
		},
	}))
}

func envBool(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	return err == nil && v
}

// newUI creates a UI that writes to stdout and stderr.
func newUI() *ui.UI {
	return ui.New(os.Stdout, os.Stderr)
}

// app holds the services one command invocation works with. Commands build
// it explicitly instead of reaching for package-level singletons.
type app struct {
	cfg      *config.Config
	registry *workspace.Registry
	bridge   *bridge.Bridge
	versions *version.Cache
}

// newApp loads the user config and the registry and wires the services.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	registry := workspace.NewRegistry(filepath.Join(cfg.Dir, workspace.RegistryFile), logger)
	if err := registry.Load(); err != nil {
		return nil, fmt.Errorf("loading registry: %w", err)
	}

	b := bridge.New(bridge.Options{
		Tool:         cfg.Tool,
		FetchCommand: cfg.FetchCommand,
		Timeout:      cfg.CommandTimeout.Duration,
	}, logger)

	versions := version.NewCache(b,
		version.NewPackageIndex(cfg.PackageIndexURL, cfg.PackageName, nil),
		version.Options{
			TTL:           cfg.VersionTTL.Duration,
			ProbeTimeout:  cfg.ProbeTimeout.Duration,
			LatestTimeout: cfg.LatestTimeout.Duration,
			MinSupported:  cfg.MinSupportedVersion,
		}, logger)

	return &app{cfg: cfg, registry: registry, bridge: b, versions: versions}, nil
}

// targetPath returns the path a command should operate on: the first
// positional argument, else --workspace / .rkwsrc, else the current
// directory. The result is absolute.
func targetPath(args []string) (string, error) {
	p := workspaceFlag
	if len(args) > 0 && args[0] != "" {
		p = args[0]
	}
	if p == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		return cwd, nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", p, err)
	}
	return abs, nil
}

// currentWorkspace resolves the workspace root containing the target path.
func (a *app) currentWorkspace(args []string) (string, error) {
	start, err := targetPath(args)
	if err != nil {
		return "", err
	}
	root, err := workspace.ResolveRoot(start, a.registry)
	if errors.Is(err, workspace.ErrNoWorkspace) {
		return "", fmt.Errorf("%s is not inside a RapidKit workspace", start)
	}
	return root, err
}

// printJSON writes v as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// versionString returns a formatted version string for display.
// For dev builds, includes commit and build timestamp.
func versionString() string {
	v := "rkws " + Version
	if strings.Contains(Version, "-dev") && Commit != "unknown" {
		v += " (" + Commit
		if Built != "unknown" {
			v += ", " + Built
		}
		v += ")"
	}
	return v
}
