package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rapidkit/rkws/internal/workspace"
	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [folder...]",
	Short: "Find and register workspaces in common project directories",
	Long: `Scan the given folders (default: the current directory), their
immediate subdirectories, and the usual project directories under $HOME
(~/Projects, ~/Development, ~/dev, ~/workspace, ~/rapidkit, ...), and
register every workspace found.

Extra directories and ignore patterns come from [discovery] in config.toml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		u := newUI()

		a, err := newApp()
		if err != nil {
			return err
		}

		folders := make([]string, 0, len(args))
		for _, arg := range args {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", arg, err)
			}
			folders = append(folders, abs)
		}
		if len(folders) == 0 {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}
			folders = append(folders, cwd)
		}

		home, err := os.UserHomeDir()
		if err != nil {
			logger.Debug("no home directory, skipping default locations", "error", err)
			home = ""
		}
		opts := workspace.DiscoverOptions{
			Home:      home,
			ExtraDirs: a.cfg.Discovery.Dirs,
		}
		if len(a.cfg.Discovery.Ignore) > 0 {
			opts.Ignore = a.cfg.Discovery.Ignore
		}

		s := u.StartSpinner("Scanning for workspaces")
		added, err := a.registry.AutoDiscover(cmd.Context(), folders, opts)
		s.Stop()
		if err != nil {
			return err
		}

		if jsonFlag {
			if added == nil {
				added = []workspace.Record{}
			}
			return printJSON(cmd, added)
		}
		if len(added) == 0 {
			u.Dim("No new workspaces found")
			return nil
		}
		for _, rec := range added {
			u.Success(fmt.Sprintf("Registered %s  %s", rec.Name, rec.Path))
		}
		return nil
	},
}
