package cmd

import (
	"errors"
	"fmt"

	"github.com/rapidkit/rkws/internal/workspace"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Register a workspace",
	Long: `Register the workspace at path (default: the current directory).

A directory counts as a workspace when it has a valid .rapidkit-workspace
marker, a pyproject.toml + .venv + executable rapidkit script, or a
.rapidkit directory with project metadata.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := newUI()

		a, err := newApp()
		if err != nil {
			return err
		}
		path, err := targetPath(args)
		if err != nil {
			return err
		}

		existing := a.registry.Find(path)
		rec, err := a.registry.Add(path)
		if errors.Is(err, workspace.ErrNotFound) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("%s is not a RapidKit workspace", path)
		}

		if jsonFlag {
			return printJSON(cmd, rec)
		}
		if existing != nil {
			u.Dim(rec.Name + " is already registered")
			return nil
		}
		u.Success(fmt.Sprintf("Registered %s (%s, %d projects)", rec.Name, rec.Mode, len(rec.Projects)))
		return nil
	},
}
