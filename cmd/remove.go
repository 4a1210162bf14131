package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <path>",
	Aliases: []string{"rm"},
	Short:   "Forget a registered workspace (files are left alone)",
	Args:    cobra.ExactArgs(1),
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

		if a.registry.Find(path) == nil {
			return fmt.Errorf("%s is not registered", path)
		}
		if err := a.registry.Remove(path); err != nil {
			return err
		}
		a.versions.Invalidate(path)

		u.Success("Removed " + path)
		return nil
	},
}
