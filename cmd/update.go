package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update [path]",
	Short: "Re-scan a registered workspace for its mode and projects",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := newUI()

		a, err := newApp()
		if err != nil {
			return err
		}
		root, err := a.currentWorkspace(args)
		if err != nil {
			return err
		}

		rec, err := a.registry.Update(root)
		if err != nil {
			return err
		}
		a.versions.Invalidate(root)

		if jsonFlag {
			return printJSON(cmd, rec)
		}
		u.Success(fmt.Sprintf("Updated %s (%s, %d projects)", rec.Name, rec.Mode, len(rec.Projects)))
		return nil
	},
}

var touchCmd = &cobra.Command{
	Use:   "touch [path]",
	Short: "Mark a registered workspace as just used",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		root, err := a.currentWorkspace(args)
		if err != nil {
			return err
		}
		return a.registry.Touch(root)
	},
}
