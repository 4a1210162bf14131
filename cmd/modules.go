package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the modules the tool can install",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		u := newUI()

		a, err := newApp()
		if err != nil {
			return err
		}
		root, err := a.currentWorkspace(nil)
		if err != nil {
			root = ""
		}

		s := u.StartSpinner("Fetching module catalog")
		parsed := a.bridge.ListModules(cmd.Context(), root)
		s.Stop()
		if !parsed.OK {
			return fmt.Errorf("listing modules: %w", parsed.Err)
		}

		if jsonFlag {
			return printJSON(cmd, parsed.Value.Modules)
		}
		if len(parsed.Value.Modules) == 0 {
			u.Dim("No modules available")
			return nil
		}
		var rows [][]string
		for _, m := range parsed.Value.Modules {
			rows = append(rows, []string{m.Name, m.Version, orDash(m.Category), m.Description})
		}
		u.Table([]string{"NAME", "VERSION", "CATEGORY", "DESCRIPTION"}, rows)
		return nil
	},
}
