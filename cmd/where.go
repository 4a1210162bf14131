package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var whereCmd = &cobra.Command{
	Use:   "root [path]",
	Short: "Print the workspace root containing path",
	Long: `Print the root of the workspace containing path (default: the current
directory). The nearest ancestor with a valid marker, a workspace
.rapidkit/config.json or a legacy pip .rapidkit/context.json wins; when
none exists, a registered workspace that contains the path is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		root, err := a.currentWorkspace(args)
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(cmd, map[string]string{"root": root})
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), root)
		return err
	},
}
