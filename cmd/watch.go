package cmd

import (
	"fmt"
	"time"

	"github.com/rapidkit/rkws/internal/workspace"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the registry whenever another process changes it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		u := newUI()

		a, err := newApp()
		if err != nil {
			return err
		}

		u.Dim(fmt.Sprintf("Watching %s (Ctrl-C to stop)", a.registry.File()))
		return a.registry.Watch(cmd.Context(), func(records []workspace.Record) {
			a.versions.Invalidate()
			if jsonFlag {
				_ = printJSON(cmd, records)
				return
			}
			u.Header(fmt.Sprintf("%s: %d workspaces", time.Now().Format(time.TimeOnly), len(records)))
			for _, r := range records {
				u.Keyval(r.Name, r.Path)
			}
		})
	},
}
