package cmd

import (
	"context"
	"path/filepath"

	"github.com/rapidkit/rkws/internal/bridge"
	"github.com/rapidkit/rkws/internal/workspace"
	"github.com/spf13/cobra"
)

// projectView is a project plus what the tool reports about it.
type projectView struct {
	workspace.Project
	Kit       string `json:"kit,omitempty"`
	Framework string `json:"framework,omitempty"`
}

var projectsCmd = &cobra.Command{
	Use:   "projects [path]",
	Short: "List the projects inside a workspace",
	Long: `List the projects inside a workspace. With --detect, rapidkit is asked
about each project and its kit and framework are shown.`,
	Args: cobra.MaximumNArgs(1),
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

		// Registered workspaces are refreshed so the stored list follows the disk.
		rec := a.registry.Find(root)
		if rec != nil {
			if rec, err = a.registry.Update(root); err != nil {
				return err
			}
		} else {
			rec = unregisteredRecord(root)
		}

		views := make([]projectView, len(rec.Projects))
		for i, p := range rec.Projects {
			views[i] = projectView{Project: p}
		}
		if detect, _ := cmd.Flags().GetBool("detect"); detect && len(views) > 0 {
			s := u.StartSpinner("Asking " + a.bridge.Tool() + " about projects")
			detectProjects(cmd.Context(), a.bridge, root, views)
			s.Stop()
		}

		if jsonFlag {
			return printJSON(cmd, views)
		}
		if len(views) == 0 {
			u.Dim("No projects in " + root)
			return nil
		}
		u.Table([]string{"NAME", "KIND", "KIT", "PATH"}, projectRows(views))
		return nil
	},
}

func init() {
	projectsCmd.Flags().Bool("detect", false, "ask rapidkit for each project's kit and framework")
}

// unregisteredRecord derives a record for a workspace that is not in the
// registry, without adding it.
func unregisteredRecord(root string) *workspace.Record {
	return &workspace.Record{
		Name:     filepath.Base(root),
		Path:     root,
		Mode:     workspace.DetectMode(root),
		Projects: workspace.DetectProjects(root),
	}
}

// detectProjects fills kit and framework from the tool. Projects the tool
// does not recognize, or cannot answer for, are left as they are.
func detectProjects(ctx context.Context, b *bridge.Bridge, root string, views []projectView) {
	for i := range views {
		p := b.DetectProject(ctx, views[i].Path, root)
		if !p.OK {
			logger.Debug("project detection failed", "project", views[i].Path, "error", p.Err)
			continue
		}
		if !p.Value.IsProject {
			continue
		}
		views[i].Kit = p.Value.Kit
		views[i].Framework = p.Value.Framework
	}
}
