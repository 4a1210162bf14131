package cmd

import (
	"context"

	"github.com/rapidkit/rkws/internal/bridge"
	"github.com/rapidkit/rkws/internal/version"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// statusConcurrency bounds how many workspaces are probed at once by
// status --all. Probes within one workspace stay sequential.
const statusConcurrency = 4

// workspaceStatus pairs a workspace with its version info.
type workspaceStatus struct {
	Workspace string `json:"workspace"`
	version.Info
	// Runtime is the tool's own report; only filled for single-workspace status.
	Runtime *bridge.VersionReport `json:"runtime,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Show the installed rapidkit version and whether an update is available",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := newUI()

		a, err := newApp()
		if err != nil {
			return err
		}

		all, _ := cmd.Flags().GetBool("all")
		if all {
			s := u.StartSpinner("Checking registered workspaces")
			statuses, err := a.statusAll(cmd.Context(), a.registry.Paths())
			s.Stop()
			if err != nil {
				return err
			}
			if jsonFlag {
				return printJSON(cmd, statuses)
			}
			if len(statuses) == 0 {
				u.Dim("No workspaces registered")
				return nil
			}
			var rows [][]string
			for _, st := range statuses {
				rows = append(rows, []string{
					st.Workspace,
					orDash(st.Installed),
					orDash(string(st.Location)),
					orDash(st.Latest),
					u.StatusColor(string(st.Status)),
				})
			}
			u.Table([]string{"WORKSPACE", "INSTALLED", "FROM", "LATEST", "STATUS"}, rows)
			return nil
		}

		// Outside a workspace the global install is reported.
		root, err := a.currentWorkspace(args)
		if err != nil {
			logger.Debug("no workspace, reporting global install", "error", err)
			root = ""
		}

		info := a.versions.Get(cmd.Context(), root)
		report := a.runtimeReport(cmd.Context(), root, info)
		if jsonFlag {
			return printJSON(cmd, workspaceStatus{Workspace: root, Info: info, Runtime: report})
		}

		if root != "" {
			u.Keyval("workspace", root)
		}
		u.Keyval("status", u.StatusColor(string(info.Status)))
		if info.Installed != "" {
			u.Keyval("installed", info.Installed)
			u.Keyval("from", string(info.Location))
			u.Keyval("executable", info.Path)
		}
		if report != nil && report.PythonVersion != "" {
			u.Keyval("python", report.PythonVersion)
		}
		if info.Latest != "" {
			u.Keyval("latest", info.Latest)
		}
		if info.Stale {
			u.Warn("version check failed, showing the last known result")
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("all", false, "check every registered workspace")
}

// statusAll probes workspaces concurrently, keeping the registry order in
// the result.
func (a *app) statusAll(ctx context.Context, paths []string) ([]workspaceStatus, error) {
	out := make([]workspaceStatus, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(statusConcurrency)
	for i, p := range paths {
		g.Go(func() error {
			out[i] = workspaceStatus{Workspace: p, Info: a.versions.Get(ctx, p)}
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// runtimeReport asks an installed tool for its structured version report.
// Nothing is run when no install was found.
func (a *app) runtimeReport(ctx context.Context, root string, info version.Info) *bridge.VersionReport {
	if info.Installed == "" {
		return nil
	}
	tier := bridge.TierGlobal
	if info.Location == version.LocationWorkspace {
		tier = bridge.TierWorkspace
	}
	p := a.bridge.ToolVersion(ctx, tier, root)
	if !p.OK {
		logger.Debug("no structured version report", "workspace", root, "error", p.Err)
		return nil
	}
	return &p.Value
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
