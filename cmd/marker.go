package cmd

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rapidkit/rkws/internal/marker"
	"github.com/spf13/cobra"
)

var markerCmd = &cobra.Command{
	Use:   "marker [path]",
	Short: "Show the workspace marker file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := newUI()

		dir, err := targetPath(args)
		if err != nil {
			return err
		}

		m, ok := marker.Read(dir)
		if !ok {
			return fmt.Errorf("no readable %s in %s", marker.FileName, dir)
		}
		valid := marker.IsValid(m)

		if jsonFlag {
			return printJSON(cmd, struct {
				Valid  bool           `json:"valid"`
				Marker *marker.Marker `json:"marker"`
			}{valid, m})
		}

		u.Keyval("file", marker.Path(dir))
		u.Keyval("valid", fmt.Sprint(valid))
		u.Keyval("signature", m.Signature)
		u.Keyval("created by", m.CreatedBy)
		u.Keyval("created at", m.CreatedAt)
		u.Keyval("version", m.Version)
		u.Keyval("name", m.Name)
		if ns := namespaces(m.Metadata); len(ns) > 0 {
			u.Keyval("metadata", strings.Join(ns, ", "))
		}
		return nil
	},
}

var markerStampCmd = &cobra.Command{
	Use:   "stamp [path]",
	Short: "Create the marker, or record this tool in its vscode metadata",
	Long: `Write the vscode metadata namespace of the marker in path (default: the
workspace containing the current directory). Metadata owned by other tools
(npm, python, custom) and unknown fields are preserved. When path is given
and holds no marker, a new one with the current signature is created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := newUI()

		// An explicit path may create a new workspace; otherwise stamp the
		// workspace the current directory belongs to.
		var dir string
		var err error
		if len(args) > 0 {
			dir, err = targetPath(args)
		} else {
			var a *app
			if a, err = newApp(); err == nil {
				dir, err = a.currentWorkspace(nil)
			}
		}
		if err != nil {
			return err
		}

		meta := &marker.Metadata{VSCode: map[string]any{
			"tool":        "rkws",
			"toolVersion": Version,
			"lastStamped": time.Now().UTC().Format(time.RFC3339),
		}}

		m := &marker.Marker{Metadata: meta}
		if existing, ok := marker.Read(dir); !ok || !marker.IsValid(existing) {
			m = marker.New(filepath.Base(dir), "")
			m.Metadata = meta
		}
		if err := marker.Write(dir, m); err != nil {
			return err
		}

		u.Success("Stamped " + marker.Path(dir))
		return nil
	},
}

func init() {
	markerCmd.AddCommand(markerStampCmd)
}

// namespaces lists the metadata namespaces that carry data.
func namespaces(md *marker.Metadata) []string {
	if md == nil {
		return nil
	}
	var out []string
	for name, ns := range map[string]map[string]any{
		"vscode": md.VSCode,
		"npm":    md.NPM,
		"python": md.Python,
		"custom": md.Custom,
	} {
		if len(ns) > 0 {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
