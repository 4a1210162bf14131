package cmd

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered workspaces",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		u := newUI()

		a, err := newApp()
		if err != nil {
			return err
		}

		records := a.registry.List()
		if jsonFlag {
			return printJSON(cmd, records)
		}
		if len(records) == 0 {
			u.Dim("No workspaces registered (try 'rkws discover')")
			return nil
		}

		headers := []string{"NAME", "MODE", "PROJECTS", "LAST USED", "PATH"}
		var rows [][]string
		for _, r := range records {
			rows = append(rows, []string{
				r.Name,
				string(r.Mode),
				strconv.Itoa(len(r.Projects)),
				formatLastAccessed(r.LastAccessed, time.Now()),
				r.Path,
			})
		}
		u.Table(headers, rows)
		return nil
	},
}

// formatLastAccessed renders an epoch-millisecond timestamp relative to now.
func formatLastAccessed(ms int64, now time.Time) string {
	if ms <= 0 {
		return "-"
	}
	d := now.Sub(time.UnixMilli(ms))
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return strconv.Itoa(int(d.Minutes())) + "m ago"
	case d < 24*time.Hour:
		return strconv.Itoa(int(d.Hours())) + "h ago"
	default:
		return strconv.Itoa(int(d.Hours()/24)) + "d ago"
	}
}

// projectRows formats projects as table rows.
func projectRows(views []projectView) [][]string {
	var rows [][]string
	for _, p := range views {
		kind := string(p.Kind)
		if kind == "" {
			kind = "-"
		}
		kit := p.Kit
		switch {
		case kit == "":
			kit = p.Framework
		case p.Framework != "":
			kit += " (" + p.Framework + ")"
		}
		rows = append(rows, []string{p.Name, kind, orDash(kit), p.Path})
	}
	return rows
}
