package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorRed    = lipgloss.Color("1")
	colorGreen  = lipgloss.Color("2")
	colorYellow = lipgloss.Color("3")
	colorBlue   = lipgloss.Color("4")
)

// Header prints a section header: "==> msg" in bold blue.
func (u *UI) Header(msg string) {
	if u.isTTY {
		style := u.renderer.NewStyle().Bold(true).Foreground(colorBlue)
		u.println(style.Render("==> " + msg))
	} else {
		u.println("==> " + msg)
	}
}

// Success prints a success message: "  ✓ msg" in green (TTY) or "  ok msg" (non-TTY).
func (u *UI) Success(msg string) {
	if u.isTTY {
		style := u.renderer.NewStyle().Foreground(colorGreen)
		u.println(style.Render("  ✓ " + msg))
	} else {
		u.println("  ok " + msg)
	}
}

// Warn prints a warning to errOut: "warning: msg", prefix in yellow.
func (u *UI) Warn(msg string) {
	if u.isTTY {
		prefix := u.renderer.NewStyle().Foreground(colorYellow).Render("warning:")
		_, _ = fmt.Fprintf(u.errOut, "%s %s\n", prefix, msg)
	} else {
		_, _ = fmt.Fprintln(u.errOut, "warning: "+msg)
	}
}

// Keyval prints a label-value pair: "  label       value" with bold fixed-width label.
func (u *UI) Keyval(key, value string) {
	padded := fmt.Sprintf("%-12s", key)
	if u.isTTY {
		style := u.renderer.NewStyle().Bold(true)
		u.printf("  %s%s\n", style.Render(padded), value)
	} else {
		u.printf("  %s%s\n", padded, value)
	}
}

// Dim prints dimmed text.
func (u *UI) Dim(msg string) {
	if u.isTTY {
		style := u.renderer.NewStyle().Faint(true)
		u.println(style.Render(msg))
	} else {
		u.println(msg)
	}
}

// Error prints an error message: "error: msg" to errOut.
// Only the "error:" prefix is styled to prevent lipgloss from mangling
// multi-line message bodies.
func (u *UI) Error(msg string) {
	if u.isTTY {
		prefix := u.renderer.NewStyle().Foreground(colorRed).Render("error:")
		_, _ = fmt.Fprintf(u.errOut, "%s %s\n", prefix, msg)
	} else {
		_, _ = fmt.Fprintln(u.errOut, "error: "+msg)
	}
}

// StatusColor colors a tool health status: green when current, yellow when
// an update is available, red when deprecated or failing, faint otherwise.
func (u *UI) StatusColor(status string) string {
	if !u.isTTY {
		return status
	}
	style := u.renderer.NewStyle()
	switch strings.ToLower(status) {
	case "up-to-date":
		style = style.Foreground(colorGreen)
	case "update-available":
		style = style.Foreground(colorYellow)
	case "deprecated", "error":
		style = style.Foreground(colorRed)
	default:
		style = style.Faint(true)
	}
	return style.Render(status)
}

// Table prints a column-aligned table with bold headers.
func (u *UI) Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	if u.isTTY {
		style := u.renderer.NewStyle().Bold(true)
		u.println(style.Render(formatRow(headers, widths)))
	} else {
		u.println(formatRow(headers, widths))
	}
	for _, row := range rows {
		u.println(formatRow(row, widths))
	}
}

// formatRow pads each cell to its column width. Cells beyond the last
// column are appended unpadded; trailing whitespace is trimmed.
func formatRow(cells []string, widths []int) string {
	var line strings.Builder
	for i, cell := range cells {
		if i > 0 {
			line.WriteString("  ")
		}
		if i < len(widths) {
			fmt.Fprintf(&line, "%-*s", widths[i], cell)
		} else {
			line.WriteString(cell)
		}
	}
	return strings.TrimRight(line.String(), " ")
}

// println writes a line to out, discarding errors (not recoverable in CLI output).
func (u *UI) println(msg string) {
	_, _ = fmt.Fprintln(u.out, msg)
}

// printf writes formatted output to out, discarding errors.
func (u *UI) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(u.out, format, args...)
}
