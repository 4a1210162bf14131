package ui

import (
	"fmt"
	"io"
)

// StartFrame prints a dimmed separator header: "  --- title ---". Tool
// output passed through by the CLI is printed between StartFrame and
// EndFrame.
func (u *UI) StartFrame(title string) {
	u.frameLine(fmt.Sprintf("  --- %s ---", title))
}

// EndFrame prints a dimmed closing separator: "  ---"
func (u *UI) EndFrame() {
	u.frameLine("  ---")
}

// Passthrough writes captured tool output verbatim, adding a trailing
// newline when missing. Stream selects out (false) or errOut (true).
func (u *UI) Passthrough(text string, toErr bool) {
	if text == "" {
		return
	}
	var w io.Writer = u.out
	if toErr {
		w = u.errOut
	}
	_, _ = io.WriteString(w, text)
	if text[len(text)-1] != '\n' {
		_, _ = io.WriteString(w, "\n")
	}
}

func (u *UI) frameLine(line string) {
	if u.isTTY {
		u.println(u.renderer.NewStyle().Faint(true).Render(line))
	} else {
		u.println(line)
	}
}
