package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
)

// isTerminal reports whether stdout is an interactive terminal. Non-terminal
// output skips progress chatter so piped output stays clean.
func isTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// truncate shortens s to max display cells, appending an ellipsis. Width is
// measured in terminal cells so wide runes and emoji don't break alignment.
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if runewidth.StringWidth(s) <= max {
		return s
	}
	return runewidth.Truncate(s, max, "…")
}

// formatDate renders a unix-second timestamp for list output. A zero
// timestamp (no messages) renders as a dash.
func formatDate(unix int64) string {
	if unix == 0 {
		return "-"
	}
	return time.Unix(unix, 0).Local().Format("2006-01-02 15:04")
}
