package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/subdash/subdash/internal/tui/theme"
)

// StatusInfo is what the bottom bar reports about the loaded data.
type StatusInfo struct {
	Source      string // "live" or "fallback"
	DataAge     string
	Refreshing  bool
	AutoRefresh bool
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface).Bold(true)

	left := base.Render(" ") + keyStyle.Render("?") + base.Render(" help  ") +
		keyStyle.Render("[ ]") + base.Render(" month  ") +
		keyStyle.Render("e") + base.Render(" edit plan  ") +
		keyStyle.Render("q") + base.Render(" quit")

	var right strings.Builder
	switch {
	case info.Refreshing:
		right.WriteString(base.Render("refreshing… "))
	case info.AutoRefresh:
		right.WriteString(base.Render("auto "))
	}
	if info.Source == "fallback" {
		right.WriteString(warnStyle.Render("SAMPLE DATA "))
	} else if info.Source != "" {
		right.WriteString(base.Render(info.Source + " "))
	}
	if info.DataAge != "" {
		right.WriteString(base.Render("loaded in " + info.DataAge + " "))
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right.String()), 0)
	return left + base.Render(strings.Repeat(" ", padding)) + right.String()
}
