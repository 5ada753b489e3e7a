package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/subdash/subdash/internal/tui/theme"
)

// ProgressBar renders a loading progress bar with percentage.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	pct = min(max(pct, 0), 1)
	filled := int(pct * float64(width))

	var barColor lipgloss.Color
	switch {
	case pct >= 0.8:
		barColor = t.AccentBright
	case pct >= 0.5:
		barColor = t.Accent
	default:
		barColor = t.Cyan
	}

	filledStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	b.WriteString(filledStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(emptyStyle.Render(strings.Repeat("░", width-filled)))

	return b.String() + spaceStyle.Render(" ") + pctStyle.Render(fmt.Sprintf("%.0f%%", pct*100))
}

// AchievementTone classifies an achievement percentage. For costs, spending
// under target is good; for everything else, reaching it is.
func AchievementTone(pct float64, lowerIsBetter bool) theme.Tone {
	if lowerIsBetter {
		switch {
		case pct <= 100:
			return theme.Good
		case pct <= 110:
			return theme.Warn
		default:
			return theme.Bad
		}
	}
	switch {
	case pct >= 100:
		return theme.Good
	case pct >= 80:
		return theme.Warn
	default:
		return theme.Bad
	}
}

// AchievementBar renders a labeled bar of actual against target-to-date.
// The bar saturates at 100%; the printed percentage does not.
func AchievementBar(label string, pct float64, tone theme.Tone, labelW, barWidth int) string {
	t := theme.Active
	color := string(t.ToneColor(tone))

	bar := progress.New(
		progress.WithSolidFill(color),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(min(max(pct/100, 0), 1)) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%4.0f%%", pct))
}
