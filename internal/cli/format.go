// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/subdash/subdash/internal/model"
)

// FormatYen formats a currency amount rounded to whole yen with separators.
// e.g., 1234567.4 -> "¥1,234,567", -980 -> "-¥980"
func FormatYen(v float64) string {
	d := decimal.NewFromFloat(v).Round(0)
	if d.IsNegative() {
		return "-¥" + humanize.Comma(d.Neg().IntPart())
	}
	return "¥" + humanize.Comma(d.IntPart())
}

// FormatCompactYen formats large amounts with a suffix.
// e.g., 1234 -> "¥1.2K", 2500000 -> "¥2.5M"
func FormatCompactYen(v float64) string {
	abs := math.Abs(v)
	sign := ""
	if v < 0 {
		sign = "-"
	}
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%s¥%.1fB", sign, abs/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%s¥%.1fM", sign, abs/1_000_000)
	case abs >= 10_000:
		return fmt.Sprintf("%s¥%.1fK", sign, abs/1_000)
	default:
		return FormatYen(v)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatCount formats a count that may carry a fractional part from averaging.
func FormatCount(v float64) string {
	if v == math.Trunc(v) {
		return FormatNumber(int64(v))
	}
	return humanize.CommafWithDigits(v, 1)
}

// FormatPercent formats a value already expressed in percent.
// e.g., 12.345 -> "12.3%"
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatSignedPercent formats a percent with an explicit sign.
func FormatSignedPercent(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.1f%%", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatValue formats v according to the metric's unit.
func FormatValue(m model.Metric, v float64) string {
	switch model.UnitOf(m) {
	case model.UnitCurrency:
		return FormatYen(v)
	case model.UnitPercentage:
		return FormatPercent(v)
	default:
		return FormatCount(v)
	}
}

// FormatDelta formats a signed difference in the metric's unit.
func FormatDelta(m model.Metric, delta float64) string {
	if delta >= 0 {
		return "+" + FormatValue(m, delta)
	}
	return "-" + FormatValue(m, -delta)
}

// FormatRetention formats a retention checkpoint. Checkpoints in the future
// render as a dash.
func FormatRetention(pct *int) string {
	if pct == nil {
		return "-"
	}
	return fmt.Sprintf("%d%%", *pct)
}

// FormatMonthLabel returns "Jan 2026" for a month.
func FormatMonthLabel(m model.Month) string {
	return m.Start().Format("Jan 2006")
}

// Pad right-pads s to width, measuring display width.
func Pad(s string, width int) string {
	w := displayWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
