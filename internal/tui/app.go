// Package tui provides the interactive Bubble Tea dashboard for subdash.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/subdash/subdash/internal/cli"
	"github.com/subdash/subdash/internal/cohort"
	"github.com/subdash/subdash/internal/config"
	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/pipeline"
	"github.com/subdash/subdash/internal/report"
	"github.com/subdash/subdash/internal/tui/components"
	"github.com/subdash/subdash/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// LoadFunc loads the dataset the dashboard shows. It must always return a
// dataset, falling back to the built-in one when live data is unavailable.
type LoadFunc func(ctx context.Context, progress pipeline.ProgressFunc) *pipeline.Dataset

// Options configures the dashboard.
type Options struct {
	Config     config.Config
	ConfigPath string // file plan edits are saved to; empty means config.ConfigPath()
	Load       LoadFunc
	Month      model.Month // zero selects the latest month with data
	FirstRun   bool        // open the plan form once data is loaded
	Now        func() time.Time
}

// DataLoadedMsg is sent when the initial load finishes.
type DataLoadedMsg struct {
	Dataset  *pipeline.Dataset
	LoadTime time.Duration
}

// ProgressMsg reports month fetch progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background data refresh completes.
type RefreshDataMsg struct {
	Dataset  *pipeline.Dataset
	LoadTime time.Duration
}

// App is the root Bubble Tea model.
type App struct {
	cfg     config.Config
	cfgPath string
	load    LoadFunc
	now     func() time.Time

	// Data
	ds       *pipeline.Dataset
	loaded   bool
	loadTime time.Duration

	// Computed for the selected month
	month   model.Month
	report  *report.Monthly
	cohorts []model.CohortResult
	err     error
	notice  string

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	scroll    int

	// Plan editor (huh form)
	editForm *huh.Form
	editVals *PlanValues
	firstRun bool

	// Loading: channel-based progress subscription
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	scrollOverhead    = 6 // header + status bar height for half-page calc
	minHalfPageScroll = 1
	minContentHeight  = 5

	minRefreshInterval = 10 * time.Second
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	refreshInterval := time.Duration(opts.Config.TUI.RefreshIntervalSec) * time.Second
	if refreshInterval < minRefreshInterval {
		refreshInterval = 60 * time.Second
	}

	return App{
		cfg:             opts.Config,
		cfgPath:         opts.ConfigPath,
		load:            opts.Load,
		now:             now,
		month:           opts.Month,
		firstRun:        opts.FirstRun,
		autoRefresh:     opts.Config.TUI.AutoRefresh,
		refreshInterval: refreshInterval,
		spinner:         sp,
		loadSub:         make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.load, a.loadSub),
		a.spinner.Tick,
		tickCmd(),
	)
}

// setDataset installs a freshly loaded dataset and keeps the selected month
// inside what it covers.
func (a *App) setDataset(ds *pipeline.Dataset, loadTime time.Duration) {
	if ds == nil {
		return
	}
	prevSource := ""
	if a.ds != nil {
		prevSource = a.ds.SourceLabel()
	}
	a.ds = ds
	a.loadTime = loadTime
	a.lastRefresh = a.now()

	if a.month.IsZero() || (ds.Fallback && !a.inDataset(a.month)) {
		a.month = defaultMonth(ds)
	}
	if prevSource != "" && prevSource != ds.SourceLabel() {
		a.notice = "data source changed to " + ds.SourceLabel()
	}
	a.recompute()
}

func defaultMonth(ds *pipeline.Dataset) model.Month {
	if m, ok := ds.LatestMonth(); ok {
		return m
	}
	if len(ds.Months) > 0 {
		return ds.Months[len(ds.Months)-1]
	}
	return model.Month{}
}

func (a App) inDataset(m model.Month) bool {
	for _, dm := range a.ds.Months {
		if dm == m {
			return true
		}
	}
	return false
}

func (a *App) recompute() {
	if a.ds == nil || a.month.IsZero() {
		return
	}
	now := a.now()

	params, err := a.cfg.GrowthParameters(now)
	if err != nil {
		a.report, a.err = nil, err
		return
	}
	pricing := a.cfg.PlanPricing(a.month.Start())

	a.report, a.err = report.Build(report.Inputs{
		Dataset:        a.ds,
		Params:         params,
		Pricing:        pricing,
		Trend:          a.cfg.Forecast.Options(),
		ForecastMonths: a.cfg.Forecast.Months,
		AsOf:           now,
	}, a.month)

	a.cohorts = nil
	if n := len(a.ds.Months); n > 0 {
		a.cohorts = cohort.ComputeRange(a.ds.Customers, a.ds.Months[0], a.ds.Months[n-1], now, pricing)
	}
}

// monthBounds is the range [ and ] can move through: the dataset's months
// plus the rest of the plan horizon.
func (a App) monthBounds() (model.Month, model.Month) {
	if a.ds == nil || len(a.ds.Months) == 0 {
		return a.month, a.month
	}
	lo, hi := a.ds.Months[0], a.ds.Months[len(a.ds.Months)-1]
	if a.report != nil && len(a.report.Plan) > 0 {
		if last := a.report.Plan[len(a.report.Plan)-1].Month; hi.Before(last) {
			hi = last
		}
		if first := a.report.Plan[0].Month; first.Before(lo) {
			lo = first
		}
	}
	return lo, hi
}

func (a *App) stepMonth(n int) {
	lo, hi := a.monthBounds()
	next := a.month.AddMonths(n)
	if next.Before(lo) || hi.Before(next) {
		return
	}
	a.month = next
	a.scroll = 0
	a.recompute()
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.editForm != nil {
			a.editForm = a.editForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.editForm != nil {
			return a, nil
		}

		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.scroll = max(a.scroll-1, 0)
			return a, nil
		case tea.MouseButtonWheelDown:
			a.scroll++
			return a, nil
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
					a.scroll = 0
				}
			}
			return a, nil
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.setDataset(msg.Dataset, msg.LoadTime)
		if a.firstRun {
			a.firstRun = false
			return a, a.openEditor()
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.autoRefresh && !a.refreshing && a.now().Sub(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, refreshDataCmd(a.load))
		}
		return a, tea.Batch(cmds...)

	case RefreshDataMsg:
		a.refreshing = false
		a.lastRefresh = a.now()
		a.setDataset(msg.Dataset, msg.LoadTime)
		return a, nil
	}

	// Forward unhandled messages to the plan form (cursor blinks, etc.)
	if a.editForm != nil {
		return a.updateEditForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}

	// The plan form intercepts all keys
	if a.editForm != nil {
		return a.updateEditForm(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	a.notice = ""

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, refreshDataCmd(a.load)
		}
		return a, nil
	case "R":
		a.autoRefresh = !a.autoRefresh
		a.cfg.TUI.AutoRefresh = a.autoRefresh
		// Best-effort: the toggle still applies to this session.
		_ = a.saveConfig(a.cfg)
		return a, nil
	case "e":
		return a, a.openEditor()
	case "[":
		a.stepMonth(-1)
	case "]":
		a.stepMonth(1)
	case "j", "down":
		a.scroll++
	case "k", "up":
		a.scroll = max(a.scroll-1, 0)
	case "g":
		a.scroll = 0
	case "ctrl+d":
		a.scroll += max((a.height-scrollOverhead)/2, minHalfPageScroll)
	case "ctrl+u":
		a.scroll = max(a.scroll-max((a.height-scrollOverhead)/2, minHalfPageScroll), 0)
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		a.scroll = 0
	case "right":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		a.scroll = 0
	default:
		if r := []rune(key); len(r) == 1 {
			if idx := components.TabIdxByKey(r[0]); idx >= 0 {
				a.activeTab = idx
				a.scroll = 0
			}
		}
	}
	return a, nil
}

func (a *App) openEditor() tea.Cmd {
	vals := PlanValuesFrom(a.cfg, a.now())
	a.editVals = &vals
	a.editForm = NewPlanForm(a.editVals)
	if a.width > 0 {
		a.editForm = a.editForm.WithWidth(a.width).WithHeight(a.height)
	}
	return a.editForm.Init()
}

func (a App) updateEditForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.editForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.editForm = f
	}

	switch a.editForm.State {
	case huh.StateCompleted:
		a.applyPlanEdit(*a.editVals)
		a.editForm, a.editVals = nil, nil
		return a, nil
	case huh.StateAborted:
		a.editForm, a.editVals = nil, nil
		return a, nil
	}
	return a, cmd
}

func (a *App) applyPlanEdit(vals PlanValues) {
	cfg, err := vals.Apply(a.cfg, a.now())
	if err != nil {
		a.notice = "plan not changed: " + err.Error()
		return
	}
	a.cfg = cfg
	theme.SetActive(cfg.Appearance.Theme)
	a.notice = "plan updated"
	if vals.Save {
		if err := a.saveConfig(cfg); err != nil {
			a.notice = "plan updated, not saved: " + err.Error()
		} else {
			a.notice = "plan saved"
		}
	}
	a.recompute()
}

func (a App) saveConfig(cfg config.Config) error {
	path := a.cfgPath
	if path == "" {
		path = config.ConfigPath()
	}
	return config.SaveFile(path, cfg)
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.editForm != nil {
		return a.editForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  subdash needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ subdash"))
	b.WriteString(subtitleStyle.Render(" · Subscription Plan Tracker"))
	b.WriteString("\n\n")

	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	if a.progressMax > 0 {
		barW := max(min(40, a.width-30), 20)
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString(subtitleStyle.Render(" Loading months\n\n"))
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progress))))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progressMax))))
	} else {
		b.WriteString(subtitleStyle.Render(" Connecting to the record store..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"p v f c d", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"[ ]", "Previous / Next month"},
			{"j k", "Scroll"},
			{"^d ^u", "Half-page scroll"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"e", "Edit growth plan"},
			{"r", "Refresh data"},
			{"R", "Toggle auto-refresh"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}
	for i, sec := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

// contextLine is the row under the tab bar: plan window, data source and
// any pending notice.
func (a App) contextLine(w int) string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	s := dim.Render(" ")
	if a.report != nil && len(a.report.Plan) > 0 {
		s += dim.Render("plan ") +
			accent.Render(a.report.Plan[0].Month.String()+" → "+a.report.Plan[len(a.report.Plan)-1].Month.String())
	}
	if a.ds != nil && a.ds.Fallback && a.ds.Cause != nil {
		s += dim.Render(" │ ") + warn.Render("live data unavailable: "+truncStr(a.ds.Cause.Error(), 60))
	}
	if a.notice != "" {
		s += dim.Render(" │ ") + accent.Render(a.notice)
	}
	return lipgloss.NewStyle().Background(t.Surface).Width(w).Render(s)
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + context row
	header := components.RenderTabBar(a.activeTab, w, cli.FormatMonthLabel(a.month)) + "\n" + a.contextLine(w)

	// 2. Status bar
	info := components.StatusInfo{
		DataAge:     fmt.Sprintf("%.1fs", a.loadTime.Seconds()),
		Refreshing:  a.refreshing,
		AutoRefresh: a.autoRefresh,
	}
	if a.ds != nil {
		info.Source = a.ds.SourceLabel()
	}
	statusBar := components.RenderStatusBar(w, info)

	// 3. Content zone height
	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	// 4. Tab content
	var content string
	switch {
	case a.err != nil:
		content = components.ContentCard("Plan", lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).
			Render(a.err.Error()+"\n\nPress e to edit the growth plan."), cw)
	default:
		switch a.activeTab {
		case 0:
			content = a.renderPlanTab(cw)
		case 1:
			content = a.renderVarianceTab(cw)
		case 2:
			content = a.renderForecastTab(cw)
		case 3:
			content = a.renderCohortsTab(cw)
		case 4:
			content = a.renderDailyTab(cw)
		}
	}

	// 5. Scroll, truncate and pad to exactly contentH lines
	content = padHeight(truncateHeight(scrollLines(content, a.scroll), contentH), contentH)

	// 6. Fill each line to full width with background
	content = fillLinesWithBackground(content, cw, t.Background)

	// 7. Center when the terminal is wider than the content
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadDataCmd runs load in a background goroutine. It streams ProgressMsg
// updates and a final DataLoadedMsg through sub.
func loadDataCmd(load LoadFunc, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Non-blocking send so workers aren't stalled; the next update catches up.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			ds := load(context.Background(), progressFn)
			sub <- DataLoadedMsg{Dataset: ds, LoadTime: time.Since(start)}
		}()

		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads in the background without progress UI.
func refreshDataCmd(load LoadFunc) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ds := load(context.Background(), nil)
		return RefreshDataMsg{Dataset: ds, LoadTime: time.Since(start)}
	}
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func scrollLines(s string, offset int) string {
	if offset <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	// Keep the last line reachable rather than scrolling into blank space.
	offset = min(offset, max(len(lines)-1, 0))
	return strings.Join(lines[offset:], "\n")
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
