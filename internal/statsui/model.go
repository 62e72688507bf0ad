// Package statsui provides the Bubble Tea threshold browser.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
	"github.com/abhinavpachauri/igcse-estimator/internal/stats"
)

const (
	tabOverview = iota
	tabBoundaries
	tabYears
	tabCurves
)

const (
	plotHeight = 10
	maxWindow  = 20
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// LoadFunc builds the report for a query.
type LoadFunc func(ctx context.Context, q model.ThresholdQuery) (stats.Report, error)

// Model implements the Bubble Tea threshold browser.
type Model struct {
	load  LoadFunc
	query model.ThresholdQuery

	report stats.Report
	errMsg string

	tabs       []string
	activeTab  int
	viewports  []viewport.Model
	gradeTable table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a threshold browser for the initial query.
func NewModel(load LoadFunc, q model.ThresholdQuery) *Model {
	if q.Season == "" {
		q.Season = model.SeasonFM
	}
	m := &Model{
		load:  load,
		query: q,
		tabs:  []string{"Overview", "Boundaries", "By Year", "Curves"},
	}
	m.initInputs()
	m.gradeTable = buildGradeTable(nil, 0, 1)
	m.initViewports()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if m.activeTab == tabBoundaries {
			m.gradeTable.Focus()
		} else {
			m.gradeTable.Blur()
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=", "+":
			m.query.Window = minInt(maxWindow, m.window()+1)
			m.refreshReport()
			return m, nil
		case "-":
			m.query.Window = maxInt(1, m.window()-1)
			m.refreshReport()
			return m, nil
		case "s":
			m.query.Season = nextSeason(m.query.Season)
			m.refreshReport()
			return m, nil
		case "t":
			m.query.Tier = nextTier(m.query.Tier)
			m.refreshReport()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if m.activeTab == tabBoundaries {
				m.gradeTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabBoundaries {
				m.gradeTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabBoundaries {
				var cmd tea.Cmd
				m.gradeTable, cmd = m.gradeTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.filterMode {
		return fitLines(m.renderFilterModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// Query returns the current selection.
func (m *Model) Query() model.ThresholdQuery {
	return m.query
}

func (m *Model) window() int {
	if m.report.Query.Window > 0 {
		return m.report.Query.Window
	}
	if m.query.Window > 0 {
		return m.query.Window
	}
	return 5
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Subject: "),
		newFilterInput("Tier (core/extended/none): "),
		newFilterInput("Season (FM/MJ/ON): "),
		newFilterInput("Window: "),
	}
	m.setInputsFromQuery()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromQuery() {
	if len(m.filterInputs) == 0 {
		return
	}
	m.filterInputs[0].SetValue(m.query.SubjectCode)
	tier := ""
	if m.query.Tier != model.TierNone {
		tier = strings.ToLower(string(m.query.Tier))
	}
	m.filterInputs[1].SetValue(tier)
	m.filterInputs[2].SetValue(string(m.query.Season))
	if m.query.Window > 0 {
		m.filterInputs[3].SetValue(strconv.Itoa(m.query.Window))
	} else {
		m.filterInputs[3].SetValue("")
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.gradeTable.SetWidth(m.width)
	m.gradeTable.SetHeight(maxInt(1, vpHeight-1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, modalInnerWidth(m.width)-promptWidth)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabBoundaries {
		m.gradeTable.Focus()
	} else {
		m.gradeTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	subject := m.query.SubjectCode
	if subject == "" {
		subject = "none"
	}
	summary := fmt.Sprintf("Selection: subject=%s  tier=%s  season=%s  window=%d",
		subject, m.query.Tier.Label(), m.query.Season, m.window())
	summary = truncateLine(summary, m.width)
	return headerStyle.Render(summary)
}

func (m *Model) renderHelp() string {
	return headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Season: s  Tier: t  Select: /  Quit: q")
}

func (m *Model) renderFooter() string {
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderBody(height int) string {
	if m.activeTab == tabBoundaries {
		if len(m.report.Summaries) == 0 {
			return fitLines(emptyMessage(m.errMsg), m.width, height)
		}
		view := tableMutedStyle.Render(m.gradeTable.View())
		return fitLines(view, m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func emptyMessage(errMsg string) string {
	if errMsg != "" {
		return "Failed to load thresholds."
	}
	return "No thresholds found."
}

func (m *Model) refreshReport() {
	if m.query.SubjectCode == "" {
		m.report = stats.Report{Query: m.query}
		m.errMsg = "no subject selected; press / to choose one"
		m.applyReport()
		return
	}
	report, err := m.load(context.Background(), m.query)
	if err != nil {
		m.errMsg = err.Error()
		m.report = stats.Report{Query: m.query}
		m.applyReport()
		return
	}
	m.errMsg = ""
	m.report = report
	m.query.Window = report.Query.Window
	m.applyReport()
}

func (m *Model) applyReport() {
	_, bodyHeight, _ := m.layoutHeights()
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.gradeTable.SetRows(gradeRows(m.report.Summaries))
	m.gradeTable.SetWidth(width)
	m.gradeTable.SetHeight(maxInt(1, bodyHeight-1))
	m.gradeTable.GotoTop()
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	if m.errMsg != "" && len(m.report.Summaries) == 0 {
		for i := range m.viewports {
			m.viewports[i].SetContent(emptyMessage(m.errMsg))
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, width))
	m.viewports[tabYears].SetContent(renderYears(m.report.History))
	m.viewports[tabCurves].SetContent(renderCurves(m.report.History, width))
}

func renderOverview(r stats.Report, width int) string {
	if len(r.Summaries) == 0 {
		return "No thresholds found."
	}
	cards := summaryCards(r)
	var body string
	if width < 80 {
		body = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...)
		body = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	var buf bytes.Buffer
	if err := stats.RenderSummary(&buf, r); err != nil {
		return fmt.Sprintf("Failed to render summary: %v", err)
	}
	return strings.TrimRight(body+"\n\n"+buf.String(), "\n")
}

func summaryCards(r stats.Report) []string {
	name := r.Subject.SyllabusCode
	if r.Subject.Name != "" {
		name += " " + r.Subject.Name
	}
	years := stats.Years(r.Summaries)
	span := "-"
	if len(years) > 0 {
		span = fmt.Sprintf("%d-%d", years[0], years[len(years)-1])
	}
	widest := "-"
	if top := stats.RankBySpread(r.Summaries, 1); len(top) == 1 {
		widest = fmt.Sprintf("%s (%.1f pts)", top[0].Grade, stats.Spread(top[0]))
	}
	best := r.Summaries[0]
	return []string{
		metricCard("Subject", name),
		metricCard("Series", fmt.Sprintf("%d (%s)", len(years), span)),
		metricCard("Grades", strconv.Itoa(len(r.Summaries))),
		metricCard("Top boundary", fmt.Sprintf("%s %.1f%%", best.Grade, best.AveragedPct)),
		metricCard("Most volatile", widest),
	}
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderYears(history []model.GradeThresholdSummary) string {
	var buf bytes.Buffer
	if err := stats.RenderYearMatrix(&buf, history); err != nil {
		return fmt.Sprintf("Failed to render years: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderCurves(history []model.GradeThresholdSummary, width int) string {
	var buf bytes.Buffer
	if err := stats.RenderCurvesWithSize(&buf, history, 1, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render curves: %v", err)
	}
	if buf.Len() == 0 {
		return "Not enough years to plot."
	}
	return strings.TrimRight(buf.String(), "\n")
}

func gradeColumns() []table.Column {
	return []table.Column{
		{Title: "Grade", Width: 5},
		{Title: "Avg %", Width: 7},
		{Title: "Min %", Width: 7},
		{Title: "Max %", Width: 7},
		{Title: "Spread", Width: 7},
		{Title: "Years", Width: 5},
		{Title: "Trend", Width: 12},
	}
}

func gradeRows(summaries []model.GradeThresholdSummary) []table.Row {
	rows := make([]table.Row, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, table.Row{
			s.Grade.String(),
			fmt.Sprintf("%.1f", s.AveragedPct),
			fmt.Sprintf("%.1f", s.MinPct),
			fmt.Sprintf("%.1f", s.MaxPct),
			fmt.Sprintf("%.1f", stats.Spread(s)),
			strconv.Itoa(len(s.YearData)),
			stats.Sparkline(stats.YearValues(s)),
		})
	}
	return rows
}

func buildGradeTable(summaries []model.GradeThresholdSummary, width, height int) table.Model {
	t := table.New(
		table.WithColumns(gradeColumns()),
		table.WithRows(gradeRows(summaries)),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(gradeTableStyles())
	return t
}

func gradeTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromQuery()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		q, err := parseFilter(m.filterValues())
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.query = q
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) filterValues() []string {
	out := make([]string, len(m.filterInputs))
	for i, input := range m.filterInputs {
		out[i] = strings.TrimSpace(input.Value())
	}
	return out
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

// parseFilter reads subject, tier, season and window from the form fields.
func parseFilter(values []string) (model.ThresholdQuery, error) {
	var q model.ThresholdQuery
	if len(values) != 4 {
		return q, fmt.Errorf("expected 4 fields, got %d", len(values))
	}
	q.SubjectCode = values[0]
	if q.SubjectCode == "" {
		return q, fmt.Errorf("subject code is required")
	}
	tier, err := model.ParseTier(values[1])
	if err != nil {
		return q, err
	}
	q.Tier = tier
	season := model.SeasonFM
	if values[2] != "" {
		season, err = model.ParseSeason(values[2])
		if err != nil {
			return q, err
		}
	}
	q.Season = season
	if values[3] != "" {
		window, err := strconv.Atoi(values[3])
		if err != nil || window < 1 || window > maxWindow {
			return q, fmt.Errorf("invalid window (use 1-%d)", maxWindow)
		}
		q.Window = window
	}
	return q, nil
}

func (m *Model) renderFilterModal() string {
	lines := []string{cardValueStyle.Render("Select Thresholds")}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	lines = append(lines, headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel"))
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func nextSeason(s model.Season) model.Season {
	seasons := model.Seasons()
	for i, candidate := range seasons {
		if candidate == s {
			return seasons[(i+1)%len(seasons)]
		}
	}
	return seasons[0]
}

func nextTier(t model.Tier) model.Tier {
	switch t {
	case model.TierCore:
		return model.TierExtended
	case model.TierExtended:
		return model.TierNone
	}
	return model.TierCore
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func modalWidth(width int) int {
	return maxInt(40, minInt(width-4, 80))
}

func modalInnerWidth(width int) int {
	w := modalWidth(width)
	w -= 6 // 2 border + 4 padding
	if w < 10 {
		return 10
	}
	return w
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
