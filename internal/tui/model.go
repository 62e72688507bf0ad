// Package tui provides the Bubble Tea mark entry interface.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abhinavpachauri/igcse-estimator/internal/aggregate"
	"github.com/abhinavpachauri/igcse-estimator/internal/estimate"
	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

const maxMarkDigits = 4

// Model implements the Bubble Tea mark entry UI. Every keystroke re-estimates the grade
// against the boundaries it was opened with.
type Model struct {
	subject   model.Subject
	tier      model.Tier
	season    model.Season
	summaries []model.GradeThresholdSummary
	papers    []model.Paper

	inputs [][]rune
	focus  int

	width  int
	height int

	confirmed bool
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// NewModel constructs a mark entry model for the papers of subject that belong to tier.
func NewModel(subject model.Subject, tier model.Tier, season model.Season, summaries []model.GradeThresholdSummary) *Model {
	m := &Model{
		subject:   subject,
		tier:      tier,
		season:    season,
		summaries: summaries,
		papers:    PapersForTier(subject.Papers, tier),
	}
	m.inputs = make([][]rune, len(m.papers))
	return m
}

// PapersForTier keeps the papers shared by all tiers plus those of tier.
func PapersForTier(papers []model.Paper, tier model.Tier) []model.Paper {
	out := make([]model.Paper, 0, len(papers))
	for _, p := range papers {
		if p.Tier == model.TierNone || p.Tier == tier {
			out = append(out, p)
		}
	}
	return out
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
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.confirmed = true
			return m, tea.Quit
		case tea.KeyTab, tea.KeyDown:
			m.moveFocus(1)
			return m, nil
		case tea.KeyShiftTab, tea.KeyUp:
			m.moveFocus(-1)
			return m, nil
		case tea.KeyBackspace, tea.KeyDelete:
			m.handleBackspace()
			return m, nil
		case tea.KeyRunes:
			m.handleRunes(msg.Runes)
			return m, nil
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	content := m.renderContent()
	if m.width == 0 || m.height == 0 {
		return content + "\n" + m.renderFooter()
	}
	footer := m.renderFooter()
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

// Confirmed reports whether the user accepted the marks with enter.
func (m *Model) Confirmed() bool {
	return m.confirmed
}

// Entries returns the marks typed so far. Empty fields are not entered.
func (m *Model) Entries() []model.PaperMarkEntry {
	out := make([]model.PaperMarkEntry, len(m.papers))
	for i, p := range m.papers {
		out[i] = model.PaperMarkEntry{
			PaperID:          strconv.FormatInt(p.ID, 10),
			PaperNumber:      p.PaperNumber,
			PaperName:        p.Name,
			RawMark:          m.mark(i),
			MaxRawMark:       p.MaxRawMark,
			WeightPercentage: p.WeightPercentage,
			IsUms:            p.IsUms,
		}
	}
	return out
}

// Result estimates the subject from the current marks.
func (m *Model) Result() model.SubjectEstimateResult {
	total, missing := estimate.WeightedTotal(m.Entries())
	return model.SubjectEstimateResult{
		SubjectID:        strconv.FormatInt(m.subject.ID, 10),
		SubjectCode:      m.subject.SyllabusCode,
		SubjectName:      m.subject.Name,
		TierSelected:     m.tier,
		WeightedTotalPct: aggregate.Round1(total),
		EstimatedGrade:   estimate.PickGrade(m.summaries, total),
		Thresholds:       m.summaries,
		MissingPapers:    missing,
	}
}

func (m *Model) mark(i int) int {
	if len(m.inputs[i]) == 0 {
		return model.MarkNotEntered
	}
	v, err := strconv.Atoi(string(m.inputs[i]))
	if err != nil {
		return model.MarkNotEntered
	}
	return v
}

func (m *Model) moveFocus(delta int) {
	count := len(m.papers)
	if count == 0 {
		return
	}
	m.focus = (m.focus + delta + count) % count
}

func (m *Model) handleBackspace() {
	if len(m.papers) == 0 {
		return
	}
	in := m.inputs[m.focus]
	if len(in) == 0 {
		return
	}
	m.inputs[m.focus] = in[:len(in)-1]
}

func (m *Model) handleRunes(runes []rune) {
	if len(m.papers) == 0 {
		return
	}
	for _, r := range runes {
		if r < '0' || r > '9' {
			continue
		}
		if len(m.inputs[m.focus]) >= maxMarkDigits {
			return
		}
		m.inputs[m.focus] = append(m.inputs[m.focus], r)
	}
}

func (m *Model) renderContent() string {
	tierLabel := ""
	if m.tier != model.TierNone {
		tierLabel = " " + string(m.tier)
	}
	lines := []string{titleStyle.Render(fmt.Sprintf("%s %s%s (%s)", m.subject.SyllabusCode, m.subject.Name, tierLabel, m.season)), ""}
	if len(m.papers) == 0 {
		lines = append(lines, pendingStyle.Render("No papers configured for this tier."))
		return strings.Join(lines, "\n")
	}
	for i, p := range m.papers {
		lines = append(lines, m.renderPaper(i, p))
	}
	lines = append(lines, "")
	if len(m.summaries) == 0 {
		lines = append(lines, pendingStyle.Render("No historical thresholds for this selection."))
		return strings.Join(lines, "\n")
	}
	contentWidth := int(float64(m.width) * 0.70)
	res := m.Result()
	lines = append(lines, wrapStyledRunes(buildStyledRunes(boundaryTokens(m.summaries, res.EstimatedGrade)), contentWidth))
	return strings.Join(lines, "\n")
}

func (m *Model) renderPaper(i int, p model.Paper) string {
	label := fmt.Sprintf("Paper %-3s %-24s", p.PaperNumber, truncate(p.Name, 24))
	value := string(m.inputs[i])
	style := correctStyle
	if v := m.mark(i); v > p.MaxRawMark {
		style = incorrectStyle
	}
	field := style.Render(value)
	if i == m.focus {
		field += cursorStyle.Render(" ")
		label = currentWordStyle.Render(label)
	} else {
		label = pendingStyle.Render(label)
	}
	pad := strings.Repeat(" ", max(0, maxMarkDigits+1-len(value)-boolInt(i == m.focus)))
	kind := ""
	if p.IsUms {
		kind = " UMS"
	}
	return fmt.Sprintf("%s [%s%s] / %-4d %5.1f%%%s", label, field, pad, p.MaxRawMark, p.WeightPercentage, kind)
}

func (m *Model) renderFooter() string {
	entered := 0
	for i := range m.papers {
		if m.mark(i) >= 0 {
			entered++
		}
	}
	res := m.Result()
	grade := "U"
	if res.EstimatedGrade != nil {
		grade = res.EstimatedGrade.String()
	}
	segments := []string{
		fmt.Sprintf("Entered %d/%d", entered, len(m.papers)),
		fmt.Sprintf("Total %.1f%%", res.WeightedTotalPct),
		fmt.Sprintf("Grade %s", grade),
	}
	if next, gap, ok := estimate.NextBoundary(m.summaries, res.EstimatedGrade, res.WeightedTotalPct); ok {
		segments = append(segments, fmt.Sprintf("Next %s +%.1f", next.Grade, gap))
	}
	if res.MissingPapers && entered > 0 {
		segments = append(segments, "rescaled")
	}
	return footerStyle.Render(strings.Join(segments, " · "))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
