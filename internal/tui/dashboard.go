package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Amr-9/rrt/internal/stats"
	"github.com/Amr-9/rrt/pkg/models"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxListed is how many finished cases the dashboard keeps on screen.
const maxListed = 12

type DashModel struct {
	apiAddress string
	total      int
	start      time.Time
	progress   progress.Model
	spinner    spinner.Model
	latency    *stats.Latency

	current string
	results []models.CaseResult
	tally   models.Tally
	elapsed []time.Duration // every response time, for the sparkline
}

func NewDashModel(cfg *models.Config) *DashModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(secondaryColor)

	return &DashModel{
		apiAddress: cfg.Global.APIAddress,
		total:      len(cfg.Tests),
		start:      time.Now(),
		progress:   progress.New(progress.WithDefaultGradient()),
		spinner:    sp,
		latency:    stats.NewLatency(),
	}
}

func (m *DashModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *DashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case caseStartedMsg:
		m.current = fmt.Sprintf("Test %d/%d  %s", msg.index+1, msg.total, msg.description)
	case caseFinishedMsg:
		m.record(msg.result)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *DashModel) record(r models.CaseResult) {
	m.results = append(m.results, r)
	m.current = ""
	m.tally.Total++
	switch r.Outcome {
	case models.Passed:
		m.tally.Passed++
	case models.Failed:
		m.tally.Failed++
		if r.TimeClass == models.TimedOut {
			m.tally.TimedOut++
		}
	case models.Cancelled:
		m.tally.Cancelled++
	}
	if r.Responded() {
		m.latency.Record(r.Elapsed)
		m.elapsed = append(m.elapsed, r.Elapsed)
	}
}

// percent is the share of cases that have a result, cancelled ones included.
func (m *DashModel) percent() float64 {
	if m.total == 0 {
		return 1
	}
	return float64(len(m.results)) / float64(m.total)
}

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF")).
			Bold(true).
			MarginBottom(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			MarginRight(1)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	valStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (m *DashModel) View() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render(fmt.Sprintf("⚡ TESTING %s", m.apiAddress)))
	s.WriteString("\n\n")

	s.WriteString(m.progress.ViewAs(m.percent()))
	s.WriteString(fmt.Sprintf("\n %d / %d tests  %s\n\n",
		len(m.results), m.total, time.Since(m.start).Round(100*time.Millisecond)))

	// Box 1: Outcomes
	box1 := boxStyle.Render(fmt.Sprintf(
		"%s %s\n%s %s\n%s %s",
		labelStyle.Render("Passed:   "), successStyle.Render(fmt.Sprintf("%d", m.tally.Passed)),
		labelStyle.Render("Failed:   "), failStyle.Render(fmt.Sprintf("%d", m.tally.Failed)),
		labelStyle.Render("Cancelled:"), valStyle.Render(fmt.Sprintf("%d", m.tally.Cancelled)),
	))

	// Box 2: Latency + Sparkline
	snap := m.latency.Snapshot()
	box2 := boxStyle.Render(fmt.Sprintf(
		"P50: %s  P90: %s\nP99: %s  Max: %s\n%s",
		valStyle.Render(fmtDuration(snap.P50)),
		valStyle.Render(fmtDuration(snap.P90)),
		valStyle.Render(fmtDuration(snap.P99)),
		valStyle.Render(fmtDuration(snap.Max)),
		infoText.Render(renderSparkline(m.elapsed, sparkWidth)),
	))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, box1, box2))
	s.WriteString("\n\n")

	if m.current != "" {
		s.WriteString(fmt.Sprintf("%s %s\n\n", m.spinner.View(), m.current))
	}

	listed := m.results
	if len(listed) > maxListed {
		listed = listed[len(listed)-maxListed:]
	}
	for _, r := range listed {
		s.WriteString(resultLine(r))
		s.WriteString("\n")
	}

	s.WriteString("\n" + subtext.Render("ctrl+c to quit"))
	return s.String()
}

func resultLine(r models.CaseResult) string {
	line := fmt.Sprintf("%s %s %s", outcomeMark(r.Outcome),
		labelStyle.Render(fmt.Sprintf("[%d]", r.Index+1)), r.Description)
	if r.Outcome == models.Cancelled {
		return line + " " + subtext.Render("cancelled")
	}
	if r.Responded() {
		line += " " + classStyle(r.TimeClass).Render(fmtDuration(r.Elapsed))
	}
	if r.Reason != "" {
		line += " " + errText.Render(r.Reason)
	}
	return line
}
