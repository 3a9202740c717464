package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Amr-9/rrt/pkg/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type SummaryModel struct {
	summary *models.RunSummary
}

func NewSummaryModel(summary *models.RunSummary) *SummaryModel {
	return &SummaryModel{
		summary: summary,
	}
}

func (m *SummaryModel) Init() tea.Cmd {
	return nil
}

func (m *SummaryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// Summary Section Styles
var (
	sumLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	sumValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	sumBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 2).
			MarginRight(1)
)

func (m *SummaryModel) View() string {
	var s strings.Builder
	sum := m.summary

	// ═══════════════════════════════════════════════════════════════
	// HEADER
	// ═══════════════════════════════════════════════════════════════

	styledLogo := ""
	for _, line := range strings.Split(bigAsciiLogo, "\n") {
		if line != "" {
			styledLogo += logoStyle.Render(line) + "\n"
		}
	}
	headerContent := styledLogo + subtitleStyle.Render(sum.APIAddress)

	s.WriteString(headerBoxStyle.Render(headerContent))
	s.WriteString("\n\n")

	s.WriteString(banner(sum))
	s.WriteString("\n\n")

	// ═══════════════════════════════════════════════════════════════
	// SUMMARY BOXES
	// ═══════════════════════════════════════════════════════════════

	t := sum.Tally
	resultsContent := fmt.Sprintf("%s\n\n%s  %s\n%s  %s\n%s  %s\n%s  %s\n%s  %s",
		lipgloss.NewStyle().Foreground(accentColor).Bold(true).Render("✅ Results"),
		sumLabelStyle.Width(12).Render("Duration:"),
		sumValueStyle.Render(fmtDuration(sum.Duration)),
		sumLabelStyle.Width(12).Render("Passed:"),
		successText.Bold(true).Render(fmt.Sprintf("%d / %d", t.Passed, t.Total)),
		sumLabelStyle.Width(12).Render("Failed:"),
		errText.Bold(true).Render(fmt.Sprintf("%d", t.Failed)),
		sumLabelStyle.Width(12).Render("Timed out:"),
		errText.Render(fmt.Sprintf("%d", t.TimedOut)),
		sumLabelStyle.Width(12).Render("Cancelled:"),
		subtext.Render(fmt.Sprintf("%d", t.Cancelled)))
	box1 := sumBoxStyle.Copy().BorderForeground(accentColor).Width(36).Render(resultsContent)

	box2 := sumBoxStyle.Copy().BorderForeground(purpleColor).Width(36).Render(classChart(sum))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, box1, box2))
	s.WriteString("\n\n")

	// ═══════════════════════════════════════════════════════════════
	// LATENCY DISTRIBUTION
	// ═══════════════════════════════════════════════════════════════

	if sum.Latency.Count > 0 {
		s.WriteString(lipgloss.NewStyle().Foreground(orangeColor).Bold(true).Render("⏱️  Response Times"))
		s.WriteString("\n")

		latencies := []struct {
			name  string
			value string
		}{
			{"Min", fmtDuration(sum.Latency.Min)},
			{"P50", fmtDuration(sum.Latency.P50)},
			{"P90", fmtDuration(sum.Latency.P90)},
			{"P99", fmtDuration(sum.Latency.P99)},
			{"Max", fmtDuration(sum.Latency.Max)},
		}

		var latencyContent strings.Builder
		for i, lat := range latencies {
			latencyContent.WriteString(fmt.Sprintf("%s %s",
				sumLabelStyle.Width(5).Render(lat.name+":"),
				sumValueStyle.Width(10).Render(lat.value)))
			if i < len(latencies)-1 {
				latencyContent.WriteString("  │  ")
			}
		}

		s.WriteString(sumBoxStyle.Copy().BorderForeground(orangeColor).Render(latencyContent.String()))
		s.WriteString("\n\n")
	}

	// ═══════════════════════════════════════════════════════════════
	// FAILURE BREAKDOWN (if any)
	// ═══════════════════════════════════════════════════════════════

	if len(sum.Errors) > 0 {
		s.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")).Bold(true).Render("❌ Failure Breakdown"))
		s.WriteString("\n")
		s.WriteString(sumBoxStyle.Copy().BorderForeground(lipgloss.Color("#FF4444")).Width(74).Render(errorList(sum.Errors)))
		s.WriteString("\n")
	}

	return s.String()
}

func banner(sum *models.RunSummary) string {
	switch {
	case sum.Aborted:
		return errText.Bold(true).Render(fmt.Sprintf("✖ RUN ABORTED: critical test %d (%s) failed",
			sum.AbortedAt+1, sum.AbortedBy()))
	case sum.OK():
		return successText.Bold(true).Render("✨ ALL TESTS PASSED ✨")
	default:
		return warnText.Bold(true).Render(fmt.Sprintf("⚠ %d out of %d tests passed",
			sum.Tally.Passed, sum.Tally.Total))
	}
}

// classChart draws one bar per response time class.
func classChart(sum *models.RunSummary) string {
	classes := []models.TimeClass{models.Fast, models.Moderate, models.Slow, models.TimedOut}

	maxCount := 0
	for _, c := range classes {
		if sum.TimeClass[c] > maxCount {
			maxCount = sum.TimeClass[c]
		}
	}

	barWidth := 12
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(purpleColor).Bold(true).Render("📊 Time Classes"))
	b.WriteString("\n")
	for _, c := range classes {
		count := sum.TimeClass[c]
		barLen := 0
		if maxCount > 0 {
			barLen = (count * barWidth) / maxCount
		}
		if barLen < 1 && count > 0 {
			barLen = 1
		}
		bar := strings.Repeat("█", barLen) + strings.Repeat("░", barWidth-barLen)
		b.WriteString(fmt.Sprintf("\n%s %s %3d",
			sumLabelStyle.Width(9).Render(string(c)),
			classStyle(c).Render(bar),
			count))
	}
	return b.String()
}

func errorList(errs map[string]int) string {
	type kv struct {
		Reason string
		Count  int
	}
	sorted := make([]kv, 0, len(errs))
	for k, v := range errs {
		sorted = append(sorted, kv{Reason: k, Count: v})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Reason < sorted[j].Reason
	})

	var b strings.Builder
	for i, item := range sorted {
		if i >= 5 {
			b.WriteString(fmt.Sprintf("  ... and %d more\n", len(sorted)-5))
			break
		}
		reason := item.Reason
		if len(reason) > 55 {
			reason = reason[:52] + "..."
		}
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			sumLabelStyle.Width(55).Render(reason),
			errText.Bold(true).Render(fmt.Sprintf("×%d", item.Count))))
	}
	return strings.TrimRight(b.String(), "\n")
}
