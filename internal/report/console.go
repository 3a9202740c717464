package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Amr-9/rrt/internal/engine"
	"github.com/Amr-9/rrt/pkg/models"
	"github.com/charmbracelet/lipgloss"
)

var (
	fastText   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF88"))
	slowText   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	errText    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444"))
	dimText    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headerText = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFFF")).Bold(true)
	titleText  = lipgloss.NewStyle().Bold(true)

	passedBanner    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF88")).Bold(true)
	failedBanner    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")).Bold(true)
	cancelledBanner = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Bold(true)
)

// Console prints the progress of a run as plain lines.
// With plain set no styling is applied, which is what the logfile uses.
type Console struct {
	w     io.Writer
	plain bool
	total int
}

var _ engine.Observer = (*Console)(nil)

// NewConsole returns a styled console reporter writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) style(s lipgloss.Style, text string) string {
	if c.plain {
		return text
	}
	return s.Render(text)
}

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.w, format, args...)
}

// RunStarted implements engine.Observer.
func (c *Console) RunStarted(cfg *models.Config) {
	c.total = len(cfg.Tests)
	c.printf("%s\n\n", c.style(headerText, fmt.Sprintf("Running %d tests against %s", c.total, cfg.Global.APIAddress)))
}

// CaseStarted implements engine.Observer.
func (c *Console) CaseStarted(index, total int, description string) {
	c.total = total
	c.caseHeader(index, description)
}

func (c *Console) caseHeader(index int, description string) {
	c.printf("Test %d/%d\n", index+1, c.total)
	if description != "" {
		c.printf("%s\n", c.style(titleText, description))
	}
}

// CaseFinished implements engine.Observer.
func (c *Console) CaseFinished(r models.CaseResult, _ *engine.Exchange) {
	if r.Outcome == models.Cancelled {
		c.caseHeader(r.Index, r.Description)
		c.printf("%s\n\n", c.style(cancelledBanner, "TEST CANCELLED"))
		return
	}

	if r.Responded() || r.TimeClass == models.TimedOut {
		line := fmt.Sprintf("Response time: %d ms", r.Elapsed.Milliseconds())
		c.printf("%s\n", c.style(timeStyle(r.TimeClass), line))
	}

	if r.Responded() {
		c.printf("Expected Status: %d, got %d\n", r.ExpectedStatus, r.Status)
	} else {
		c.printf("Expected Status: %d\n", r.ExpectedStatus)
	}

	if r.Outcome == models.Passed {
		c.printf("%s\n\n", c.style(passedBanner, "TEST PASSED"))
		return
	}

	c.printf("%s\n", c.style(errText, r.Reason))
	if r.Critical {
		c.printf("Test marked as 'critical' failed, cancelling all further tests.\n")
	}
	c.printf("%s\n\n", c.style(failedBanner, "TEST FAILED"))
}

// RunFinished implements engine.Observer.
func (c *Console) RunFinished(s *models.RunSummary) {
	c.printf("%d out of %d tests passed.\n", s.Tally.Passed, s.Tally.Total)

	var parts []string
	parts = append(parts, c.style(fastText, fmt.Sprintf("%d passed", s.Tally.Passed)))
	parts = append(parts, c.style(errText, fmt.Sprintf("%d failed", s.Tally.Failed)))
	if s.Tally.TimedOut > 0 {
		parts = append(parts, c.style(slowText, fmt.Sprintf("%d timed out", s.Tally.TimedOut)))
	}
	parts = append(parts, c.style(dimText, fmt.Sprintf("%d cancelled", s.Tally.Cancelled)))
	c.printf("%s\n", strings.Join(parts, ", "))

	if s.Latency.Count > 0 {
		c.printf("%s\n", c.style(dimText, fmt.Sprintf("Response times: min %s, p50 %s, p99 %s, max %s",
			formatDuration(s.Latency.Min), formatDuration(s.Latency.P50),
			formatDuration(s.Latency.P99), formatDuration(s.Latency.Max))))
	}
	if s.Aborted {
		c.printf("%s\n", c.style(errText, fmt.Sprintf("Run aborted at test %d (%s)", s.AbortedAt+1, s.AbortedBy())))
	}
	c.printf("%s\n", c.style(dimText, fmt.Sprintf("Finished in %s", formatDuration(s.Duration))))
}

func timeStyle(class models.TimeClass) lipgloss.Style {
	switch class {
	case models.Fast:
		return fastText
	case models.Moderate:
		return slowText
	default:
		return errText
	}
}
