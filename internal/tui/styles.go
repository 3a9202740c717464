package tui

import (
	"github.com/Amr-9/rrt/pkg/models"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor   = lipgloss.Color("#00FFFF") // Cyan
	secondaryColor = lipgloss.Color("#FF6B9D") // Pink
	accentColor    = lipgloss.Color("#00FF88") // Green
	purpleColor    = lipgloss.Color("#B388FF")
	orangeColor    = lipgloss.Color("#FFA657")
	subColor       = lipgloss.Color("241")

	passColor = lipgloss.Color("#00FF88")
	warnColor = lipgloss.Color("#FFD700")
	failColor = lipgloss.Color("#FF4444")
)

// Frame
var (
	logoStyle     = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Italic(true).MarginLeft(1)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	headerBoxStyle = borderStyle.Copy().Padding(0, 2)
)

// Setup form
var (
	highlight      = lipgloss.NewStyle().Foreground(secondaryColor)
	subtext        = lipgloss.NewStyle().Foreground(subColor)
	check          = lipgloss.NewStyle().Foreground(accentColor)
	finalValue     = highlight.Copy().Bold(true)
	questionHeader = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AAFF")).Bold(true).MarginTop(1)
)

// Results
var (
	successText = lipgloss.NewStyle().Foreground(passColor)
	warnText    = lipgloss.NewStyle().Foreground(warnColor)
	errText     = lipgloss.NewStyle().Foreground(failColor)
	infoText    = lipgloss.NewStyle().Foreground(primaryColor)
)

const asciiLogo = `⚡ RRT`

const bigAsciiLogo = `
 ┬─┐┬─┐┌┬┐
 ├┬┘├┬┘ │
 ┴└─┴└─ ┴ `

// outcomeMark returns the styled list marker for a finished case.
func outcomeMark(o models.Outcome) string {
	switch o {
	case models.Passed:
		return successText.Render("✓")
	case models.Failed:
		return errText.Render("✗")
	default:
		return subtext.Render("–")
	}
}

// classStyle colours a response time the way the console reporter does.
func classStyle(c models.TimeClass) lipgloss.Style {
	switch c {
	case models.Fast:
		return successText
	case models.Moderate:
		return warnText
	case models.Unclassified:
		return subtext
	default:
		return errText
	}
}

// MakeNeonTheme creates a custom theme for huh forms
func MakeNeonTheme() *huh.Theme {
	t := huh.ThemeCharm()
	t.Focused.Title = t.Focused.Title.Foreground(primaryColor).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(subColor)
	t.Focused.Base = t.Focused.Base.BorderForeground(secondaryColor)
	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(secondaryColor)
	t.Focused.TextInput.Placeholder = t.Focused.TextInput.Placeholder.Foreground(lipgloss.Color("240"))
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(accentColor).SetString("› ")
	t.Focused.Option = t.Focused.Option.Foreground(lipgloss.Color("250"))
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(primaryColor).Bold(true)
	return t
}
