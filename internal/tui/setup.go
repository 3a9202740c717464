package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Amr-9/rrt/pkg/config"
	"github.com/Amr-9/rrt/pkg/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

type Step int

const (
	StepAPIAddress Step = iota
	StepBoundaries
	StepDescription
	StepMethod
	StepRoute
	StepStatus
	StepCritical
	StepAddAnother
	StepSaveConfig
	StepDone
)

type stepResult struct {
	label string
	value string
}

// SetupModel walks through writing a starter config file.
type SetupModel struct {
	path    string
	config  *models.Config
	current Step
	history []stepResult
	form    *huh.Form // Active form for the current step

	// temporary fields for form binding
	tempBoundaries  string
	tempDescription string
	tempMethod      string
	tempRoute       string
	tempStatus      string
	critical        bool
	addAnother      bool

	saveConfig bool
	saved      bool
	err        error
}

func NewSetupModel(path string) *SetupModel {
	m := &SetupModel{
		path:           path,
		config:         &models.Config{Global: models.GlobalConfig{HTTP2: true}},
		current:        StepAPIAddress,
		tempBoundaries: formatBoundaries(models.DefaultTimeBoundaries),
		saveConfig:     true,
	}
	m.resetCase()
	m.nextForm()
	return m
}

func (m *SetupModel) resetCase() {
	m.tempDescription = ""
	m.tempMethod = "GET"
	m.tempRoute = "/"
	m.tempStatus = "200"
	m.critical = false
	m.addAnother = false
}

func (m *SetupModel) nextForm() {
	neon := MakeNeonTheme()

	switch m.current {
	case StepAPIAddress:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("API Address").
					Description("Base URL every route is appended to").
					Placeholder("http://localhost:8080").
					Value(&m.config.Global.APIAddress).
					Validate(validateAddress),
			),
		).WithTheme(neon)
	case StepBoundaries:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Time Boundaries").
					Description("fast, slow, timeout in ms (e.g., 500,1000,10000)").
					Value(&m.tempBoundaries).
					Validate(func(s string) error {
						_, err := parseBoundaries(s)
						return err
					}),
			),
		).WithTheme(neon)
	case StepDescription:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title(fmt.Sprintf("Test %d: Description", len(m.config.Tests)+1)).
					Description("Leave empty to generate one from method, route and status").
					Value(&m.tempDescription),
			),
		).WithTheme(neon)
	case StepMethod:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("HTTP Method").
					Options(
						huh.NewOption("GET", "GET"),
						huh.NewOption("POST", "POST"),
						huh.NewOption("PUT", "PUT"),
						huh.NewOption("DELETE", "DELETE"),
						huh.NewOption("PATCH", "PATCH"),
					).
					Value(&m.tempMethod),
			),
		).WithTheme(neon)
	case StepRoute:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Route").
					Description("Path appended to the API address (e.g., /users/{{user_id}})").
					Value(&m.tempRoute),
			),
		).WithTheme(neon)
	case StepStatus:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Expected Status").
					Placeholder("200").
					Value(&m.tempStatus).
					Validate(func(s string) error {
						_, err := parseStatus(s)
						return err
					}),
			),
		).WithTheme(neon)
	case StepCritical:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Critical?").
					Description("A failing critical test cancels all tests after it.").
					Value(&m.critical),
			),
		).WithTheme(neon)
	case StepAddAnother:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Add Another Test?").
					Value(&m.addAnother),
			),
		).WithTheme(neon)
	case StepSaveConfig:
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Save Configuration?").
					Description(fmt.Sprintf("Write %d test(s) to %s", len(m.config.Tests), m.path)).
					Value(&m.saveConfig),
			),
		).WithTheme(neon)
	case StepDone:
		m.form = nil
	}

	if m.form != nil {
		m.form.Init()
	}
}

func (m *SetupModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m *SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.current == StepDone {
		return m, tea.Quit
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	switch m.current {
	case StepAPIAddress:
		m.history = append(m.history, stepResult{"API", m.config.Global.APIAddress})
		m.current = StepBoundaries
	case StepBoundaries:
		// Validated by the form
		m.config.Global.TimeBoundaries, _ = parseBoundaries(m.tempBoundaries)
		m.history = append(m.history, stepResult{"Boundaries", m.tempBoundaries})
		m.current = StepDescription
	case StepDescription:
		m.current = StepMethod
	case StepMethod:
		m.current = StepRoute
	case StepRoute:
		m.current = StepStatus
	case StepStatus:
		m.current = StepCritical
	case StepCritical:
		tc := m.addCase()
		label := fmt.Sprintf("Test %d", len(m.config.Tests))
		value := fmt.Sprintf("%s %s -> %d", tc.Method, tc.Route, tc.ExpectedStatus)
		if tc.Critical {
			value += " (critical)"
		}
		m.history = append(m.history, stepResult{label, value})
		m.current = StepAddAnother
	case StepAddAnother:
		if m.addAnother {
			m.resetCase()
			m.current = StepDescription
		} else {
			m.current = StepSaveConfig
		}
	case StepSaveConfig:
		if m.saveConfig {
			if err := m.save(); err != nil {
				m.history = append(m.history, stepResult{"Save Error", err.Error()})
			} else {
				m.history = append(m.history, stepResult{"Saved", m.path})
			}
		}
		m.current = StepDone
	}

	m.nextForm()
	if m.current == StepDone {
		return m, tea.Quit
	}
	return m, m.form.Init()
}

// addCase appends the test case built from the current form values.
func (m *SetupModel) addCase() models.TestCase {
	status, _ := parseStatus(m.tempStatus)
	tc := models.TestCase{
		Description:    strings.TrimSpace(m.tempDescription),
		Route:          strings.TrimSpace(m.tempRoute),
		Method:         m.tempMethod,
		ExpectedStatus: status,
		Critical:       m.critical,
	}
	m.config.Tests = append(m.config.Tests, tc)
	return tc
}

func (m *SetupModel) save() error {
	if err := config.Validate(m.config); err != nil {
		m.err = err
		return err
	}
	if err := config.SaveConfig(m.path, m.config); err != nil {
		m.err = err
		return err
	}
	m.saved = true
	return nil
}

func (m *SetupModel) View() string {
	var s strings.Builder

	// Compact Header
	logo := logoStyle.Render(asciiLogo)
	subtitle := subtitleStyle.Render("REST regression tester")
	s.WriteString(borderStyle.Render(logo + subtitle))
	s.WriteString("\n\n")

	// Render History (completed steps)
	for _, h := range m.history {
		mark := check.Render("✓")
		label := subtext.Render(h.label + ":")
		val := finalValue.Render(h.value)
		s.WriteString(fmt.Sprintf("  %s %s %s\n", mark, label, val))
	}

	if m.form != nil {
		if len(m.history) > 0 {
			s.WriteString("\n")
		}
		s.WriteString(questionHeader.Render("› "+stepTitle(m.current)) + "\n")
		s.WriteString(m.form.View())
	} else if m.saved {
		s.WriteString("\n" + highlight.Render(fmt.Sprintf("🚀 Ready! Run it with: rrt -f %s", m.path)) + "\n")
	}

	return s.String()
}

// Saved reports whether the config file was written.
func (m *SetupModel) Saved() bool {
	return m.saved
}

// Err returns the error that prevented saving, if any.
func (m *SetupModel) Err() error {
	return m.err
}

func stepTitle(s Step) string {
	switch s {
	case StepAPIAddress, StepBoundaries:
		return "Global settings"
	case StepAddAnother, StepSaveConfig:
		return "Finish"
	default:
		return "Test case"
	}
}

// RunInit interactively builds a config and writes it to path.
func RunInit(path string) error {
	final, err := tea.NewProgram(NewSetupModel(path)).Run()
	if err != nil {
		return err
	}
	m, ok := final.(*SetupModel)
	if !ok {
		return nil
	}
	return m.Err()
}

func validateAddress(s string) error {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return fmt.Errorf("address must start with http:// or https://")
	}
	return nil
}

func parseStatus(s string) (int, error) {
	code, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || code < 100 || code > 599 {
		return 0, fmt.Errorf("status must be a number between 100 and 599")
	}
	return code, nil
}

func parseBoundaries(s string) (models.TimeBoundaries, error) {
	var tb models.TimeBoundaries
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return tb, fmt.Errorf("expected 3 comma-separated values, got %d", len(parts))
	}
	for i, part := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return tb, fmt.Errorf("invalid number %q", strings.TrimSpace(part))
		}
		tb[i] = v
	}
	if !tb.Valid() {
		return tb, fmt.Errorf("values must be positive and strictly increasing")
	}
	return tb, nil
}

func formatBoundaries(tb models.TimeBoundaries) string {
	return fmt.Sprintf("%d,%d,%d", tb[0], tb[1], tb[2])
}
