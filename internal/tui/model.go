package tui

import (
	"errors"

	"github.com/Amr-9/rrt/internal/engine"
	"github.com/Amr-9/rrt/pkg/models"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrInterrupted is returned by Run when the user quits before the run ends.
var ErrInterrupted = errors.New("run interrupted")

type State int

const (
	StateRunning State = iota
	StateSummary
)

// RunFunc executes the tests, reporting progress to the given observer.
type RunFunc func(engine.Observer) *models.RunSummary

type MainModel struct {
	state    State
	run      RunFunc
	events   chan tea.Msg
	summary  *models.RunSummary
	quitting bool

	dashModel tea.Model
	sumModel  tea.Model
}

func NewModel(cfg *models.Config, run RunFunc) MainModel {
	return MainModel{
		state: StateRunning,
		run:   run,
		// Sized so the engine never blocks on a quitting UI.
		events:    make(chan tea.Msg, 2*len(cfg.Tests)+2),
		dashModel: NewDashModel(cfg),
	}
}

func (m MainModel) Init() tea.Cmd {
	return tea.Batch(
		m.startRun(),
		m.waitForEvent(),
		m.dashModel.Init(),
	)
}

func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	case runFinishedMsg:
		m.state = StateSummary
		m.summary = msg.summary
		m.sumModel = NewSummaryModel(msg.summary)
		return m, tea.Quit
	}

	if m.state == StateRunning {
		m.dashModel, cmd = m.dashModel.Update(msg)
		switch msg.(type) {
		case caseStartedMsg, caseFinishedMsg:
			return m, tea.Batch(cmd, m.waitForEvent())
		}
	}

	return m, cmd
}

type caseStartedMsg struct {
	index, total int
	description  string
}

type caseFinishedMsg struct {
	result models.CaseResult
}

type runFinishedMsg struct {
	summary *models.RunSummary
}

// observer forwards engine notifications to the program as messages.
type observer struct {
	events chan<- tea.Msg
}

func (o observer) RunStarted(*models.Config) {}

func (o observer) CaseStarted(index, total int, description string) {
	o.events <- caseStartedMsg{index: index, total: total, description: description}
}

func (o observer) CaseFinished(result models.CaseResult, _ *engine.Exchange) {
	o.events <- caseFinishedMsg{result: result}
}

func (o observer) RunFinished(summary *models.RunSummary) {
	o.events <- runFinishedMsg{summary: summary}
}

func (m MainModel) startRun() tea.Cmd {
	return func() tea.Msg {
		m.run(observer{events: m.events})
		return nil
	}
}

func (m MainModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func (m MainModel) View() string {
	if m.quitting {
		return "Exiting...\n"
	}

	switch m.state {
	case StateRunning:
		return m.dashModel.View()
	case StateSummary:
		return m.sumModel.View()
	default:
		return "Unknown state"
	}
}

// Summary returns the run summary, or nil if the run has not finished.
func (m MainModel) Summary() *models.RunSummary {
	return m.summary
}

// Run shows the live dashboard while run executes, then the final summary.
func Run(cfg *models.Config, run RunFunc) (*models.RunSummary, error) {
	final, err := tea.NewProgram(NewModel(cfg, run)).Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(MainModel)
	if !ok || m.Summary() == nil {
		return nil, ErrInterrupted
	}
	return m.Summary(), nil
}
