// Package tui provides the terminal user interface for Showrunner: a
// live view of the pipeline's stage progression.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/even/showrunner/internal/pipeline"
)

// EventMsg wraps a pipeline event for the TUI.
type EventMsg struct {
	Event pipeline.Event
}

// DoneMsg signals that the pipeline run has finished.
type DoneMsg struct {
	Err error
}

// TokensMsg reports cumulative token usage.
type TokensMsg struct {
	Input  int64
	Output int64
	Cost   float64
}

// stageStatus is one stage's display state.
type stageStatus int

const (
	stagePending stageStatus = iota
	stageActive
	stageDone
	stageFailed
)

type stageRow struct {
	name     string
	status   stageStatus
	attempt  int
	elapsed  time.Duration
	activity string
}

// App is the main bubbletea model for the Showrunner TUI.
type App struct {
	spinner spinner.Model
	events  <-chan pipeline.Event
	stages  [pipeline.StageCount]stageRow
	phase   pipeline.Phase
	started time.Time
	width   int

	tokensIn  int64
	tokensOut int64
	cost      float64

	done     bool
	err      error
	quitting bool
}

// New creates a new App with all stages pending, consuming pipeline
// events from the given channel.
func New(events <-chan pipeline.Event) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	app := &App{
		spinner: sp,
		events:  events,
		started: time.Now(),
		width:   80,
	}
	for i, stage := range pipeline.Stages {
		app.stages[i] = stageRow{name: stage.Name}
	}
	return app
}

// listen forwards one pipeline event from the channel; the Update loop
// re-arms it after each message. A closed channel produces a DoneMsg.
func (a *App) listen() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-a.events
		if !ok {
			return DoneMsg{}
		}
		return EventMsg{Event: event}
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	if a.events == nil {
		return a.spinner.Tick
	}
	return tea.Batch(a.spinner.Tick, a.listen())
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width

	case EventMsg:
		a.applyEvent(msg.Event)
		if a.done {
			return a, tea.Quit
		}
		if a.events != nil {
			return a, a.listen()
		}

	case TokensMsg:
		a.tokensIn = msg.Input
		a.tokensOut = msg.Output
		a.cost = msg.Cost

	case DoneMsg:
		a.done = true
		if msg.Err != nil {
			a.err = msg.Err
		}
		return a, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a *App) applyEvent(e pipeline.Event) {
	a.phase = e.Phase

	if e.Stage >= 0 && e.Stage < pipeline.StageCount {
		row := &a.stages[e.Stage]
		switch e.Phase {
		case pipeline.PhaseGenerating:
			row.status = stageActive
			row.attempt = e.Attempt
			row.activity = "generating"
		case pipeline.PhaseValidating:
			row.status = stageActive
			row.attempt = e.Attempt
			row.activity = "validating"
		case pipeline.PhaseStageComplete:
			row.status = stageDone
			row.elapsed = e.Elapsed
			row.activity = ""
		case pipeline.PhaseFailed:
			row.status = stageFailed
			a.err = e.Err
		}
	}

	switch e.Phase {
	case pipeline.PhaseDone:
		a.done = true
	case pipeline.PhaseFailed:
		a.done = true
		if a.err == nil {
			a.err = e.Err
		}
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("showrunner"))
	b.WriteString(dimStyle.Render("  " + a.phaseLabel()))
	b.WriteString("\n\n")

	for i := range a.stages {
		b.WriteString(a.renderStage(i))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.footer())
	return b.String()
}

func (a *App) renderStage(i int) string {
	row := a.stages[i]
	label := fmt.Sprintf("%d/%d %s", i+1, pipeline.StageCount, row.name)

	switch row.status {
	case stageDone:
		return fmt.Sprintf("  %s %s %s",
			doneStyle.Render("✓"), label,
			dimStyle.Render(row.elapsed.Round(time.Millisecond).String()))
	case stageActive:
		detail := row.activity
		if row.attempt > 1 {
			detail = fmt.Sprintf("%s, attempt %d", detail, row.attempt)
		}
		return fmt.Sprintf("  %s %s %s", a.spinner.View(), label, dimStyle.Render(detail))
	case stageFailed:
		return fmt.Sprintf("  %s %s", failStyle.Render("✗"), label)
	default:
		return pendingStyle.Render(fmt.Sprintf("  · %s", label))
	}
}

func (a *App) phaseLabel() string {
	if a.done {
		if a.err != nil {
			return "failed"
		}
		return "complete"
	}
	return a.phase.String()
}

func (a *App) footer() string {
	parts := []string{
		fmt.Sprintf("elapsed %s", time.Since(a.started).Round(time.Second)),
	}
	if a.tokensIn > 0 || a.tokensOut > 0 {
		parts = append(parts, fmt.Sprintf("tokens %d in / %d out", a.tokensIn, a.tokensOut))
	}
	if a.cost > 0 {
		parts = append(parts, fmt.Sprintf("$%.4f", a.cost))
	}
	if a.err != nil {
		parts = append(parts, failStyle.Render(a.err.Error()))
	}
	parts = append(parts, "q to quit")
	return dimStyle.Render(strings.Join(parts, "  •  "))
}

// Done reports whether the run has finished.
func (a *App) Done() bool {
	return a.done
}

// Err returns the run's failure, if any.
func (a *App) Err() error {
	return a.err
}
