package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/even/showrunner/internal/pipeline"
)

func update(t *testing.T, app *App, msg tea.Msg) *App {
	t.Helper()
	model, _ := app.Update(msg)
	updated, ok := model.(*App)
	if !ok {
		t.Fatalf("Update returned %T, want *App", model)
	}
	return updated
}

func TestInitialViewShowsAllStagesPending(t *testing.T) {
	app := New(nil)
	view := app.View()

	for _, stage := range pipeline.Stages {
		if !strings.Contains(view, stage.Name) {
			t.Errorf("view missing stage %q", stage.Name)
		}
	}
	if app.Done() {
		t.Error("new app should not be done")
	}
}

func TestStageCompleteMarksRow(t *testing.T) {
	app := New(nil)

	app = update(t, app, EventMsg{Event: pipeline.Event{
		Phase: pipeline.PhaseGenerating, Stage: 0, StageName: "universe", Attempt: 1,
	}})
	app = update(t, app, EventMsg{Event: pipeline.Event{
		Phase: pipeline.PhaseStageComplete, Stage: 0, StageName: "universe",
		Attempt: 1, Elapsed: 3 * time.Second,
	}})

	if app.stages[0].status != stageDone {
		t.Errorf("stage 0 status = %v, want done", app.stages[0].status)
	}
	if !strings.Contains(app.View(), "✓") {
		t.Error("view should render a completed marker")
	}
}

func TestRetryAttemptShownWhileActive(t *testing.T) {
	app := New(nil)
	app = update(t, app, EventMsg{Event: pipeline.Event{
		Phase: pipeline.PhaseGenerating, Stage: 2, StageName: "factions", Attempt: 2,
	}})

	if app.stages[2].status != stageActive || app.stages[2].attempt != 2 {
		t.Errorf("unexpected stage row: %+v", app.stages[2])
	}
	if !strings.Contains(app.View(), "attempt 2") {
		t.Error("view should surface the retry attempt")
	}
}

func TestFailureEventEndsRun(t *testing.T) {
	app := New(nil)
	cause := errors.New("quota exhausted")

	model, cmd := app.Update(EventMsg{Event: pipeline.Event{
		Phase: pipeline.PhaseFailed, Stage: 1, StageName: "controlling_idea", Err: cause,
	}})
	app = model.(*App)

	if !app.Done() {
		t.Error("failed event should finish the run")
	}
	if !errors.Is(app.Err(), cause) {
		t.Errorf("Err = %v, want %v", app.Err(), cause)
	}
	if cmd == nil {
		t.Error("failure should quit the program")
	}
	if app.stages[1].status != stageFailed {
		t.Errorf("stage 1 status = %v, want failed", app.stages[1].status)
	}
}

func TestDoneEvent(t *testing.T) {
	app := New(nil)
	app = update(t, app, EventMsg{Event: pipeline.Event{Phase: pipeline.PhaseDone, Stage: -1}})

	if !app.Done() || app.Err() != nil {
		t.Errorf("done=%v err=%v", app.Done(), app.Err())
	}
	if !strings.Contains(app.View(), "complete") {
		t.Error("view should report completion")
	}
}

func TestTokensShownInFooter(t *testing.T) {
	app := New(nil)
	app = update(t, app, TokensMsg{Input: 1200, Output: 3400, Cost: 0.0421})

	view := app.View()
	if !strings.Contains(view, "1200 in / 3400 out") {
		t.Errorf("footer missing token counts:\n%s", view)
	}
	if !strings.Contains(view, "$0.0421") {
		t.Errorf("footer missing cost:\n%s", view)
	}
}

func TestQuitKey(t *testing.T) {
	app := New(nil)
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	app = model.(*App)

	if cmd == nil {
		t.Error("q should quit")
	}
	if app.View() != "" {
		t.Error("quitting app should render nothing")
	}
}

func TestListenForwardsEvents(t *testing.T) {
	events := make(chan pipeline.Event, 1)
	app := New(events)

	events <- pipeline.Event{Phase: pipeline.PhaseGenerating, Stage: 0, Attempt: 1}
	msg := app.listen()()
	eventMsg, ok := msg.(EventMsg)
	if !ok {
		t.Fatalf("listen returned %T, want EventMsg", msg)
	}
	if eventMsg.Event.Stage != 0 {
		t.Errorf("unexpected event: %+v", eventMsg.Event)
	}

	close(events)
	if _, ok := app.listen()().(DoneMsg); !ok {
		t.Error("closed channel should yield DoneMsg")
	}
}
