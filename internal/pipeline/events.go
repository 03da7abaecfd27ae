package pipeline

import (
	"fmt"
	"time"
)

// Phase is the pipeline state machine position. A session moves
// Idle → (Generating → Validating → StageComplete) per stage →
// IntegrityChecking → Done; Failed is terminal from any stage.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseGenerating
	PhaseValidating
	PhaseStageComplete
	PhaseIntegrityChecking
	PhaseDone
	PhaseFailed
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseGenerating:
		return "generating"
	case PhaseValidating:
		return "validating"
	case PhaseStageComplete:
		return "stage_complete"
	case PhaseIntegrityChecking:
		return "integrity_checking"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is one progress notification from the orchestrator. Events are
// observability only; consumers must not block the pipeline on them.
type Event struct {
	// Phase is the state machine position.
	Phase Phase
	// Stage is the 0-indexed stage, -1 for session-level events.
	Stage int
	// StageName is the stage's name, empty for session-level events.
	StageName string
	// Attempt is the 1-indexed generation attempt within the stage.
	Attempt int
	// Elapsed is how long the stage has been running.
	Elapsed time.Duration
	// Err carries the failure for PhaseFailed events.
	Err error
}

// String renders the event for plain-text progress output.
func (e Event) String() string {
	switch e.Phase {
	case PhaseGenerating:
		return fmt.Sprintf("stage %d (%s): generating, attempt %d", e.Stage+1, e.StageName, e.Attempt)
	case PhaseValidating:
		return fmt.Sprintf("stage %d (%s): validating", e.Stage+1, e.StageName)
	case PhaseStageComplete:
		return fmt.Sprintf("stage %d (%s): complete in %s", e.Stage+1, e.StageName, e.Elapsed.Round(time.Millisecond))
	case PhaseIntegrityChecking:
		return "checking referential integrity"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		if e.StageName != "" {
			return fmt.Sprintf("stage %d (%s): failed: %v", e.Stage+1, e.StageName, e.Err)
		}
		return fmt.Sprintf("failed: %v", e.Err)
	default:
		return e.Phase.String()
	}
}
