package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/even/showrunner/internal/generation"
	"github.com/even/showrunner/internal/prompts"
	"github.com/even/showrunner/internal/repair"
	"github.com/even/showrunner/internal/retry"
	"github.com/even/showrunner/internal/schema"
)

// PipelineError reports an unrecoverable stage failure. Stages already
// completed remain valid; a caller can resume by re-entering with the
// partial context.
type PipelineError struct {
	// Stage is the 0-indexed failing stage.
	Stage int
	// StageName is the failing stage's name.
	StageName string
	// Cause is the root failure.
	Cause error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed at stage %d (%s): %v", e.Stage+1, e.StageName, e.Cause)
}

func (e *PipelineError) Unwrap() error { return e.Cause }

// Sink receives each stage's artifact immediately after validation
// succeeds. Writes are keyed by stable stage name and must be idempotent.
type Sink interface {
	Write(key string, value any) error
}

// StageRecord summarizes one completed stage for the run ledger.
type StageRecord struct {
	// Stage is the 0-indexed stage.
	Stage int
	// Name is the stage name.
	Name string
	// Attempts is the retry log for the stage's generation.
	Attempts retry.Log
	// Elapsed is the stage's wall time.
	Elapsed time.Duration
}

// Options configures an Orchestrator.
type Options struct {
	// Retry configures the per-stage retry controller.
	Retry retry.Options
	// Sink, if set, persists each stage's output as it completes.
	Sink Sink
	// OnEvent, if set, receives progress events. It is called from the
	// pipeline goroutine and must not block.
	OnEvent func(Event)
	// OnStageDone, if set, receives a record of each completed stage.
	OnStageDone func(StageRecord)
	// IntegrityCheck, if set, runs over the finished context as the
	// pipeline's final phase.
	IntegrityCheck func(*Context) error
}

// Orchestrator runs the fixed stage sequence against a generation
// collaborator. One orchestrator drives one session at a time.
type Orchestrator struct {
	gen  generation.Generator
	opts Options
}

// New creates an orchestrator.
func New(gen generation.Generator, opts Options) *Orchestrator {
	return &Orchestrator{gen: gen, opts: opts}
}

// Run executes every remaining stage against c, starting from the first
// stage the context is missing, then runs the integrity check if one is
// configured. Cancellation is cooperative: it is honored between stages
// and during retry backoff, never by abandoning an in-flight generation's
// result mid-apply.
func (o *Orchestrator) Run(ctx context.Context, c *Context) error {
	start := c.CompletedStages()
	if start > 0 {
		log.Printf("[pipeline] resuming with %d stage(s) already complete", start)
	}

	for i := start; i < StageCount; i++ {
		if err := ctx.Err(); err != nil {
			o.emit(Event{Phase: PhaseFailed, Stage: i, StageName: Stages[i].Name, Err: err})
			return &PipelineError{Stage: i, StageName: Stages[i].Name, Cause: err}
		}
		if err := o.runStage(ctx, c, i); err != nil {
			o.emit(Event{Phase: PhaseFailed, Stage: i, StageName: Stages[i].Name, Err: err})
			return &PipelineError{Stage: i, StageName: Stages[i].Name, Cause: err}
		}
	}

	if o.opts.IntegrityCheck != nil {
		o.emit(Event{Phase: PhaseIntegrityChecking, Stage: -1})
		if err := o.opts.IntegrityCheck(c); err != nil {
			o.emit(Event{Phase: PhaseFailed, Stage: -1, Err: err})
			return err
		}
	}

	o.emit(Event{Phase: PhaseDone, Stage: -1})
	return nil
}

// runStage performs one stage: retried generation, validation with one
// repair pass, typed apply, and artifact persistence.
func (o *Orchestrator) runStage(ctx context.Context, c *Context, index int) error {
	stage := Stages[index]
	started := time.Now()
	snapshot := c.Snapshot()

	req := generation.Request{
		System:          prompts.System,
		Instructions:    stage.instructions(snapshot),
		Context:         stage.contextSlice(snapshot),
		MaxOutputTokens: stage.MaxOutputTokens,
	}

	attempt := 0
	opts := o.opts.Retry
	onAttempt := opts.OnAttempt
	opts.OnAttempt = func(a retry.Attempt) {
		if a.Err != nil {
			log.Printf("[pipeline] stage %d (%s): attempt %d failed in %s: %v",
				index+1, stage.Name, a.Number, a.Duration.Round(time.Millisecond), a.Err)
		}
		if onAttempt != nil {
			onAttempt(a)
		}
	}

	payload, attempts, err := retry.Do(ctx, opts, func(ctx context.Context) (map[string]any, error) {
		attempt++
		o.emit(Event{Phase: PhaseGenerating, Stage: index, StageName: stage.Name, Attempt: attempt})

		raw, err := o.gen.Generate(ctx, req)
		if err != nil {
			return nil, err
		}

		o.emit(Event{Phase: PhaseValidating, Stage: index, StageName: stage.Name, Attempt: attempt})
		return validateWithRepair(stage.Name, raw)
	})
	if err != nil {
		return err
	}

	if err := stage.apply(c, payload); err != nil {
		return err
	}

	elapsed := time.Since(started)
	o.persist(stage.Name, payload)
	o.persistSnapshot(c)

	o.emit(Event{Phase: PhaseStageComplete, Stage: index, StageName: stage.Name, Attempt: attempt, Elapsed: elapsed})
	if o.opts.OnStageDone != nil {
		o.opts.OnStageDone(StageRecord{Stage: index, Name: stage.Name, Attempts: attempts, Elapsed: elapsed})
	}
	log.Printf("[pipeline] stage %d/%d (%s) complete in %s after %d attempt(s)",
		index+1, StageCount, stage.Name, elapsed.Round(time.Millisecond), len(attempts))
	return nil
}

// validateWithRepair runs the repair pass over a fresh payload and then
// validates the repaired form. Repair always comes first: several rules
// fix drift the schemas cannot see (tied value shifts, off-list keywords,
// subjects absent from the scene), so a schema-valid payload can still
// need repairing. Repair is idempotent, so one pass suffices. A
// validation failure is a *schema.ValidationError: a distinct kind from
// transient generation failures, though the stage-level retry may still
// request a fresh generation for it.
func validateWithRepair(schemaName string, raw map[string]any) (map[string]any, error) {
	repaired := repair.Repair(raw)
	violations := schema.Validate(schemaName, repaired)
	if len(violations) == 0 {
		return repaired, nil
	}
	return nil, &schema.ValidationError{Schema: schemaName, Violations: violations}
}

// persist writes one stage artifact. Persistence failures are surfaced in
// the log but do not invalidate the already-validated in-memory entity.
func (o *Orchestrator) persist(key string, value any) {
	if o.opts.Sink == nil {
		return
	}
	if err := o.opts.Sink.Write(key, value); err != nil {
		log.Printf("[pipeline] persist %s: %v", key, err)
	}
}

// persistSnapshot overwrites the full-context artifact for resume.
func (o *Orchestrator) persistSnapshot(c *Context) {
	if o.opts.Sink == nil {
		return
	}
	if err := o.opts.Sink.Write("context", c.Snapshot()); err != nil {
		log.Printf("[pipeline] persist context: %v", err)
	}
}

func (o *Orchestrator) emit(e Event) {
	if o.opts.OnEvent != nil {
		o.opts.OnEvent(e)
	}
}
