package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/even/showrunner/internal/artifact"
	"github.com/even/showrunner/internal/config"
	"github.com/even/showrunner/internal/generation"
	"github.com/even/showrunner/internal/integrity"
	"github.com/even/showrunner/internal/pipeline"
	"github.com/even/showrunner/internal/report"
	"github.com/even/showrunner/internal/retry"
	"github.com/even/showrunner/internal/tui"
)

var (
	runResume bool
	runPlain  bool
	runOutput string
)

var runCmd = &cobra.Command{
	Use:   "run [concept]",
	Short: "Generate a full season from a show concept",
	Long: `Run the generation pipeline end to end.

Each stage's artifact is written to the output directory as it
completes, along with a resumable context snapshot. After the last
stage an integrity check verifies every cross-entity reference, then
the series bible, b-roll prompt sheet, and YAML export are rendered.

With --resume, the concept argument is omitted and the run picks up
from the output directory's context snapshot.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().BoolVar(&runResume, "resume", false, "Resume from the output directory's context snapshot")
	runCmd.Flags().BoolVar(&runPlain, "plain", false, "Log progress to stderr instead of the TUI")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Output directory (default from config)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runOutput != "" {
		cfg.Output.Dir = runOutput
	}

	store, err := artifact.NewStore(cfg.Output.Dir)
	if err != nil {
		return err
	}

	c, err := buildContext(store, args)
	if err != nil {
		return err
	}

	var apiKey string
	if !cfg.Anthropic.UseBedrock {
		apiKey, err = config.GetAPIKey(cfg)
		if err != nil {
			return fmt.Errorf("%w: set ANTHROPIC_API_KEY or run `showrunner config anthropic.api_key <key>`", err)
		}
		if verr := config.ValidateAPIKey(apiKey); verr != nil {
			log.Printf("[config] api key from %s: %v", config.GetAPIKeySource(cfg), verr)
		}
	}

	client, err := generation.NewClient(generation.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        apiKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return err
	}

	ledger, err := artifact.OpenLedger(cfg.LedgerFile())
	if err != nil {
		return err
	}
	defer ledger.Close()

	runID, err := ledger.StartRun(c.Concept())
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Retry: retry.Options{
			MaxAttempts: cfg.Generation.MaxAttempts,
			BaseDelay:   cfg.Generation.BackoffBase,
		},
		Sink: store,
		OnStageDone: func(rec pipeline.StageRecord) {
			if err := ledger.RecordStage(runID, rec); err != nil {
				log.Printf("[ledger] record stage %s: %v", rec.Name, err)
			}
		},
		IntegrityCheck: integrity.Check,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runPlain {
		err = pipeline.New(client, opts).Run(ctx, c)
	} else {
		err = runWithTUI(ctx, client, opts, c)
	}

	status := artifact.RunStatusComplete
	if err != nil {
		status = artifact.RunStatusFailed
	}
	if ferr := ledger.FinishRun(runID, status); ferr != nil {
		log.Printf("[ledger] finish run: %v", ferr)
	}

	if err != nil {
		var integrityErr *integrity.IntegrityError
		if errors.As(err, &integrityErr) {
			printIntegrityViolations(os.Stderr, integrityErr)
		}
		return err
	}

	if err := report.WriteAll(cfg.Output.Dir, c.Snapshot()); err != nil {
		return fmt.Errorf("write reports: %w", err)
	}

	in, out := client.Tracker().Total()
	fmt.Printf("Done. %d stages, %d calls, %d in / %d out tokens ($%.4f).\n",
		pipeline.StageCount, client.Tracker().Calls(), in, out, client.Tracker().Cost())
	fmt.Printf("Artifacts in %s\n", cfg.Output.Dir)
	return nil
}

// buildContext creates a fresh context from the concept argument, or
// restores one from the store when resuming.
func buildContext(store *artifact.Store, args []string) (*pipeline.Context, error) {
	if runResume {
		snap, err := store.LoadSnapshot()
		if err != nil {
			if errors.Is(err, artifact.ErrNoSnapshot) {
				return nil, fmt.Errorf("nothing to resume: %s has no context snapshot", store.Dir())
			}
			return nil, err
		}
		c := pipeline.FromSnapshot(snap)
		fmt.Printf("Resuming %q with %d/%d stages complete.\n",
			c.Concept(), c.CompletedStages(), pipeline.StageCount)
		return c, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("a show concept is required (or pass --resume)")
	}
	return pipeline.NewContext(args[0]), nil
}

// runWithTUI drives the pipeline in a goroutine and feeds its events to
// the progress TUI. The pipeline's stdlib logging is silenced while the
// TUI owns the terminal. Quitting the TUI cancels the run.
func runWithTUI(ctx context.Context, client *generation.Client, opts pipeline.Options, c *pipeline.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan pipeline.Event, 16)
	opts.OnEvent = func(e pipeline.Event) { events <- e }

	prevOut := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(prevOut)

	orch := pipeline.New(client, opts)
	errCh := make(chan error, 1)
	go func() {
		errCh <- orch.Run(ctx, c)
		close(events)
	}()

	program := tea.NewProgram(tui.New(events))

	// Keep the footer's token counts fresh.
	tickDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-tickDone:
				return
			case <-ticker.C:
				in, out := client.Tracker().Total()
				program.Send(tui.TokensMsg{Input: in, Output: out, Cost: client.Tracker().Cost()})
			}
		}
	}()

	_, tuiErr := program.Run()
	close(tickDone)
	cancel()

	// Drain any events emitted after the TUI stopped consuming so the
	// pipeline goroutine can finish.
	go func() {
		for range events {
		}
	}()

	if tuiErr != nil {
		return fmt.Errorf("tui: %w", tuiErr)
	}
	return <-errCh
}

func printIntegrityViolations(w io.Writer, err *integrity.IntegrityError) {
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	red.Fprintf(w, "%d integrity violation(s):\n", len(err.Violations))
	for _, v := range err.Violations {
		yellow.Fprintf(w, "  %s: ", v.Path)
		fmt.Fprintln(w, v.Reason)
	}
}
