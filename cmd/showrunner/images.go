package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/even/showrunner/internal/artifact"
	"github.com/even/showrunner/internal/config"
	"github.com/even/showrunner/internal/render"
	"github.com/even/showrunner/internal/report"
	"github.com/even/showrunner/internal/retry"
)

var (
	imagesWatch  bool
	imagesOutput string
)

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Render b-roll images through ComfyUI",
	Long: `Render every scene's b-roll prompt into an image via a ComfyUI
server. Prompts come from the output directory's context snapshot when
one exists, falling back to parsing broll-prompts.md. Images land in
<output>/images/episode-N-scene-M.png; existing images are skipped.

With --watch, the command keeps running and re-renders whenever the
prompt sheet changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if imagesOutput != "" {
			cfg.Output.Dir = imagesOutput
		}
		if cfg.Comfy.WorkflowPath == "" {
			return fmt.Errorf("comfy.workflow_path is not configured")
		}

		workflow, err := render.LoadWorkflow(cfg.Comfy.WorkflowPath)
		if err != nil {
			return err
		}

		client := render.NewClient(render.ClientConfig{
			URL:          cfg.Comfy.URL,
			PollInterval: cfg.Comfy.PollInterval,
			Timeout:      cfg.Comfy.Timeout,
			Retry: retry.Options{
				MaxAttempts: cfg.Generation.MaxAttempts,
				BaseDelay:   time.Second,
			},
		})
		renderer := render.NewRenderer(client, workflow, cfg.Output.Dir)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if imagesWatch {
			err := renderer.Watch(ctx, cfg.Output.Dir)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		store, err := artifact.NewStore(cfg.Output.Dir)
		if err != nil {
			return err
		}
		snap, err := store.LoadSnapshot()
		if err == nil {
			return renderer.RenderSnapshot(ctx, snap)
		}
		if !errors.Is(err, artifact.ErrNoSnapshot) {
			return err
		}
		return renderer.RenderSheet(ctx, filepath.Join(cfg.Output.Dir, report.BrollPromptsFile))
	},
}

func init() {
	imagesCmd.Flags().BoolVar(&imagesWatch, "watch", false, "Re-render whenever the prompt sheet changes")
	imagesCmd.Flags().StringVarP(&imagesOutput, "output", "o", "", "Output directory (default from config)")
}
