package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/even/showrunner/internal/artifact"
	"github.com/even/showrunner/internal/config"
	"github.com/even/showrunner/internal/integrity"
	"github.com/even/showrunner/internal/pipeline"
)

var checkOutput string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the integrity check over a saved context",
	Long: `Verify every cross-entity reference in the output directory's
context snapshot: relationship targets, faction rosters, scene
locations, seed determinism, b-roll constraints, and the rest.

Partial runs are fine; only the stages that completed are checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if checkOutput != "" {
			cfg.Output.Dir = checkOutput
		}

		store, err := artifact.NewStore(cfg.Output.Dir)
		if err != nil {
			return err
		}
		snap, err := store.LoadSnapshot()
		if err != nil {
			if errors.Is(err, artifact.ErrNoSnapshot) {
				return fmt.Errorf("%s has no context snapshot", cfg.Output.Dir)
			}
			return err
		}

		c := pipeline.FromSnapshot(snap)
		fmt.Printf("Checking %q (%d/%d stages complete)\n",
			c.Concept(), c.CompletedStages(), pipeline.StageCount)

		if err := integrity.CheckSnapshot(snap); err != nil {
			var integrityErr *integrity.IntegrityError
			if errors.As(err, &integrityErr) {
				printIntegrityViolations(os.Stderr, integrityErr)
			}
			return err
		}

		color.New(color.FgGreen, color.Bold).Println("Integrity check passed.")
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "", "Output directory (default from config)")
}
