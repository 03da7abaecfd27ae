package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "showrunner",
	Short: "Staged series generation with referential integrity",
	Long: `Showrunner turns a one-line show concept into a validated narrative
entity graph: universe, controlling idea, factions, characters,
locations, conflict matrix, season arc, episode plans, and scene plans.

Each stage's output is schema-validated, drift-repaired, and persisted
before the next stage builds on it. A final integrity pass verifies
every cross-entity reference. The resulting b-roll prompt sheet can be
rendered to images through a ComfyUI server.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(imagesCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
