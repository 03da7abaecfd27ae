package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/even/showrunner/internal/artifact"
	"github.com/even/showrunner/internal/config"
)

var runsVerbose bool

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		ledger, err := artifact.OpenLedger(cfg.LedgerFile())
		if err != nil {
			return err
		}
		defer ledger.Close()

		runs, err := ledger.Runs()
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, run := range runs {
			statusColor := color.New(color.FgYellow)
			switch run.Status {
			case artifact.RunStatusComplete:
				statusColor = color.New(color.FgGreen)
			case artifact.RunStatusFailed:
				statusColor = color.New(color.FgRed)
			}

			fmt.Printf("%s  %s  %s  %d stage(s)  %q\n",
				run.ID[:8],
				run.StartedAt.Format("2006-01-02 15:04"),
				statusColor.Sprint(run.Status),
				run.Stages,
				run.Concept)

			if runsVerbose {
				stages, err := ledger.RunStages(run.ID)
				if err != nil {
					return err
				}
				for _, stage := range stages {
					fmt.Printf("    %d. %-18s %d attempt(s)  %s\n",
						stage.Stage+1, stage.Name, stage.Attempts, stage.Elapsed.Round(time.Millisecond))
				}
			}
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().BoolVarP(&runsVerbose, "verbose", "v", false, "Show per-stage attempts and timings")
}
