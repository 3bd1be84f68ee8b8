// eval-summary aggregates composition result artifacts from an
// evaluation run into a markdown report and a summary.json.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/triage-ai/composcan/internal/summary"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "eval-summary [results-dir]",
		Short: "Summarize composition analysis artifacts from an evaluation run",
		Long: `Scans a results directory for composition artifacts, classifies each
server pairing against the known benign control set, and prints a
markdown report. Aggregate statistics are also written as JSON.

Examples:
  eval-summary results
  eval-summary results --output eval/summary.json`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "results"
			if len(args) == 1 {
				dir = args[0]
			}

			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			report, err := summary.Summarize(dir, logger)
			if err != nil {
				return err
			}
			if report.ArtifactsScanned == 0 {
				return fmt.Errorf("no composition artifacts found under %s", dir)
			}

			fmt.Print(report.Markdown())

			if err := report.WriteJSON(output); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "\nWrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "summary.json", "path for the JSON summary")
	return cmd
}
