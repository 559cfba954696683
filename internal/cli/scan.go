package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"nmsweep/internal/domain"
	"nmsweep/internal/logging"
	"nmsweep/internal/services"
	"nmsweep/internal/worker"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [roots...]",
		Short: "List old node_modules directories without deleting anything",
		Args:  usageArgs(cobra.ArbitraryArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if settings.cfg.AgeMonths <= 0 {
				return newUsageError("--age is required")
			}
			if err := initLogging(settings.cfg); err != nil {
				return err
			}
			defer syncLogging()

			roots, err := resolveRoots(args, settings.cfg)
			if err != nil {
				return err
			}
			spawner, err := newSpawner(settings.cfg)
			if err != nil {
				return err
			}

			req := services.ScanRequest{Roots: roots, AgeMonths: settings.cfg.AgeMonths}
			result, err := worker.RunScan(cmd.Context(), spawner, req, logProgress)
			if err != nil {
				return err
			}

			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result.Matches)
			}
			return printMatches(cmd, result.Matches, time.Now())
		},
	}
	cmd.Flags().Bool("json", false, "Print matches as JSON")
	return cmd
}

func printMatches(cmd *cobra.Command, matches domain.MatchList, now time.Time) error {
	out := cmd.OutOrStdout()
	if len(matches) == 0 {
		_, err := fmt.Fprintln(out, "Nothing old enough.")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, match := range matches {
		months := float64(match.Age(now)) / float64(services.MonthDuration)
		fmt.Fprintf(w, "%s\t%.1f months\n", match.Path, months) //nolint:errcheck // flushed below
	}
	return w.Flush()
}

func logProgress(envelope worker.Envelope) {
	var progress services.ScanProgress
	if err := envelope.Decode(&progress); err != nil {
		return
	}
	logging.Debug("scan progress",
		logging.String("current", progress.Current),
		logging.Int64("visited", progress.Visited))
}
