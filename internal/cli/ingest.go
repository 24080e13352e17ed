package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/ideas-catalog/internal/ingest"
)

func init() {
	cmd := &cobra.Command{
		Use:   "ingest <csv> <out>",
		Short: "Build a new catalog from a spreadsheet export",
		Args:  cobra.ExactArgs(2),
		Run:   runIngest,
	}
	cmd.Flags().String("delimiter", "", "CSV delimiter: auto, tab, comma, semicolon, pipe (default from config)")
	cmd.Flags().Int("year", 0, "Year for rows without a date (default from config)")
	cmd.Flags().String("venue", "", "Venue stored on every record (default from config)")
	cmd.Flags().Bool("backup", false, "Copy an existing output file to a timestamped backup first")
	cmd.Flags().Bool("dry-run", false, "Report what would be written without writing")
	RootCmd.AddCommand(cmd)
}

func ingestOptions(cmd *cobra.Command) ingest.Options {
	opts := ingest.Options{DefaultYear: cfg.Ingest.DefaultYear, Venue: cfg.Ingest.Venue}
	if y, _ := cmd.Flags().GetInt("year"); y > 0 {
		opts.DefaultYear = y
	}
	if v, _ := cmd.Flags().GetString("venue"); v != "" {
		opts.Venue = v
	}
	return opts
}

func runIngest(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	csvPath, out := args[0], args[1]

	backup, _ := cmd.Flags().GetBool("backup")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	w := lockTarget(out, backup, dryRun)
	defer w.release()

	t := readSheet(cmd, csvPath)
	run := startLedger(ctx, "ingest", out)
	res := ingest.Records(t, ingestOptions(cmd))
	if res.Folded > 0 {
		logger.Info("rows folded by identifier", zap.Int("rows", res.Folded))
	}

	s := summary{
		Command: "ingest",
		Records: len(res.Records),
		Visited: len(t.Rows),
		Updated: len(res.Records),
		Skipped: len(res.Skips),
		Skips:   res.Skips,
	}
	s.Backup = w.save(res.Records)
	s.Output = w.output()
	run.finish(ctx, &s)
	printSummary(s)
}
