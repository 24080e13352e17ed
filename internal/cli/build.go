package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/ideas-catalog/internal/ingest"
	"github.com/rcliao/ideas-catalog/internal/merge"
	"github.com/rcliao/ideas-catalog/internal/model"
	"github.com/rcliao/ideas-catalog/internal/pipeline"
)

func init() {
	cmd := &cobra.Command{
		Use:   "build <csv> <pdf-root> <out>",
		Short: "Build a catalog from a spreadsheet and a PDF folder in one pass",
		Long: "Ingests the spreadsheet, fills dates, page counts and text from the PDF folder, " +
			"merges the spreadsheet flags, backs up an existing output and writes it once.",
		Args: cobra.ExactArgs(3),
		Run:  runBuild,
	}
	cmd.Flags().String("delimiter", "", "CSV delimiter: auto, tab, comma, semicolon, pipe (default from config)")
	cmd.Flags().Int("year", 0, "Year for rows without a date (default from config)")
	cmd.Flags().String("venue", "", "Venue stored on every record (default from config)")
	cmd.Flags().String("order", "", "Date source order, comma-separated (default from config)")
	cmd.Flags().Int("max-chars", -1, "Truncate extracted text to this many characters, 0 for page counts only (default from config)")
	cmd.Flags().String("prefer", "", "Preferred extractor: native or pdftotext (default from config)")
	cmd.Flags().Int("min-score", 0, "Minimum match score (default from config)")
	cmd.Flags().Bool("dry-run", false, "Report what would be written without writing")
	RootCmd.AddCommand(cmd)
}

func runBuild(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	csvPath, pdfRoot, out := args[0], args[1], args[2]

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	w := lockTarget(out, true, dryRun)
	defer w.release()

	t := readSheet(cmd, csvPath)
	run := startLedger(ctx, "build", out)

	res := ingest.Records(t, ingestOptions(cmd))
	records := res.Records
	skips := res.Skips
	logger.Info("ingested", zap.Int("records", len(records)), zap.Int("folded", res.Folded))

	tasks := pipeline.Tasks{Dates: true, Text: true}
	e := newEnricher(cmd, scanDir(pdfRoot), tasks)
	e.Scope = pipeline.ScopeAll

	rep, err := e.Run(ctx, records, tasks)
	if err != nil {
		exitErr("build", err)
	}
	skips = append(skips, rep.Skips...)
	outcomes := rep.Outcomes

	rows, rowSkips, err := ingest.KeyedRows(t)
	switch {
	case errors.Is(err, ingest.ErrNoKeyColumn):
		logger.Debug("no identifier column, skipping keyed flag merge")
	case err != nil:
		exitErr("build", err)
	default:
		flags := merge.ByIdentifier(records, rows)
		outcomes = appendOutcomes(outcomes, flags.Outcomes)
		skips = append(skips, rowSkips...)
		skips = append(skips, flags.Skips...)
	}

	s := summary{
		Command:  "build",
		Records:  len(records),
		Visited:  len(t.Rows),
		Updated:  len(records),
		Skipped:  len(skips),
		Outcomes: outcomes,
		Skips:    skips,
	}
	s.Backup = w.save(records)
	s.Output = w.output()
	run.finish(ctx, &s)
	printSummary(s)
}

// appendOutcomes folds later outcomes into earlier ones for the same title.
func appendOutcomes(dst, more []model.Outcome) []model.Outcome {
	idx := make(map[string]int, len(dst))
	for i, o := range dst {
		idx[o.Title] = i
	}
	for _, o := range more {
		if i, ok := idx[o.Title]; ok {
			dst[i].Changed = append(dst[i].Changed, o.Changed...)
			continue
		}
		idx[o.Title] = len(dst)
		dst = append(dst, o)
	}
	return dst
}
