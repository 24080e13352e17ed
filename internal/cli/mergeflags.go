package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/ideas-catalog/internal/ingest"
	"github.com/rcliao/ideas-catalog/internal/merge"
	"github.com/rcliao/ideas-catalog/internal/sheet"
)

func init() {
	cmd := &cobra.Command{
		Use:   "merge-flags <catalog> <csv>",
		Short: "Merge locked, priority and evaluation columns from a spreadsheet",
		Long: "Joins spreadsheet rows to catalog records by identifier (or a Drive link) and merges " +
			"the locked, priority and evaluation columns. Blank cells leave fields untouched.",
		Args: cobra.ExactArgs(2),
		Run:  runMergeFlags,
	}
	cmd.Flags().String("delimiter", "", "CSV delimiter: auto, tab, comma, semicolon, pipe (default from config)")
	addWriteFlags(cmd)
	RootCmd.AddCommand(cmd)
}

func readSheet(cmd *cobra.Command, path string) *sheet.Table {
	delim, _ := cmd.Flags().GetString("delimiter")
	if delim == "" {
		delim = cfg.Ingest.Delimiter
	}
	t, err := sheet.ReadFile(path, delim)
	if err != nil {
		exitErr("read csv", err)
	}
	return t
}

func runMergeFlags(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	catalogPath, csvPath := args[0], args[1]

	w := openTarget(cmd, catalogPath)
	defer w.release()

	records := loadCatalog(catalogPath)
	rows, skips, err := ingest.KeyedRows(readSheet(cmd, csvPath))
	if err != nil {
		exitErr("merge-flags", err)
	}

	run := startLedger(ctx, "merge-flags", w.path)
	rep := merge.ByIdentifier(records, rows)
	skips = append(skips, rep.Skips...)

	s := summary{
		Command:  "merge-flags",
		Records:  len(records),
		Visited:  len(rows),
		Updated:  rep.Updated,
		Skipped:  len(skips),
		Outcomes: rep.Outcomes,
		Skips:    skips,
	}
	s.Backup = w.save(records)
	s.Output = w.output()
	run.finish(ctx, &s)
	printSummary(s)
}
