package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show ledger statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open ledger", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), getLedgerPath())
	if err != nil {
		exitErr("stats", err)
	}

	if !textOutput() {
		printJSON(stats)
		return
	}
	fmt.Fprintf(stdout, "%s (%d bytes)\n", stats.DBPath, stats.DBSizeBytes)
	fmt.Fprintf(stdout, "%d runs (%d open), %d events\n", stats.TotalRuns, stats.OpenRuns, stats.TotalEvents)

	if len(stats.Commands) > 0 {
		tw := newTable("Commands", table.Row{"Command", "Runs", "Updated", "Skipped"})
		for _, c := range stats.Commands {
			tw.AppendRow(table.Row{c.Command, c.Runs, c.Updated, c.Skipped})
		}
		tw.Render()
	}
	if len(stats.Kinds) > 0 {
		tw := newTable("Events", table.Row{"Kind", "Count"})
		for _, k := range stats.Kinds {
			tw.AppendRow(table.Row{k.Kind, k.Count})
		}
		tw.Render()
	}
}
