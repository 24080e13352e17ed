package cli

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rcliao/ideas-catalog/internal/model"
	"github.com/rcliao/ideas-catalog/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs from the ledger",
		Run:   runRuns,
	}

	cmd.Flags().String("command", "", "Filter by command")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runRuns(cmd *cobra.Command, args []string) {
	command, _ := cmd.Flags().GetString("command")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open ledger", err)
	}
	defer s.Close()

	runs, err := s.ListRuns(cmd.Context(), store.ListParams{Command: command, Limit: limit})
	if err != nil {
		exitErr("runs", err)
	}
	if runs == nil {
		runs = []model.Run{}
	}

	if !textOutput() {
		printJSON(runs)
		return
	}
	tw := newTable("", table.Row{"Run", "Command", "Started", "Duration", "Visited", "Updated", "Skipped", "Catalog"})
	for _, r := range runs {
		tw.AppendRow(table.Row{
			r.ID, r.Command, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			duration(r), r.Visited, r.Updated, r.Skipped, r.Catalog,
		})
	}
	tw.Render()
}

func duration(r model.Run) string {
	if r.FinishedAt == nil {
		return "open"
	}
	return r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
}
