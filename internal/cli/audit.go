package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rcliao/ideas-catalog/internal/model"
	"github.com/rcliao/ideas-catalog/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "audit [run-id]",
		Short: "Show the records a run skipped",
		Long: "Lists the skipped records of a run (the latest by default) so they can be fixed by hand. " +
			"With --search, looks up a title, identifier or file across all runs instead.",
		Args: cobra.MaximumNArgs(1),
		Run:  runAudit,
	}
	cmd.Flags().Bool("all-events", false, "Include updated records, not only skips")
	cmd.Flags().String("kind", "", "Only show events of this kind")
	cmd.Flags().StringP("search", "s", "", "Search events of all runs by title, identifier or file")
	cmd.Flags().IntP("limit", "l", 0, "Max events for --search (default 500)")
	RootCmd.AddCommand(cmd)
}

func runAudit(cmd *cobra.Command, args []string) {
	allEvents, _ := cmd.Flags().GetBool("all-events")
	kind, _ := cmd.Flags().GetString("kind")
	query, _ := cmd.Flags().GetString("search")
	limit, _ := cmd.Flags().GetInt("limit")
	var runID string
	if len(args) > 0 {
		runID = args[0]
	}

	s, err := openStore()
	if err != nil {
		exitErr("open ledger", err)
	}
	defer s.Close()

	if query != "" {
		events, err := s.Events(cmd.Context(), store.EventParams{
			RunID:     runID,
			Kind:      kind,
			Query:     query,
			SkipsOnly: !allEvents,
			Limit:     limit,
		})
		if err != nil {
			exitErr("audit", err)
		}
		if events == nil {
			events = []model.Event{}
		}
		if !textOutput() {
			printJSON(events)
			return
		}
		printEvents("", events, true)
		return
	}

	exp, err := s.Export(cmd.Context(), runID)
	if err != nil {
		exitErr("audit", err)
	}

	events := exp.Events
	if !allEvents {
		events = exp.Skips()
	}
	if kind != "" {
		var filtered []model.Event
		for _, e := range events {
			if e.Kind == kind {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	if events == nil {
		events = []model.Event{}
	}

	if !textOutput() {
		exp.Events = events
		printJSON(exp)
		return
	}
	r := exp.Run
	title := fmt.Sprintf("%s %s (%s)", r.Command, r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if len(events) == 0 {
		fmt.Fprintf(stdout, "%s: nothing skipped\n", title)
		return
	}
	printEvents(title, events, false)
}

func printEvents(title string, events []model.Event, withRun bool) {
	header := table.Row{"#", "Kind", "Title", "Identifier", "File", "Score", "Line", "Detail"}
	if withRun {
		header = append(table.Row{"Run"}, header...)
	}
	tw := newTable(title, header)
	for _, e := range events {
		detail := e.Detail
		if len(e.Fields) > 0 {
			detail = strings.Join(e.Fields, ",")
		}
		row := table.Row{e.Seq, e.Kind, e.Title, e.Identifier, e.File, blankZero(e.Score), blankZero(e.Line), detail}
		if withRun {
			row = append(table.Row{e.RunID}, row...)
		}
		tw.AppendRow(row)
	}
	tw.Render()
}

func blankZero(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprint(n)
}
