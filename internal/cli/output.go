package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"

	"github.com/rcliao/ideas-catalog/internal/model"
)

var stdout io.Writer = os.Stdout

// textOutput reports whether results are rendered as tables. auto picks text
// on a terminal and JSON when piped.
func textOutput() bool {
	switch formatFlag {
	case "text":
		return true
	case "json":
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("encode output", err)
	}
	fmt.Fprintln(stdout, string(b))
}

func newTable(title string, header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(stdout)
	tw.SetStyle(table.StyleLight)
	if title != "" {
		tw.SetTitle(title)
	}
	tw.AppendHeader(header)
	return tw
}

// summary is the result of a catalog-mutating command.
type summary struct {
	Command  string          `json:"command"`
	RunID    string          `json:"run_id,omitempty"`
	Output   string          `json:"output,omitempty"`
	Backup   string          `json:"backup,omitempty"`
	Records  int             `json:"records"`
	Visited  int             `json:"visited"`
	Updated  int             `json:"updated"`
	Skipped  int             `json:"skipped"`
	Outcomes []model.Outcome `json:"outcomes"`
	Skips    []model.Skip    `json:"skips"`
}

func printSummary(s summary) {
	if s.Outcomes == nil {
		s.Outcomes = []model.Outcome{}
	}
	if s.Skips == nil {
		s.Skips = []model.Skip{}
	}
	if !textOutput() {
		printJSON(s)
		return
	}

	if len(s.Outcomes) > 0 {
		tw := newTable("Updated", table.Row{"Title", "File", "Score", "Fields"})
		for _, o := range s.Outcomes {
			tw.AppendRow(table.Row{o.Title, o.File, o.Score, strings.Join(o.Changed, ",")})
		}
		tw.Render()
	}
	if len(s.Skips) > 0 {
		printSkips(s.Skips)
	}

	fmt.Fprintf(stdout, "%s: %d records, %d visited, %d updated, %d skipped\n",
		s.Command, s.Records, s.Visited, s.Updated, s.Skipped)
	if s.Output != "" {
		fmt.Fprintf(stdout, "wrote %s\n", s.Output)
	}
	if s.Backup != "" {
		fmt.Fprintf(stdout, "backup %s\n", s.Backup)
	}
	if s.RunID != "" {
		fmt.Fprintf(stdout, "run %s\n", s.RunID)
	}
}

func printSkips(skips []model.Skip) {
	tw := newTable("Skipped", table.Row{"Kind", "Title", "Identifier", "File", "Line", "Detail"})
	for _, sk := range skips {
		line := ""
		if sk.Line > 0 {
			line = fmt.Sprint(sk.Line)
		}
		tw.AppendRow(table.Row{sk.Kind, sk.Title, sk.Identifier, sk.File, line, sk.Detail})
	}
	tw.Render()
}
