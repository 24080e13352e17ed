package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rcliao/ideas-catalog/internal/catalog"
	"github.com/rcliao/ideas-catalog/internal/match"
)

func init() {
	cmd := &cobra.Command{
		Use:   "check [catalog]",
		Short: "Validate a catalog and report field coverage",
		Long: "Validates the catalog against its schema and identifier rules. With --pdf-root, " +
			"also lists records that match no PDF file.",
		Args: cobra.MaximumNArgs(1),
		Run:  runCheck,
	}
	cmd.Flags().String("pdf-root", "", "Also report records with no matching PDF under this folder")
	RootCmd.AddCommand(cmd)
}

type checkReport struct {
	Path           string               `json:"path"`
	Valid          bool                 `json:"valid"`
	Errors         []catalog.FieldError `json:"errors,omitempty"`
	Error          string               `json:"error,omitempty"`
	Records        int                  `json:"records"`
	WithIdentifier int                  `json:"with_identifier"`
	WithDate       int                  `json:"with_date"`
	WithPages      int                  `json:"with_pages"`
	WithText       int                  `json:"with_text"`
	Locked         int                  `json:"locked"`
	WithPriority   int                  `json:"with_priority"`
	Unmatched      []string             `json:"unmatched,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) {
	path := catalogArg(args)
	rep := checkReport{Path: path}
	records, err := catalog.Load(path, catalog.Options{DefaultYear: cfg.Ingest.DefaultYear})
	if err != nil {
		var ve *catalog.ValidationError
		if errors.As(err, &ve) {
			rep.Errors = ve.Errors
		}
		rep.Error = err.Error()
		printCheck(rep)
		os.Exit(1)
	}

	rep.Valid = true
	rep.Records = len(records)
	for _, r := range records {
		if r.HasIdentifier() {
			rep.WithIdentifier++
		}
		if r.Date != "" {
			rep.WithDate++
		}
		if r.PageCount != nil {
			rep.WithPages++
		}
		if r.ExtractedText != "" {
			rep.WithText++
		}
		if r.Locked != nil && *r.Locked {
			rep.Locked++
		}
		if r.Priority != nil {
			rep.WithPriority++
		}
	}

	if root, _ := cmd.Flags().GetString("pdf-root"); root != "" {
		cands := scanDir(root)
		m := match.New(cfg.Match.MinScore, cfg.Match.Extensions)
		for _, r := range records {
			if _, ok := m.Best(r.Title, cands); !ok {
				rep.Unmatched = append(rep.Unmatched, r.Title)
			}
		}
	}
	printCheck(rep)
}

func printCheck(rep checkReport) {
	if !textOutput() {
		printJSON(rep)
		return
	}
	if !rep.Valid {
		fmt.Fprintf(stdout, "%s: invalid\n", rep.Path)
		if len(rep.Errors) == 0 {
			fmt.Fprintf(stdout, "  %s\n", rep.Error)
		}
		for _, fe := range rep.Errors {
			fmt.Fprintf(stdout, "  %s: %s\n", fe.Field, fe.Message)
		}
		return
	}

	tw := newTable(rep.Path, table.Row{"Field", "Records"})
	tw.AppendRows([]table.Row{
		{"total", rep.Records},
		{"identifier", rep.WithIdentifier},
		{"date", rep.WithDate},
		{"pageCount", rep.WithPages},
		{"extractedText", rep.WithText},
		{"locked", rep.Locked},
		{"priority", rep.WithPriority},
	})
	tw.Render()
	for _, title := range rep.Unmatched {
		fmt.Fprintf(stdout, "unmatched: %s\n", title)
	}
}
