package cli

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rcliao/ideas-catalog/internal/match"
)

func init() {
	cmd := &cobra.Command{
		Use:   "match <title>",
		Short: "Show the best matching PDF files for a title",
		Args:  cobra.MinimumNArgs(1),
		Run:   runMatch,
	}
	cmd.Flags().String("pdf-root", "", "Folder of PDF files (default from config)")
	cmd.Flags().IntP("limit", "l", 5, "Max candidates shown, 0 for all")
	cmd.Flags().Int("min-score", 0, "Minimum match score (default from config)")
	RootCmd.AddCommand(cmd)
}

type matchResult struct {
	File     string `json:"file"`
	Path     string `json:"path"`
	Score    int    `json:"score"`
	Accepted bool   `json:"accepted"`
}

func runMatch(cmd *cobra.Command, args []string) {
	title := strings.Join(args, " ")
	limit, _ := cmd.Flags().GetInt("limit")
	minScore, _ := cmd.Flags().GetInt("min-score")
	if minScore <= 0 {
		minScore = cfg.Match.MinScore
	}

	m := match.New(minScore, cfg.Match.Extensions)
	ranked := m.Rank(title, scanRoot(cmd), limit)

	results := make([]matchResult, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, matchResult{
			File:     r.Candidate.Name,
			Path:     r.Candidate.Path,
			Score:    r.Score,
			Accepted: m.Accept(r.Score),
		})
	}

	if !textOutput() {
		printJSON(results)
		return
	}
	tw := newTable("", table.Row{"Score", "", "File"})
	for _, r := range results {
		mark := ""
		if r.Accepted {
			mark = "ok"
		}
		tw.AppendRow(table.Row{r.Score, mark, r.File})
	}
	tw.Render()
}
