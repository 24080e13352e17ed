package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/ideas-catalog/internal/candidates"
	"github.com/rcliao/ideas-catalog/internal/config"
	"github.com/rcliao/ideas-catalog/internal/match"
	"github.com/rcliao/ideas-catalog/internal/model"
	"github.com/rcliao/ideas-catalog/internal/pipeline"
	"github.com/rcliao/ideas-catalog/internal/resolve"
)

func init() {
	dates := &cobra.Command{
		Use:   "dates [catalog]",
		Short: "Fill date and year from matched PDF files",
		Long: "Matches each record to a PDF under the root and sets its date from the first " +
			"source in the order that yields one: a date in the file name, the file creation time, " +
			"then the modification time.",
		Args: cobra.MaximumNArgs(1),
		Run:  runDates,
	}
	addRootFlags(dates)
	dates.Flags().String("order", "", "Date source order, comma-separated (default from config: name,birth,mtime)")
	addWriteFlags(dates)
	RootCmd.AddCommand(dates)

	fulltext := &cobra.Command{
		Use:   "fulltext [catalog]",
		Short: "Fill page counts and extracted text from matched PDF files",
		Args:  cobra.MaximumNArgs(1),
		Run:   runFulltext,
	}
	addRootFlags(fulltext)
	fulltext.Flags().Int("max-chars", -1, "Truncate extracted text to this many characters, 0 for page counts only (default from config)")
	fulltext.Flags().String("prefer", "", "Preferred extractor: native or pdftotext (default from config)")
	addWriteFlags(fulltext)
	RootCmd.AddCommand(fulltext)
}

func addRootFlags(cmd *cobra.Command) {
	cmd.Flags().String("pdf-root", "", "Folder of PDF files (default from config)")
	cmd.Flags().Bool("all", false, "Match every record, not only those without an identifier")
	cmd.Flags().Int("min-score", 0, "Minimum match score (default from config)")
}

func runDates(cmd *cobra.Command, args []string) {
	runEnrich(cmd, catalogArg(args), "dates", pipeline.Tasks{Dates: true})
}

func runFulltext(cmd *cobra.Command, args []string) {
	runEnrich(cmd, catalogArg(args), "fulltext", pipeline.Tasks{Text: true})
}

func runEnrich(cmd *cobra.Command, catalogPath, command string, tasks pipeline.Tasks) {
	ctx := cmd.Context()
	w := openTarget(cmd, catalogPath)
	defer w.release()

	records := loadCatalog(catalogPath)
	e := newEnricher(cmd, scanRoot(cmd), tasks)
	if all, _ := cmd.Flags().GetBool("all"); all {
		e.Scope = pipeline.ScopeAll
	}

	run := startLedger(ctx, command, w.path)
	rep, err := e.Run(ctx, records, tasks)
	if err != nil {
		exitErr(command, err)
	}

	s := summary{
		Command:  command,
		Records:  len(records),
		Visited:  rep.Visited,
		Updated:  rep.Updated,
		Skipped:  len(rep.Skips),
		Outcomes: rep.Outcomes,
		Skips:    rep.Skips,
	}
	s.Backup = w.save(records)
	s.Output = w.output()
	run.finish(ctx, &s)
	printSummary(s)
}

// newEnricher builds an enricher from flags and config. Only the resolvers
// the tasks need are constructed.
func newEnricher(cmd *cobra.Command, cands []model.Candidate, tasks pipeline.Tasks) *pipeline.Enricher {
	scope, err := pipeline.ParseScope(cfg.Match.Scope)
	if err != nil {
		exitErr("match scope", err)
	}

	minScore := cfg.Match.MinScore
	if v, _ := cmd.Flags().GetInt("min-score"); v > 0 {
		minScore = v
	}

	e := &pipeline.Enricher{
		Candidates: cands,
		Matcher:    match.New(minScore, cfg.Match.Extensions),
		Scope:      scope,
		Logger:     logger,
	}
	if tasks.Dates {
		order := cfg.Dates.Order
		if cmd.Flags().Lookup("order") != nil {
			if s, _ := cmd.Flags().GetString("order"); s != "" {
				order = resolve.ParseOrder(s)
			}
		}
		chain, err := resolve.NewDateChain(order, nil)
		if err != nil {
			exitErr("date order", err)
		}
		e.Dates = chain
	}
	if tasks.Text {
		maxChars := cfg.Text.MaxChars
		prefer := cfg.Text.Prefer
		if cmd.Flags().Lookup("max-chars") != nil {
			if v, _ := cmd.Flags().GetInt("max-chars"); v >= 0 {
				maxChars = v
			}
			if p, _ := cmd.Flags().GetString("prefer"); p != "" {
				if p != resolve.ExtractorNative && p != resolve.ExtractorPdftotext {
					exitErr("prefer", fmt.Errorf("unsupported extractor %q", p))
				}
				prefer = p
			}
		}
		tr, err := resolve.NewTextResolver(resolve.TextOrder(prefer), maxChars, nil)
		if err != nil {
			exitErr("text extractors", err)
		}
		e.Text = tr
	}
	return e
}

// scanRoot indexes the PDF root named by --pdf-root or the config.
func scanRoot(cmd *cobra.Command) []model.Candidate {
	root, _ := cmd.Flags().GetString("pdf-root")
	if root == "" {
		root = cfg.Paths.PDFRoot
	}
	if root == "" {
		exitErr("pdf root", errors.New("not set (use --pdf-root or paths.pdf_root)"))
	}
	return scanDir(root)
}

func scanDir(root string) []model.Candidate {
	root, err := config.ExpandPath(root)
	if err != nil {
		exitErr("pdf root", err)
	}
	cands, err := candidates.Scan(root, cfg.Match.Extensions)
	if errors.Is(err, fs.ErrNotExist) {
		exitErr("pdf root", fmt.Errorf("%s does not exist", root))
	}
	if err != nil {
		exitErr("scan pdf root", err)
	}
	logger.Debug("indexed pdf root", zap.String("root", root), zap.Int("files", len(cands)))
	return cands
}
