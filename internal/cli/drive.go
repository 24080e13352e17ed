package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/rcliao/ideas-catalog/internal/catalog"
	"github.com/rcliao/ideas-catalog/internal/drive"
	"github.com/rcliao/ideas-catalog/internal/match"
	"github.com/rcliao/ideas-catalog/internal/pipeline"
)

func init() {
	driveCmd := &cobra.Command{
		Use:   "drive",
		Short: "Google Drive folder listing and identifier assignment",
	}

	login := &cobra.Command{
		Use:   "login",
		Short: "Authorize Drive access and store a token",
		Args:  cobra.NoArgs,
		Run:   runDriveLogin,
	}

	manifest := &cobra.Command{
		Use:   "manifest",
		Short: "List a Drive folder into a manifest CSV and optional stub catalog",
		Args:  cobra.NoArgs,
		Run:   runDriveManifest,
	}
	manifest.Flags().String("folder", "", "Drive folder id (required)")
	manifest.Flags().String("out", "manifest.csv", "Manifest CSV path")
	manifest.Flags().String("stubs", "", "Also write a stub catalog with one record per file to this path")
	manifest.MarkFlagRequired("folder")

	assign := &cobra.Command{
		Use:   "assign-ids [catalog]",
		Short: "Give unassigned records the id of their best matching Drive file",
		Args:  cobra.MaximumNArgs(1),
		Run:   runDriveAssign,
	}
	assign.Flags().String("folder", "", "Drive folder id (required)")
	assign.Flags().Int("min-score", 0, "Minimum match score (default from config)")
	assign.MarkFlagRequired("folder")
	addWriteFlags(assign)

	driveCmd.AddCommand(login, manifest, assign)
	RootCmd.AddCommand(driveCmd)
}

func driveCredentials() *drive.Credentials {
	return &drive.Credentials{
		CredentialsPath: cfg.Drive.Credentials,
		TokenPath:       cfg.Drive.Token,
	}
}

// listFolder lists a Drive folder with stored credentials, persisting any
// refreshed token afterwards. Non-empty exts keeps only matching documents.
func listFolder(ctx context.Context, folderID string, exts []string) []drive.File {
	creds := driveCredentials()
	ts, err := creds.Acquire(ctx)
	if err != nil {
		exitErr("drive credentials", err)
	}
	defer func() {
		if err := creds.Release(); err != nil {
			logger.Warn("save drive token", zap.Error(err))
		}
	}()

	svc, err := drive.NewService(ctx, cfg.Drive.RequestsPerSecond, option.WithTokenSource(ts))
	if err != nil {
		exitErr("drive service", err)
	}
	var files []drive.File
	if len(exts) > 0 {
		files, err = drive.Documents(ctx, svc, folderID, exts)
	} else {
		files, err = svc.ListFolder(ctx, folderID)
	}
	if err != nil {
		exitErr("list folder", err)
	}
	logger.Info("listed drive folder", zap.String("folder", folderID), zap.Int("files", len(files)))
	return files
}

func runDriveLogin(cmd *cobra.Command, args []string) {
	creds := driveCredentials()
	if err := creds.Login(cmd.Context(), os.Stdin, os.Stderr); err != nil {
		exitErr("drive login", err)
	}
	logger.Info("drive token stored", zap.String("path", creds.TokenPath))
}

func runDriveManifest(cmd *cobra.Command, args []string) {
	folder, _ := cmd.Flags().GetString("folder")
	out, _ := cmd.Flags().GetString("out")
	stubs, _ := cmd.Flags().GetString("stubs")

	files := listFolder(cmd.Context(), folder, nil)

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			exitErr("create manifest dir", err)
		}
	}
	f, err := os.Create(out)
	if err != nil {
		exitErr("create manifest", err)
	}
	if err := drive.WriteManifest(f, files); err != nil {
		f.Close()
		exitErr("write manifest", err)
	}
	if err := f.Close(); err != nil {
		exitErr("write manifest", err)
	}

	result := map[string]any{"files": len(files), "manifest": out}
	if stubs != "" {
		w := lockTarget(stubs, true, false)
		records := drive.StubRecords(files, cfg.Ingest.DefaultYear, cfg.Ingest.Venue)
		if err := catalog.CheckIdentifiers(records); err != nil {
			w.release()
			exitErr("stub catalog", err)
		}
		if b := w.save(records); b != "" {
			result["backup"] = b
		}
		w.release()
		result["stubs"] = stubs
		result["records"] = len(records)
	}

	if !textOutput() {
		printJSON(result)
		return
	}
	fmt.Fprintf(stdout, "%d files, wrote %s\n", len(files), out)
	if stubs != "" {
		fmt.Fprintf(stdout, "wrote %s\n", stubs)
	}
}

func runDriveAssign(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	catalogPath := catalogArg(args)
	folder, _ := cmd.Flags().GetString("folder")

	w := openTarget(cmd, catalogPath)
	defer w.release()
	records := loadCatalog(catalogPath)

	files := listFolder(ctx, folder, cfg.Match.Extensions)
	if len(files) == 0 {
		exitErr("assign-ids", errors.New("folder has no matching documents"))
	}

	minScore := cfg.Match.MinScore
	if v, _ := cmd.Flags().GetInt("min-score"); v > 0 {
		minScore = v
	}
	e := &pipeline.Enricher{
		Candidates: drive.Candidates(files),
		Matcher:    match.New(minScore, cfg.Match.Extensions),
		Logger:     logger,
	}

	run := startLedger(ctx, "drive assign-ids", w.path)
	rep := e.AssignIdentifiers(records, drive.CandidateID)

	s := summary{
		Command:  "drive assign-ids",
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
