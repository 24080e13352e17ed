package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/ideas-catalog/internal/catalog"
	"github.com/rcliao/ideas-catalog/internal/model"
	"github.com/rcliao/ideas-catalog/internal/store"
)

func addWriteFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Write to this path instead of the input catalog")
	cmd.Flags().Bool("backup", false, "Copy an existing output file to a timestamped backup first")
	cmd.Flags().Bool("dry-run", false, "Report changes without writing")
}

// writeTarget is a locked output catalog.
type writeTarget struct {
	path   string
	backup bool
	dryRun bool
	lock   *catalog.Locker
}

// openTarget locks the output path (the input catalog unless --output is set)
// for the rest of the command.
func openTarget(cmd *cobra.Command, input string) *writeTarget {
	out, _ := cmd.Flags().GetString("output")
	backup, _ := cmd.Flags().GetBool("backup")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if out == "" {
		out = input
	}
	return lockTarget(out, backup, dryRun)
}

func lockTarget(path string, backup, dryRun bool) *writeTarget {
	w := &writeTarget{path: path, backup: backup, dryRun: dryRun}
	if dryRun {
		return w
	}
	lock, err := catalog.Lock(path)
	if err != nil {
		exitErr("lock "+path, err)
	}
	w.lock = lock
	return w
}

// save writes records, taking a backup first when requested. It returns the
// backup path, if any.
func (w *writeTarget) save(records []*model.Record) string {
	if w.dryRun {
		logger.Info("dry run, not writing", zap.String("path", w.path))
		return ""
	}
	var backupPath string
	if w.backup {
		b, err := catalog.Backup(w.path, time.Now())
		if err != nil {
			exitErr("backup", err)
		}
		if b != "" {
			backupPath = b
			logger.Info("backup written", zap.String("path", b))
		}
	}
	if err := catalog.Save(w.path, records); err != nil {
		exitErr("write catalog", err)
	}
	return backupPath
}

func (w *writeTarget) release() {
	if w.lock != nil {
		w.lock.Release()
	}
}

func (w *writeTarget) output() string {
	if w.dryRun {
		return ""
	}
	return w.path
}

// catalogArg returns the catalog named on the command line, or the configured
// one.
func catalogArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Paths.Catalog
}

func loadCatalog(path string) []*model.Record {
	records, err := catalog.Load(path, catalog.Options{DefaultYear: cfg.Ingest.DefaultYear})
	if err != nil {
		exitErr("load catalog", err)
	}
	return records
}

// ledgerRun records one command invocation. A nil ledgerRun is a no-op so
// commands run unchanged when the ledger is disabled or unavailable.
type ledgerRun struct {
	st  *store.SQLiteStore
	run *model.Run
}

func startLedger(ctx context.Context, command, catalogPath string) *ledgerRun {
	if noLedger {
		return nil
	}
	st, err := openStore()
	if err != nil {
		logger.Warn("ledger unavailable", zap.String("path", getLedgerPath()), zap.Error(err))
		return nil
	}
	run, err := st.StartRun(ctx, store.StartParams{Command: command, Catalog: catalogPath})
	if err != nil {
		logger.Warn("ledger unavailable", zap.Error(err))
		st.Close()
		return nil
	}
	logger.Debug("run started", zap.String("run", run.ID), zap.String("command", command))
	return &ledgerRun{st: st, run: run}
}

// finish records the summary's events and totals and stamps its run id.
func (l *ledgerRun) finish(ctx context.Context, s *summary) {
	if l == nil {
		return
	}
	defer l.st.Close()

	if err := l.st.RecordEvents(ctx, l.run.ID, model.Events(s.Outcomes, s.Skips)); err != nil {
		logger.Warn("ledger write failed", zap.Error(err))
	}
	err := l.st.FinishRun(ctx, store.FinishParams{
		ID:      l.run.ID,
		Visited: s.Visited,
		Updated: s.Updated,
		Skipped: s.Skipped,
	})
	if err != nil {
		logger.Warn("ledger write failed", zap.Error(err))
		return
	}
	s.RunID = l.run.ID
}
