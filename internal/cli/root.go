// Package cli implements the ideas-catalog CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/ideas-catalog/internal/config"
	"github.com/rcliao/ideas-catalog/internal/logging"
	"github.com/rcliao/ideas-catalog/internal/store"
)

var (
	configFlag string
	ledgerFlag string
	noLedger   bool
	formatFlag string
	logLevel   string
	verbose    bool

	cfg        *config.Config
	configPath string
	logger     = zap.NewNop()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "ideas-catalog",
	Short: "Maintain a JSON catalog of PDF documents",
	Long: "Keeps a JSON catalog of papers in sync with a folder of PDFs: fills dates, " +
		"page counts and text from matched files, and merges operator flags from spreadsheets.",
	PersistentPreRun: setup,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Config file (default: ./ideas-catalog.toml or ~/.config/ideas-catalog/config.toml)")
	RootCmd.PersistentFlags().StringVar(&ledgerFlag, "ledger", "", "Run ledger database (default from config)")
	RootCmd.PersistentFlags().BoolVar(&noLedger, "no-ledger", false, "Do not record this run in the ledger")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "auto", "Output format: auto, json or text")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Shorthand for --log-level debug")
}

func setup(cmd *cobra.Command, args []string) {
	c, path, _, err := config.Load(configFlag)
	if err != nil {
		exitErr("load config", err)
	}
	cfg = c
	configPath = path

	if ledgerFlag != "" {
		p, err := config.ExpandPath(ledgerFlag)
		if err != nil {
			exitErr("ledger path", err)
		}
		cfg.Paths.Ledger = p
	}

	switch formatFlag {
	case "auto", "json", "text":
	default:
		exitErr("format", fmt.Errorf("unsupported value %q (use auto, json or text)", formatFlag))
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	if verbose {
		level = "debug"
	}
	l, err := logging.New(logging.Options{Level: level, Format: cfg.Logging.Format})
	if err != nil {
		exitErr("logger", err)
	}
	logger = l
}

func getLedgerPath() string {
	if cfg == nil {
		p, _ := config.ExpandPath(config.Default().Paths.Ledger)
		return p
	}
	return cfg.Paths.Ledger
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getLedgerPath())
}

func exitErr(msg string, err error) {
	logger.Sync()
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
