// Package config loads ideas-catalog settings from TOML, .env and the
// environment.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths holds file locations.
type Paths struct {
	Catalog string `toml:"catalog"`
	PDFRoot string `toml:"pdf_root"`
	Ledger  string `toml:"ledger"`
}

// Match holds fuzzy matching settings.
type Match struct {
	MinScore   int      `toml:"min_score" validate:"gte=1,lte=100"`
	Extensions []string `toml:"extensions" validate:"min=1,dive,startswith=."`
	Scope      string   `toml:"scope" validate:"oneof=unassigned all"`
}

// Dates holds the date source order.
type Dates struct {
	Order []string `toml:"order" validate:"min=1,dive,oneof=name birth mtime"`
}

// Text holds page and text extraction settings.
type Text struct {
	MaxChars int    `toml:"max_chars" validate:"gte=0"`
	Prefer   string `toml:"prefer" validate:"oneof=native pdftotext"`
}

// Ingest holds spreadsheet ingestion settings.
type Ingest struct {
	Delimiter   string `toml:"delimiter" validate:"oneof=auto tab comma semicolon pipe"`
	DefaultYear int    `toml:"default_year" validate:"gte=1000,lte=9999"`
	Venue       string `toml:"venue"`
}

// Drive holds Google Drive access settings.
type Drive struct {
	Credentials       string  `toml:"credentials"`
	Token             string  `toml:"token"`
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gt=0"`
}

// Logging holds log output settings.
type Logging struct {
	Level  string `toml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" validate:"oneof=console json"`
}

// Config is the full configuration.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Match   Match   `toml:"match"`
	Dates   Dates   `toml:"dates"`
	Text    Text    `toml:"text"`
	Ingest  Ingest  `toml:"ingest"`
	Drive   Drive   `toml:"drive"`
	Logging Logging `toml:"logging"`
}

const (
	projectFile = "ideas-catalog.toml"
	userFile    = "~/.config/ideas-catalog/config.toml"
)

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(userFile)
}

// Load locates, parses, and validates a configuration file. The returned path
// is the file that was read (or would be read) and the boolean reports whether
// it existed. Values from .env and IDEAS_CATALOG_* variables override the file.
func Load(path string) (*Config, string, bool, error) {
	_ = godotenv.Load()
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		dec := toml.NewDecoder(file)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, "", false, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs(projectFile)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	userPath, err := expandPath(userFile)
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(userPath); err == nil && !info.IsDir() {
		return userPath, true, nil
	}
	return userPath, false, nil
}

// CreateSample writes the commented sample configuration to path. An existing
// file is left alone unless force is set.
func CreateSample(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Marshal renders the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath applies the configuration's path expansion rules.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
