package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "IDEAS_CATALOG_"

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.Split(v, ",")
		}
	}

	str("CATALOG", &c.Paths.Catalog)
	str("PDF_ROOT", &c.Paths.PDFRoot)
	str("LEDGER", &c.Paths.Ledger)
	str("SCOPE", &c.Match.Scope)
	list("EXTENSIONS", &c.Match.Extensions)
	list("DATE_ORDER", &c.Dates.Order)
	str("PREFER", &c.Text.Prefer)
	str("DELIMITER", &c.Ingest.Delimiter)
	str("VENUE", &c.Ingest.Venue)
	str("DRIVE_CREDENTIALS", &c.Drive.Credentials)
	str("DRIVE_TOKEN", &c.Drive.Token)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)
	if err := num("MIN_SCORE", &c.Match.MinScore); err != nil {
		return err
	}
	if err := num("MAX_CHARS", &c.Text.MaxChars); err != nil {
		return err
	}
	return num("YEAR", &c.Ingest.DefaultYear)
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.Catalog, err = expandPath(c.Paths.Catalog); err != nil {
		return fmt.Errorf("paths.catalog: %w", err)
	}
	if c.Paths.PDFRoot, err = expandPath(c.Paths.PDFRoot); err != nil {
		return fmt.Errorf("paths.pdf_root: %w", err)
	}
	if c.Paths.Ledger, err = expandPath(c.Paths.Ledger); err != nil {
		return fmt.Errorf("paths.ledger: %w", err)
	}
	if c.Drive.Credentials, err = expandPath(c.Drive.Credentials); err != nil {
		return fmt.Errorf("drive.credentials: %w", err)
	}
	if c.Drive.Token, err = expandPath(c.Drive.Token); err != nil {
		return fmt.Errorf("drive.token: %w", err)
	}

	exts := c.Match.Extensions[:0]
	for _, e := range c.Match.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	c.Match.Extensions = exts

	order := c.Dates.Order[:0]
	for _, o := range c.Dates.Order {
		if o = strings.ToLower(strings.TrimSpace(o)); o != "" {
			order = append(order, o)
		}
	}
	c.Dates.Order = order

	c.Match.Scope = strings.ToLower(strings.TrimSpace(c.Match.Scope))
	c.Text.Prefer = strings.ToLower(strings.TrimSpace(c.Text.Prefer))
	c.Ingest.Delimiter = strings.ToLower(strings.TrimSpace(c.Ingest.Delimiter))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Level == "warning" {
		c.Logging.Level = "warn"
	}
	return nil
}
