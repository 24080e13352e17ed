package config

const (
	defaultCatalog = "papers.json"
	defaultLedger  = "~/.local/share/ideas-catalog/ledger.db"
	defaultCreds   = "~/.config/ideas-catalog/credentials.json"
	defaultToken   = "~/.config/ideas-catalog/token.json"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Paths: Paths{
			Catalog: defaultCatalog,
			Ledger:  defaultLedger,
		},
		Match: Match{
			MinScore:   10,
			Extensions: []string{".pdf"},
			Scope:      ScopeUnassigned,
		},
		Dates: Dates{
			Order: []string{"name", "birth", "mtime"},
		},
		Text: Text{
			MaxChars: 80000,
			Prefer:   "native",
		},
		Ingest: Ingest{
			Delimiter:   "auto",
			DefaultYear: 2025,
			Venue:       "Working Draft",
		},
		Drive: Drive{
			Credentials:       defaultCreds,
			Token:             defaultToken,
			RequestsPerSecond: 8,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Match scopes.
const (
	ScopeUnassigned = "unassigned"
	ScopeAll        = "all"
)
