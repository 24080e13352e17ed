package model

// SkipKind classifies a soft failure that left a record or row untouched.
type SkipKind string

// Skip kinds.
const (
	SkipUnresolved    SkipKind = "unresolved"         // no candidate scored at or above the threshold
	SkipNoDate        SkipKind = "no_date"            // matched file yielded no date from any source
	SkipMalformedRow  SkipKind = "malformed_row"      // tabular row lacks a required key column value
	SkipUnknownID     SkipKind = "unknown_identifier" // identifier not present in the catalog
	SkipIdentifierUse SkipKind = "identifier_in_use"  // remote identifier already assigned elsewhere
)

// Skip describes one soft failure, reported one per line for operators.
type Skip struct {
	Kind       SkipKind `json:"kind"`
	Title      string   `json:"title,omitempty"`
	Identifier string   `json:"identifier,omitempty"`
	File       string   `json:"file,omitempty"`
	Score      int      `json:"score,omitempty"`
	Line       int      `json:"line,omitempty"`
	Detail     string   `json:"detail,omitempty"`
}

// Outcome describes a record that was matched and possibly changed.
type Outcome struct {
	Title   string   `json:"title"`
	File    string   `json:"file,omitempty"`
	Score   int      `json:"score,omitempty"`
	Changed []string `json:"changed,omitempty"`
}
