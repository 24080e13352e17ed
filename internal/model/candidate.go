package model

import (
	"path/filepath"
	"time"
)

// Candidate is a document file that may correspond to a record.
type Candidate struct {
	Name    string    // display name including extension
	Path    string    // full path or remote URI
	ModTime time.Time // last modification
	Created time.Time // creation (birth) time; zero when the platform does not expose it
}

// HasCreated reports whether a creation timestamp is known.
func (c Candidate) HasCreated() bool {
	return !c.Created.IsZero()
}

// Stem returns the display name without its extension.
func (c Candidate) Stem() string {
	return c.Name[:len(c.Name)-len(filepath.Ext(c.Name))]
}
