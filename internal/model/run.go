package model

import "time"

// Run is one ledger entry for a catalog-mutating command.
type Run struct {
	ID         string     `json:"id"`
	Command    string     `json:"command"`
	Catalog    string     `json:"catalog,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Visited    int        `json:"visited"`
	Updated    int        `json:"updated"`
	Skipped    int        `json:"skipped"`
}

// EventUpdated is the event kind for a record that was changed. Skips use
// their SkipKind.
const EventUpdated = "updated"

// Event is one ledger line: an updated record or a skip.
type Event struct {
	RunID      string   `json:"run_id"`
	Seq        int      `json:"seq"`
	Kind       string   `json:"kind"`
	Title      string   `json:"title,omitempty"`
	Identifier string   `json:"identifier,omitempty"`
	File       string   `json:"file,omitempty"`
	Score      int      `json:"score,omitempty"`
	Line       int      `json:"line,omitempty"`
	Detail     string   `json:"detail,omitempty"`
	Fields     []string `json:"fields,omitempty"`
}

// Events flattens outcomes and skips into ledger events, outcomes first.
func Events(outcomes []Outcome, skips []Skip) []Event {
	out := make([]Event, 0, len(outcomes)+len(skips))
	for _, o := range outcomes {
		out = append(out, Event{Kind: EventUpdated, Title: o.Title, File: o.File, Score: o.Score, Fields: o.Changed})
	}
	for _, s := range skips {
		out = append(out, Event{
			Kind:       string(s.Kind),
			Title:      s.Title,
			Identifier: s.Identifier,
			File:       s.File,
			Score:      s.Score,
			Line:       s.Line,
			Detail:     s.Detail,
		})
	}
	return out
}

// IsSkip reports whether the event records a skip.
func (e Event) IsSkip() bool {
	return e.Kind != EventUpdated
}
