// Package ingest turns spreadsheet rows into catalog records and keyed flag
// rows.
package ingest

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rcliao/ideas-catalog/internal/drive"
	"github.com/rcliao/ideas-catalog/internal/merge"
	"github.com/rcliao/ideas-catalog/internal/model"
	"github.com/rcliao/ideas-catalog/internal/sheet"
)

// DefaultVenue is stored on ingested records when none is configured.
const DefaultVenue = "Working Draft"

// ErrNoKeyColumn is returned when a keyed merge input has neither an
// identifier nor a link column.
var ErrNoKeyColumn = errors.New("CSV must contain an identifier column (File ID, DriveID) or a Drive link column")

// Options controls record construction.
type Options struct {
	DefaultYear int
	Venue       string
}

// Result is the outcome of ingesting a table.
type Result struct {
	Records []*model.Record
	Skips   []model.Skip
	// Folded counts rows merged into an earlier record with the same identifier.
	Folded int
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "01/02/2006", "01/02/06", "2006.01.02"}

var leadingISODate = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

// ParseDate reads the date formats seen in spreadsheet exports.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	if m := leadingISODate.FindStringSubmatch(s); m != nil {
		if t, err := time.ParseInLocation("2006-01-02", m[1], time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CleanTitle trims a title cell and drops a trailing .pdf extension.
func CleanTitle(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(strings.ToLower(s), ".pdf") {
		s = strings.TrimSpace(s[:len(s)-len(".pdf")])
	}
	return s
}

// Identifier returns the row's identifier, falling back to a Drive link.
func Identifier(t *sheet.Table, row sheet.Row) string {
	if id := t.Get(row, sheet.FieldIdentifier); id != "" {
		return id
	}
	return drive.IDFromURL(t.Get(row, sheet.FieldLink))
}

func flagValues(t *sheet.Table, row sheet.Row) merge.Values {
	return merge.Values{
		Locked:     t.Get(row, sheet.FieldLocked),
		Priority:   t.Get(row, sheet.FieldPriority),
		Evaluation: t.Get(row, sheet.FieldEvaluation),
	}
}

// Records builds one record per row. Rows without a title are skipped; rows
// repeating an identifier are folded into the first record carrying it.
func Records(t *sheet.Table, opts Options) Result {
	var res Result
	byID := make(map[string]*model.Record)

	for _, row := range t.Rows {
		title := CleanTitle(t.Get(row, sheet.FieldTitle))
		id := Identifier(t, row)
		if title == "" {
			res.Skips = append(res.Skips, model.Skip{
				Kind:       model.SkipMalformedRow,
				Identifier: id,
				Line:       row.Line,
				Detail:     "row has no title",
			})
			continue
		}

		v := flagValues(t, row)
		if d, ok := ParseDate(t.Get(row, sheet.FieldDate)); ok {
			v.Date = &d
		}

		if prev, ok := byID[id]; ok && id != "" {
			merge.Apply(prev, v)
			res.Folded++
			continue
		}

		rec, err := model.NewRecord(title, opts.DefaultYear)
		if err != nil {
			continue
		}
		rec.Identifier = id
		rec.Extra = map[string]json.RawMessage{
			"tags":     json.RawMessage(`[]`),
			"abstract": json.RawMessage(`""`),
		}
		if opts.Venue != "" {
			b, _ := json.Marshal(opts.Venue)
			rec.Extra["venue"] = b
		}
		merge.Apply(rec, v)

		if id != "" {
			byID[id] = rec
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// KeyedRows extracts identifier-keyed flag rows for a merge. Rows without an
// identifier are reported as malformed.
func KeyedRows(t *sheet.Table) ([]merge.KeyedRow, []model.Skip, error) {
	if !t.Schema.Has(sheet.FieldIdentifier) && !t.Schema.Has(sheet.FieldLink) {
		return nil, nil, ErrNoKeyColumn
	}

	var rows []merge.KeyedRow
	var skips []model.Skip
	for _, row := range t.Rows {
		title := CleanTitle(t.Get(row, sheet.FieldTitle))
		id := Identifier(t, row)
		if id == "" {
			skips = append(skips, model.Skip{
				Kind:   model.SkipMalformedRow,
				Title:  title,
				Line:   row.Line,
				Detail: "row has no identifier",
			})
			continue
		}
		rows = append(rows, merge.KeyedRow{
			Line:       row.Line,
			Identifier: id,
			Title:      title,
			Values:     flagValues(t, row),
		})
	}
	return rows, skips, nil
}
