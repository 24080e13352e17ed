package merge

import (
	"strings"

	"github.com/rcliao/ideas-catalog/internal/model"
)

// KeyedRow is one operator row joined to the catalog by identifier.
type KeyedRow struct {
	Line       int
	Identifier string
	Title      string
	Values     Values
}

// Report summarizes an identifier-keyed merge.
type Report struct {
	Updated  int
	Outcomes []model.Outcome
	Skips    []model.Skip
}

// ByIdentifier merges rows into records sharing their identifier. Rows with no
// identifier or an identifier absent from records are reported as skips.
// Updated counts distinct records that changed.
func ByIdentifier(records []*model.Record, rows []KeyedRow) Report {
	byID := make(map[string]*model.Record, len(records))
	for _, r := range records {
		if r.HasIdentifier() {
			if _, dup := byID[r.Identifier]; !dup {
				byID[r.Identifier] = r
			}
		}
	}

	var rep Report
	touched := make(map[*model.Record]bool)
	for _, row := range rows {
		id := strings.TrimSpace(row.Identifier)
		if id == "" {
			rep.Skips = append(rep.Skips, model.Skip{
				Kind:   model.SkipMalformedRow,
				Title:  row.Title,
				Line:   row.Line,
				Detail: "row has no identifier",
			})
			continue
		}
		rec, ok := byID[id]
		if !ok {
			rep.Skips = append(rep.Skips, model.Skip{
				Kind:       model.SkipUnknownID,
				Title:      row.Title,
				Identifier: id,
				Line:       row.Line,
				Detail:     "identifier not in catalog",
			})
			continue
		}
		changed := Apply(rec, row.Values)
		if len(changed) == 0 {
			continue
		}
		rep.Outcomes = append(rep.Outcomes, model.Outcome{Title: rec.Title, Changed: changed})
		if !touched[rec] {
			touched[rec] = true
			rep.Updated++
		}
	}
	return rep
}
