package sheet

import "strings"

// Field is a catalog attribute a column can carry.
type Field string

const (
	FieldTitle      Field = "title"
	FieldIdentifier Field = "identifier"
	FieldLink       Field = "link"
	FieldDate       Field = "date"
	FieldLocked     Field = "locked"
	FieldPriority   Field = "priority"
	FieldEvaluation Field = "evaluation"
)

// buckets lists header synonyms per field. An alias claimed by an earlier
// bucket stays with it.
var buckets = []struct {
	field   Field
	aliases []string
}{
	{FieldTitle, []string{"title", "name", "filename", "file", "text", "titlelike"}},
	{FieldIdentifier, []string{"driveid", "fileid", "id", "drivefileid"}},
	{FieldLink, []string{"driveviewurl", "drivedownloadurl", "link", "textlink", "url"}},
	{FieldDate, []string{"date", "sourcedate", "addeddate", "created", "createddate", "createdtime"}},
	{FieldLocked, []string{"locked", "private", "lock"}},
	{FieldPriority, []string{"wait", "w", "rating", "score", "priority"}},
	{FieldEvaluation, []string{"eval", "evaluation", "evaluationlike", "aieval", "description", "notes"}},
}

// aliases maps a normalized header onto its field.
var aliases = func() map[string]Field {
	m := make(map[string]Field)
	for _, b := range buckets {
		for _, a := range b.aliases {
			if _, taken := m[a]; !taken {
				m[a] = b.field
			}
		}
	}
	return m
}()

// NormalizeHeader lower-cases a header and removes spaces, hyphens and
// underscores.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(h)
}

// Schema maps fields to column positions for one header row.
type Schema struct {
	Headers []string
	columns map[Field]int
}

// NewSchema resolves header columns. When several columns map to the same
// field the leftmost wins.
func NewSchema(header []string) *Schema {
	s := &Schema{Headers: header, columns: make(map[Field]int)}
	for i, h := range header {
		f, ok := aliases[NormalizeHeader(h)]
		if !ok {
			continue
		}
		if _, seen := s.columns[f]; !seen {
			s.columns[f] = i
		}
	}
	return s
}

// Has reports whether a column maps to f.
func (s *Schema) Has(f Field) bool {
	_, ok := s.columns[f]
	return ok
}

// Column returns the index of the column for f, or -1.
func (s *Schema) Column(f Field) int {
	if i, ok := s.columns[f]; ok {
		return i
	}
	return -1
}

// Get returns the trimmed value of f in cells, or "" when the column is
// absent or the row is short.
func (s *Schema) Get(cells []string, f Field) string {
	i, ok := s.columns[f]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}
