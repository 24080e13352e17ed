// Package sheet reads delimited spreadsheet exports and maps their headers
// onto catalog fields.
package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Delimiter names accepted by ParseDelimiter.
const (
	DelimAuto      = "auto"
	DelimTab       = "tab"
	DelimComma     = "comma"
	DelimSemicolon = "semicolon"
	DelimPipe      = "pipe"
)

var delimiters = map[string]rune{
	DelimTab:       '\t',
	DelimComma:     ',',
	DelimSemicolon: ';',
	DelimPipe:      '|',
}

// detectOrder breaks ties between equally frequent delimiters.
var detectOrder = []rune{'\t', ',', ';', '|'}

// ParseDelimiter maps a delimiter name to its rune. Auto returns 0.
func ParseDelimiter(name string) (rune, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == DelimAuto {
		return 0, nil
	}
	if r, ok := delimiters[name]; ok {
		return r, nil
	}
	return 0, fmt.Errorf("unknown delimiter %q (want auto, tab, comma, semicolon or pipe)", name)
}

// DetectDelimiter picks the most frequent candidate delimiter in line,
// defaulting to comma.
func DetectDelimiter(line string) rune {
	best, bestCount := ',', 0
	for _, d := range detectOrder {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// Row is one data row with its 1-based line number in the source file.
type Row struct {
	Line  int
	Cells []string
}

// Table is a parsed export.
type Table struct {
	Schema *Schema
	Rows   []Row
}

// Get returns the trimmed cell for f in row.
func (t *Table) Get(row Row, f Field) string {
	return t.Schema.Get(row.Cells, f)
}

// ReadFile parses the export at path.
func ReadFile(path, delim string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, delim)
}

// Read parses a delimited export. A leading byte order mark is removed. An
// empty input yields a table with no columns and no rows.
func Read(r io.Reader, delim string) (*Table, error) {
	comma, err := ParseDelimiter(delim)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(encoding.Nop.NewDecoder())))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if comma == 0 {
		first, _ := bufio.NewReader(bytes.NewReader(data)).ReadString('\n')
		comma = DetectDelimiter(first)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Table{Schema: NewSchema(nil)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	t := &Table{Schema: NewSchema(header)}
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)
		t.Rows = append(t.Rows, Row{Line: line, Cells: cells})
	}
	return t, nil
}
