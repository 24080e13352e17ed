package sheet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "driveviewurl", NormalizeHeader(" Drive View-URL "))
	assert.Equal(t, "aieval", NormalizeHeader("AI_Eval"))
}

func TestSchemaBuckets(t *testing.T) {
	s := NewSchema([]string{"Text", "File ID", "Drive View URL", "Added Date", "Private", "W", "AI Eval", "Extra"})
	assert.Equal(t, 0, s.Column(FieldTitle))
	assert.Equal(t, 1, s.Column(FieldIdentifier))
	assert.Equal(t, 2, s.Column(FieldLink))
	assert.Equal(t, 3, s.Column(FieldDate))
	assert.Equal(t, 4, s.Column(FieldLocked))
	assert.Equal(t, 5, s.Column(FieldPriority))
	assert.Equal(t, 6, s.Column(FieldEvaluation))
}

func TestSchemaLeftmostColumnWins(t *testing.T) {
	s := NewSchema([]string{"Name", "Title"})
	assert.Equal(t, 0, s.Column(FieldTitle))
	assert.False(t, s.Has(FieldDate))
	assert.Equal(t, -1, s.Column(FieldDate))
	assert.Equal(t, "", s.Get([]string{"a"}, FieldDate))
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, '\t', DetectDelimiter("a\tb\tc"))
	assert.Equal(t, ';', DetectDelimiter("a;b;c,d"))
	assert.Equal(t, '\t', DetectDelimiter("a\tb,c"))
	assert.Equal(t, ',', DetectDelimiter("single"))
}

func TestParseDelimiter(t *testing.T) {
	r, err := ParseDelimiter("Pipe")
	require.NoError(t, err)
	assert.Equal(t, '|', r)
	r, err = ParseDelimiter("")
	require.NoError(t, err)
	assert.Equal(t, rune(0), r)
	_, err = ParseDelimiter("colon")
	assert.Error(t, err)
}

func TestReadStripsBOMAndDetectsTabs(t *testing.T) {
	in := "\ufeffTitle\tDriveID\tLocked\nQuantum Notes.pdf\tabc123\t1\n\nShort row\n"
	tab, err := Read(strings.NewReader(in), DelimAuto)
	require.NoError(t, err)
	assert.Equal(t, []string{"Title", "DriveID", "Locked"}, tab.Schema.Headers)
	require.Len(t, tab.Rows, 2)

	assert.Equal(t, 2, tab.Rows[0].Line)
	assert.Equal(t, "Quantum Notes.pdf", tab.Get(tab.Rows[0], FieldTitle))
	assert.Equal(t, "abc123", tab.Get(tab.Rows[0], FieldIdentifier))
	assert.Equal(t, 4, tab.Rows[1].Line)
	assert.Equal(t, "", tab.Get(tab.Rows[1], FieldLocked))
}

func TestReadQuotedComma(t *testing.T) {
	in := "title,notes\n\"A, B\",\"said \"\"hi\"\"\"\n"
	tab, err := Read(strings.NewReader(in), DelimComma)
	require.NoError(t, err)
	require.Len(t, tab.Rows, 1)
	assert.Equal(t, "A, B", tab.Get(tab.Rows[0], FieldTitle))
	assert.Equal(t, `said "hi"`, tab.Get(tab.Rows[0], FieldEvaluation))
}

func TestReadEmpty(t *testing.T) {
	tab, err := Read(strings.NewReader(""), DelimAuto)
	require.NoError(t, err)
	assert.Empty(t, tab.Rows)
	assert.False(t, tab.Schema.Has(FieldTitle))
}
