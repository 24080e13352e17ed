package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/ideas-catalog/internal/model"
)

func cands(names ...string) []model.Candidate {
	out := make([]model.Candidate, len(names))
	for i, n := range names {
		out[i] = model.Candidate{Name: n, Path: "/lib/" + n}
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Quantum Notes ", "quantum_notes"},
		{"A/B: C?", "ab_c"},
		{"Report-2023.v2.PDF", "report-2023.v2.pdf"},
		{"Ünïcode  spaces", "ncode__spaces"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got))
		})
	}
}

func TestScoreExact(t *testing.T) {
	m := New(0, nil)
	assert.Equal(t, ExactScore, m.Score("Quantum Notes.pdf", "quantum_notes.pdf"))
}

func TestScoreDirectional(t *testing.T) {
	m := New(0, nil)
	// title contained in file name: 40 + 3 (notes)
	assert.Equal(t, 43, m.Score("Notes", "Quantum_Notes.pdf"))
	// file name contained in title: 30 + 6 (two tokens) + 5 (prefix)
	assert.Equal(t, 41, m.Score("Quantum Notes Extended", "Quantum_Notes.pdf"))
}

func TestScoreShortTitleSkipsPrefix(t *testing.T) {
	m := New(0, nil)
	assert.Equal(t, 40, m.Score("ab", "abc_other.pdf"))
}

func TestBestPicksVersionedFile(t *testing.T) {
	m := New(0, nil)
	got, ok := m.Best("Quantum_Notes", cands("Unrelated.pdf", "Quantum_Notes_v2.pdf"))
	require.True(t, ok)
	assert.Equal(t, "Quantum_Notes_v2.pdf", got.Candidate.Name)
	assert.Equal(t, 51, got.Score)
}

func TestBestExactWins(t *testing.T) {
	m := New(0, nil)
	got, ok := m.Best("Quantum Notes", cands("Quantum_Notes_v2.pdf", "quantum_notes", "Quantum_Notes.pdf"))
	require.True(t, ok)
	assert.Equal(t, ExactScore, got.Score)
	assert.Equal(t, "quantum_notes", got.Candidate.Name)
}

func TestBestTieKeepsFirst(t *testing.T) {
	m := New(0, nil)
	got, ok := m.Best("Notes", cands("a_notes.pdf", "b_notes.pdf"))
	require.True(t, ok)
	assert.Equal(t, "a_notes.pdf", got.Candidate.Name)
}

func TestBestBelowThreshold(t *testing.T) {
	m := New(0, nil)
	got, ok := m.Best("Quantum Notes", cands("Unrelated.pdf"))
	assert.False(t, ok)
	assert.Equal(t, 0, got.Score)
}

func TestBestEmptySet(t *testing.T) {
	m := New(0, nil)
	got, ok := m.Best("Anything", nil)
	assert.False(t, ok)
	assert.Equal(t, Match{}, got)
}

func TestCustomExtension(t *testing.T) {
	m := New(0, []string{".DJVU"})
	assert.Equal(t, []string{".djvu"}, m.Extensions)
	got, ok := m.Best("Field Guide", cands("field_guide.djvu"))
	require.True(t, ok)
	assert.Greater(t, got.Score, 40)
}

func TestRank(t *testing.T) {
	m := New(0, nil)
	got := m.Rank("Quantum Notes", cands("Unrelated.pdf", "quantum.pdf", "Quantum_Notes_v2.pdf"), 2)
	require.Len(t, got, 2)
	assert.Equal(t, "Quantum_Notes_v2.pdf", got[0].Candidate.Name)
	assert.Equal(t, "quantum.pdf", got[1].Candidate.Name)
}
