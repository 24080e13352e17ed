package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordRejectsEmptyTitle(t *testing.T) {
	_, err := NewRecord("   ", 2025)
	require.ErrorIs(t, err, ErrEmptyTitle)

	r, err := NewRecord("  Quantum Notes ", 2025)
	require.NoError(t, err)
	assert.Equal(t, "Quantum Notes", r.Title)
	assert.Equal(t, 2025, r.Year)
	assert.False(t, r.HasIdentifier())
}

func TestMarshalOmitsUnsetFields(t *testing.T) {
	r := Record{Title: "A", Year: 2024}
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"A","identifier":"","year":2024}`, string(b))
}

func TestMarshalFieldOrderAndExtras(t *testing.T) {
	locked := true
	prio := 3
	pages := 12
	r := Record{
		Title: "A <b>", Identifier: "abc", Date: "2024-01-02", Year: 2024,
		Locked: &locked, Priority: &prio, Evaluation: "good", PageCount: &pages,
		ExtractedText: "x & y",
		Extra: map[string]json.RawMessage{
			"venue": json.RawMessage(`"Working Draft"`),
			"tags":  json.RawMessage(`["a","b"]`),
		},
	}
	b, err := r.MarshalJSON()
	require.NoError(t, err)
	want := `{"title":"A <b>","identifier":"abc","date":"2024-01-02","year":2024,"locked":true,` +
		`"priority":3,"evaluation":"good","pageCount":12,"extractedText":"x & y",` +
		`"tags":["a","b"],"venue":"Working Draft"}`
	assert.Equal(t, want, string(b))
}

func TestUnmarshalLegacyKeys(t *testing.T) {
	in := `{"Name":"Old","driveId":"id-1","wait":5,"eval":"meh","full":"text","pages":3,"year":2023,"venue":"V"}`
	var r Record
	require.NoError(t, json.Unmarshal([]byte(in), &r))

	assert.Equal(t, "Old", r.Title)
	assert.Equal(t, "id-1", r.Identifier)
	require.NotNil(t, r.Priority)
	assert.Equal(t, 5, *r.Priority)
	assert.Equal(t, "meh", r.Evaluation)
	assert.Equal(t, "text", r.ExtractedText)
	require.NotNil(t, r.PageCount)
	assert.Equal(t, 3, *r.PageCount)
	assert.Equal(t, map[string]json.RawMessage{"venue": json.RawMessage(`"V"`)}, r.Extra)
}

func TestUnmarshalCanonicalWinsOverLegacy(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"title":"New","Name":"Old","year":1}`), &r))
	assert.Equal(t, "New", r.Title)
}

func TestUnmarshalOutOfRangePriorityIsAbsent(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"title":"A","year":1,"priority":9,"pageCount":-2}`), &r))
	assert.Nil(t, r.Priority)
	assert.Nil(t, r.PageCount)
}

func TestRoundTripPreservesValues(t *testing.T) {
	in := `{"title":"T","identifier":"","date":"2024-05-01","year":2024,"locked":false,` +
		`"abstract":"","doi":"10.1/x","tags":[],"n":1.50}`
	var r Record
	require.NoError(t, json.Unmarshal([]byte(in), &r))
	out, err := json.Marshal(r)
	require.NoError(t, err)

	var a, b map[string]any
	require.NoError(t, json.Unmarshal([]byte(in), &a))
	require.NoError(t, json.Unmarshal(out, &b))
	assert.Equal(t, a, b)
	assert.Contains(t, string(out), `"n":1.50`)
}

func TestCloneIsDeep(t *testing.T) {
	p := 2
	r := &Record{Title: "A", Priority: &p, Extra: map[string]json.RawMessage{"k": json.RawMessage(`1`)}}
	cp := r.Clone()
	*cp.Priority = 4
	cp.Extra["k"] = json.RawMessage(`2`)
	assert.Equal(t, 2, *r.Priority)
	assert.Equal(t, json.RawMessage(`1`), r.Extra["k"])
}

func TestCandidateStem(t *testing.T) {
	c := Candidate{Name: "paper_2023-05-01_v2.pdf"}
	assert.Equal(t, "paper_2023-05-01_v2", c.Stem())
	assert.False(t, c.HasCreated())
}
