package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rcliao/ideas-catalog/internal/drive"
	"github.com/rcliao/ideas-catalog/internal/match"
	"github.com/rcliao/ideas-catalog/internal/model"
	"github.com/rcliao/ideas-catalog/internal/resolve"
)

type noStat struct{}

func (noStat) Run(context.Context, string, ...string) ([]byte, error) {
	return nil, errors.New("stat unavailable")
}

type fixedPages struct{}

func (fixedPages) Name() string                      { return "fixed" }
func (fixedPages) Capabilities() resolve.Capability { return resolve.CapText | resolve.CapPages }
func (fixedPages) Resolve(context.Context, resolve.Request) (resolve.Extraction, error) {
	n := 7
	text := "some  text"
	return resolve.Extraction{Pages: &n, Text: &text}, nil
}

func newEnricher(t *testing.T, cands []model.Candidate, scope Scope) (*Enricher, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	dates, err := resolve.NewDateChain([]string{"name", "birth", "mtime"}, noStat{})
	require.NoError(t, err)
	text, err := resolve.NewTextResolverFrom(
		resolve.NewRegistry[resolve.Request, resolve.Extraction](fixedPages{}), []string{"fixed"}, 100)
	require.NoError(t, err)
	return &Enricher{
		Candidates: cands,
		Matcher:    match.New(0, nil),
		Dates:      dates,
		Text:       text,
		Scope:      scope,
		Logger:     zap.New(core),
	}, logs
}

var libraryFiles = []model.Candidate{
	{Name: "Unrelated.pdf", Path: "/lib/Unrelated.pdf", ModTime: time.Date(2020, 1, 1, 0, 0, 0, 0, time.Local)},
	{Name: "Quantum_Notes_v2.pdf", Path: "/lib/Quantum_Notes_v2.pdf", ModTime: time.Date(2021, 2, 3, 0, 0, 0, 0, time.Local)},
	{Name: "paper_2023-05-01_v2.pdf", Path: "/lib/paper_2023-05-01_v2.pdf", ModTime: time.Date(2021, 2, 3, 0, 0, 0, 0, time.Local)},
}

func TestRunDatesAndText(t *testing.T) {
	e, logs := newEnricher(t, libraryFiles, ScopeUnassigned)
	records := []*model.Record{
		{Title: "Quantum_Notes", Year: 2025},
		{Title: "paper", Year: 2025},
		{Title: "Assigned Paper", Identifier: "id-1", Year: 2025},
		{Title: "Zebra Migration", Year: 2025},
	}

	rep, err := e.Run(context.Background(), records, Tasks{Dates: true, Text: true})
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Visited)
	assert.Equal(t, 2, rep.Matched)
	assert.Equal(t, 2, rep.Updated)

	q := records[0]
	assert.Equal(t, "2021-02-03", q.Date)
	assert.Equal(t, 2021, q.Year)
	require.NotNil(t, q.PageCount)
	assert.Equal(t, 7, *q.PageCount)
	assert.Equal(t, "some text", q.ExtractedText)

	assert.Equal(t, "2023-05-01", records[1].Date)
	assert.Empty(t, records[2].Date)

	require.Len(t, rep.Skips, 1)
	assert.Equal(t, model.SkipUnresolved, rep.Skips[0].Kind)
	assert.Equal(t, "Zebra Migration", rep.Skips[0].Title)

	assert.Equal(t, 2, logs.FilterMessage("updated").Len())
	skips := logs.FilterMessage("skip").All()
	require.Len(t, skips, 1)
	assert.Equal(t, "Zebra Migration", skips[0].ContextMap()["title"])
	assert.NotZero(t, logs.FilterMessage("source miss").Len())

	again, err := e.Run(context.Background(), records, Tasks{Dates: true, Text: true})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Updated)
}

func TestRunScopeAll(t *testing.T) {
	e, _ := newEnricher(t, libraryFiles, ScopeAll)
	records := []*model.Record{{Title: "Quantum Notes", Identifier: "id-1", Year: 2025}}
	rep, err := e.Run(context.Background(), records, Tasks{Dates: true})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Updated)
	assert.Nil(t, records[0].PageCount)
}

func TestRunEmptyCandidateSet(t *testing.T) {
	e, logs := newEnricher(t, nil, ScopeUnassigned)
	records := []*model.Record{{Title: "Anything", Year: 2025}}
	rep, err := e.Run(context.Background(), records, Tasks{Dates: true})
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Updated)
	require.Len(t, rep.Skips, 1)
	assert.Equal(t, "no candidate files", rep.Skips[0].Detail)
	assert.Equal(t, 1, logs.FilterMessage("no candidate files found").Len())
	assert.Equal(t, 1, logs.FilterMessage("skip").Len())
}

func TestRunNoDateStillMergesText(t *testing.T) {
	e, _ := newEnricher(t, []model.Candidate{{Name: "Quantum_Notes.pdf", Path: "/nonexistent/Quantum_Notes.pdf"}}, ScopeUnassigned)
	dates, err := resolve.NewDateChain([]string{"name", "birth"}, noStat{})
	require.NoError(t, err)
	e.Dates = dates

	records := []*model.Record{{Title: "Quantum Notes", Year: 2025}}
	rep, err := e.Run(context.Background(), records, Tasks{Dates: true, Text: true})
	require.NoError(t, err)
	require.Len(t, rep.Skips, 1)
	assert.Equal(t, model.SkipNoDate, rep.Skips[0].Kind)
	assert.Equal(t, 1, rep.Updated)
	assert.Equal(t, 2025, records[0].Year)
	require.NotNil(t, records[0].PageCount)
}

func TestRunRequiresResolvers(t *testing.T) {
	e := &Enricher{Matcher: match.New(0, nil)}
	_, err := e.Run(context.Background(), nil, Tasks{Dates: true})
	assert.Error(t, err)
	_, err = e.Run(context.Background(), nil, Tasks{Text: true})
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	e, _ := newEnricher(t, libraryFiles, ScopeUnassigned)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Run(ctx, []*model.Record{{Title: "Quantum_Notes"}}, Tasks{Dates: true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssignIdentifiers(t *testing.T) {
	files := drive.Candidates([]drive.File{
		{ID: "id-quantum-0", Name: "Quantum_Notes_v2.pdf"},
		{ID: "id-taken-000", Name: "Field Guide.pdf"},
	})
	core, logs := observer.New(zapcore.InfoLevel)
	e := &Enricher{Candidates: files, Matcher: match.New(0, nil), Logger: zap.New(core)}

	records := []*model.Record{
		{Title: "Quantum Notes"},
		{Title: "Field Guide"},
		{Title: "Guide Copy", Identifier: "id-taken-000"},
		{Title: "Nothing Similar"},
	}
	rep := e.AssignIdentifiers(records, drive.CandidateID)
	assert.Equal(t, 3, rep.Visited)
	assert.Equal(t, 1, rep.Updated)
	assert.Equal(t, "id-quantum-0", records[0].Identifier)
	assert.Empty(t, records[1].Identifier)

	require.Len(t, rep.Skips, 2)
	assert.Equal(t, model.SkipIdentifierUse, rep.Skips[0].Kind)
	assert.Equal(t, model.SkipUnresolved, rep.Skips[1].Kind)
	assert.Equal(t, 1, logs.FilterMessage("identifier assigned").Len())
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeUnassigned, s)
	s, err = ParseScope("all")
	require.NoError(t, err)
	assert.Equal(t, ScopeAll, s)
	_, err = ParseScope("some")
	assert.Error(t, err)
}
