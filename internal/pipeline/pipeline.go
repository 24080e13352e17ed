// Package pipeline runs the enrichment pass over a catalog: match each record
// to a file, resolve attributes from it, and merge them into the record.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rcliao/ideas-catalog/internal/match"
	"github.com/rcliao/ideas-catalog/internal/merge"
	"github.com/rcliao/ideas-catalog/internal/model"
	"github.com/rcliao/ideas-catalog/internal/resolve"
)

// Scope selects which records are matched.
type Scope string

const (
	ScopeUnassigned Scope = "unassigned" // records without an identifier
	ScopeAll        Scope = "all"
)

// ParseScope maps a configuration value to a Scope.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeUnassigned, "":
		return ScopeUnassigned, nil
	case ScopeAll:
		return ScopeAll, nil
	}
	return "", fmt.Errorf("unknown match scope %q (want unassigned or all)", s)
}

// Tasks selects the attributes resolved per record.
type Tasks struct {
	Dates bool
	Text  bool
}

// Report summarizes one pass.
type Report struct {
	Visited  int
	Matched  int
	Updated  int
	Outcomes []model.Outcome
	Skips    []model.Skip
}

// Enricher holds the per-run state shared by every record.
type Enricher struct {
	Candidates []model.Candidate
	Matcher    *match.Matcher
	Dates      *resolve.DateChain
	Text       *resolve.TextResolver
	Scope      Scope
	Logger     *zap.Logger
}

func (e *Enricher) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Enricher) inScope(r *model.Record) bool {
	return e.Scope == ScopeAll || !r.HasIdentifier()
}

func (e *Enricher) skip(rep *Report, s model.Skip) {
	rep.Skips = append(rep.Skips, s)
	e.logger().Warn("skip",
		zap.String("kind", string(s.Kind)),
		zap.String("title", s.Title),
		zap.String("file", s.File),
		zap.String("detail", s.Detail),
	)
}

func (e *Enricher) best(rep *Report, r *model.Record) (match.Match, bool) {
	m, ok := e.Matcher.Best(r.Title, e.Candidates)
	if ok {
		return m, true
	}
	s := model.Skip{Kind: model.SkipUnresolved, Title: r.Title, Identifier: r.Identifier}
	if len(e.Candidates) == 0 {
		s.Detail = "no candidate files"
	} else {
		s.File = m.Candidate.Name
		s.Score = m.Score
		s.Detail = fmt.Sprintf("best score %d below %d", m.Score, e.Matcher.MinScore)
	}
	e.skip(rep, s)
	return match.Match{}, false
}

// Run visits records in order and merges the requested attributes into each
// matched record. Only context cancellation stops the pass early.
func (e *Enricher) Run(ctx context.Context, records []*model.Record, tasks Tasks) (Report, error) {
	if e.Matcher == nil {
		return Report{}, errors.New("enricher has no matcher")
	}
	if tasks.Dates && e.Dates == nil {
		return Report{}, errors.New("date resolution requested without a date chain")
	}
	if tasks.Text && e.Text == nil {
		return Report{}, errors.New("text resolution requested without a text resolver")
	}

	log := e.logger()
	if len(e.Candidates) == 0 {
		log.Warn("no candidate files found")
	}
	miss := func(source string, err error) {
		log.Debug("source miss", zap.String("source", source), zap.Error(err))
	}
	if e.Dates != nil {
		e.Dates.OnMiss = miss
	}
	if e.Text != nil {
		e.Text.OnMiss = miss
	}

	var rep Report
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if !e.inScope(r) {
			continue
		}
		rep.Visited++

		m, ok := e.best(&rep, r)
		if !ok {
			continue
		}
		rep.Matched++

		var v merge.Values
		if tasks.Dates {
			d, source, ok := e.Dates.Resolve(ctx, m.Candidate)
			if ok {
				v.Date = &d
				log.Debug("date resolved", zap.String("title", r.Title), zap.String("source", source))
			} else {
				e.skip(&rep, model.Skip{
					Kind:   model.SkipNoDate,
					Title:  r.Title,
					File:   m.Candidate.Name,
					Score:  m.Score,
					Detail: "no date from any source",
				})
			}
		}
		if tasks.Text {
			res := e.Text.Resolve(ctx, m.Candidate.Path)
			v.PageCount = res.Pages
			v.Text = res.Text
		}

		changed := merge.Apply(r, v)
		if len(changed) == 0 {
			log.Debug("unchanged", zap.String("title", r.Title), zap.String("file", m.Candidate.Name))
			continue
		}
		rep.Updated++
		rep.Outcomes = append(rep.Outcomes, model.Outcome{
			Title:   r.Title,
			File:    m.Candidate.Name,
			Score:   m.Score,
			Changed: changed,
		})
		log.Info("updated",
			zap.String("title", r.Title),
			zap.String("file", m.Candidate.Name),
			zap.Int("score", m.Score),
			zap.Strings("fields", changed),
		)
	}
	return rep, nil
}

// AssignIdentifiers gives each unassigned record the identifier of its best
// candidate. idOf extracts the identifier from a candidate. An identifier
// already held by another record is never assigned twice.
func (e *Enricher) AssignIdentifiers(records []*model.Record, idOf func(model.Candidate) (string, bool)) Report {
	log := e.logger()
	used := make(map[string]bool, len(records))
	for _, r := range records {
		if r.HasIdentifier() {
			used[r.Identifier] = true
		}
	}

	var rep Report
	for _, r := range records {
		if r.HasIdentifier() {
			continue
		}
		rep.Visited++
		m, ok := e.best(&rep, r)
		if !ok {
			continue
		}
		rep.Matched++

		id, ok := idOf(m.Candidate)
		if !ok || id == "" {
			e.skip(&rep, model.Skip{
				Kind:   model.SkipUnresolved,
				Title:  r.Title,
				File:   m.Candidate.Name,
				Score:  m.Score,
				Detail: "candidate carries no identifier",
			})
			continue
		}
		if used[id] {
			e.skip(&rep, model.Skip{
				Kind:       model.SkipIdentifierUse,
				Title:      r.Title,
				Identifier: id,
				File:       m.Candidate.Name,
				Score:      m.Score,
				Detail:     "identifier already assigned to another record",
			})
			continue
		}

		r.Identifier = id
		used[id] = true
		rep.Updated++
		rep.Outcomes = append(rep.Outcomes, model.Outcome{
			Title:   r.Title,
			File:    m.Candidate.Name,
			Score:   m.Score,
			Changed: []string{"identifier"},
		})
		log.Info("identifier assigned",
			zap.String("title", r.Title),
			zap.String("file", m.Candidate.Name),
			zap.String("identifier", id),
			zap.Int("score", m.Score),
		)
	}
	return rep
}
