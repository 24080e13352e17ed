// Package match ranks candidate files against loosely written titles.
package match

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rcliao/ideas-catalog/internal/model"
)

// Scores and thresholds.
const (
	ExactScore      = 100
	MinScore        = 10
	containsScore   = 40
	containedScore  = 30
	tokenScore      = 3
	prefixScore     = 5
	minPrefixLength = 3
)

var (
	disallowed = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)
	separators = regexp.MustCompile(`[_\-.]+`)
)

// Normalize maps a title or file name onto the comparison alphabet.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = disallowed.ReplaceAllString(s, "")
	return strings.ToLower(s)
}

// Match pairs a candidate with its score. It is never persisted.
type Match struct {
	Candidate model.Candidate
	Score     int
}

// Matcher scores candidates against titles.
type Matcher struct {
	MinScore   int
	Extensions []string
}

// New returns a matcher with the given threshold and document extensions.
// A non-positive threshold falls back to MinScore.
func New(minScore int, exts []string) *Matcher {
	if minScore <= 0 {
		minScore = MinScore
	}
	if len(exts) == 0 {
		exts = []string{".pdf"}
	}
	lower := make([]string, len(exts))
	for i, e := range exts {
		lower[i] = strings.ToLower(e)
	}
	return &Matcher{MinScore: minScore, Extensions: lower}
}

// stem strips one trailing document extension from a normalized name.
func (m *Matcher) stem(s string) string {
	for _, ext := range m.Extensions {
		if ext != "" && strings.HasSuffix(s, ext) {
			return s[:len(s)-len(ext)]
		}
	}
	return s
}

func tokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range separators.Split(s, -1) {
		if tok != "" {
			out[tok] = struct{}{}
		}
	}
	return out
}

// Score returns the similarity between a title and a file display name.
func (m *Matcher) Score(title, name string) int {
	t := Normalize(title)
	f := Normalize(name)
	if t == f {
		return ExactScore
	}

	t0 := m.stem(t)
	f0 := m.stem(f)
	score := 0
	if t0 != "" && strings.Contains(f0, t0) {
		score += containsScore
	}
	if f0 != "" && strings.Contains(t0, f0) {
		score += containedScore
	}

	ft := tokens(f0)
	for tok := range tokens(t0) {
		if _, ok := ft[tok]; ok {
			score += tokenScore
		}
	}

	if len(t0) >= minPrefixLength {
		n := max(minPrefixLength, len(t0)/2)
		if strings.HasPrefix(f0, t0[:n]) {
			score += prefixScore
		}
	}
	return score
}

// Best returns the highest scoring candidate. Ties keep the earliest candidate.
// The boolean is false when there are no candidates or the best score is below
// the threshold; the returned Match still carries the best attempt.
func (m *Matcher) Best(title string, cands []model.Candidate) (Match, bool) {
	best := Match{Score: -1}
	for _, c := range cands {
		s := m.Score(title, c.Name)
		if s > best.Score {
			best = Match{Candidate: c, Score: s}
		}
	}
	if best.Score < 0 {
		return Match{}, false
	}
	return best, m.Accept(best.Score)
}

// Accept reports whether score meets the threshold.
func (m *Matcher) Accept(score int) bool {
	return score >= m.MinScore
}

// Rank returns candidates ordered by descending score, stable within ties.
// A positive limit truncates the result.
func (m *Matcher) Rank(title string, cands []model.Candidate, limit int) []Match {
	out := make([]Match, 0, len(cands))
	for _, c := range cands {
		out = append(out, Match{Candidate: c, Score: m.Score(title, c.Name)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
