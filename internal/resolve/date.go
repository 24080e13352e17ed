package resolve

import (
	"context"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rcliao/ideas-catalog/internal/model"
)

// Date source names.
const (
	SourceName  = "name"
	SourceBirth = "birth"
	SourceMtime = "mtime"
)

// DefaultDateOrder is the date chain used when none is configured.
var DefaultDateOrder = []string{SourceName, SourceBirth, SourceMtime}

// DateChain resolves a calendar date for a candidate file.
type DateChain = Chain[model.Candidate, time.Time]

// NewDateChain builds a date chain over the given source order. runner is used
// by the birth source when the platform does not expose creation time; nil
// selects ExecRunner.
func NewDateChain(order []string, runner Runner) (*DateChain, error) {
	if runner == nil {
		runner = ExecRunner{}
	}
	reg := NewRegistry[model.Candidate, time.Time](
		NameDate{},
		BirthDate{Runner: runner},
		MtimeDate{},
	)
	return reg.Chain(order)
}

var nameDatePattern = regexp.MustCompile(`(\d{4})[-_.](\d{2})[-_.](\d{2})`)

// NameDate reads the first YYYY-MM-DD style date embedded in the display name.
type NameDate struct{}

func (NameDate) Name() string             { return SourceName }
func (NameDate) Capabilities() Capability { return CapDate }

func (NameDate) Resolve(_ context.Context, c model.Candidate) (time.Time, error) {
	m := nameDatePattern.FindStringSubmatch(c.Name)
	if m == nil {
		return time.Time{}, unavailable("no date in %q", c.Name)
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	t, ok := calendarDate(y, mo, d)
	if !ok {
		return time.Time{}, unavailable("invalid date %s in %q", m[0], c.Name)
	}
	return t, nil
}

// BirthDate uses the file creation time, falling back to GNU stat.
type BirthDate struct {
	Runner Runner
}

func (BirthDate) Name() string             { return SourceBirth }
func (BirthDate) Capabilities() Capability { return CapDate }

func (b BirthDate) Resolve(ctx context.Context, c model.Candidate) (time.Time, error) {
	if c.HasCreated() {
		return day(c.Created.Local()), nil
	}
	if b.Runner == nil {
		return time.Time{}, unavailable("creation time not recorded")
	}
	out, err := b.Runner.Run(ctx, "stat", "-c", "%w", c.Path)
	if err != nil {
		return time.Time{}, unavailable("stat: %v", err)
	}
	s := strings.TrimSpace(string(out))
	if s == "" || s == "-" {
		return time.Time{}, unavailable("creation time not recorded")
	}
	// 2024-05-18 13:22:01.000000000 +0000
	t, err := time.ParseInLocation("2006-01-02", strings.Fields(s)[0], time.Local)
	if err != nil {
		return time.Time{}, unavailable("parse stat output %q: %v", s, err)
	}
	return t, nil
}

// MtimeDate uses the last modification time.
type MtimeDate struct{}

func (MtimeDate) Name() string             { return SourceMtime }
func (MtimeDate) Capabilities() Capability { return CapDate }

func (MtimeDate) Resolve(_ context.Context, c model.Candidate) (time.Time, error) {
	if !c.ModTime.IsZero() {
		return day(c.ModTime.Local()), nil
	}
	fi, err := os.Stat(c.Path)
	if err != nil {
		return time.Time{}, unavailable("stat: %v", err)
	}
	return day(fi.ModTime().Local()), nil
}

func calendarDate(y, m, d int) (time.Time, bool) {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
