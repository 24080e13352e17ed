// Package merge applies field precedence rules to catalog records.
package merge

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rcliao/ideas-catalog/internal/model"
)

// Field names reported as changed.
const (
	FieldDate       = "date"
	FieldYear       = "year"
	FieldLocked     = "locked"
	FieldPriority   = "priority"
	FieldEvaluation = "evaluation"
	FieldPageCount  = "pageCount"
	FieldText       = "extractedText"
)

// DateLayout is the catalog date format.
const DateLayout = "2006-01-02"

// Values carries derived attributes and raw operator flags for one record.
// Nil pointers and empty strings leave the corresponding field untouched.
type Values struct {
	Date      *time.Time
	PageCount *int
	Text      *string

	Locked     string
	Priority   string
	Evaluation string
}

// Empty reports whether v would leave every field untouched.
func (v Values) Empty() bool {
	return v.Date == nil && v.PageCount == nil && v.Text == nil &&
		strings.TrimSpace(v.Locked) == "" && strings.TrimSpace(v.Priority) == "" &&
		strings.TrimSpace(v.Evaluation) == ""
}

// Apply updates r in place and returns the names of fields whose value changed.
// A field is written only when the new value differs from the old one.
func Apply(r *model.Record, v Values) []string {
	var changed []string

	if v.Date != nil {
		d := v.Date.Format(DateLayout)
		if r.Date != d {
			r.Date = d
			changed = append(changed, FieldDate)
		}
		if r.Year != v.Date.Year() {
			r.Year = v.Date.Year()
			changed = append(changed, FieldYear)
		}
	}

	if locked, ok := ParseLocked(v.Locked); ok {
		if r.Locked == nil || *r.Locked != locked {
			r.Locked = &locked
			changed = append(changed, FieldLocked)
		}
	}

	switch p, action := ParsePriority(v.Priority); action {
	case PrioritySet:
		if r.Priority == nil || *r.Priority != p {
			r.Priority = &p
			changed = append(changed, FieldPriority)
		}
	case PriorityClear:
		if r.Priority != nil {
			r.Priority = nil
			changed = append(changed, FieldPriority)
		}
	}

	if e := strings.TrimSpace(v.Evaluation); e != "" && r.Evaluation != e {
		r.Evaluation = e
		changed = append(changed, FieldEvaluation)
	}

	if v.PageCount != nil && *v.PageCount >= 0 {
		if r.PageCount == nil || *r.PageCount != *v.PageCount {
			n := *v.PageCount
			r.PageCount = &n
			changed = append(changed, FieldPageCount)
		}
	}

	if v.Text != nil && *v.Text != "" && r.ExtractedText != *v.Text {
		r.ExtractedText = *v.Text
		changed = append(changed, FieldText)
	}

	return changed
}

// MergeFields applies v to r and reports whether anything changed.
func MergeFields(r *model.Record, v Values) bool {
	return len(Apply(r, v)) > 0
}

// ParseLocked interprets a raw locked flag. ok is false for an empty value,
// which leaves the field untouched.
func ParseLocked(raw string) (locked bool, ok bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return false, false
	}
	switch s {
	case "1", "true", "yes", "y":
		return true, true
	}
	return false, true
}

// PriorityAction is the effect a raw priority value has on a record.
type PriorityAction int

const (
	PriorityKeep  PriorityAction = iota // empty raw value
	PrioritySet                         // parsed and in range
	PriorityClear                       // out of range or unparsable
)

// ParsePriority parses a raw priority cell. Numbers are truncated toward zero
// before the range check, so "4.9" sets 4.
func ParsePriority(raw string) (int, PriorityAction) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, PriorityKeep
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, PriorityClear
	}
	t := math.Trunc(f)
	if t < model.MinPriority || t > model.MaxPriority {
		return 0, PriorityClear
	}
	return int(t), PrioritySet
}
