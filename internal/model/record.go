// Package model defines the catalog data types.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Priority bounds. Values outside the range are treated as unset.
const (
	MinPriority = 1
	MaxPriority = 7
)

// ErrEmptyTitle is returned when a record would be built without a title.
var ErrEmptyTitle = errors.New("record title is empty")

// Record is one catalog entry describing a document.
type Record struct {
	Title         string
	Identifier    string
	Date          string
	Year          int
	Locked        *bool
	Priority      *int
	Evaluation    string
	ExtractedText string
	PageCount     *int

	// Extra holds keys this tool does not manage (venue, tags, abstract, ...).
	// They are written back verbatim.
	Extra map[string]json.RawMessage
}

// NewRecord builds a record with the given title and fallback year.
func NewRecord(title string, year int) (*Record, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	return &Record{Title: title, Year: year}, nil
}

// HasIdentifier reports whether a stable identifier has been assigned.
func (r *Record) HasIdentifier() bool {
	return r.Identifier != ""
}

// ValidPriority reports whether p is inside the accepted priority range.
func ValidPriority(p int) bool {
	return p >= MinPriority && p <= MaxPriority
}

// Canonical JSON keys, in write order.
const (
	keyTitle         = "title"
	keyIdentifier    = "identifier"
	keyDate          = "date"
	keyYear          = "year"
	keyLocked        = "locked"
	keyPriority      = "priority"
	keyEvaluation    = "evaluation"
	keyPageCount     = "pageCount"
	keyExtractedText = "extractedText"
)

// legacyKeys maps keys written by older catalog tooling onto canonical keys.
var legacyKeys = map[string]string{
	"Name":    keyTitle,
	"driveId": keyIdentifier,
	"wait":    keyPriority,
	"eval":    keyEvaluation,
	"full":    keyExtractedText,
	"pages":   keyPageCount,
}

// IsManagedKey reports whether key is a canonical or legacy record field.
func IsManagedKey(key string) bool {
	switch key {
	case keyTitle, keyIdentifier, keyDate, keyYear, keyLocked, keyPriority,
		keyEvaluation, keyPageCount, keyExtractedText:
		return true
	}
	_, ok := legacyKeys[key]
	return ok
}

// MarshalJSON writes managed fields in a fixed order followed by extra keys
// sorted by name. Unset optional fields are omitted; identifier is always present.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, v any) error {
		val, err := encodeValue(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		return writeRaw(&buf, &first, key, val)
	}

	if err := write(keyTitle, r.Title); err != nil {
		return nil, err
	}
	if err := write(keyIdentifier, r.Identifier); err != nil {
		return nil, err
	}
	if r.Date != "" {
		if err := write(keyDate, r.Date); err != nil {
			return nil, err
		}
	}
	if err := write(keyYear, r.Year); err != nil {
		return nil, err
	}
	if r.Locked != nil {
		if err := write(keyLocked, *r.Locked); err != nil {
			return nil, err
		}
	}
	if r.Priority != nil {
		if err := write(keyPriority, *r.Priority); err != nil {
			return nil, err
		}
	}
	if r.Evaluation != "" {
		if err := write(keyEvaluation, r.Evaluation); err != nil {
			return nil, err
		}
	}
	if r.PageCount != nil {
		if err := write(keyPageCount, *r.PageCount); err != nil {
			return nil, err
		}
	}
	if r.ExtractedText != "" {
		if err := write(keyExtractedText, r.ExtractedText); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		if IsManagedKey(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writeRaw(&buf, &first, k, r.Extra[k]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads canonical keys, falls back to legacy keys, and keeps
// everything else in Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	fields := make(map[string]json.RawMessage, len(raw))
	extra := make(map[string]json.RawMessage)
	for k, v := range raw {
		if IsManagedKey(k) {
			continue
		}
		extra[k] = v
	}
	for legacy, canonical := range legacyKeys {
		if v, ok := raw[legacy]; ok {
			fields[canonical] = v
		}
	}
	for k, v := range raw {
		if _, isLegacy := legacyKeys[k]; isLegacy {
			continue
		}
		if IsManagedKey(k) {
			fields[k] = v
		}
	}

	var out Record
	if err := decodeString(fields, keyTitle, &out.Title); err != nil {
		return err
	}
	if err := decodeString(fields, keyIdentifier, &out.Identifier); err != nil {
		return err
	}
	if err := decodeString(fields, keyDate, &out.Date); err != nil {
		return err
	}
	if err := decodeString(fields, keyEvaluation, &out.Evaluation); err != nil {
		return err
	}
	if err := decodeString(fields, keyExtractedText, &out.ExtractedText); err != nil {
		return err
	}
	if v, ok := present(fields, keyYear); ok {
		if err := json.Unmarshal(v, &out.Year); err != nil {
			return fmt.Errorf("decode %s: %w", keyYear, err)
		}
	}
	if v, ok := present(fields, keyLocked); ok {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return fmt.Errorf("decode %s: %w", keyLocked, err)
		}
		out.Locked = &b
	}
	if v, ok := present(fields, keyPriority); ok {
		var p int
		if err := json.Unmarshal(v, &p); err != nil {
			return fmt.Errorf("decode %s: %w", keyPriority, err)
		}
		if ValidPriority(p) {
			out.Priority = &p
		}
	}
	if v, ok := present(fields, keyPageCount); ok {
		var n int
		if err := json.Unmarshal(v, &n); err != nil {
			return fmt.Errorf("decode %s: %w", keyPageCount, err)
		}
		if n >= 0 {
			out.PageCount = &n
		}
	}
	if len(extra) > 0 {
		out.Extra = extra
	}

	*r = out
	return nil
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	cp := *r
	if r.Locked != nil {
		v := *r.Locked
		cp.Locked = &v
	}
	if r.Priority != nil {
		v := *r.Priority
		cp.Priority = &v
	}
	if r.PageCount != nil {
		v := *r.PageCount
		cp.PageCount = &v
	}
	if r.Extra != nil {
		cp.Extra = make(map[string]json.RawMessage, len(r.Extra))
		for k, v := range r.Extra {
			cp.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &cp
}

func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

func decodeString(fields map[string]json.RawMessage, key string, dst *string) error {
	v, ok := present(fields, key)
	if !ok {
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// encodeValue marshals v without HTML escaping so text survives a round trip
// unchanged.
func encodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func writeRaw(buf *bytes.Buffer, first *bool, key string, val []byte) error {
	k, err := encodeValue(key)
	if err != nil {
		return err
	}
	if !*first {
		buf.WriteByte(',')
	}
	*first = false
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}
