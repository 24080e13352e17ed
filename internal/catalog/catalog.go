// Package catalog reads and writes the JSON catalog file.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/rcliao/ideas-catalog/internal/model"
)

// InputError reports a catalog or input file that cannot be used. It aborts
// the run.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Options controls decoding.
type Options struct {
	// DefaultYear fills records that carry no year.
	DefaultYear int
}

// Load reads, validates and decodes the catalog at path.
func Load(path string, opts Options) ([]*model.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	records, err := Decode(data, opts)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	return records, nil
}

// Decode validates and decodes catalog JSON.
func Decode(data []byte, opts Options) ([]*model.Record, error) {
	if !json.Valid(data) {
		return nil, errors.New("malformed JSON")
	}
	if err := Validate(data); err != nil {
		return nil, err
	}

	var records []*model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	for i, r := range records {
		r.Title = strings.TrimSpace(r.Title)
		if r.Title == "" {
			return nil, fmt.Errorf("record %d: %w", i, model.ErrEmptyTitle)
		}
		if r.Year == 0 {
			r.Year = opts.DefaultYear
		}
	}
	if err := CheckIdentifiers(records); err != nil {
		return nil, err
	}
	return records, nil
}

// DuplicateError reports records sharing a non-empty identifier.
type DuplicateError struct {
	Identifier string
	Titles     []string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("identifier %q is shared by %d records: %s",
		e.Identifier, len(e.Titles), strings.Join(e.Titles, " | "))
}

// CheckIdentifiers returns a DuplicateError for the first identifier used by
// more than one record.
func CheckIdentifiers(records []*model.Record) error {
	seen := make(map[string]int, len(records))
	for i, r := range records {
		if !r.HasIdentifier() {
			continue
		}
		if j, ok := seen[r.Identifier]; ok {
			titles := []string{records[j].Title, r.Title}
			for _, rest := range records[i+1:] {
				if rest.Identifier == r.Identifier {
					titles = append(titles, rest.Title)
				}
			}
			return &DuplicateError{Identifier: r.Identifier, Titles: titles}
		}
		seen[r.Identifier] = i
	}
	return nil
}

// Encode renders records with two-space indentation and a trailing newline.
// HTML characters are written as is.
func Encode(records []*model.Record) ([]byte, error) {
	if records == nil {
		records = []*model.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes records to path atomically.
func Save(path string, records []*model.Record) error {
	data, err := Encode(records)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// BackupName returns the backup path for path at the given time.
func BackupName(path string, now time.Time) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	return filepath.Join(filepath.Dir(path),
		fmt.Sprintf("%s.backup_%s%s", stem, now.Format("20060102_150405"), ext))
}

// Backup copies an existing file at path to its timestamped backup name and
// returns that name. A missing file is not an error; the returned name is empty.
func Backup(path string, now time.Time) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	dst := BackupName(path, now)
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return dst, nil
}

// ErrLocked is returned when another process holds the catalog lock.
var ErrLocked = errors.New("catalog is locked by another run")

// Locker holds an exclusive advisory lock next to a catalog file.
type Locker struct {
	fl *flock.Flock
}

// LockPath returns the lock file used for path.
func LockPath(path string) string {
	return path + ".lock"
}

// Lock takes the lock for path without waiting.
func Lock(path string) (*Locker, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dir: %w", err)
	}
	fl := flock.New(LockPath(path))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}
	return &Locker{fl: fl}, nil
}

// Release drops the lock. It is safe to call more than once.
func (l *Locker) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	err := l.fl.Unlock()
	l.fl = nil
	return err
}
