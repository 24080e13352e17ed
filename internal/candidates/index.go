// Package candidates discovers document files under a root directory.
package candidates

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rcliao/ideas-catalog/internal/model"
)

// DefaultExtensions are the document extensions recognized when none are configured.
var DefaultExtensions = []string{".pdf"}

// NotFoundError is returned when the scan root does not exist.
type NotFoundError struct {
	Root string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("candidate root not found: %s", e.Root)
}

// Is lets errors.Is(err, fs.ErrNotExist) match.
func (e *NotFoundError) Is(target error) bool {
	return target == fs.ErrNotExist
}

// Scan walks root recursively and returns every regular file whose extension is
// in exts (case-insensitive). Traversal order is lexical and stable across runs.
// Unreadable subdirectories are skipped.
func Scan(root string, exts []string) ([]model.Candidate, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(e)] = struct{}{}
	}

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Root: root}
		}
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("candidate root is not a directory: %s", root)
	}

	var out []model.Candidate
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(d.Name()))]; !ok {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		out = append(out, model.Candidate{
			Name:    d.Name(),
			Path:    path,
			ModTime: fi.ModTime(),
			Created: birthTime(path, fi),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return out, nil
}
