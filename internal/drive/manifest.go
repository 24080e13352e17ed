package drive

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rcliao/ideas-catalog/internal/model"
)

// Candidates maps Drive files onto candidates so remote listings can be
// matched like local files.
func Candidates(files []File) []model.Candidate {
	out := make([]model.Candidate, 0, len(files))
	for _, f := range files {
		out = append(out, model.Candidate{
			Name:    f.Name,
			Path:    URI(f.ID),
			ModTime: f.Modified,
			Created: f.Created,
		})
	}
	return out
}

// FolderMimeType marks Drive folders.
const FolderMimeType = "application/vnd.google-apps.folder"

// Documents lists a folder through l and keeps the files whose name ends in
// one of exts (case-insensitive). Folders are always dropped.
func Documents(ctx context.Context, l Lister, folderID string, exts []string) ([]File, error) {
	files, err := l.ListFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	out := files[:0]
	for _, f := range files {
		if f.MimeType == FolderMimeType {
			continue
		}
		lower := strings.ToLower(f.Name)
		for _, ext := range exts {
			if strings.HasSuffix(lower, strings.ToLower(ext)) {
				out = append(out, f)
				break
			}
		}
	}
	return out, nil
}

// CandidateID returns the Drive file id of a candidate built by Candidates.
func CandidateID(c model.Candidate) (string, bool) {
	return IDFromPath(c.Path)
}

// ManifestHeader is the column layout written by WriteManifest.
var ManifestHeader = []string{"name", "id", "preview", "download", "created", "modified"}

// WriteManifest writes one CSV row per file.
func WriteManifest(w io.Writer, files []File) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ManifestHeader); err != nil {
		return err
	}
	for _, f := range files {
		row := []string{f.Name, f.ID, PreviewURL(f.ID), DownloadURL(f.ID), formatTime(f.Created), formatTime(f.Modified)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// stubExtras are the placeholder keys a freshly listed record carries.
var stubExtras = []string{"abstract", "doi", "ots", "hash_sha256"}

// StubRecords builds starter catalog records for files. The year comes from
// the creation time when known.
func StubRecords(files []File, defaultYear int, venue string) []*model.Record {
	out := make([]*model.Record, 0, len(files))
	for _, f := range files {
		title := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
		if strings.TrimSpace(title) == "" {
			continue
		}
		year := defaultYear
		if !f.Created.IsZero() {
			year = f.Created.UTC().Year()
		}
		r := &model.Record{
			Title:      strings.TrimSpace(title),
			Identifier: f.ID,
			Year:       year,
			Extra:      map[string]json.RawMessage{"tags": json.RawMessage(`[]`)},
		}
		for _, k := range stubExtras {
			r.Extra[k] = json.RawMessage(`""`)
		}
		if venue != "" {
			b, _ := json.Marshal(venue)
			r.Extra["venue"] = b
		}
		out = append(out, r)
	}
	return out
}
