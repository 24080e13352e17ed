// Package drive lists Google Drive folders and maps their files onto catalog
// candidates and identifiers.
package drive

import (
	"regexp"
	"strings"
)

// URIPrefix marks candidate paths that refer to Drive files.
const URIPrefix = "gdrive://files/"

var (
	idPathPattern  = regexp.MustCompile(`/d/([A-Za-z0-9_-]{10,})`)
	idQueryPattern = regexp.MustCompile(`[?&]id=([A-Za-z0-9_-]{10,})`)
)

// IDFromURL extracts a file id from a Drive view or download link. It returns
// "" when no id is found.
func IDFromURL(url string) string {
	if m := idPathPattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	if m := idQueryPattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

// URI returns the candidate path for a Drive file id.
func URI(id string) string {
	return URIPrefix + id
}

// IDFromPath returns the file id of a candidate path built by URI.
func IDFromPath(path string) (string, bool) {
	id, ok := strings.CutPrefix(path, URIPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// PreviewURL returns the embeddable preview link for id.
func PreviewURL(id string) string {
	return "https://drive.google.com/file/d/" + id + "/preview"
}

// DownloadURL returns the direct download link for id.
func DownloadURL(id string) string {
	return "https://drive.google.com/uc?export=download&id=" + id
}
