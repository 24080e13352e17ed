package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

func TestIDFromURL(t *testing.T) {
	tests := []struct {
		url, want string
	}{
		{"https://drive.google.com/file/d/1AbCdEfGhIjK/view?usp=sharing", "1AbCdEfGhIjK"},
		{"https://drive.google.com/uc?export=download&id=1AbCdEfGhIjK", "1AbCdEfGhIjK"},
		{"https://drive.google.com/open?id=1AbC-dEf_GhIjK", "1AbC-dEf_GhIjK"},
		{"https://drive.google.com/file/d/short/view", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IDFromURL(tt.url), tt.url)
	}
}

func TestURIRoundTrip(t *testing.T) {
	id, ok := IDFromPath(URI("abc123"))
	require.True(t, ok)
	assert.Equal(t, "abc123", id)

	_, ok = IDFromPath("/home/me/abc123.pdf")
	assert.False(t, ok)
	_, ok = IDFromPath(URIPrefix)
	assert.False(t, ok)
}

var sampleFiles = []File{
	{
		ID: "id-one-0000", Name: "Quantum_Notes_v2.pdf",
		Created:  time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC),
		Modified: time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC),
	},
	{ID: "id-two-0000", Name: "Field Guide.pdf"},
}

func TestCandidates(t *testing.T) {
	got := Candidates(sampleFiles)
	require.Len(t, got, 2)
	assert.Equal(t, "Quantum_Notes_v2.pdf", got[0].Name)
	assert.Equal(t, "gdrive://files/id-one-0000", got[0].Path)
	assert.True(t, got[0].HasCreated())
	assert.False(t, got[1].HasCreated())
}

func TestWriteManifest(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteManifest(&buf, sampleFiles))
	want := "name,id,preview,download,created,modified\n" +
		"Quantum_Notes_v2.pdf,id-one-0000,https://drive.google.com/file/d/id-one-0000/preview," +
		"https://drive.google.com/uc?export=download&id=id-one-0000,2023-05-01T10:00:00Z,2023-06-01T10:00:00Z\n" +
		"Field Guide.pdf,id-two-0000,https://drive.google.com/file/d/id-two-0000/preview," +
		"https://drive.google.com/uc?export=download&id=id-two-0000,,\n"
	assert.Equal(t, want, buf.String())
}

func TestStubRecords(t *testing.T) {
	recs := StubRecords(append(sampleFiles, File{ID: "x", Name: ".pdf"}), 2025, "Working Draft")
	require.Len(t, recs, 2)
	assert.Equal(t, "Quantum_Notes_v2", recs[0].Title)
	assert.Equal(t, 2023, recs[0].Year)
	assert.Equal(t, "id-one-0000", recs[0].Identifier)
	assert.Equal(t, json.RawMessage(`"Working Draft"`), recs[0].Extra["venue"])
	assert.Equal(t, json.RawMessage(`[]`), recs[0].Extra["tags"])
	assert.Equal(t, 2025, recs[1].Year)
}

func TestListFolderFollowsPages(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = w.Write([]byte(`{"nextPageToken":"p2","files":[{"id":"a","name":"a.pdf","createdTime":"2024-01-02T03:04:05.000Z"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"files":[{"id":"b","name":"b.pdf","modifiedTime":"2024-02-03T04:05:06Z"}]}`))
	}))
	defer srv.Close()

	svc, err := NewService(context.Background(), 1000,
		option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)

	files, err := svc.ListFolder(context.Background(), "folder1")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a", files[0].ID)
	assert.Equal(t, 2024, files[0].Created.Year())
	assert.True(t, files[0].Modified.IsZero())
	assert.Equal(t, "b.pdf", files[1].Name)
	require.Len(t, queries, 2)
	assert.Equal(t, "'folder1' in parents and trashed = false", queries[0])

	_, err = svc.ListFolder(context.Background(), "")
	assert.Error(t, err)
}

const clientJSON = `{"installed":{"client_id":"cid","client_secret":"secret",` +
	`"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token",` +
	`"redirect_uris":["http://localhost"]}}`

func newCreds(t *testing.T, token string) *Credentials {
	t.Helper()
	dir := t.TempDir()
	c := &Credentials{
		CredentialsPath: filepath.Join(dir, "credentials.json"),
		TokenPath:       filepath.Join(dir, "token.json"),
	}
	require.NoError(t, os.WriteFile(c.CredentialsPath, []byte(clientJSON), 0o600))
	if token != "" {
		require.NoError(t, os.WriteFile(c.TokenPath, []byte(token), 0o600))
	}
	return c
}

func TestAcquireAuthorizedUserToken(t *testing.T) {
	expiry := time.Now().Add(time.Hour).UTC().Format(time.RFC3339Nano)
	c := newCreds(t, `{"token":"access-1","refresh_token":"refresh-1","client_id":"cid","expiry":"`+expiry+`"}`)

	ts, err := c.Acquire(context.Background())
	require.NoError(t, err)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)

	_, err = c.Acquire(context.Background())
	assert.Error(t, err)

	before, err := os.ReadFile(c.TokenPath)
	require.NoError(t, err)
	require.NoError(t, c.Release())
	after, err := os.ReadFile(c.TokenPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	require.NoError(t, c.Release())
}

func TestReleasePersistsRefreshedTokenInOriginalLayout(t *testing.T) {
	c := newCreds(t, `{"token":"old","refresh_token":"r","client_id":"cid","scopes":["s"]}`)
	_, err := c.Acquire(context.Background())
	require.NoError(t, err)

	c.source.last = &oauth2.Token{AccessToken: "new", RefreshToken: "r", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, c.Release())

	var got map[string]any
	data, err := os.ReadFile(c.TokenPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "new", got["token"])
	assert.Equal(t, "cid", got["client_id"])
	assert.Equal(t, []any{"s"}, got["scopes"])
	assert.Equal(t, "2030-01-01T00:00:00Z", got["expiry"])
}

func TestAcquireOAuth2Token(t *testing.T) {
	c := newCreds(t, `{"access_token":"a","token_type":"Bearer","refresh_token":"r"}`)
	_, err := c.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, formatOAuth2, c.format)
	require.NoError(t, c.Release())
}

func TestAcquireWithoutToken(t *testing.T) {
	c := newCreds(t, "")
	_, err := c.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)

	// the lock was released on failure
	require.NoError(t, os.WriteFile(c.TokenPath, []byte(`{"access_token":"a"}`), 0o600))
	_, err = c.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Release())
}

func TestAcquireWaitsForLock(t *testing.T) {
	token := `{"access_token":"a","refresh_token":"r"}`
	first := newCreds(t, token)
	_, err := first.Acquire(context.Background())
	require.NoError(t, err)
	defer first.Release()

	second := &Credentials{CredentialsPath: first.CredentialsPath, TokenPath: first.TokenPath}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = second.Acquire(ctx)
	assert.Error(t, err)
}

func TestParseTokenRejectsEmpty(t *testing.T) {
	_, _, _, err := parseToken([]byte(`{"client_id":"x"}`))
	assert.Error(t, err)
}

type fakeLister struct {
	files []File
	err   error
	asked string
}

func (f *fakeLister) ListFolder(_ context.Context, folderID string) ([]File, error) {
	f.asked = folderID
	return append([]File(nil), f.files...), f.err
}

func TestDocumentsFiltersByExtension(t *testing.T) {
	l := &fakeLister{files: []File{
		{ID: "a", Name: "Paper.PDF"},
		{ID: "b", Name: "notes.txt"},
		{ID: "c", Name: "Archive.pdf", MimeType: FolderMimeType},
		{ID: "d", Name: "scan.djvu"},
	}}
	got, err := Documents(context.Background(), l, "folder-1", []string{".pdf", ".djvu"})
	require.NoError(t, err)
	assert.Equal(t, "folder-1", l.asked)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "d", got[1].ID)
}

func TestDocumentsPropagatesError(t *testing.T) {
	l := &fakeLister{err: errors.New("quota")}
	_, err := Documents(context.Background(), l, "f", []string{".pdf"})
	assert.EqualError(t, err, "quota")
}
