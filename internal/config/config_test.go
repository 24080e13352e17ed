package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
}

func TestSampleDecodesAndValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, toml.Unmarshal([]byte(sampleConfig), &cfg))
	require.NoError(t, cfg.normalize())
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"name", "birth", "mtime"}, cfg.Dates.Order)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := load(path, noEnv)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, 10, cfg.Match.MinScore)
	assert.True(t, filepath.IsAbs(cfg.Paths.Catalog))
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[match]
min_score = 25
extensions = ["PDF", ".djvu"]
scope = "ALL"

[dates]
order = ["mtime"]

[text]
max_chars = 0
prefer = "pdftotext"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, _, exists, err := load(path, envMap(map[string]string{
		"IDEAS_CATALOG_MAX_CHARS": "500",
		"IDEAS_CATALOG_VENUE":     "Preprint",
	}))
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 25, cfg.Match.MinScore)
	assert.Equal(t, []string{".pdf", ".djvu"}, cfg.Match.Extensions)
	assert.Equal(t, ScopeAll, cfg.Match.Scope)
	assert.Equal(t, []string{"mtime"}, cfg.Dates.Order)
	assert.Equal(t, 500, cfg.Text.MaxChars)
	assert.Equal(t, "pdftotext", cfg.Text.Prefer)
	assert.Equal(t, "Preprint", cfg.Ingest.Venue)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"order":     "[dates]\norder = [\"name\", \"ctime\"]\n",
		"prefer":    "[text]\nprefer = \"pypdf2\"\n",
		"negative":  "[text]\nmax_chars = -1\n",
		"delimiter": "[ingest]\ndelimiter = \"colon\"\n",
		"unknown":   "[match]\nthreshold = 3\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, _, _, err := load(path, noEnv)
			assert.Error(t, err)
		})
	}
}

func TestValidateMessageNamesField(t *testing.T) {
	cfg := Default()
	cfg.Match.Scope = "some"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "match.scope")
}

func TestEnvBadNumber(t *testing.T) {
	_, _, _, err := load(filepath.Join(t.TempDir(), "x.toml"), envMap(map[string]string{"IDEAS_CATALOG_YEAR": "soon"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IDEAS_CATALOG_YEAR")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	got, err := ExpandPath("~/lib/papers.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "lib", "papers.json"), got)

	got, err = ExpandPath("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, CreateSample(path, false))
	assert.Error(t, CreateSample(path, false))
	require.NoError(t, CreateSample(path, true))

	_, _, exists, err := load(path, noEnv)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	data, err := cfg.Marshal()
	require.NoError(t, err)
	var back Config
	require.NoError(t, toml.Unmarshal(data, &back))
	assert.Equal(t, cfg, back)
}
