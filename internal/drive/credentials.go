package drive

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drivev3 "google.golang.org/api/drive/v3"
)

// DefaultScopes are requested when Credentials.Scopes is empty.
var DefaultScopes = []string{drivev3.DriveMetadataReadonlyScope}

// ErrNoToken is returned by Acquire when no token has been stored yet.
var ErrNoToken = errors.New("no stored drive token; run `drive login` first")

// lockRetry is how often Acquire polls a held token lock.
const lockRetry = 200 * time.Millisecond

// Credentials owns the OAuth client file and the shared token file. Callers
// Acquire before using the API and Release when done; the token file is locked
// in between.
type Credentials struct {
	CredentialsPath string
	TokenPath       string
	Scopes          []string

	mu      sync.Mutex
	lock    *flock.Flock
	format  tokenFormat
	raw     map[string]json.RawMessage
	initial *oauth2.Token
	source  *recordingSource
}

// Acquire locks the token file and returns a refreshing token source.
func (c *Credentials) Acquire(ctx context.Context) (oauth2.TokenSource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lock != nil {
		return nil, errors.New("credentials already acquired")
	}

	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	if err := c.lockToken(ctx); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.TokenPath)
	if err != nil {
		c.unlock()
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("read token: %w", err)
	}
	tok, format, raw, err := parseToken(data)
	if err != nil {
		c.unlock()
		return nil, fmt.Errorf("parse token %s: %w", c.TokenPath, err)
	}

	c.format, c.raw, c.initial = format, raw, tok
	c.source = &recordingSource{src: oauth2.ReuseTokenSource(tok, cfg.TokenSource(ctx, tok)), last: tok}
	return c.source, nil
}

// Release persists a refreshed token and unlocks the token file. It is a
// no-op when nothing is held.
func (c *Credentials) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lock == nil {
		return nil
	}
	defer c.unlock()

	if c.source == nil {
		return nil
	}
	last := c.source.Last()
	c.source = nil
	if last == nil || last.AccessToken == c.initial.AccessToken {
		return nil
	}
	data, err := encodeToken(last, c.format, c.raw)
	if err != nil {
		return err
	}
	return writeFile(c.TokenPath, data)
}

// Login runs the manual authorization code flow: it prints the consent URL to
// out, reads the pasted code from in and stores the resulting token.
func (c *Credentials) Login(ctx context.Context, in io.Reader, out io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lock != nil {
		return errors.New("credentials already acquired")
	}
	cfg, err := c.config()
	if err != nil {
		return err
	}
	if err := c.lockToken(ctx); err != nil {
		return err
	}
	defer c.unlock()

	url := cfg.AuthCodeURL("state", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(out, "Open this URL in a browser and paste the authorization code:\n%s\n> ", url)
	code, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return errors.New("empty authorization code")
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}
	data, err := encodeToken(tok, formatOAuth2, nil)
	if err != nil {
		return err
	}
	return writeFile(c.TokenPath, data)
}

func (c *Credentials) config() (*oauth2.Config, error) {
	data, err := os.ReadFile(c.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	cfg, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", c.CredentialsPath, err)
	}
	return cfg, nil
}

func (c *Credentials) lockToken(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(c.TokenPath), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	fl := flock.New(c.TokenPath + ".lock")
	ok, err := fl.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("lock token: %w", err)
	}
	if !ok {
		return errors.New("token file is locked by another process")
	}
	c.lock = fl
	return nil
}

func (c *Credentials) unlock() {
	if c.lock != nil {
		_ = c.lock.Unlock()
		c.lock = nil
	}
}

// recordingSource remembers the most recent token handed out.
type recordingSource struct {
	mu   sync.Mutex
	src  oauth2.TokenSource
	last *oauth2.Token
}

func (r *recordingSource) Token() (*oauth2.Token, error) {
	tok, err := r.src.Token()
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.last = tok
	r.mu.Unlock()
	return tok, nil
}

func (r *recordingSource) Last() *oauth2.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

type tokenFormat int

const (
	formatOAuth2 tokenFormat = iota // {"access_token", "refresh_token", "expiry", ...}
	formatAuthorizedUser            // {"token", "refresh_token", "expiry", "client_id", ...}
)

// parseToken accepts both the oauth2 package layout and the authorized-user
// layout written by Google's Python client.
func parseToken(data []byte) (*oauth2.Token, tokenFormat, map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, nil, err
	}
	if _, ok := raw["access_token"]; ok {
		var tok oauth2.Token
		if err := json.Unmarshal(data, &tok); err != nil {
			return nil, 0, nil, err
		}
		return &tok, formatOAuth2, raw, nil
	}

	var au struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refresh_token"`
		Expiry       string `json:"expiry"`
	}
	if err := json.Unmarshal(data, &au); err != nil {
		return nil, 0, nil, err
	}
	if au.Token == "" && au.RefreshToken == "" {
		return nil, 0, nil, errors.New("token file has neither access nor refresh token")
	}
	tok := &oauth2.Token{AccessToken: au.Token, RefreshToken: au.RefreshToken, TokenType: "Bearer"}
	if au.Expiry != "" {
		exp, err := time.Parse(time.RFC3339Nano, au.Expiry)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("parse expiry: %w", err)
		}
		tok.Expiry = exp
	}
	return tok, formatAuthorizedUser, raw, nil
}

// encodeToken renders tok in format, keeping unrelated keys of prev.
func encodeToken(tok *oauth2.Token, format tokenFormat, prev map[string]json.RawMessage) ([]byte, error) {
	if format == formatOAuth2 {
		return json.MarshalIndent(tok, "", "  ")
	}
	out := make(map[string]any, len(prev)+3)
	for k, v := range prev {
		out[k] = v
	}
	out["token"] = tok.AccessToken
	if tok.RefreshToken != "" {
		out["refresh_token"] = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		out["expiry"] = tok.Expiry.UTC().Format(time.RFC3339Nano)
	}
	return json.MarshalIndent(out, "", "  ")
}

func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace token: %w", err)
	}
	return nil
}
