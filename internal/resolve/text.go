package resolve

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Extractor names.
const (
	ExtractorNative    = "native"
	ExtractorPdftotext = "pdftotext"
)

// Request asks an extractor for a file's page count and, optionally, its text.
type Request struct {
	Path     string
	WantText bool
}

// Extraction is what an extractor produced. Nil fields were not obtained.
type Extraction struct {
	Text  *string
	Pages *int
}

// Extractor is a text/page backend.
type Extractor = Source[Request, Extraction]

// TextOrder returns the extractor order with prefer first.
func TextOrder(prefer string) []string {
	if prefer == ExtractorPdftotext {
		return []string{ExtractorPdftotext, ExtractorNative}
	}
	return []string{ExtractorNative, ExtractorPdftotext}
}

// NativeExtractor parses PDFs in process.
type NativeExtractor struct{}

func (NativeExtractor) Name() string             { return ExtractorNative }
func (NativeExtractor) Capabilities() Capability { return CapText | CapPages }

// Resolve opens the file with the pure Go parser. The parser panics on some
// malformed inputs; those are reported as unavailable.
func (NativeExtractor) Resolve(_ context.Context, req Request) (ext Extraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			ext = Extraction{}
			err = unavailable("native parser: %v", r)
		}
	}()

	f, r, err := pdf.Open(req.Path)
	if err != nil {
		return Extraction{}, unavailable("open %s: %v", req.Path, err)
	}
	defer f.Close()

	pages := r.NumPage()
	ext.Pages = &pages
	if !req.WantText {
		return ext, nil
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		if i > 1 {
			b.WriteByte('\n')
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
	}
	text := b.String()
	ext.Text = &text
	return ext, nil
}

var pdfinfoPages = regexp.MustCompile(`(?m)^Pages:\s+(\d+)`)

// PdftotextExtractor shells out to poppler's pdftotext and pdfinfo.
type PdftotextExtractor struct {
	Runner Runner
}

func (PdftotextExtractor) Name() string             { return ExtractorPdftotext }
func (PdftotextExtractor) Capabilities() Capability { return CapText | CapPages }

func (p PdftotextExtractor) Resolve(ctx context.Context, req Request) (Extraction, error) {
	runner := p.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	var ext Extraction
	var errs []string
	if req.WantText {
		out, err := runner.Run(ctx, "pdftotext", "-layout", req.Path, "-")
		if err != nil {
			errs = append(errs, fmt.Sprintf("pdftotext: %v", err))
		} else {
			text := strings.ToValidUTF8(string(out), "")
			ext.Text = &text
		}
	}

	out, err := runner.Run(ctx, "pdfinfo", req.Path)
	if err != nil {
		errs = append(errs, fmt.Sprintf("pdfinfo: %v", err))
	} else if m := pdfinfoPages.FindSubmatch(out); m != nil {
		if n, err := strconv.Atoi(string(m[1])); err == nil {
			ext.Pages = &n
		}
	}

	if ext.Text == nil && ext.Pages == nil {
		if len(errs) == 0 {
			errs = append(errs, "no page count in pdfinfo output")
		}
		return Extraction{}, unavailable("%s", strings.Join(errs, "; "))
	}
	return ext, nil
}

// TextResult is the outcome of a text/page resolution.
type TextResult struct {
	Text  *string
	Pages *int
}

// TextResolver gathers a page count and, when MaxChars > 0, capped text from
// extractors tried in order. The first value of each kind is kept.
type TextResolver struct {
	extractors []Extractor
	MaxChars   int

	// OnMiss, when set, is called for every extractor that failed.
	OnMiss func(source string, err error)
}

// NewTextResolver builds a resolver over the named extractors.
func NewTextResolver(order []string, maxChars int, runner Runner) (*TextResolver, error) {
	reg := NewRegistry[Request, Extraction](
		NativeExtractor{},
		PdftotextExtractor{Runner: runner},
	)
	return NewTextResolverFrom(reg, order, maxChars)
}

// NewTextResolverFrom builds a resolver from an arbitrary extractor registry.
func NewTextResolverFrom(reg *Registry[Request, Extraction], order []string, maxChars int) (*TextResolver, error) {
	if maxChars < 0 {
		return nil, fmt.Errorf("max chars must be non-negative, got %d", maxChars)
	}
	extractors, err := reg.Select(order)
	if err != nil {
		return nil, err
	}
	return &TextResolver{extractors: extractors, MaxChars: maxChars}, nil
}

// Names returns the extractor order.
func (t *TextResolver) Names() []string {
	names := make([]string, len(t.extractors))
	for i, e := range t.extractors {
		names[i] = e.Name()
	}
	return names
}

// Resolve runs extractors until the required outputs are known: pages alone
// when MaxChars is 0, pages and text otherwise. Text is cleaned and truncated
// and dropped when empty.
func (t *TextResolver) Resolve(ctx context.Context, path string) TextResult {
	wantText := t.MaxChars > 0
	need := CapPages
	if wantText {
		need |= CapText
	}

	var text *string
	var pages *int
	for _, e := range t.extractors {
		if e.Capabilities()&need == 0 {
			continue
		}
		out, err := e.Resolve(ctx, Request{Path: path, WantText: wantText})
		if err != nil {
			if t.OnMiss != nil {
				t.OnMiss(e.Name(), err)
			}
			continue
		}
		if out.Text != nil && text == nil {
			text = out.Text
		}
		if out.Pages != nil && pages == nil {
			pages = out.Pages
		}
		if !wantText && pages != nil {
			break
		}
		if wantText && text != nil && pages != nil {
			break
		}
	}

	res := TextResult{Pages: pages}
	if wantText && text != nil {
		s := Truncate(Clean(*text), t.MaxChars)
		if s != "" {
			res.Text = &s
		}
	}
	return res
}

var (
	trailingSpace = regexp.MustCompile(`\s+\n`)
	spaceRuns     = regexp.MustCompile(`[ \t]{2,}`)
)

// Clean collapses whitespace before newlines and runs of spaces or tabs.
func Clean(s string) string {
	s = trailingSpace.ReplaceAllString(s, "\n")
	return spaceRuns.ReplaceAllString(s, " ")
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
