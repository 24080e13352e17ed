// Package resolve derives record attributes from a matched file through
// ordered fallback chains of named sources.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSourceUnavailable marks a source that could not produce a value for the
// given input. Chains treat it as a miss and move on.
var ErrSourceUnavailable = errors.New("source unavailable")

// Capability describes what a source can produce.
type Capability uint8

const (
	CapDate Capability = 1 << iota
	CapText
	CapPages
)

// Has reports whether c includes all of want.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// Source is one named strategy in a fallback chain.
type Source[In, Out any] interface {
	Name() string
	Capabilities() Capability
	Resolve(ctx context.Context, in In) (Out, error)
}

// Registry holds sources addressable by name.
type Registry[In, Out any] struct {
	sources map[string]Source[In, Out]
}

// NewRegistry registers the given sources. Later sources replace earlier ones
// with the same name.
func NewRegistry[In, Out any](sources ...Source[In, Out]) *Registry[In, Out] {
	r := &Registry[In, Out]{sources: make(map[string]Source[In, Out], len(sources))}
	for _, s := range sources {
		r.sources[s.Name()] = s
	}
	return r
}

// Names lists registered source names in lexical order.
func (r *Registry[In, Out]) Names() []string {
	names := make([]string, 0, len(r.sources))
	for n := range r.sources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the source registered under name.
func (r *Registry[In, Out]) Lookup(name string) (Source[In, Out], bool) {
	s, ok := r.sources[name]
	return s, ok
}

// Select returns the named sources in the given order.
func (r *Registry[In, Out]) Select(order []string) ([]Source[In, Out], error) {
	if len(order) == 0 {
		return nil, errors.New("empty source order")
	}
	out := make([]Source[In, Out], 0, len(order))
	for _, name := range order {
		s, ok := r.sources[name]
		if !ok {
			return nil, fmt.Errorf("unknown source %q (valid: %s)", name, strings.Join(r.Names(), ","))
		}
		out = append(out, s)
	}
	return out, nil
}

// Chain builds a first-hit-wins chain from the named sources.
func (r *Registry[In, Out]) Chain(order []string) (*Chain[In, Out], error) {
	sources, err := r.Select(order)
	if err != nil {
		return nil, err
	}
	return &Chain[In, Out]{sources: sources}, nil
}

// Chain tries its sources in order and returns the first value produced.
type Chain[In, Out any] struct {
	sources []Source[In, Out]

	// OnMiss, when set, is called for every source that produced nothing.
	OnMiss func(source string, err error)
}

// Names returns the chain order.
func (c *Chain[In, Out]) Names() []string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return names
}

// Resolve returns the first value produced along with the name of the source
// that produced it. The boolean is false when every source missed.
func (c *Chain[In, Out]) Resolve(ctx context.Context, in In) (Out, string, bool) {
	for _, s := range c.sources {
		out, err := s.Resolve(ctx, in)
		if err == nil {
			return out, s.Name(), true
		}
		if c.OnMiss != nil {
			c.OnMiss(s.Name(), err)
		}
	}
	var zero Out
	return zero, "", false
}

// ParseOrder splits a comma separated source list, trimming and lower-casing
// each entry and dropping empty ones.
func ParseOrder(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSourceUnavailable, fmt.Sprintf(format, args...))
}
