// Package collation provides the string collations used by comparisons and
// by the collation-aware functions.
//
// Four collations are built in: the Unicode codepoint collation required by
// XPath, and three simple collations that ignore case, accents or both. A
// Registry maps collation URIs to implementations and reports unknown URIs
// as err:FOCH0002.
package collation

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
)

// Collation URIs.
const (
	CodepointURI        = "http://www.w3.org/2005/xpath-functions/collation/codepoint"
	SimpleCaseURI       = "urn:platynui:collation:simple-case"
	SimpleAccentURI     = "urn:platynui:collation:simple-accent"
	SimpleCaseAccentURI = "urn:platynui:collation:simple-case-accent"
)

// Collation orders strings. Implementations must be safe for concurrent use.
type Collation interface {
	URI() string
	// Compare returns -1, 0 or 1.
	Compare(a, b string) int
	// Key returns a string whose codepoint order equals the collation
	// order. Equal keys mean equal strings under the collation.
	Key(s string) string
}

type codepoint struct{}

func (codepoint) URI() string { return CodepointURI }

func (codepoint) Compare(a, b string) int { return strings.Compare(a, b) }

func (codepoint) Key(s string) string { return s }

// keyed is a collation defined entirely by a key function.
type keyed struct {
	uri string
	key func(string) string
}

func (k keyed) URI() string { return k.uri }

func (k keyed) Key(s string) string { return k.key(s) }

func (k keyed) Compare(a, b string) int {
	return strings.Compare(k.key(a), k.key(b))
}

// Transformers carry state, so every call builds its own.

func foldCase(s string) string {
	return cases.Fold().String(s)
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Codepoint returns the Unicode codepoint collation.
func Codepoint() Collation { return codepoint{} }

// SimpleCase returns a collation that ignores case differences.
func SimpleCase() Collation { return keyed{uri: SimpleCaseURI, key: foldCase} }

// SimpleAccent returns a collation that ignores nonspacing marks.
func SimpleAccent() Collation { return keyed{uri: SimpleAccentURI, key: stripAccents} }

// SimpleCaseAccent returns a collation that ignores case and nonspacing
// marks.
func SimpleCaseAccent() Collation {
	return keyed{uri: SimpleCaseAccentURI, key: func(s string) string {
		return foldCase(stripAccents(s))
	}}
}

// Registry maps collation URIs to collations.
type Registry struct {
	mu    sync.RWMutex
	byURI map[string]Collation
}

// NewRegistry returns a registry holding the built-in collations.
func NewRegistry() *Registry {
	r := &Registry{byURI: make(map[string]Collation)}
	for _, c := range []Collation{Codepoint(), SimpleCase(), SimpleAccent(), SimpleCaseAccent()} {
		r.byURI[c.URI()] = c
	}
	return r
}

// Register adds or replaces a collation under its URI.
func (r *Registry) Register(c Collation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byURI[c.URI()] = c
}

// Lookup returns the collation registered for uri, or err:FOCH0002.
func (r *Registry) Lookup(uri string) (Collation, error) {
	r.mu.RLock()
	c, ok := r.byURI[uri]
	r.mu.RUnlock()
	if !ok {
		return nil, types.Errorf(types.ErrUnknownCollation, "unknown collation %q", uri)
	}
	return c, nil
}

// Resolve looks up uri, falling back to defaultURI when uri is empty and to
// the codepoint collation when both are.
func (r *Registry) Resolve(uri, defaultURI string) (Collation, error) {
	switch {
	case uri != "":
		return r.Lookup(uri)
	case defaultURI != "":
		return r.Lookup(defaultURI)
	}
	return Codepoint(), nil
}

// URIs returns the registered collation URIs in sorted order.
func (r *Registry) URIs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.byURI))
}
