package collation_test

import (
	"sync"
	"testing"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/collation"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
)

func TestCollationCompare(t *testing.T) {
	tests := []struct {
		name     string
		coll     collation.Collation
		a, b     string
		expected int
	}{
		{"codepoint equal", collation.Codepoint(), "abc", "abc", 0},
		{"codepoint case", collation.Codepoint(), "B", "a", -1},
		{"codepoint accent", collation.Codepoint(), "é", "e", 1},
		{"case equal", collation.SimpleCase(), "Straße", "STRASSE", 0},
		{"case order", collation.SimpleCase(), "B", "a", 1},
		{"case keeps accents", collation.SimpleCase(), "É", "e", 1},
		{"accent equal", collation.SimpleAccent(), "café", "cafe", 0},
		{"accent keeps case", collation.SimpleAccent(), "Café", "cafe", -1},
		{"case accent equal", collation.SimpleCaseAccent(), "CAFÉ", "cafe", 0},
		{"case accent order", collation.SimpleCaseAccent(), "Ábc", "abd", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.coll.Compare(tt.a, tt.b); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestCollationKeys(t *testing.T) {
	c := collation.SimpleCaseAccent()
	if c.Key("Ärger") != c.Key("arger") {
		t.Errorf("expected equal keys, got %q and %q", c.Key("Ärger"), c.Key("arger"))
	}
	if got := collation.Codepoint().Key("Ä"); got != "Ä" {
		t.Errorf("expected codepoint key to be the identity, got %q", got)
	}
}

func TestRegistry(t *testing.T) {
	r := collation.NewRegistry()

	for _, uri := range []string{
		collation.CodepointURI,
		collation.SimpleCaseURI,
		collation.SimpleAccentURI,
		collation.SimpleCaseAccentURI,
	} {
		c, err := r.Lookup(uri)
		if err != nil {
			t.Fatalf("lookup %s: %v", uri, err)
		}
		if c.URI() != uri {
			t.Errorf("expected %s, got %s", uri, c.URI())
		}
	}

	if _, err := r.Lookup("urn:unknown"); types.CodeOf(err) != types.ErrUnknownCollation {
		t.Errorf("expected FOCH0002, got %v", err)
	}

	c, err := r.Resolve("", "")
	if err != nil || c.URI() != collation.CodepointURI {
		t.Errorf("expected codepoint fallback, got %v, %v", c, err)
	}
	c, err = r.Resolve("", collation.SimpleCaseURI)
	if err != nil || c.URI() != collation.SimpleCaseURI {
		t.Errorf("expected default collation, got %v, %v", c, err)
	}
	if got := len(r.URIs()); got != 4 {
		t.Errorf("expected 4 collations, got %d", got)
	}
}

type reverse struct{}

func (reverse) URI() string             { return "urn:test:reverse" }
func (reverse) Compare(a, b string) int { return collation.Codepoint().Compare(b, a) }
func (reverse) Key(s string) string     { return s }

func TestRegistryConcurrentRegister(t *testing.T) {
	r := collation.NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register(reverse{})
		}()
		go func() {
			defer wg.Done()
			_, _ = r.Lookup(collation.CodepointURI)
		}()
	}
	wg.Wait()

	c, err := r.Lookup("urn:test:reverse")
	if err != nil {
		t.Fatal(err)
	}
	if c.Compare("a", "b") != 1 {
		t.Errorf("expected reversed order")
	}
}
