// Package regex implements the regular-expression service behind
// fn:matches, fn:replace and fn:tokenize.
//
// The default Provider is backed by github.com/dlclark/regexp2, whose .NET
// dialect is close to the XML Schema flavor XPath uses: it supports
// back-references, Unicode categories (\p{Lu}) and character
// class subtraction ([a-z-[aeiou]]). The remaining differences are handled
// by rewriting the pattern before it is compiled:
//
//   - \i, \I, \c and \C expand to the XML name character classes.
//   - \p{IsBlock} and \P{IsBlock} expand to the block's code point range.
//   - "." never matches \n or \r unless the s flag is given.
//   - "$" anchors at the very end of the input unless the m flag is given.
//   - The x flag removes whitespace outside character classes.
//
// Compiled patterns are kept in an LRU cache keyed by flags and pattern.
package regex

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/cache"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
)

// Provider evaluates XPath regular expressions. Implementations must be safe
// for concurrent use.
type Provider interface {
	Matches(pattern, flags, text string) (bool, error)
	Replace(pattern, flags, text, replacement string) (string, error)
	Tokenize(pattern, flags, text string) ([]string, error)
}

// DefaultCacheSize is the number of compiled patterns kept by NewProvider.
const DefaultCacheSize = 128

// Regexp2Provider is the default Provider.
type Regexp2Provider struct {
	cache   *cache.LRU[*regexp2.Regexp]
	timeout time.Duration
}

// Option configures a Regexp2Provider.
type Option func(*options)

type options struct {
	cacheSize int
	timeout   time.Duration
}

// WithCacheSize sets how many compiled patterns are kept.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithMatchTimeout bounds the time a single match may take. Zero means no
// limit.
func WithMatchTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// NewProvider returns a regexp2-backed provider.
func NewProvider(opts ...Option) *Regexp2Provider {
	o := options{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &Regexp2Provider{
		cache:   cache.NewLRU[*regexp2.Regexp](o.cacheSize),
		timeout: o.timeout,
	}
}

// ValidateFlags checks an XPath flags string. Only s, m, i and x are
// allowed.
func ValidateFlags(flags string) error {
	for _, r := range flags {
		if !strings.ContainsRune("smix", r) {
			return types.Errorf(types.ErrRegexFlags, "invalid regular expression flag %q", r)
		}
	}
	return nil
}

// Compile returns the compiled form of pattern under flags, from the cache
// when possible.
func (p *Regexp2Provider) Compile(pattern, flags string) (*regexp2.Regexp, error) {
	key := flags + "\x00" + pattern
	if re, ok := p.cache.Get(key); ok {
		return re, nil
	}
	if err := ValidateFlags(flags); err != nil {
		return nil, err
	}
	translated, err := translate(pattern, flags)
	if err != nil {
		return nil, err
	}

	var opts regexp2.RegexOptions
	if strings.ContainsRune(flags, 'i') {
		opts |= regexp2.IgnoreCase
	}
	if strings.ContainsRune(flags, 'm') {
		opts |= regexp2.Multiline
	}
	if strings.ContainsRune(flags, 's') {
		opts |= regexp2.Singleline
	}
	re, err := regexp2.Compile(translated, opts)
	if err != nil {
		return nil, types.Errorf(types.ErrRegexPattern, "invalid regular expression %q: %v", pattern, err).WithCause(err)
	}
	if p.timeout > 0 {
		re.MatchTimeout = p.timeout
	}
	p.cache.Set(key, re)
	return re, nil
}

// Matches reports whether text contains a match of pattern.
func (p *Regexp2Provider) Matches(pattern, flags, text string) (bool, error) {
	re, err := p.Compile(pattern, flags)
	if err != nil {
		return false, err
	}
	ok, err := re.MatchString(text)
	if err != nil {
		return false, matchError(err)
	}
	return ok, nil
}

// Replace replaces every non-overlapping match of pattern in text.
// Within replacement, $N refers to the Nth captured group and \$ and \\
// stand for a literal dollar sign and backslash.
func (p *Regexp2Provider) Replace(pattern, flags, text, replacement string) (string, error) {
	re, err := p.Compile(pattern, flags)
	if err != nil {
		return "", err
	}
	if err := rejectEmptyMatch(re, "replace"); err != nil {
		return "", err
	}
	tmpl, err := parseReplacement(replacement, len(re.GetGroupNumbers())-1)
	if err != nil {
		return "", err
	}

	runes := []rune(text)
	var b strings.Builder
	last := 0
	m, err := re.FindRunesMatch(runes)
	for ; m != nil && err == nil; m, err = re.FindNextMatch(m) {
		b.WriteString(string(runes[last:m.Index]))
		tmpl.expand(&b, m)
		last = m.Index + m.Length
	}
	if err != nil {
		return "", matchError(err)
	}
	b.WriteString(string(runes[last:]))
	return b.String(), nil
}

// Tokenize splits text at every match of pattern. Leading and trailing
// empty tokens are kept; an empty text yields no tokens.
func (p *Regexp2Provider) Tokenize(pattern, flags, text string) ([]string, error) {
	re, err := p.Compile(pattern, flags)
	if err != nil {
		return nil, err
	}
	if err := rejectEmptyMatch(re, "tokenize"); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	var tokens []string
	last := 0
	m, err := re.FindRunesMatch(runes)
	for ; m != nil && err == nil; m, err = re.FindNextMatch(m) {
		tokens = append(tokens, string(runes[last:m.Index]))
		last = m.Index + m.Length
	}
	if err != nil {
		return nil, matchError(err)
	}
	return append(tokens, string(runes[last:])), nil
}

func rejectEmptyMatch(re *regexp2.Regexp, fn string) error {
	ok, err := re.MatchString("")
	if err != nil {
		return matchError(err)
	}
	if ok {
		return types.Errorf(types.ErrRegexEmptyMatch, "fn:%s: pattern %q matches the empty string", fn, re.String())
	}
	return nil
}

func matchError(err error) error {
	return types.Errorf(types.ErrRegexPattern, "regular expression evaluation failed: %v", err).WithCause(err)
}

// replacement is a parsed replacement string: literal text interleaved with
// group references.
type replacement struct {
	parts []replacementPart
}

type replacementPart struct {
	literal string
	group   int // -1 for literal parts
}

func parseReplacement(s string, groups int) (*replacement, error) {
	r := &replacement{}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			r.parts = append(r.parts, replacementPart{literal: lit.String(), group: -1})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			if i+1 >= len(s) || (s[i+1] != '\\' && s[i+1] != '$') {
				return nil, types.Errorf(types.ErrRegexReplacement, "invalid replacement string %q: \\ must be followed by \\ or $", s)
			}
			lit.WriteByte(s[i+1])
			i++
		case '$':
			if i+1 >= len(s) || s[i+1] < '0' || s[i+1] > '9' {
				return nil, types.Errorf(types.ErrRegexReplacement, "invalid replacement string %q: $ must be followed by a digit", s)
			}
			// Take as many digits as still name an existing group.
			n := int(s[i+1] - '0')
			i++
			for i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
				next := n*10 + int(s[i+1]-'0')
				if next > groups {
					break
				}
				n = next
				i++
			}
			flush()
			r.parts = append(r.parts, replacementPart{group: n})
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return r, nil
}

func (r *replacement) expand(b *strings.Builder, m *regexp2.Match) {
	for _, part := range r.parts {
		if part.group < 0 {
			b.WriteString(part.literal)
			continue
		}
		if g := m.GroupByNumber(part.group); g != nil && len(g.Captures) > 0 {
			b.WriteString(g.String())
		}
	}
}

// XML name character classes, without the surrounding brackets.
const (
	nameStartClass = `_:A-Za-z\u00C0-\u00D6\u00D8-\u00F6\u00F8-\u02FF\u0370-\u037D\u037F-\u1FFF\u200C-\u200D` +
		`\u2070-\u218F\u2C00-\u2FEF\u3001-\uD7FF\uF900-\uFDCF\uFDF0-\uFFFD`
	nameCharClass = nameStartClass + `\-.0-9\u00B7\u0300-\u036F\u203F-\u2040`
)

// translate rewrites an XPath pattern into the regexp2 dialect.
func translate(pattern, flags string) (string, error) {
	dotAll := strings.ContainsRune(flags, 's')
	multiline := strings.ContainsRune(flags, 'm')
	extended := strings.ContainsRune(flags, 'x')

	var b strings.Builder
	depth := 0 // character class nesting, for subtraction
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\':
			if i+1 >= len(runes) {
				return "", types.Errorf(types.ErrRegexPattern, "invalid regular expression %q: trailing backslash", pattern)
			}
			i++
			esc := runes[i]
			switch esc {
			case 'i', 'c':
				class := nameStartClass
				if esc == 'c' {
					class = nameCharClass
				}
				if depth > 0 {
					b.WriteString(class)
				} else {
					b.WriteString("[" + class + "]")
				}
			case 'I', 'C':
				if depth > 0 {
					return "", types.Errorf(types.ErrRegexPattern,
						"invalid regular expression %q: \\%c is not supported inside a character class", pattern, esc)
				}
				class := nameStartClass
				if esc == 'C' {
					class = nameCharClass
				}
				b.WriteString("[^" + class + "]")
			case 'p', 'P':
				name, end, ok := blockEscape(runes, i)
				if !ok {
					b.WriteRune('\\')
					b.WriteRune(esc)
					continue
				}
				class, known := blockClass(name)
				if !known {
					return "", types.Errorf(types.ErrRegexPattern, "invalid regular expression %q: unknown block Is%s", pattern, name)
				}
				switch {
				case esc == 'p' && depth > 0:
					b.WriteString(class)
				case esc == 'p':
					b.WriteString("[" + class + "]")
				case depth > 0:
					return "", types.Errorf(types.ErrRegexPattern,
						"invalid regular expression %q: \\P{Is%s} is not supported inside a character class", pattern, name)
				default:
					b.WriteString("[^" + class + "]")
				}
				i = end
			default:
				b.WriteRune('\\')
				b.WriteRune(esc)
			}
		case extended && depth == 0 && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			// dropped
		case r == '[':
			depth++
			b.WriteRune(r)
		case r == ']' && depth > 0:
			depth--
			b.WriteRune(r)
		case r == '.' && depth == 0 && !dotAll:
			b.WriteString(`[^\n\r]`)
		case r == '$' && depth == 0 && !multiline:
			b.WriteString(`\z`)
		default:
			b.WriteRune(r)
		}
	}
	if depth > 0 {
		return "", types.Errorf(types.ErrRegexPattern, "invalid regular expression %q: unterminated character class", pattern)
	}
	return b.String(), nil
}

// String describes the provider for diagnostics.
func (p *Regexp2Provider) String() string {
	return fmt.Sprintf("regexp2(cache=%d/%d)", p.cache.Len(), p.cache.Capacity())
}
