package functions

import (
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/collation"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// collationArg returns the collation named by args[i], or the default
// collation when the argument is not supplied.
func collationArg[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N], i int, fn string) (collation.Collation, error) {
	if len(args) <= i {
		return cc.Collation("")
	}
	uri, err := oneString(args[i], fn)
	if err != nil {
		return nil, err
	}
	if uri == "" {
		return nil, types.Errorf(types.ErrUnknownCollation, "%s: empty collation URI", fn)
	}
	return cc.Collation(uri)
}

// stringOrContext reads an optional string argument, defaulting to the
// string value of the context item.
func stringOrContext[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N], fn string) (string, error) {
	if len(args) == 0 {
		it, err := cc.ContextItem()
		if err != nil {
			return "", err
		}
		return it.StringValue(), nil
	}
	return optString(args[0], fn)
}

func isXMLChar(cp int64) bool {
	return cp == 0x9 || cp == 0xA || cp == 0xD ||
		(cp >= 0x20 && cp <= 0xD7FF) ||
		(cp >= 0xE000 && cp <= 0xFFFD) ||
		(cp >= 0x10000 && cp <= 0x10FFFF)
}

func fnCodepointsToString[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	vals, err := atomics(args[0])
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for _, v := range vals {
		i, ok := v.(xdm.IntegerValue)
		if !ok {
			return nil, types.Errorf(types.ErrType, "fn:codepoints-to-string: expected xs:integer, found %s", v.Type())
		}
		if !isXMLChar(i.V) {
			return nil, types.Errorf(types.ErrInvalidCodepoint, "fn:codepoints-to-string: invalid XML character #x%X", i.V)
		}
		b.WriteRune(rune(i.V))
	}
	return stringResult[N](b.String())
}

func fnStringToCodepoints[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	s, err := optString(args[0], "fn:string-to-codepoints")
	if err != nil {
		return nil, err
	}
	return func(yield func(xdm.Item[N], error) bool) {
		for _, r := range s {
			if !yield(xdm.AtomicItem[N](xdm.NewInteger(int64(r))), nil) {
				return
			}
		}
	}, nil
}

// twoOptStrings reads the two leading xs:string? arguments; ok is false if
// either is empty.
func twoOptStrings[N xdm.Node[N]](args []xdm.Stream[N], fn string) (a, b string, ok bool, err error) {
	va, okA, err := optAtomic(args[0], fn)
	if err != nil {
		return "", "", false, err
	}
	vb, okB, err := optAtomic(args[1], fn)
	if err != nil || !okA || !okB {
		return "", "", false, err
	}
	if a, err = stringOf(va, fn); err != nil {
		return "", "", false, err
	}
	if b, err = stringOf(vb, fn); err != nil {
		return "", "", false, err
	}
	return a, b, true, nil
}

func fnCompare[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	a, b, ok, err := twoOptStrings(args, "fn:compare")
	if err != nil || !ok {
		return xdm.Empty[N](), err
	}
	c, err := collationArg(cc, args, 2, "fn:compare")
	if err != nil {
		return nil, err
	}
	return intResult[N](int64(sign(c.Compare(a, b))))
}

func sign(c int) int {
	switch {
	case c < 0:
		return -1
	case c > 0:
		return 1
	}
	return 0
}

func fnCodepointEqual[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	a, b, ok, err := twoOptStrings(args, "fn:codepoint-equal")
	if err != nil || !ok {
		return xdm.Empty[N](), err
	}
	return boolResult[N](a == b)
}

func fnConcat[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	var b strings.Builder
	for _, arg := range args {
		v, ok, err := optAtomic(arg, "fn:concat")
		if err != nil {
			return nil, err
		}
		if ok {
			b.WriteString(v.String())
		}
	}
	return stringResult[N](b.String())
}

func fnStringJoin[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	sep := ""
	if len(args) > 1 {
		s, err := oneString(args[1], "fn:string-join")
		if err != nil {
			return nil, err
		}
		sep = s
	}
	var b strings.Builder
	first := true
	for it, err := range args[0] {
		if err != nil {
			return nil, err
		}
		s, err := stringOf(xdm.AtomizeItem(it), "fn:string-join")
		if err != nil {
			return nil, err
		}
		if !first {
			b.WriteString(sep)
		}
		b.WriteString(s)
		first = false
	}
	return stringResult[N](b.String())
}

// oneDouble reads a numeric argument as a float64.
func oneDouble[N xdm.Node[N]](s xdm.Stream[N], fn string) (float64, error) {
	v, err := oneAtomic(s, fn)
	if err != nil {
		return 0, err
	}
	v, err = numericOf(v, fn)
	if err != nil {
		return 0, err
	}
	return xdm.ToFloat64(v), nil
}

// fnSubstring keeps the characters at positions p with
// round(start) <= p < round(start) + round(length). NaN and infinite
// bounds fall out of the comparisons.
func fnSubstring[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	s, err := optString(args[0], "fn:substring")
	if err != nil {
		return nil, err
	}
	start, err := oneDouble(args[1], "fn:substring")
	if err != nil {
		return nil, err
	}
	start = roundFloat(start)
	end := math.Inf(1)
	if len(args) > 2 {
		length, err := oneDouble(args[2], "fn:substring")
		if err != nil {
			return nil, err
		}
		end = start + roundFloat(length)
	}
	var b strings.Builder
	p := 0
	for _, r := range s {
		p++
		pos := float64(p)
		if pos >= start && pos < end {
			b.WriteRune(r)
		}
	}
	return stringResult[N](b.String())
}

func fnStringLength[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	s, err := stringOrContext(cc, args, "fn:string-length")
	if err != nil {
		return nil, err
	}
	return intResult[N](int64(utf8.RuneCountInString(s)))
}

func fnNormalizeSpace[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	s, err := stringOrContext(cc, args, "fn:normalize-space")
	if err != nil {
		return nil, err
	}
	return stringResult[N](xdm.CollapseWhitespace(s))
}

func fnNormalizeUnicode[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	s, err := optString(args[0], "fn:normalize-unicode")
	if err != nil {
		return nil, err
	}
	form := "NFC"
	if len(args) > 1 {
		f, err := oneString(args[1], "fn:normalize-unicode")
		if err != nil {
			return nil, err
		}
		form = strings.ToUpper(strings.TrimSpace(f))
	}
	switch form {
	case "":
		return stringResult[N](s)
	case "NFC", "FULLY-NORMALIZED":
		return stringResult[N](norm.NFC.String(s))
	case "NFD":
		return stringResult[N](norm.NFD.String(s))
	case "NFKC":
		return stringResult[N](norm.NFKC.String(s))
	case "NFKD":
		return stringResult[N](norm.NFKD.String(s))
	}
	return nil, types.Errorf(types.ErrUnsupportedNormForm, "fn:normalize-unicode: unsupported normalization form %q", form)
}

func fnUpperCase[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	s, err := optString(args[0], "fn:upper-case")
	if err != nil {
		return nil, err
	}
	return stringResult[N](cases.Upper(language.Und).String(s))
}

func fnLowerCase[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	s, err := optString(args[0], "fn:lower-case")
	if err != nil {
		return nil, err
	}
	return stringResult[N](cases.Lower(language.Und).String(s))
}

func fnTranslate[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	s, err := optString(args[0], "fn:translate")
	if err != nil {
		return nil, err
	}
	from, err := oneString(args[1], "fn:translate")
	if err != nil {
		return nil, err
	}
	to, err := oneString(args[2], "fn:translate")
	if err != nil {
		return nil, err
	}
	toRunes := []rune(to)
	mapping := make(map[rune]rune)
	i := 0
	for _, r := range from {
		if _, seen := mapping[r]; !seen {
			if i < len(toRunes) {
				mapping[r] = toRunes[i]
			} else {
				mapping[r] = -1
			}
		}
		i++
	}
	return stringResult[N](strings.Map(func(r rune) rune {
		if m, ok := mapping[r]; ok {
			return m
		}
		return r
	}, s))
}

// Substring matching under a collation.

type substringFunc func(c collation.Collation, s, sub string) (xdm.AtomicValue, error)

func substringOp[N xdm.Node[N]](fn string, op substringFunc) runtime.Function[N] {
	return func(cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		s, err := optString(args[0], fn)
		if err != nil {
			return nil, err
		}
		sub, err := optString(args[1], fn)
		if err != nil {
			return nil, err
		}
		c, err := collationArg(cc, args, 2, fn)
		if err != nil {
			return nil, err
		}
		v, err := op(c, s, sub)
		if err != nil {
			return nil, err
		}
		return atomic[N](v)
	}
}

func fnContains[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return substringOp[N]("fn:contains", func(c collation.Collation, s, sub string) (xdm.AtomicValue, error) {
		return xdm.NewBoolean(strings.Contains(c.Key(s), c.Key(sub))), nil
	})(cc, args)
}

func fnStartsWith[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return substringOp[N]("fn:starts-with", func(c collation.Collation, s, sub string) (xdm.AtomicValue, error) {
		return xdm.NewBoolean(strings.HasPrefix(c.Key(s), c.Key(sub))), nil
	})(cc, args)
}

func fnEndsWith[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return substringOp[N]("fn:ends-with", func(c collation.Collation, s, sub string) (xdm.AtomicValue, error) {
		return xdm.NewBoolean(strings.HasSuffix(c.Key(s), c.Key(sub))), nil
	})(cc, args)
}

func fnSubstringBefore[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return substringOp[N]("fn:substring-before", func(c collation.Collation, s, sub string) (xdm.AtomicValue, error) {
		start, _, ok := collationIndex(c, s, sub)
		if !ok {
			return xdm.NewString(""), nil
		}
		return xdm.NewString(s[:start]), nil
	})(cc, args)
}

func fnSubstringAfter[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return substringOp[N]("fn:substring-after", func(c collation.Collation, s, sub string) (xdm.AtomicValue, error) {
		_, end, ok := collationIndex(c, s, sub)
		if !ok {
			return xdm.NewString(""), nil
		}
		return xdm.NewString(s[end:]), nil
	})(cc, args)
}

// collationIndex finds the first occurrence of sub in s under c and returns
// its byte range in s. Keys are computed per character, so the match always
// covers whole characters of s; a character whose key is empty (a
// combining mark under an accent-insensitive collation) stays with the
// character before it.
func collationIndex(c collation.Collation, s, sub string) (start, end int, ok bool) {
	if c.URI() == collation.CodepointURI {
		i := strings.Index(s, sub)
		if i < 0 {
			return 0, 0, false
		}
		return i, i + len(sub), true
	}
	k := c.Key(sub)
	if k == "" {
		return 0, 0, true
	}

	var keys strings.Builder
	// boundary maps a key offset to the byte offset in s of the last
	// character starting there.
	boundary := make(map[int]int)
	var offsets []int
	for i, r := range s {
		if _, seen := boundary[keys.Len()]; !seen {
			offsets = append(offsets, keys.Len())
		}
		boundary[keys.Len()] = i
		keys.WriteString(c.Key(string(r)))
	}
	if _, seen := boundary[keys.Len()]; !seen {
		offsets = append(offsets, keys.Len())
	}
	boundary[keys.Len()] = len(s)

	ks := keys.String()
	for _, off := range offsets {
		if !strings.HasPrefix(ks[off:], k) {
			continue
		}
		e, aligned := boundary[off+len(k)]
		if !aligned {
			continue
		}
		return boundary[off], e, true
	}
	return 0, 0, false
}
