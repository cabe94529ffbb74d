// Package extstring provides extended string functions beyond the XPath 2.0
// function library. Register them via ext.With(extstring.All[N]) or pick
// single definitions.
package extstring

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/ext/extutil"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// All returns all extended string function definitions.
func All[N xdm.Node[N]]() []*runtime.FunctionDef[N] {
	return []*runtime.FunctionDef[N]{
		PadStart[N](),
		PadEnd[N](),
		LastIndexOf[N](),
		Capitalize[N](),
		TitleCase[N](),
		CamelCase[N](),
		SnakeCase[N](),
		KebabCase[N](),
		Repeat[N](),
		Words[N](),
	}
}

// unary wraps a string-to-string function as ext:name($s as xs:string?).
func unary[N xdm.Node[N]](name string, fn func(string) string) *runtime.FunctionDef[N] {
	return extutil.Def[N](name, 1, 1, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		s, err := extutil.OptString(args[0], "ext:"+name)
		if err != nil {
			return nil, err
		}
		return extutil.String[N](fn(s)), nil
	})
}

// PadStart returns the definition for ext:pad-start($s, $width[, $pad]).
// The pad string defaults to a single space and is repeated and cut so the
// result is exactly $width characters; longer strings are returned as is.
func PadStart[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return pad[N]("pad-start", true)
}

// PadEnd returns the definition for ext:pad-end($s, $width[, $pad]).
func PadEnd[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return pad[N]("pad-end", false)
}

func pad[N xdm.Node[N]](name string, start bool) *runtime.FunctionDef[N] {
	fn := "ext:" + name
	return extutil.Def[N](name, 2, 3, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		s, err := extutil.OptString(args[0], fn)
		if err != nil {
			return nil, err
		}
		width, err := extutil.OneInteger(args[1], fn)
		if err != nil {
			return nil, err
		}
		filler := " "
		if len(args) > 2 {
			if filler, err = extutil.OptString(args[2], fn); err != nil {
				return nil, err
			}
			if filler == "" {
				return nil, types.Errorf(types.ErrInvalidArgument, "%s: the pad string must not be empty", fn)
			}
		}
		missing := int(width) - utf8.RuneCountInString(s)
		if missing <= 0 {
			return extutil.String[N](s), nil
		}
		fill := []rune(strings.Repeat(filler, missing/utf8.RuneCountInString(filler)+1))[:missing]
		if start {
			return extutil.String[N](string(fill) + s), nil
		}
		return extutil.String[N](s + string(fill)), nil
	})
}

// LastIndexOf returns the definition for ext:last-index-of($s, $search).
// The result is the 1-based codepoint position of the last occurrence, or
// 0 when $search does not occur.
func LastIndexOf[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return extutil.Def[N]("last-index-of", 2, 2, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		s, err := extutil.OptString(args[0], "ext:last-index-of")
		if err != nil {
			return nil, err
		}
		search, err := extutil.OptString(args[1], "ext:last-index-of")
		if err != nil {
			return nil, err
		}
		idx := strings.LastIndex(s, search)
		if idx < 0 {
			return xdm.SingleAtomic[N](xdm.NewInteger(0)), nil
		}
		return xdm.SingleAtomic[N](xdm.NewInteger(int64(utf8.RuneCountInString(s[:idx]) + 1))), nil
	})
}

// Capitalize returns the definition for ext:capitalize($s).
// Uppercases the first character, lowercases the rest.
func Capitalize[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return unary[N]("capitalize", func(s string) string {
		if s == "" {
			return s
		}
		runes := []rune(strings.ToLower(s))
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	})
}

// TitleCase returns the definition for ext:title-case($s).
// Uppercases the first letter of each word using Unicode word boundaries.
func TitleCase[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return unary[N]("title-case", func(s string) string {
		return cases.Title(language.Und).String(s)
	})
}

// splitWordsRe matches word separators and lower-to-upper camelCase humps.
var splitWordsRe = regexp.MustCompile(`[_\-\s]+|([a-z])([A-Z])`)

func splitIntoWords(s string) []string {
	expanded := splitWordsRe.ReplaceAllStringFunc(s, func(m string) string {
		if len(m) == 2 && m[0] >= 'a' && m[0] <= 'z' {
			return string(m[0]) + " " + string(m[1])
		}
		return " "
	})
	return strings.Fields(expanded)
}

// CamelCase returns the definition for ext:camel-case($s).
func CamelCase[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return unary[N]("camel-case", func(s string) string {
		words := splitIntoWords(s)
		if len(words) == 0 {
			return ""
		}
		var b strings.Builder
		b.WriteString(strings.ToLower(words[0]))
		for _, w := range words[1:] {
			runes := []rune(strings.ToLower(w))
			runes[0] = unicode.ToUpper(runes[0])
			b.WriteString(string(runes))
		}
		return b.String()
	})
}

// SnakeCase returns the definition for ext:snake-case($s).
func SnakeCase[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return unary[N]("snake-case", func(s string) string {
		return joinLower(splitIntoWords(s), "_")
	})
}

// KebabCase returns the definition for ext:kebab-case($s).
func KebabCase[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return unary[N]("kebab-case", func(s string) string {
		return joinLower(splitIntoWords(s), "-")
	})
}

func joinLower(words []string, sep string) string {
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, sep)
}

// Repeat returns the definition for ext:repeat($s, $count).
func Repeat[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return extutil.Def[N]("repeat", 2, 2, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		s, err := extutil.OptString(args[0], "ext:repeat")
		if err != nil {
			return nil, err
		}
		n, err := extutil.OneInteger(args[1], "ext:repeat")
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, types.Errorf(types.ErrInvalidArgument, "ext:repeat: count must not be negative, got %d", n)
		}
		return extutil.String[N](strings.Repeat(s, int(n))), nil
	})
}

// Words returns the definition for ext:words($s).
// Splits on whitespace and returns the words as a sequence of strings.
func Words[N xdm.Node[N]]() *runtime.FunctionDef[N] {
	return extutil.Def[N]("words", 1, 1, func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		s, err := extutil.OptString(args[0], "ext:words")
		if err != nil {
			return nil, err
		}
		parts := strings.Fields(s)
		vals := make([]xdm.AtomicValue, len(parts))
		for i, p := range parts {
			vals[i] = xdm.NewString(p)
		}
		return xdm.AtomicSequence[N](vals...).Stream(), nil
	})
}
