package functions

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

func fnResolveURI[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	v, ok, err := optAtomic(args[0], "fn:resolve-uri")
	if err != nil || !ok {
		return xdm.Empty[N](), err
	}
	relative, err := stringOf(v, "fn:resolve-uri")
	if err != nil {
		return nil, err
	}
	rel, err := url.Parse(relative)
	if err != nil {
		return nil, types.Errorf(types.ErrInvalidURI, "fn:resolve-uri: invalid URI %q", relative).WithCause(err)
	}
	if rel.IsAbs() {
		return atomic[N](xdm.NewAnyURI(relative))
	}

	base := cc.Static.BaseURI()
	if len(args) > 1 {
		if base, err = oneString(args[1], "fn:resolve-uri"); err != nil {
			return nil, err
		}
	}
	if base == "" {
		return nil, types.Errorf(types.ErrNoBaseURI, "fn:resolve-uri: no base URI to resolve %q against", relative)
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		e := types.Errorf(types.ErrInvalidURI, "fn:resolve-uri: invalid base URI %q", base)
		if err != nil {
			e = e.WithCause(err)
		}
		return nil, e
	}
	return atomic[N](xdm.NewAnyURI(b.ResolveReference(rel).String()))
}

// percentEncode escapes every UTF-8 byte of s for which keep is false.
func percentEncode(s string, keep func(b byte) bool) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if keep(c) {
			sb.WriteByte(c)
			continue
		}
		fmt.Fprintf(&sb, "%%%02X", c)
	}
	return sb.String()
}

func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '~'
}

func uriFunc[N xdm.Node[N]](fn string, keep func(b byte) bool) runtime.Function[N] {
	return func(_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		s, err := optString(args[0], fn)
		if err != nil {
			return nil, err
		}
		return stringResult[N](percentEncode(s, keep))
	}
}

func fnEncodeForURI[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return uriFunc[N]("fn:encode-for-uri", isUnreserved)(cc, args)
}

func fnIRIToURI[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return uriFunc[N]("fn:iri-to-uri", func(c byte) bool {
		if c <= 0x20 || c >= 0x7F {
			return false
		}
		return !strings.ContainsRune("<>\"{}|\\^`", rune(c))
	})(cc, args)
}

func fnEscapeHTMLURI[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return uriFunc[N]("fn:escape-html-uri", func(c byte) bool {
		return c >= 0x20 && c <= 0x7E
	})(cc, args)
}
