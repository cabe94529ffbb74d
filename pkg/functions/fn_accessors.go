package functions

import (
	"log/slog"
	"strings"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

func fnNodeName[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	n, ok, err := optNode(args[0], "fn:node-name")
	if err != nil || !ok {
		return xdm.Empty[N](), err
	}
	name, has := n.Name()
	if !has {
		return empty[N]()
	}
	if n.Kind() == xdm.KindNamespace {
		// A namespace node is named by its prefix; the default namespace
		// node has no name.
		if name.Local == "" {
			return empty[N]()
		}
		name = xdm.NewQName("", name.Local)
	}
	return atomic[N](xdm.NewQNameValue(name))
}

func fnNilled[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	n, ok, err := optNode(args[0], "fn:nilled")
	if err != nil || !ok || n.Kind() != xdm.KindElement {
		return xdm.Empty[N](), err
	}
	// Untyped trees are never nilled.
	return boolResult[N](false)
}

func fnString[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	if len(args) == 0 {
		it, err := cc.ContextItem()
		if err != nil {
			return nil, err
		}
		return stringResult[N](it.StringValue())
	}
	items, more, err := args[0].Take(1)
	if err != nil {
		return nil, err
	}
	if more {
		return nil, types.Errorf(types.ErrType, "fn:string: expected at most one item")
	}
	if len(items) == 0 {
		return stringResult[N]("")
	}
	return stringResult[N](items[0].StringValue())
}

func fnData[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	return xdm.Atomize(args[0]), nil
}

func fnBaseURI[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	n, ok, err := nodeOrContext(cc, args, "fn:base-uri")
	if err != nil || !ok {
		return xdm.Empty[N](), err
	}
	if p, isProvider := any(n).(xdm.BaseURIProvider); isProvider {
		if uri, has := p.BaseURI(); has {
			return atomic[N](xdm.NewAnyURI(uri))
		}
	}
	return empty[N]()
}

func fnDocumentURI[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	n, ok, err := optNode(args[0], "fn:document-uri")
	if err != nil || !ok || n.Kind() != xdm.KindDocument {
		return xdm.Empty[N](), err
	}
	if p, isProvider := any(n).(xdm.DocumentURIProvider); isProvider {
		if uri, has := p.DocumentURI(); has && uri != "" {
			return atomic[N](xdm.NewAnyURI(uri))
		}
	}
	return empty[N]()
}

// fnError raises the error named by its first argument, FOER0000 when the
// name is absent. The third argument is carried as the error's value.
func fnError[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	code := xdm.NewQName(types.ErrorNamespace, string(types.ErrUserError))
	if len(args) > 0 {
		v, ok, err := optAtomic(args[0], "fn:error")
		if err != nil {
			return nil, err
		}
		if ok {
			q, isQName := v.(xdm.QNameValue)
			if !isQName {
				return nil, types.Errorf(types.ErrType, "fn:error: expected xs:QName, found %s", v.Type())
			}
			code = q.Name
		}
	}
	desc := "error raised by fn:error"
	if len(args) > 1 {
		s, err := oneString(args[1], "fn:error")
		if err != nil {
			return nil, err
		}
		desc = s
	}
	e := types.Errorf(types.ErrorCode(code.Local), "%s", desc)
	e.Namespace = code.NS
	if len(args) > 2 {
		seq, err := args[2].Collect()
		if err != nil {
			return nil, err
		}
		e.Value = describe(seq)
	}
	return nil, e
}

// fnTrace logs its value under the label and returns it unchanged.
func fnTrace[N xdm.Node[N]](cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	seq, err := args[0].Collect()
	if err != nil {
		return nil, err
	}
	label, err := oneString(args[1], "fn:trace")
	if err != nil {
		return nil, err
	}
	cc.Logger.Info("trace", slog.String("label", label), slog.String("value", describe(seq)))
	return seq.Stream(), nil
}

// describe renders a sequence for diagnostics.
func describe[N xdm.Node[N]](seq xdm.Sequence[N]) string {
	parts := make([]string, len(seq))
	for i, it := range seq {
		if n, ok := it.Node(); ok {
			parts[i] = n.Kind().String() + "(" + n.StringValue() + ")"
			continue
		}
		v, _ := it.Atomic()
		parts[i] = v.Type().String() + "(" + v.String() + ")"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func fnTrue[N xdm.Node[N]](*runtime.CallContext[N], []xdm.Stream[N]) (xdm.Stream[N], error) {
	return boolResult[N](true)
}

func fnFalse[N xdm.Node[N]](*runtime.CallContext[N], []xdm.Stream[N]) (xdm.Stream[N], error) {
	return boolResult[N](false)
}

func fnNot[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	b, err := xdm.EffectiveBooleanValue(args[0])
	if err != nil {
		return nil, err
	}
	return boolResult[N](!b)
}

func fnBoolean[N xdm.Node[N]](_ *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
	b, err := xdm.EffectiveBooleanValue(args[0])
	if err != nil {
		return nil, err
	}
	return boolResult[N](b)
}
