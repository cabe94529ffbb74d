package functions

import (
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// registerConstructors installs xs:T#1 for every castable built-in atomic
// type. xs:anyAtomicType and xs:NOTATION are abstract and get none.
func registerConstructors[N xdm.Node[N]](r *runtime.FunctionRegistry[N]) {
	for t := xdm.TypeUntypedAtomic; t <= xdm.TypeHexBinary; t++ {
		if t == xdm.TypeNOTATION {
			continue
		}
		r.Register(t.QName(), 1, 1, constructor[N](t))
	}
}

func constructor[N xdm.Node[N]](t xdm.AtomicType) runtime.Function[N] {
	fn := "xs:" + t.LocalName()
	return func(cc *runtime.CallContext[N], args []xdm.Stream[N]) (xdm.Stream[N], error) {
		v, ok, err := optAtomic(args[0], fn)
		if err != nil || !ok {
			return xdm.Empty[N](), err
		}
		if t == xdm.TypeQName {
			q, err := xdm.CastQName(v, func(prefix string) (string, bool) {
				if prefix == "" {
					return cc.Static.DefaultElementNamespace(), true
				}
				return cc.Static.ResolvePrefix(prefix)
			})
			if err != nil {
				return nil, err
			}
			return atomic[N](q)
		}
		out, err := xdm.Cast(v, t)
		if err != nil {
			return nil, err
		}
		return atomic[N](out)
	}
}
