package evaluator

import (
	"errors"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/compiler"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// callFunction resolves a call by expanded name and arity. The
// implementation runs only once the result is pulled; arguments are handed
// over as unevaluated streams and it decides how much of each it reads.
func (m *machine[N]) callFunction(in *compiler.Instr, args []value[N], f frame[N]) (value[N], error) {
	def, err := m.functions.Lookup(in.Name, len(args))
	if err != nil {
		var xe *types.Error
		if errors.As(err, &xe) && xe.Position < 0 {
			xe.Position = in.Pos
		}
		return value[N]{}, err
	}

	cc := m.call
	if f.focus != nil {
		cc.Focus = &runtime.Focus[N]{Item: f.focus.item, Position: f.focus.pos, Size: f.focus.size}
	}
	streams := make([]xdm.Stream[N], len(args))
	for i, a := range args {
		streams[i] = a.s
	}

	s := deferred(func() (xdm.Stream[N], error) {
		out, err := def.Impl(&cc, streams)
		if out == nil && err == nil {
			out = xdm.Empty[N]()
		}
		return out, err
	})
	return value[N]{s: s}, nil
}

// forLoop runs body once per item of in with name bound to the item and
// concatenates the results lazily.
func (m *machine[N]) forLoop(in value[N], name xdm.QName, body compiler.InstrSeq, f frame[N]) value[N] {
	s := func(yield func(xdm.Item[N], error) bool) {
		for it, err := range in.s {
			if err != nil {
				yield(it, err)
				return
			}
			r, err := m.run(body, f.withVar(name, xdm.Sequence[N]{it}))
			if err != nil {
				yield(xdm.Item[N]{}, err)
				return
			}
			for x, err := range r.s {
				if !yield(x, err) || err != nil {
					return
				}
			}
		}
	}
	return value[N]{s: s}
}

// quantified evaluates some/every, stopping at the first binding that
// decides the outcome.
func (m *machine[N]) quantified(in value[N], instr *compiler.Instr, body compiler.InstrSeq, f frame[N]) value[N] {
	every := instr.Quant == compiler.QuantEvery
	name := instr.Name
	s := deferredAtomic[N](func() (xdm.AtomicValue, error) {
		for it, err := range in.s {
			if err != nil {
				return nil, err
			}
			r, err := m.run(body, f.withVar(name, xdm.Sequence[N]{it}))
			if err != nil {
				return nil, err
			}
			b, err := ebv(r)
			if err != nil {
				return nil, err
			}
			if b != every {
				return xdm.NewBoolean(b), nil
			}
		}
		return xdm.NewBoolean(every), nil
	})
	return value[N]{s: s, single: true}
}
