package evaluator

import (
	"log/slog"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/compiler"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// run executes one block and returns the value left on top of the stack.
//
// Instructions execute eagerly, in order; the values they push are lazy
// streams, so most of the work happens when the result is consumed.
// Control flow (jumps, conditions, quantifier and loop bodies) is decided
// here, which is why skipped branches never raise errors.
func (m *machine[N]) run(code compiler.InstrSeq, f frame[N]) (value[N], error) {
	if err := m.checkContext(); err != nil {
		return value[N]{}, err
	}
	if err := m.checkDepth(f); err != nil {
		return value[N]{}, err
	}
	if m.debug && len(code) > 0 {
		m.logger.Debug("executing block",
			slog.String("first", code[0].Op.String()),
			slog.Int("instructions", len(code)),
			slog.Int("depth", f.depth))
	}

	var st stack[N]
	for ip := 0; ip < len(code); ip++ {
		in := &code[ip]
		switch in.Op {
		case compiler.OpPushAtomic:
			st.push(atomicValue[N](in.Value))

		case compiler.OpLoadVarByName:
			seq, err := m.variable(f, in.Name)
			if err != nil {
				return value[N]{}, err
			}
			v := stream(seq.Stream())
			v.single = len(seq) <= 1
			v.ordered = len(seq) == 1 && seq[0].IsNode()
			st.push(v)

		case compiler.OpLoadContextItem:
			if f.focus == nil {
				return value[N]{}, types.Errorf(types.ErrStaticContextAbsent, "the context item is absent")
			}
			st.push(singleton(f.focus.item))

		case compiler.OpPosition:
			if f.focus == nil {
				return value[N]{}, types.Errorf(types.ErrStaticContextAbsent, "position(): the focus is absent")
			}
			st.push(atomicValue[N](xdm.NewInteger(int64(f.focus.pos))))

		case compiler.OpLast:
			if f.focus == nil {
				return value[N]{}, types.Errorf(types.ErrStaticContextAbsent, "last(): the focus is absent")
			}
			size := f.focus.size
			st.push(stream(deferredAtomic[N](func() (xdm.AtomicValue, error) {
				n, err := size()
				if err != nil {
					return nil, err
				}
				return xdm.NewInteger(int64(n)), nil
			})))

		case compiler.OpToRoot:
			root, err := m.root(f)
			if err != nil {
				return value[N]{}, err
			}
			st.push(singleton(xdm.NodeItem(root)))

		case compiler.OpDup:
			st.push(st.top())

		case compiler.OpSwap:
			b, a := st.pop(), st.pop()
			st.push(b)
			st.push(a)

		case compiler.OpPop:
			st.pop()

		case compiler.OpAxisStep:
			st.push(m.axisStep(st.pop(), in, f))

		case compiler.OpPathExprStep:
			st.push(m.pathExprStep(st.pop(), in.Sub, f))

		case compiler.OpApplyPredicates:
			v := st.pop()
			s := v.s
			for _, pred := range in.Preds {
				s = m.filter(s, pred, f)
			}
			st.push(value[N]{s: s, ordered: v.ordered, single: v.single})

		case compiler.OpDocOrderDistinct:
			st.push(docOrder(st.pop()))

		case compiler.OpAdd, compiler.OpSub, compiler.OpMul, compiler.OpDiv, compiler.OpIDiv, compiler.OpMod:
			b, a := st.pop(), st.pop()
			st.push(m.arithmetic(arithOps[in.Op], a, b))

		case compiler.OpAnd, compiler.OpOr:
			b, a := st.pop(), st.pop()
			x, err := ebv(a)
			if err != nil {
				return value[N]{}, err
			}
			y, err := ebv(b)
			if err != nil {
				return value[N]{}, err
			}
			if in.Op == compiler.OpAnd {
				st.push(boolValue[N](x && y))
			} else {
				st.push(boolValue[N](x || y))
			}

		case compiler.OpNot, compiler.OpToEBV:
			b, err := ebv(st.pop())
			if err != nil {
				return value[N]{}, err
			}
			if in.Op == compiler.OpNot {
				b = !b
			}
			st.push(boolValue[N](b))

		case compiler.OpAtomize:
			v := st.pop()
			st.push(value[N]{s: xdm.Atomize(v.s), single: v.single})

		case compiler.OpJumpIfTrue, compiler.OpJumpIfFalse:
			b, err := ebv(st.pop())
			if err != nil {
				return value[N]{}, err
			}
			if b == (in.Op == compiler.OpJumpIfTrue) {
				ip += in.Offset
			}

		case compiler.OpJump:
			ip += in.Offset

		case compiler.OpCompareValue:
			b, a := st.pop(), st.pop()
			st.push(m.valueCompare(in.Compare, a, b))

		case compiler.OpCompareGeneral:
			b, a := st.pop(), st.pop()
			st.push(m.generalCompare(in.Compare, a, b))

		case compiler.OpNodeIs, compiler.OpNodeBefore, compiler.OpNodeAfter:
			b, a := st.pop(), st.pop()
			st.push(nodeCompare(in.Op, a, b))

		case compiler.OpMakeSeq:
			parts := st.popN(in.N)
			st.push(makeSeq(parts))

		case compiler.OpConcatSeq:
			parts := st.popN(2)
			st.push(makeSeq(parts))

		case compiler.OpUnion, compiler.OpIntersect, compiler.OpExcept:
			b, a := st.pop(), st.pop()
			st.push(setOp(in.Op, a, b))

		case compiler.OpRangeTo:
			b, a := st.pop(), st.pop()
			st.push(rangeTo(a, b))

		case compiler.OpBeginScope, compiler.OpEndScope:
			// Scopes are lexical: bindings live in the frame of the loop body.

		case compiler.OpForStartByName:
			// The body ends before the matching ForNext/ForEnd pair.
			body := code[ip+1 : ip+in.Offset-1]
			st.push(m.forLoop(st.pop(), in.Name, body, f))
			ip += in.Offset

		case compiler.OpQuantStartByName:
			body := code[ip+1 : ip+in.Offset]
			st.push(m.quantified(st.pop(), in, body, f))
			ip += in.Offset

		case compiler.OpForNext, compiler.OpForEnd, compiler.OpQuantEnd:
			// Reached only through the loop start, which skips past them.

		case compiler.OpCast:
			st.push(m.cast(st.pop(), in.Single))

		case compiler.OpCastable:
			st.push(m.castable(st.pop(), in.Single))

		case compiler.OpTreat:
			v := st.pop()
			st.push(value[N]{s: xdm.TreatStream(*in.SeqType, v.s), ordered: v.ordered, single: v.single})

		case compiler.OpInstanceOf:
			st.push(instanceOf(st.pop(), in.SeqType))

		case compiler.OpCallByName:
			args := st.popN(in.N)
			v, err := m.callFunction(in, args, f)
			if err != nil {
				return value[N]{}, err
			}
			st.push(v)

		case compiler.OpRaise:
			return value[N]{}, types.NewError(in.Code, in.Message, in.Pos)

		default:
			return value[N]{}, types.NewError(types.ErrUserError, "unknown instruction "+in.Op.String(), in.Pos)
		}
	}

	if len(st) == 0 {
		return stream(xdm.Empty[N]()), nil
	}
	return st.pop(), nil
}

// root returns the root of the tree containing the context node.
func (m *machine[N]) root(f frame[N]) (N, error) {
	var zero N
	if f.focus == nil {
		return zero, types.Errorf(types.ErrStaticContextAbsent, "the context item is absent; cannot select the root")
	}
	n, ok := f.focus.item.Node()
	if !ok {
		return zero, types.Errorf(types.ErrContextNotNode, "the context item is not a node; cannot select the root")
	}
	return xdm.Root(n), nil
}
