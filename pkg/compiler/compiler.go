// Package compiler lowers a parsed XPath expression to a flat, stack-based
// instruction sequence.
//
// All names are resolved here, against a StaticContext: prefixes, the
// default element and function namespaces, variable references, atomic type
// names and kind-test names. Static errors therefore surface from Compile
// and never from evaluation.
//
// Control flow uses relative forward jumps that are backpatched once the
// target is known. Loops are bracketed by a start instruction that carries
// the distance to its matching end; the VM runs the instructions in between
// once per binding. Predicates and non-axis path steps are compiled into
// nested instruction sequences.
package compiler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cockroachdb/apd/v3"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/parser"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// Compile lowers expr against sc. A nil sc stands for NewStaticContext().
func Compile(expr *types.Expression, sc *StaticContext) (*CompiledIR, error) {
	if expr == nil || expr.AST() == nil {
		return nil, types.NewError(types.ErrSyntax, "empty expression", 0)
	}
	if sc == nil {
		sc = NewStaticContext()
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	c := &compiler{sc: sc}
	code, err := c.block(expr.AST())
	if err != nil {
		return nil, err
	}
	return &CompiledIR{Code: code, Static: sc, Source: expr.Source()}, nil
}

// CompileString parses source and compiles it against sc.
func CompileString(source string, sc *StaticContext, opts ...parser.CompileOption) (*CompiledIR, error) {
	expr, err := parser.Parse(source, opts...)
	if err != nil {
		return nil, err
	}
	return Compile(expr, sc)
}

// emitter accumulates one instruction block.
type emitter struct {
	code InstrSeq
}

func (e *emitter) emit(in Instr) int {
	e.code = append(e.code, in)
	return len(e.code) - 1
}

// patch points the jump or loop start at index at to the end of the block
// emitted so far.
func (e *emitter) patch(at int) {
	e.code[at].Offset = len(e.code) - at - 1
}

type compiler struct {
	sc *StaticContext
	// bound holds the variables bound by enclosing for and quantified
	// expressions, innermost last.
	bound []xdm.QName
}

func (c *compiler) block(node *types.ASTNode) (InstrSeq, error) {
	e := &emitter{}
	if err := c.lower(e, node); err != nil {
		return nil, err
	}
	return e.code, nil
}

func (c *compiler) lower(e *emitter, node *types.ASTNode) error {
	switch node.Type {
	case types.NodeString:
		e.emit(Instr{Op: OpPushAtomic, Value: xdm.NewString(node.StrValue), Pos: node.Position})
	case types.NodeInteger, types.NodeDecimal, types.NodeDouble:
		v, err := numericLiteral(node)
		if err != nil {
			return err
		}
		e.emit(Instr{Op: OpPushAtomic, Value: v, Pos: node.Position})
	case types.NodeVariable:
		name, err := c.resolveVariable(node)
		if err != nil {
			return err
		}
		e.emit(Instr{Op: OpLoadVarByName, Name: name, Pos: node.Position})
	case types.NodeContextItem:
		e.emit(Instr{Op: OpLoadContextItem, Pos: node.Position})
	case types.NodeFunction:
		return c.lowerFunction(e, node)
	case types.NodeSequence:
		for _, arg := range node.Arguments {
			if err := c.lower(e, arg); err != nil {
				return err
			}
		}
		e.emit(Instr{Op: OpMakeSeq, N: len(node.Arguments), Pos: node.Position})
	case types.NodeBinary:
		return c.lowerBinary(e, node)
	case types.NodeUnary:
		return c.lowerUnary(e, node)
	case types.NodeComparison:
		return c.lowerComparison(e, node)
	case types.NodeRange:
		return c.lowerOperands(e, node, Instr{Op: OpRangeTo, Pos: node.Position})
	case types.NodeSetOp:
		return c.lowerSetOp(e, node)
	case types.NodeIf:
		return c.lowerIf(e, node)
	case types.NodeFor:
		return c.lowerFor(e, node)
	case types.NodeQuantified:
		return c.lowerQuantified(e, node)
	case types.NodeInstanceOf, types.NodeTreatAs:
		return c.lowerSequenceTypeOp(e, node)
	case types.NodeCastAs, types.NodeCastableAs:
		return c.lowerCast(e, node)
	case types.NodePath:
		return c.lowerPath(e, node)
	case types.NodeStep:
		e.emit(Instr{Op: OpLoadContextItem, Pos: node.Position})
		return c.lowerAxisStep(e, node)
	case types.NodeFilter:
		if err := c.lower(e, node.LHS); err != nil {
			return err
		}
		preds, err := c.predicates(node.Predicates)
		if err != nil {
			return err
		}
		e.emit(Instr{Op: OpApplyPredicates, Preds: preds, Pos: node.Position})
	default:
		return types.NewError(types.ErrSyntax, fmt.Sprintf("unsupported expression %q", node.Type), node.Position)
	}
	return nil
}

// numericLiteral converts the lexical form of a numeric literal.
func numericLiteral(node *types.ASTNode) (xdm.AtomicValue, error) {
	switch node.Type {
	case types.NodeInteger:
		i, err := strconv.ParseInt(node.StrValue, 10, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return nil, types.NewError(types.ErrNumericOverflow,
					fmt.Sprintf("integer literal %s is out of range", node.StrValue), node.Position)
			}
			return nil, types.NewError(types.ErrSyntax, "invalid integer literal "+node.StrValue, node.Position)
		}
		return xdm.NewInteger(i), nil
	case types.NodeDecimal:
		d, _, err := apd.NewFromString(node.StrValue)
		if err != nil {
			return nil, types.NewError(types.ErrSyntax, "invalid decimal literal "+node.StrValue, node.Position)
		}
		return xdm.NewDecimal(d), nil
	}
	f, err := strconv.ParseFloat(node.StrValue, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, types.NewError(types.ErrSyntax, "invalid double literal "+node.StrValue, node.Position)
	}
	return xdm.NewDouble(f), nil
}

func (c *compiler) lowerOperands(e *emitter, node *types.ASTNode, op Instr) error {
	if err := c.lower(e, node.LHS); err != nil {
		return err
	}
	if err := c.lower(e, node.RHS); err != nil {
		return err
	}
	e.emit(op)
	return nil
}

var arithOps = map[string]OpCode{
	"+":    OpAdd,
	"-":    OpSub,
	"*":    OpMul,
	"div":  OpDiv,
	"idiv": OpIDiv,
	"mod":  OpMod,
}

func (c *compiler) lowerBinary(e *emitter, node *types.ASTNode) error {
	switch node.StrValue {
	case "and", "or":
		return c.lowerLogical(e, node)
	}
	op, ok := arithOps[node.StrValue]
	if !ok {
		return types.NewError(types.ErrSyntax, "unknown operator "+node.StrValue, node.Position)
	}
	return c.lowerOperands(e, node, Instr{Op: op, Pos: node.Position})
}

// lowerLogical short-circuits and/or:
//
//	lhs ToEBV Dup JumpIfFalse(end) rhs ToEBV And end:
//
// The duplicated left value is what remains when the jump is taken.
func (c *compiler) lowerLogical(e *emitter, node *types.ASTNode) error {
	jump, combine := OpJumpIfFalse, OpAnd
	if node.StrValue == "or" {
		jump, combine = OpJumpIfTrue, OpOr
	}
	if err := c.lower(e, node.LHS); err != nil {
		return err
	}
	e.emit(Instr{Op: OpToEBV, Pos: node.Position})
	e.emit(Instr{Op: OpDup, Pos: node.Position})
	at := e.emit(Instr{Op: jump, Pos: node.Position})
	if err := c.lower(e, node.RHS); err != nil {
		return err
	}
	e.emit(Instr{Op: OpToEBV, Pos: node.Position})
	e.emit(Instr{Op: combine, Pos: node.Position})
	e.patch(at)
	return nil
}

// lowerUnary compiles -x as 0 - x and +x as 0 + x. Both atomize the operand,
// promote untypedAtomic to xs:double and reject non-numeric values through
// the ordinary arithmetic rules.
func (c *compiler) lowerUnary(e *emitter, node *types.ASTNode) error {
	e.emit(Instr{Op: OpPushAtomic, Value: xdm.NewInteger(0), Pos: node.Position})
	if err := c.lower(e, node.LHS); err != nil {
		return err
	}
	op := OpSub
	if node.StrValue == "+" {
		op = OpAdd
	}
	e.emit(Instr{Op: op, Pos: node.Position})
	return nil
}

func (c *compiler) lowerComparison(e *emitter, node *types.ASTNode) error {
	in := Instr{Pos: node.Position}
	switch node.CompKind {
	case types.CompNode:
		switch node.StrValue {
		case "is":
			in.Op = OpNodeIs
		case "<<":
			in.Op = OpNodeBefore
		default:
			in.Op = OpNodeAfter
		}
	default:
		op, ok := xdm.LookupCompareOp(node.StrValue)
		if !ok {
			return types.NewError(types.ErrSyntax, "unknown comparison "+node.StrValue, node.Position)
		}
		in.Op, in.Compare = OpCompareGeneral, op
		if node.CompKind == types.CompValue {
			in.Op = OpCompareValue
		}
	}
	return c.lowerOperands(e, node, in)
}

func (c *compiler) lowerSetOp(e *emitter, node *types.ASTNode) error {
	op := OpUnion
	switch node.StrValue {
	case "intersect":
		op = OpIntersect
	case "except":
		op = OpExcept
	}
	return c.lowerOperands(e, node, Instr{Op: op, Pos: node.Position})
}

// lowerIf compiles
//
//	cond ToEBV JumpIfFalse(else) then Jump(end) else: else end:
func (c *compiler) lowerIf(e *emitter, node *types.ASTNode) error {
	if err := c.lower(e, node.LHS); err != nil {
		return err
	}
	e.emit(Instr{Op: OpToEBV, Pos: node.Position})
	toElse := e.emit(Instr{Op: OpJumpIfFalse, Pos: node.Position})
	if err := c.lower(e, node.RHS); err != nil {
		return err
	}
	toEnd := e.emit(Instr{Op: OpJump, Pos: node.Position})
	e.patch(toElse)
	if err := c.lower(e, node.Else); err != nil {
		return err
	}
	e.patch(toEnd)
	return nil
}

// lowerFor nests one loop per binding inside a variable scope:
//
//	BeginScope in1 ForStart($x) in2 ForStart($y) body ForNext ForEnd ForNext ForEnd EndScope
//
// Each ForStart is patched to point at its ForEnd.
func (c *compiler) lowerFor(e *emitter, node *types.ASTNode) error {
	mark := len(c.bound)
	defer func() { c.bound = c.bound[:mark] }()

	e.emit(Instr{Op: OpBeginScope, N: len(node.Bindings), Pos: node.Position})
	starts := make([]int, 0, len(node.Bindings))
	for _, b := range node.Bindings {
		if err := c.lower(e, b.In); err != nil {
			return err
		}
		name, err := c.bindVariable(b.Var, node.Position)
		if err != nil {
			return err
		}
		starts = append(starts, e.emit(Instr{Op: OpForStartByName, Name: name, Pos: b.In.Position}))
	}
	if err := c.lower(e, node.RHS); err != nil {
		return err
	}
	for i := len(starts) - 1; i >= 0; i-- {
		e.emit(Instr{Op: OpForNext, Pos: node.Position})
		e.emit(Instr{Op: OpForEnd, Pos: node.Position})
		e.patch(starts[i])
	}
	e.emit(Instr{Op: OpEndScope, Pos: node.Position})
	return nil
}

// lowerQuantified nests one quantifier loop per binding. The innermost body
// reduces to its effective boolean value; every outer loop sees the boolean
// produced by the loop nested in it.
func (c *compiler) lowerQuantified(e *emitter, node *types.ASTNode) error {
	quant := QuantSome
	if node.Quantifier == "every" {
		quant = QuantEvery
	}
	mark := len(c.bound)
	defer func() { c.bound = c.bound[:mark] }()

	starts := make([]int, 0, len(node.Bindings))
	for _, b := range node.Bindings {
		if err := c.lower(e, b.In); err != nil {
			return err
		}
		name, err := c.bindVariable(b.Var, node.Position)
		if err != nil {
			return err
		}
		starts = append(starts, e.emit(Instr{Op: OpQuantStartByName, Quant: quant, Name: name, Pos: b.In.Position}))
	}
	if err := c.lower(e, node.RHS); err != nil {
		return err
	}
	e.emit(Instr{Op: OpToEBV, Pos: node.RHS.Position})
	for i := len(starts) - 1; i >= 0; i-- {
		e.emit(Instr{Op: OpQuantEnd, Pos: node.Position})
		e.patch(starts[i])
	}
	return nil
}

func (c *compiler) lowerSequenceTypeOp(e *emitter, node *types.ASTNode) error {
	st, err := c.resolveSequenceType(node.SeqType, node.Position)
	if err != nil {
		return err
	}
	if err := c.lower(e, node.LHS); err != nil {
		return err
	}
	op := OpInstanceOf
	if node.Type == types.NodeTreatAs {
		op = OpTreat
	}
	e.emit(Instr{Op: op, SeqType: st, Pos: node.Position})
	return nil
}

func (c *compiler) lowerCast(e *emitter, node *types.ASTNode) error {
	name, err := c.resolveTypeName(node.SingleType.Atomic, node.Position)
	if err != nil {
		return err
	}
	t, ok := builtinAtomicType(name)
	if !ok {
		return types.NewError(types.ErrUnknownAtomicType, "unknown atomic type "+node.SingleType.Atomic.String(), node.Position)
	}
	if t == xdm.TypeNOTATION || t == xdm.TypeAnyAtomic {
		return types.NewError(types.ErrNotationCast, "cannot cast to "+t.String(), node.Position)
	}
	if err := c.lower(e, node.LHS); err != nil {
		return err
	}
	op := OpCast
	if node.Type == types.NodeCastableAs {
		op = OpCastable
	}
	e.emit(Instr{
		Op:     op,
		Single: &xdm.SingleType{Atomic: t, Optional: node.SingleType.Optional},
		Pos:    node.Position,
	})
	return nil
}

// lowerFunction resolves the function name. position() and last() become
// opcodes; every other call is dispatched by name at run time.
func (c *compiler) lowerFunction(e *emitter, node *types.ASTNode) error {
	name, err := c.resolveName(node.Name, c.sc.defaultFunctions, node.Position)
	if err != nil {
		return err
	}
	if name.NS == xdm.NSFn && len(node.Arguments) == 0 {
		switch name.Local {
		case "position":
			e.emit(Instr{Op: OpPosition, Pos: node.Position})
			return nil
		case "last":
			e.emit(Instr{Op: OpLast, Pos: node.Position})
			return nil
		}
	}
	for _, arg := range node.Arguments {
		if err := c.lower(e, arg); err != nil {
			return err
		}
	}
	e.emit(Instr{Op: OpCallByName, Name: name, N: len(node.Arguments), Pos: node.Position})
	return nil
}

// lowerPath compiles a path. Axis steps become AxisStep followed by
// DocOrderDistinct; any other step expression is compiled into a nested
// block run once per context node.
func (c *compiler) lowerPath(e *emitter, node *types.ASTNode) error {
	steps := fuseDescendantSteps(node.Steps)

	switch node.Start {
	case types.PathRoot, types.PathRootDescendant:
		e.emit(Instr{Op: OpToRoot, Pos: node.Position})
	default:
		if len(steps) > 0 && steps[0].Type != types.NodeStep {
			// The first step is evaluated in the outer focus.
			if err := c.lower(e, steps[0]); err != nil {
				return err
			}
			steps = steps[1:]
		} else {
			e.emit(Instr{Op: OpLoadContextItem, Pos: node.Position})
		}
	}

	for _, step := range steps {
		if step.Type == types.NodeStep {
			if err := c.lowerAxisStep(e, step); err != nil {
				return err
			}
			continue
		}
		sub, err := c.block(step)
		if err != nil {
			return err
		}
		e.emit(Instr{Op: OpPathExprStep, Sub: sub, Pos: step.Position})
	}
	return nil
}

// fuseDescendantSteps rewrites descendant-or-self::node()/child::T into
// descendant::T when neither step has predicates. The result is the same
// node set but it is produced in document order without duplicates.
func fuseDescendantSteps(steps []*types.ASTNode) []*types.ASTNode {
	var out []*types.ASTNode
	for i := 0; i < len(steps); i++ {
		s := steps[i]
		if i+1 < len(steps) && isPlainDescendantOrSelf(s) {
			next := steps[i+1]
			if next.Type == types.NodeStep && next.Axis == types.AxisChild && len(next.Predicates) == 0 {
				fused := *next
				fused.Axis = types.AxisDescendant
				out = append(out, &fused)
				i++
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func isPlainDescendantOrSelf(s *types.ASTNode) bool {
	return s.Type == types.NodeStep && s.Axis == types.AxisDescendantOrSelf &&
		s.Test != nil && s.Test.Kind == types.TestAnyKind && len(s.Predicates) == 0
}

func (c *compiler) lowerAxisStep(e *emitter, step *types.ASTNode) error {
	test, err := c.resolveNodeTest(step.Test, principalKind(step.Axis), step.Position)
	if err != nil {
		return err
	}
	preds, err := c.predicates(step.Predicates)
	if err != nil {
		return err
	}
	e.emit(Instr{Op: OpAxisStep, Axis: step.Axis, Test: test, Preds: preds, Pos: step.Position})
	e.emit(Instr{Op: OpDocOrderDistinct, Pos: step.Position})
	return nil
}

func (c *compiler) predicates(preds []*types.ASTNode) ([]InstrSeq, error) {
	if len(preds) == 0 {
		return nil, nil
	}
	out := make([]InstrSeq, 0, len(preds))
	for _, p := range preds {
		code, err := c.block(p)
		if err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, nil
}

func principalKind(axis types.Axis) xdm.NodeKind {
	switch axis {
	case types.AxisAttribute:
		return xdm.KindAttribute
	case types.AxisNamespace:
		return xdm.KindNamespace
	}
	return xdm.KindElement
}
