package compiler

import (
	"fmt"
	"strings"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// OpCode identifies a VM instruction.
type OpCode uint8

const (
	// Data and stack
	OpPushAtomic OpCode = iota
	OpLoadVarByName
	OpLoadContextItem
	OpPosition
	OpLast
	OpToRoot
	OpDup
	OpSwap
	OpPop

	// Steps
	OpAxisStep
	OpPathExprStep
	OpApplyPredicates
	OpDocOrderDistinct

	// Arithmetic and logic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpIDiv
	OpMod
	OpAnd
	OpOr
	OpNot
	OpToEBV
	OpAtomize

	// Jumps, relative and forward
	OpJumpIfTrue
	OpJumpIfFalse
	OpJump

	// Comparisons
	OpCompareValue
	OpCompareGeneral
	OpNodeIs
	OpNodeBefore
	OpNodeAfter

	// Sequences and sets
	OpMakeSeq
	OpConcatSeq
	OpUnion
	OpIntersect
	OpExcept
	OpRangeTo

	// Scopes and loops
	OpBeginScope
	OpEndScope
	OpForStartByName
	OpForNext
	OpForEnd
	OpQuantStartByName
	OpQuantEnd

	// Types
	OpCast
	OpCastable
	OpTreat
	OpInstanceOf

	// Calls and errors
	OpCallByName
	OpRaise
)

var opNames = [...]string{
	OpPushAtomic:       "PushAtomic",
	OpLoadVarByName:    "LoadVarByName",
	OpLoadContextItem:  "LoadContextItem",
	OpPosition:         "Position",
	OpLast:             "Last",
	OpToRoot:           "ToRoot",
	OpDup:              "Dup",
	OpSwap:             "Swap",
	OpPop:              "Pop",
	OpAxisStep:         "AxisStep",
	OpPathExprStep:     "PathExprStep",
	OpApplyPredicates:  "ApplyPredicates",
	OpDocOrderDistinct: "DocOrderDistinct",
	OpAdd:              "Add",
	OpSub:              "Sub",
	OpMul:              "Mul",
	OpDiv:              "Div",
	OpIDiv:             "IDiv",
	OpMod:              "Mod",
	OpAnd:              "And",
	OpOr:               "Or",
	OpNot:              "Not",
	OpToEBV:            "ToEBV",
	OpAtomize:          "Atomize",
	OpJumpIfTrue:       "JumpIfTrue",
	OpJumpIfFalse:      "JumpIfFalse",
	OpJump:             "Jump",
	OpCompareValue:     "CompareValue",
	OpCompareGeneral:   "CompareGeneral",
	OpNodeIs:           "NodeIs",
	OpNodeBefore:       "NodeBefore",
	OpNodeAfter:        "NodeAfter",
	OpMakeSeq:          "MakeSeq",
	OpConcatSeq:        "ConcatSeq",
	OpUnion:            "Union",
	OpIntersect:        "Intersect",
	OpExcept:           "Except",
	OpRangeTo:          "RangeTo",
	OpBeginScope:       "BeginScope",
	OpEndScope:         "EndScope",
	OpForStartByName:   "ForStartByName",
	OpForNext:          "ForNext",
	OpForEnd:           "ForEnd",
	OpQuantStartByName: "QuantStartByName",
	OpQuantEnd:         "QuantEnd",
	OpCast:             "Cast",
	OpCastable:         "Castable",
	OpTreat:            "Treat",
	OpInstanceOf:       "InstanceOf",
	OpCallByName:       "CallByName",
	OpRaise:            "Raise",
}

// String returns the opcode mnemonic.
func (op OpCode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("OpCode(%d)", op)
}

// Quantifier selects the semantics of OpQuantStartByName.
type Quantifier uint8

const (
	QuantSome Quantifier = iota
	QuantEvery
)

func (q Quantifier) String() string {
	if q == QuantEvery {
		return "every"
	}
	return "some"
}

// Instr is one VM instruction. Only the operand fields relevant to Op are
// set.
type Instr struct {
	Op OpCode

	Value xdm.AtomicValue // OpPushAtomic
	Name  xdm.QName       // OpLoadVarByName, loop starts, OpCallByName

	Axis  types.Axis    // OpAxisStep
	Test  *xdm.NodeTest // OpAxisStep
	Preds []InstrSeq    // OpAxisStep, OpApplyPredicates
	Sub   InstrSeq      // OpPathExprStep

	Compare xdm.CompareOp // OpCompareValue, OpCompareGeneral
	Quant   Quantifier    // OpQuantStartByName

	// N is the element count of OpMakeSeq and the argument count of
	// OpCallByName.
	N int
	// Offset is the relative forward distance of a jump, or of a loop start
	// to its matching end instruction.
	Offset int

	Single  *xdm.SingleType   // OpCast, OpCastable
	SeqType *xdm.SequenceType // OpTreat, OpInstanceOf

	Code    types.ErrorCode // OpRaise
	Message string          // OpRaise

	// Pos is the source offset of the expression the instruction came from.
	Pos int
}

// String renders the instruction with its operands.
func (in Instr) String() string {
	var b strings.Builder
	b.WriteString(in.Op.String())
	switch in.Op {
	case OpPushAtomic:
		fmt.Fprintf(&b, " %s(%q)", in.Value.Type(), in.Value.String())
	case OpLoadVarByName:
		fmt.Fprintf(&b, " $%s", in.Name)
	case OpAxisStep:
		fmt.Fprintf(&b, " %s::%s", in.Axis, in.Test)
		if len(in.Preds) > 0 {
			fmt.Fprintf(&b, " preds=%d", len(in.Preds))
		}
	case OpApplyPredicates:
		fmt.Fprintf(&b, " %d", len(in.Preds))
	case OpPathExprStep:
		fmt.Fprintf(&b, " len=%d", len(in.Sub))
	case OpCompareValue:
		fmt.Fprintf(&b, " %s", in.Compare)
	case OpCompareGeneral:
		fmt.Fprintf(&b, " %s", in.Compare.GeneralSymbol())
	case OpMakeSeq:
		fmt.Fprintf(&b, " %d", in.N)
	case OpJump, OpJumpIfTrue, OpJumpIfFalse:
		fmt.Fprintf(&b, " +%d", in.Offset)
	case OpForStartByName:
		fmt.Fprintf(&b, " $%s end=+%d", in.Name, in.Offset)
	case OpQuantStartByName:
		fmt.Fprintf(&b, " %s $%s end=+%d", in.Quant, in.Name, in.Offset)
	case OpCast, OpCastable:
		fmt.Fprintf(&b, " %s", in.Single.Atomic)
		if in.Single.Optional {
			b.WriteByte('?')
		}
	case OpTreat, OpInstanceOf:
		fmt.Fprintf(&b, " %s", in.SeqType)
	case OpCallByName:
		fmt.Fprintf(&b, " %s#%d", in.Name, in.N)
	case OpRaise:
		fmt.Fprintf(&b, " %s", in.Code)
	}
	return b.String()
}

// InstrSeq is a linear block of instructions.
type InstrSeq []Instr

// String disassembles the block, one instruction per line. Nested blocks
// are indented under their owner.
func (s InstrSeq) String() string {
	var b strings.Builder
	s.dump(&b, "")
	return b.String()
}

func (s InstrSeq) dump(b *strings.Builder, indent string) {
	for i, in := range s {
		fmt.Fprintf(b, "%s%3d  %s\n", indent, i, in)
		for j, pred := range in.Preds {
			fmt.Fprintf(b, "%s     [pred %d]\n", indent, j)
			pred.dump(b, indent+"       ")
		}
		if in.Op == OpPathExprStep {
			in.Sub.dump(b, indent+"       ")
		}
	}
}

// CompiledIR is the output of the compiler: executable code plus the static
// context it was compiled against. It is immutable and safe for concurrent
// use by any number of evaluations.
type CompiledIR struct {
	Code   InstrSeq
	Static *StaticContext
	Source string
}

// String returns the source expression.
func (c *CompiledIR) String() string {
	return c.Source
}
