package evaluator

import (
	"context"
	"log/slog"
	"time"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/collation"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/compiler"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// focus is the context item with its position and the size of the sequence
// it came from. size is only called by last().
type focus[N xdm.Node[N]] struct {
	item xdm.Item[N]
	pos  int
	size func() (int, error)
}

// env is an immutable chain of loop variable bindings, innermost first.
// Streams created inside a loop body capture the chain they saw.
type env[N xdm.Node[N]] struct {
	name  xdm.QName
	value xdm.Sequence[N]
	next  *env[N]
}

func (e *env[N]) bind(name xdm.QName, value xdm.Sequence[N]) *env[N] {
	return &env[N]{name: name.Key(), value: value, next: e}
}

func (e *env[N]) lookup(name xdm.QName) (xdm.Sequence[N], bool) {
	key := name.Key()
	for ; e != nil; e = e.next {
		if e.name == key {
			return e.value, true
		}
	}
	return nil, false
}

// frame is everything a block of code sees besides the machine: the focus
// (nil when absent), the variables bound so far and the nesting depth.
type frame[N xdm.Node[N]] struct {
	focus *focus[N]
	vars  *env[N]
	depth int
}

func (f frame[N]) withFocus(fc *focus[N]) frame[N] {
	f.focus = fc
	f.depth++
	return f
}

func (f frame[N]) withVar(name xdm.QName, value xdm.Sequence[N]) frame[N] {
	f.vars = f.vars.bind(name, value)
	f.depth++
	return f
}

// value is one operand stack slot. ordered means the stream is known to
// hold distinct nodes in document order; single means it holds at most one
// item.
type value[N xdm.Node[N]] struct {
	s       xdm.Stream[N]
	ordered bool
	single  bool
}

func stream[N xdm.Node[N]](s xdm.Stream[N]) value[N] {
	return value[N]{s: s}
}

func singleton[N xdm.Node[N]](it xdm.Item[N]) value[N] {
	return value[N]{s: xdm.Single(it), ordered: it.IsNode(), single: true}
}

func atomicValue[N xdm.Node[N]](v xdm.AtomicValue) value[N] {
	return value[N]{s: xdm.SingleAtomic[N](v), single: true}
}

func boolValue[N xdm.Node[N]](b bool) value[N] {
	return atomicValue[N](xdm.NewBoolean(b))
}

type stack[N xdm.Node[N]] []value[N]

func (s *stack[N]) push(v value[N]) {
	*s = append(*s, v)
}

func (s *stack[N]) pop() value[N] {
	old := *s
	v := old[len(old)-1]
	*s = old[:len(old)-1]
	return v
}

// popN removes the top n values and returns them bottom first.
func (s *stack[N]) popN(n int) []value[N] {
	old := *s
	out := make([]value[N], n)
	copy(out, old[len(old)-n:])
	*s = old[:len(old)-n]
	return out
}

func (s *stack[N]) top() value[N] {
	return (*s)[len(*s)-1]
}

// machine holds the services of one evaluation, resolved once from the
// evaluator defaults and the dynamic context overrides.
type machine[N xdm.Node[N]] struct {
	ctx      context.Context
	logger   *slog.Logger
	debug    bool
	maxDepth int

	static    *compiler.StaticContext
	dyn       *runtime.DynamicContext[N]
	functions *runtime.FunctionRegistry[N]
	coll      collation.Collation // default collation
	implicit  *time.Location

	// call is copied for every function call; only Focus differs.
	call runtime.CallContext[N]
}

func (e *Evaluator[N]) newMachine(ctx context.Context, ir *compiler.CompiledIR, dyn *runtime.DynamicContext[N]) (*machine[N], error) {
	static := ir.Static
	if static == nil {
		static = compiler.NewStaticContext()
	}

	fns := e.functions
	if r := dyn.Functions(); r != nil {
		fns = r
	}
	colls := e.collations
	if r := dyn.Collations(); r != nil {
		colls = r
	}
	rx := e.regex
	if p := dyn.Regex(); p != nil {
		rx = p
	}
	now, ok := dyn.Now()
	if !ok {
		now = time.Now()
	}
	tz := dyn.Timezone()
	if tz == nil {
		tz = now.Location()
	}

	defaultURI := dyn.DefaultCollation()
	if defaultURI == "" {
		defaultURI = static.DefaultCollation()
	}
	coll, err := colls.Resolve("", defaultURI)
	if err != nil {
		return nil, err
	}

	m := &machine[N]{
		ctx:       ctx,
		logger:    e.logger,
		debug:     e.opts.Debug,
		maxDepth:  e.opts.MaxDepth,
		static:    static,
		dyn:       dyn,
		functions: fns,
		coll:      coll,
		implicit:  tz,
	}
	m.call = runtime.CallContext[N]{
		Context:    ctx,
		Static:     static,
		Dynamic:    dyn,
		Logger:     e.logger,
		Functions:  fns,
		Collations: colls,
		Regex:      rx,
		Resolver:   dyn.Resolver(),
		Now:        now,
		Timezone:   tz,
	}
	return m, nil
}

// checkContext reports cancellation of the evaluation as err:FOER0000.
func (m *machine[N]) checkContext() error {
	if err := m.ctx.Err(); err != nil {
		return types.Errorf(types.ErrUserError, "evaluation cancelled").WithCause(err)
	}
	return nil
}

func (m *machine[N]) checkDepth(f frame[N]) error {
	if f.depth > m.maxDepth {
		return types.Errorf(types.ErrUserError, "maximum nesting depth %d exceeded", m.maxDepth)
	}
	return nil
}

// variable resolves a variable reference: loop bindings first, then the
// external variables of the dynamic context.
func (m *machine[N]) variable(f frame[N], name xdm.QName) (xdm.Sequence[N], error) {
	if v, ok := f.vars.lookup(name); ok {
		return v, nil
	}
	if v, ok := m.dyn.Variable(name); ok {
		return v, nil
	}
	return nil, types.Errorf(types.ErrStaticContextAbsent, "variable $%s has no value", name.Lexical())
}
