package runtime

import (
	"maps"
	"time"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/collation"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/regex"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// NodeResolver serves fn:doc and fn:collection. The empty URI passed to
// Collection names the default collection.
type NodeResolver[N xdm.Node[N]] interface {
	Document(uri string) (N, error)
	Collection(uri string) ([]N, error)
}

// DynamicContext is the per-evaluation input of the VM. It is immutable once
// built; build a new one for each evaluation that differs.
type DynamicContext[N xdm.Node[N]] struct {
	contextItem      xdm.Item[N]
	hasContextItem   bool
	variables        map[xdm.QName]xdm.Sequence[N]
	functions        *FunctionRegistry[N]
	collations       *collation.Registry
	defaultCollation string
	resolver         NodeResolver[N]
	regex            regex.Provider
	now              time.Time
	hasNow           bool
	timezone         *time.Location
}

// ContextItem returns the initial context item.
func (d *DynamicContext[N]) ContextItem() (xdm.Item[N], bool) {
	if d == nil {
		return xdm.Item[N]{}, false
	}
	return d.contextItem, d.hasContextItem
}

// Variable returns the value bound to name.
func (d *DynamicContext[N]) Variable(name xdm.QName) (xdm.Sequence[N], bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.variables[name.Key()]
	return v, ok
}

// Functions returns the registry override, or nil.
func (d *DynamicContext[N]) Functions() *FunctionRegistry[N] {
	if d == nil {
		return nil
	}
	return d.functions
}

// Collations returns the collation registry override, or nil.
func (d *DynamicContext[N]) Collations() *collation.Registry {
	if d == nil {
		return nil
	}
	return d.collations
}

// DefaultCollation returns the default collation override, or "".
func (d *DynamicContext[N]) DefaultCollation() string {
	if d == nil {
		return ""
	}
	return d.defaultCollation
}

// Resolver returns the node resolver, or nil.
func (d *DynamicContext[N]) Resolver() NodeResolver[N] {
	if d == nil {
		return nil
	}
	return d.resolver
}

// Regex returns the regex provider override, or nil.
func (d *DynamicContext[N]) Regex() regex.Provider {
	if d == nil {
		return nil
	}
	return d.regex
}

// Now returns the fixed current instant, if one was set.
func (d *DynamicContext[N]) Now() (time.Time, bool) {
	if d == nil {
		return time.Time{}, false
	}
	return d.now, d.hasNow
}

// Timezone returns the implicit timezone override, or nil.
func (d *DynamicContext[N]) Timezone() *time.Location {
	if d == nil {
		return nil
	}
	return d.timezone
}

// DynamicContextBuilder assembles a DynamicContext.
type DynamicContextBuilder[N xdm.Node[N]] struct {
	ctx DynamicContext[N]
}

// NewDynamicContextBuilder returns a builder for an empty context.
func NewDynamicContextBuilder[N xdm.Node[N]]() *DynamicContextBuilder[N] {
	return &DynamicContextBuilder[N]{
		ctx: DynamicContext[N]{variables: make(map[xdm.QName]xdm.Sequence[N])},
	}
}

// WithContextItem sets the initial context item.
func (b *DynamicContextBuilder[N]) WithContextItem(it xdm.Item[N]) *DynamicContextBuilder[N] {
	b.ctx.contextItem, b.ctx.hasContextItem = it, true
	return b
}

// WithContextNode sets a node as the initial context item.
func (b *DynamicContextBuilder[N]) WithContextNode(n N) *DynamicContextBuilder[N] {
	return b.WithContextItem(xdm.NodeItem(n))
}

// WithVariable binds name to value.
func (b *DynamicContextBuilder[N]) WithVariable(name xdm.QName, value xdm.Sequence[N]) *DynamicContextBuilder[N] {
	b.ctx.variables[name.Key()] = value
	return b
}

// WithFunctions replaces the evaluator's function registry for this
// evaluation.
func (b *DynamicContextBuilder[N]) WithFunctions(r *FunctionRegistry[N]) *DynamicContextBuilder[N] {
	b.ctx.functions = r
	return b
}

// WithCollations replaces the evaluator's collation registry.
func (b *DynamicContextBuilder[N]) WithCollations(r *collation.Registry) *DynamicContextBuilder[N] {
	b.ctx.collations = r
	return b
}

// WithDefaultCollation overrides the static default collation URI.
func (b *DynamicContextBuilder[N]) WithDefaultCollation(uri string) *DynamicContextBuilder[N] {
	b.ctx.defaultCollation = uri
	return b
}

// WithResolver sets the resolver behind fn:doc and fn:collection.
func (b *DynamicContextBuilder[N]) WithResolver(r NodeResolver[N]) *DynamicContextBuilder[N] {
	b.ctx.resolver = r
	return b
}

// WithRegexProvider replaces the evaluator's regex provider.
func (b *DynamicContextBuilder[N]) WithRegexProvider(p regex.Provider) *DynamicContextBuilder[N] {
	b.ctx.regex = p
	return b
}

// WithNow fixes the instant reported by fn:current-dateTime and friends.
func (b *DynamicContextBuilder[N]) WithNow(t time.Time) *DynamicContextBuilder[N] {
	b.ctx.now, b.ctx.hasNow = t, true
	return b
}

// WithTimezone sets the implicit timezone.
func (b *DynamicContextBuilder[N]) WithTimezone(loc *time.Location) *DynamicContextBuilder[N] {
	b.ctx.timezone = loc
	return b
}

// WithTimezoneOffset sets the implicit timezone as an offset from UTC.
func (b *DynamicContextBuilder[N]) WithTimezoneOffset(offset time.Duration) *DynamicContextBuilder[N] {
	return b.WithTimezone(time.FixedZone("", int(offset/time.Second)))
}

// Build returns the context. The builder may be reused; later changes do not
// affect contexts already built.
func (b *DynamicContextBuilder[N]) Build() *DynamicContext[N] {
	out := b.ctx
	out.variables = maps.Clone(b.ctx.variables)
	return &out
}
