package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/collation"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/compiler"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/regex"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// Focus is the context item together with its position and the size of the
// sequence it was taken from. Size is computed on demand.
type Focus[N xdm.Node[N]] struct {
	Item     xdm.Item[N]
	Position int
	Size     func() (int, error)
}

// CallContext is what a Function sees of the running evaluation. The
// evaluator resolves every service before the call, so fields are never nil
// except Focus (absent focus) and Resolver (no resolver configured).
type CallContext[N xdm.Node[N]] struct {
	Context    context.Context
	Static     *compiler.StaticContext
	Dynamic    *DynamicContext[N]
	Focus      *Focus[N]
	Logger     *slog.Logger
	Functions  *FunctionRegistry[N]
	Collations *collation.Registry
	Regex      regex.Provider
	Resolver   NodeResolver[N]

	// Now is fixed for the whole evaluation.
	Now      time.Time
	Timezone *time.Location
}

// ContextItem returns the context item, or err:XPDY0002 when the focus is
// absent.
func (cc *CallContext[N]) ContextItem() (xdm.Item[N], error) {
	if cc.Focus == nil {
		return xdm.Item[N]{}, types.Errorf(types.ErrStaticContextAbsent, "the context item is absent")
	}
	return cc.Focus.Item, nil
}

// ContextNode returns the context item, which must be a node.
func (cc *CallContext[N]) ContextNode() (N, error) {
	it, err := cc.ContextItem()
	if err != nil {
		var zero N
		return zero, err
	}
	n, ok := it.Node()
	if !ok {
		return n, types.Errorf(types.ErrType, "the context item is not a node")
	}
	return n, nil
}

// DefaultCollationURI returns the dynamic override or the static default.
func (cc *CallContext[N]) DefaultCollationURI() string {
	if uri := cc.Dynamic.DefaultCollation(); uri != "" {
		return uri
	}
	return cc.Static.DefaultCollation()
}

// Collation returns the collation named uri; the empty string selects the
// default collation. Unknown URIs are err:FOCH0002.
func (cc *CallContext[N]) Collation(uri string) (collation.Collation, error) {
	if uri == "" {
		uri = cc.DefaultCollationURI()
	}
	return cc.Collations.Lookup(uri)
}

// ImplicitTimezone returns the timezone applied to values without one.
func (cc *CallContext[N]) ImplicitTimezone() *time.Location {
	if cc.Timezone != nil {
		return cc.Timezone
	}
	return cc.Now.Location()
}
