// Package evaluator implements the XPath virtual machine.
//
// The evaluator executes the instruction sequence produced by the compiler
// against a host tree. It is generic over the host node type N, which must
// satisfy xdm.Node[N]. It supports:
//   - All 13 axes with document-order sorting and deduplication
//   - Lazy, restartable result streams with early termination
//   - Positional predicates that pull only what they need
//   - Pluggable functions, collations, regex engines and node resolvers
//   - Cancellation via context.Context
//
// # Example
//
//	ev := evaluator.New[*simplenode.Node]()
//	ir, err := ev.Compile("//item[@id = $id]", sc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	dyn := runtime.NewDynamicContextBuilder[*simplenode.Node]().
//	    WithContextNode(doc).
//	    WithVariable(xdm.NewQName("", "id"), xdm.AtomicSequence[*simplenode.Node](xdm.NewString("a1"))).
//	    Build()
//	items, err := ev.Evaluate(ctx, ir, dyn)
//
// # Concurrency
//
// An Evaluator and the CompiledIR it runs are immutable once built and may
// be shared by any number of goroutines. Each call evaluates synchronously
// on the calling goroutine.
package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/cache"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/collation"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/compiler"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/functions"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/parser"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/regex"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/runtime"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
	"github.com/d-biehl/robotframework-platynui-sub002/pkg/xdm"
)

// DefaultMaxDepth bounds the nesting of predicates, path steps and loops.
const DefaultMaxDepth = 10000

// Evaluator runs compiled XPath expressions over trees of N.
type Evaluator[N xdm.Node[N]] struct {
	opts       EvalOptions
	logger     *slog.Logger
	cache      *cache.Cache // non-nil when caching is enabled
	functions  *runtime.FunctionRegistry[N]
	collations *collation.Registry
	regex      regex.Provider
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Caching enables compiled-expression caching in Compile.
	// The default cache holds up to 256 entries with LRU eviction.
	Caching bool
	// CacheSize sets the maximum number of cached expressions.
	// Only used when Caching is true and no explicit Cache is provided.
	CacheSize int
	// Cache is a custom expression cache. If non-nil, Caching is implicitly enabled.
	Cache *cache.Cache
	// MaxDepth limits the nesting of predicates, path steps and loops.
	MaxDepth int
	// Timeout bounds Evaluate and EvaluateFirst. Zero means no timeout.
	Timeout time.Duration
	// Debug enables per-block debug logging.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
	// Collations replaces the default collation registry.
	Collations *collation.Registry
	// Regex replaces the default regex provider.
	Regex regex.Provider

	// functions holds a *runtime.FunctionRegistry[N]; see WithFunctions.
	functions any
}

// EvalOption configures an Evaluator.
type EvalOption func(*EvalOptions)

// New creates an Evaluator with the standard function library, the built-in
// collations and the regexp2 provider, then applies opts.
//
// New panics if WithFunctions was given a registry for a different node type.
func New[N xdm.Node[N]](opts ...EvalOption) *Evaluator[N] {
	options := EvalOptions{
		MaxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.MaxDepth <= 0 {
		options.MaxDepth = DefaultMaxDepth
	}

	var c *cache.Cache
	if options.Cache != nil {
		c = options.Cache
	} else if options.Caching {
		size := options.CacheSize
		if size <= 0 {
			size = cache.DefaultCapacity
		}
		c = cache.New(size, cache.WithLogger(options.Logger))
	}

	reg := functions.NewRegistry[N]()
	if options.functions != nil {
		r, ok := options.functions.(*runtime.FunctionRegistry[N])
		if !ok {
			panic(fmt.Sprintf("evaluator: WithFunctions registry %T does not match node type %T", options.functions, *new(N)))
		}
		reg = r
	}

	colls := options.Collations
	if colls == nil {
		colls = collation.NewRegistry()
	}
	var rx regex.Provider = options.Regex
	if rx == nil {
		rx = regex.NewProvider()
	}

	return &Evaluator[N]{
		opts:       options,
		logger:     options.Logger,
		cache:      c,
		functions:  reg,
		collations: colls,
		regex:      rx,
	}
}

// Cache returns the expression cache, or nil if caching is disabled.
func (e *Evaluator[N]) Cache() *cache.Cache {
	return e.cache
}

// Functions returns the evaluator's function registry.
func (e *Evaluator[N]) Functions() *runtime.FunctionRegistry[N] {
	return e.functions
}

// Compile parses and compiles source against sc. With caching enabled the
// compiled form is shared by every call with the same source and static
// context.
func (e *Evaluator[N]) Compile(source string, sc *compiler.StaticContext, opts ...parser.CompileOption) (*compiler.CompiledIR, error) {
	if sc == nil {
		sc = compiler.NewStaticContext()
	}
	compile := func() (*compiler.CompiledIR, error) {
		ir, err := compiler.CompileString(source, sc, opts...)
		if err != nil {
			return nil, err
		}
		if e.opts.Debug {
			e.logger.Debug("compiled expression",
				slog.String("source", source),
				slog.Int("instructions", len(ir.Code)))
		}
		return ir, nil
	}
	if e.cache == nil {
		return compile()
	}
	return e.cache.GetOrCompile(cache.Key(source, sc), compile)
}

// Evaluate runs ir and materializes the result.
func (e *Evaluator[N]) Evaluate(ctx context.Context, ir *compiler.CompiledIR, dyn *runtime.DynamicContext[N]) (xdm.Sequence[N], error) {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	s, err := e.EvaluateStream(ctx, ir, dyn)
	if err != nil {
		return nil, err
	}
	return s.Collect()
}

// EvaluateFirst runs ir and returns only its first item. Evaluation stops as
// soon as that item is known.
func (e *Evaluator[N]) EvaluateFirst(ctx context.Context, ir *compiler.CompiledIR, dyn *runtime.DynamicContext[N]) (xdm.Item[N], bool, error) {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	s, err := e.EvaluateStream(ctx, ir, dyn)
	if err != nil {
		return xdm.Item[N]{}, false, err
	}
	return s.First()
}

// EvaluateStream returns the result of ir as a lazy cursor. Nothing is
// evaluated until the stream is ranged over; breaking out of the range stops
// the evaluation. Every range re-runs the expression against the same
// dynamic context and the same current dateTime.
//
// The Timeout option does not apply; bound the stream through ctx instead.
func (e *Evaluator[N]) EvaluateStream(ctx context.Context, ir *compiler.CompiledIR, dyn *runtime.DynamicContext[N]) (xdm.Stream[N], error) {
	if ir == nil || ir.Code == nil {
		return nil, types.Errorf(types.ErrUserError, "invalid compiled expression")
	}
	m, err := e.newMachine(ctx, ir, dyn)
	if err != nil {
		return nil, err
	}
	var fr frame[N]
	if it, ok := dyn.ContextItem(); ok {
		fr.focus = &focus[N]{item: it, pos: 1, size: func() (int, error) { return 1, nil }}
	}
	return deferred(func() (xdm.Stream[N], error) {
		v, err := m.run(ir.Code, fr)
		if err != nil {
			return nil, err
		}
		return m.cancellable(v.s), nil
	}), nil
}

// WithCaching enables or disables compiled-expression caching.
// When enabled, a default LRU cache of 256 entries is created.
// To control the cache size use WithCacheSize; to supply your own cache use WithCache.
func WithCaching(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Caching = enabled
	}
}

// WithCacheSize sets the maximum number of cached expressions.
// Only effective when combined with WithCaching(true).
func WithCacheSize(size int) EvalOption {
	return func(opts *EvalOptions) {
		opts.CacheSize = size
	}
}

// WithCache attaches an external expression cache.
// The evaluator will use this cache regardless of the Caching flag.
func WithCache(c *cache.Cache) EvalOption {
	return func(opts *EvalOptions) {
		opts.Cache = c
	}
}

// WithTimeout sets the timeout of Evaluate and EvaluateFirst.
func WithTimeout(timeout time.Duration) EvalOption {
	return func(opts *EvalOptions) {
		opts.Timeout = timeout
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// WithMaxDepth sets the maximum nesting depth.
func WithMaxDepth(depth int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxDepth = depth
	}
}

// WithCollations replaces the collation registry.
func WithCollations(r *collation.Registry) EvalOption {
	return func(opts *EvalOptions) {
		opts.Collations = r
	}
}

// WithRegexProvider replaces the regex provider behind fn:matches,
// fn:replace and fn:tokenize.
func WithRegexProvider(p regex.Provider) EvalOption {
	return func(opts *EvalOptions) {
		opts.Regex = p
	}
}

// WithFunctions replaces the function registry. The registry's node type
// must match the Evaluator's.
//
// Example:
//
//	reg := functions.NewRegistry[*simplenode.Node]()
//	reg.Register(xdm.NewQName("urn:app", "twice"), 1, 1, twice)
//	ev := evaluator.New[*simplenode.Node](evaluator.WithFunctions(reg))
func WithFunctions[N xdm.Node[N]](r *runtime.FunctionRegistry[N]) EvalOption {
	return func(opts *EvalOptions) {
		opts.functions = r
	}
}
