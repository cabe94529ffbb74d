// Package cache provides thread-safe LRU caches.
//
// Cache holds compiled XPath programs. The evaluator uses it when the
// WithCaching option is enabled, so that the same expression string is
// parsed and compiled only once no matter how many documents it is applied
// to. Concurrent misses on the same key are collapsed into a single
// compilation.
//
// LRU is the generic store underneath; the regex provider keeps its
// compiled patterns in one as well.
//
// # Example
//
//	c := cache.New(1024)
//	ir, err := c.GetOrCompile(cache.Key(src, sc), func() (*compiler.CompiledIR, error) {
//	    return compiler.CompileString(src, sc)
//	})
package cache

import (
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/compiler"
)

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 256

// Cache is a thread-safe LRU of compiled expressions keyed by Key.
//
// Safe for concurrent use by multiple goroutines.
type Cache struct {
	lru    *LRU[*compiler.CompiledIR]
	group  singleflight.Group
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger that receives eviction records at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New creates a new cache with the given capacity.
// capacity must be > 0; if <= 0, DefaultCapacity is used.
func New(capacity int, opts ...Option) *Cache {
	c := &Cache{lru: NewLRU[*compiler.CompiledIR](capacity)}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger != nil {
		c.lru.OnEvict(func(key string) {
			c.logger.Debug("xpath cache eviction", slog.String("expr", sourceOf(key)))
		})
	}
	return c
}

// Key builds the cache key for source compiled against sc. Contexts with
// the same fingerprint share entries.
func Key(source string, sc *compiler.StaticContext) string {
	if sc == nil {
		return "\x01" + source
	}
	return sc.Fingerprint() + "\x01" + source
}

func sourceOf(key string) string {
	return key[strings.IndexByte(key, '\x01')+1:]
}

// Get retrieves a compiled expression from the cache.
func (c *Cache) Get(key string) (*compiler.CompiledIR, bool) {
	return c.lru.Get(key)
}

// Set inserts or replaces a compiled expression.
func (c *Cache) Set(key string, ir *compiler.CompiledIR) {
	c.lru.Set(key, ir)
}

// GetOrCompile returns the cached program for key, or calls compile to
// create and cache it. Concurrent callers missing on the same key share one
// compile call. Errors are not cached.
func (c *Cache) GetOrCompile(key string, compile func() (*compiler.CompiledIR, error)) (*compiler.CompiledIR, error) {
	if ir, ok := c.lru.Get(key); ok {
		return ir, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if ir, ok := c.lru.Get(key); ok {
			return ir, nil
		}
		ir, err := compile()
		if err != nil {
			return nil, err
		}
		c.lru.Set(key, ir)
		return ir, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*compiler.CompiledIR), nil
}

// Len returns the number of entries currently in the cache.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Capacity returns the maximum number of entries the cache can hold.
func (c *Cache) Capacity() int {
	return c.lru.Capacity()
}

// Invalidate removes a single entry from the cache.
func (c *Cache) Invalidate(key string) {
	c.lru.Invalidate(key)
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.lru.Clear()
}
