// Package cache provides a thread-safe LRU cache for compiled expressions.
//
// The cache is used by the evaluator when the WithCaching option is enabled.
// Entries are keyed by the expression source, so a query applied to many
// documents is parsed once.
//
// # Example
//
//	c := cache.New(1024)
//	expr, err := c.GetOrCompile("#root.items.?[price > 100]", compile)
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sandrolain/gospel/pkg/ast"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 256

// Cache is a thread-safe LRU (Least Recently Used) cache for compiled
// expressions. Once the capacity is reached, the least recently accessed
// entry is evicted.
type Cache struct {
	capacity int
	lru      *lru.Cache[string, *ast.Expression]
}

// New creates a new LRU cache with the given capacity.
// If capacity <= 0, DefaultCapacity is used.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l, err := lru.New[string, *ast.Expression](capacity)
	if err != nil {
		// Only returned for a non-positive size.
		panic(err)
	}
	return &Cache{
		capacity: capacity,
		lru:      l,
	}
}

// Get retrieves a compiled expression and marks it most recently used.
func (c *Cache) Get(key string) (*ast.Expression, bool) {
	return c.lru.Get(key)
}

// Set inserts or replaces an expression in the cache.
func (c *Cache) Set(key string, expr *ast.Expression) {
	c.lru.Add(key, expr)
}

// GetOrCompile retrieves the expression for key from cache, or calls compile()
// to create it, caches the result, and returns it. Errors are not cached.
// The boolean reports whether the expression came from the cache.
func (c *Cache) GetOrCompile(key string, compile func() (*ast.Expression, error)) (*ast.Expression, bool, error) {
	if expr, ok := c.Get(key); ok {
		return expr, true, nil
	}
	expr, err := compile()
	if err != nil {
		return nil, false, err
	}
	c.Set(key, expr)
	return expr, false, nil
}

// Len returns the number of entries currently in the cache.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Capacity returns the maximum number of entries the cache can hold.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Invalidate removes a single entry from the cache.
func (c *Cache) Invalidate(key string) {
	c.lru.Remove(key)
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() {
	c.lru.Purge()
}
