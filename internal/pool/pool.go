// Package pool provides typed object pooling for hot formatting paths.
package pool

import (
	"strings"
	"sync"
)

// Pool is a generic, type-safe wrapper around sync.Pool.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(*T) // Optional reset function called before reuse
}

// NewPool creates a new generic pool with the given factory function
func NewPool[T any](factory func() *T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return factory()
			},
		},
	}
}

// NewPoolWithReset creates a pool with a reset function called before reuse
func NewPoolWithReset[T any](factory func() *T, reset func(*T)) *Pool[T] {
	p := NewPool(factory)
	p.reset = reset
	return p
}

// Get retrieves an object from the pool or creates a new one
func (p *Pool[T]) Get() *T {
	obj := p.pool.Get().(*T)
	if p.reset != nil {
		p.reset(obj)
	}
	return obj
}

// Put returns an object to the pool for reuse
func (p *Pool[T]) Put(obj *T) {
	if obj == nil {
		return
	}
	p.pool.Put(obj)
}

// builders larger than this are dropped instead of pooled
const maxBuilderCap = 64 << 10

var builders = NewPoolWithReset(
	func() *strings.Builder { return &strings.Builder{} },
	func(b *strings.Builder) { b.Reset() },
)

// GetBuilder returns an empty strings.Builder.
func GetBuilder() *strings.Builder { return builders.Get() }

// PutBuilder recycles b. Callers must not use b afterwards.
func PutBuilder(b *strings.Builder) {
	if b == nil || b.Cap() > maxBuilderCap {
		return
	}
	builders.Put(b)
}
