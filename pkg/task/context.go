package task

import (
	"fmt"
	"sync"
)

// Context is a mapping from TypeKey to an externally-owned resource,
// populated before a TaskSystem's registration phase and treated as
// read-only once Run starts. Because it is never mutated during
// execution, concurrent Get calls from worker goroutines only ever take
// the read side of the mutex below and never block one another; the write
// side guards the setup phase against accidental concurrent Set calls.
type Context struct {
	mu      sync.RWMutex
	entries map[TypeKey]any
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{entries: make(map[TypeKey]any)}
}

// SetContext stores p keyed by T's TypeKey. Call only during setup, before
// TaskSystem.Run begins dispatching tasks.
func SetContext[T any](ctx *Context, p *T) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.entries[KeyOf[T]()] = p
}

// GetContext returns the *T stored for T, or nil if absent.
func GetContext[T any](ctx *Context) *T {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	v, ok := ctx.entries[KeyOf[T]()]
	if !ok {
		return nil
	}
	p, ok := v.(*T)
	if !ok {
		// A non-nil entry under T's key that isn't a *T is a programmer
		// error (two types colliding, or a raw value stored instead of a
		// pointer) — surfaced loudly rather than silently returning nil,
		// per spec.md's note that hardened Context lookups may replace
		// the original's untyped-pointer UB with a runtime check.
		panic(fmt.Sprintf("task.GetContext: stored value has unexpected type %T", v))
	}
	return p
}
