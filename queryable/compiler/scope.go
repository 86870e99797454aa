package compiler

import (
	"fmt"

	"github.com/boginw/jsonapi/queryable/plan"
)

// ScopePool allocates the variable bindings used by nested anonymous-function
// scopes within one Compile call. Names come from a monotonic counter, so two
// scopes created from the same pool never collide, even across independent
// clause compilations and recursive nested compiles.
//
// One pool exists per top-level Compile call; pools are not safe for
// concurrent use and never shared across compiles.
type ScopePool struct {
	next  int
	stack []*Scope // currently visible bindings, innermost last
}

// NewScopePool creates an empty pool.
func NewScopePool() *ScopePool {
	return &ScopePool{}
}

// CreateScope allocates a fresh binding over the given element storage type.
// The new scope's parent is the innermost scope still active, so nested
// compiles can reference the outer binding without owning it.
func (p *ScopePool) CreateScope(storage string) *Scope {
	var parent *Scope
	if len(p.stack) > 0 {
		parent = p.stack[len(p.stack)-1]
	}
	s := &Scope{
		pool:    p,
		name:    fmt.Sprintf("e%d", p.next),
		storage: storage,
		parent:  parent,
	}
	p.next++
	p.stack = append(p.stack, s)
	return s
}

// Depth returns the number of active scopes.
func (p *ScopePool) Depth() int {
	return len(p.stack)
}

// Scope is one named variable binding, valid for one unit of compiled logic.
// Callers pair CreateScope with a deferred Release so the binding is retired
// on every exit path, including errors.
type Scope struct {
	pool     *ScopePool
	name     string
	storage  string
	parent   *Scope
	released bool
}

// Accessor returns a reference to the scope's bound variable.
func (s *Scope) Accessor() *plan.Var {
	return &plan.Var{Name: s.name, Of: s.storage}
}

// Parent returns the enclosing scope, or nil at the top level.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Release retires the binding. Releasing twice is a no-op. The name is never
// reissued within the pool's compile pass.
func (s *Scope) Release() {
	if s.released {
		return
	}
	s.released = true
	for i := len(s.pool.stack) - 1; i >= 0; i-- {
		if s.pool.stack[i] == s {
			s.pool.stack = append(s.pool.stack[:i], s.pool.stack[i+1:]...)
			return
		}
	}
}
