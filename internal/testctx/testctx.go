// Package testctx provides in-memory engine contract implementations for tests.
package testctx

import (
	"fmt"
	"sync"

	scriptext "github.com/wippyai/script-extensions"
	"github.com/wippyai/script-extensions/errors"
)

// Context is an in-memory scriptext.Context.
type Context struct {
	id      string
	globals *Globals
	options *scriptext.OptionsStore
}

// New creates a context with empty globals and options.
func New(id string) *Context {
	return &Context{
		id:      id,
		globals: NewGlobals(),
		options: scriptext.NewOptionsStore(),
	}
}

func (c *Context) ID() string                       { return c.id }
func (c *Context) Globals() scriptext.Globals       { return c.globals }
func (c *Context) Options() *scriptext.OptionsStore { return c.options }

// GlobalValues exposes the concrete globals for assertions.
func (c *Context) GlobalValues() *Globals { return c.globals }

// Globals is a map-backed scriptext.Globals that records write order.
type Globals struct {
	values map[string]any
	writes []string
	// FailOn makes Set fail for the given key.
	FailOn string
	mu     sync.Mutex
}

func NewGlobals() *Globals {
	return &Globals{values: make(map[string]any)}
}

func (g *Globals) Set(key string, value any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailOn != "" && key == g.FailOn {
		return fmt.Errorf("global %q is read-only", key)
	}
	g.values[key] = value
	g.writes = append(g.writes, key)
	return nil
}

func (g *Globals) Get(key string) (any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.values[key]
	return v, ok
}

// Writes returns keys in the order they were set.
func (g *Globals) Writes() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.writes...)
}

// Module records declarations and exports for one module, enforcing that
// exports were declared.
type Module struct {
	name     string
	declared map[string]bool
	order    []string
	exports  map[string]any
}

func NewModule(name string) *Module {
	return &Module{
		name:     name,
		declared: make(map[string]bool),
		exports:  make(map[string]any),
	}
}

func (m *Module) Declare(name string) error {
	if !m.declared[name] {
		m.declared[name] = true
		m.order = append(m.order, name)
	}
	return nil
}

func (m *Module) Export(name string, value any) error {
	if !m.declared[name] {
		return errors.Undeclared(m.name, name)
	}
	m.exports[name] = value
	return nil
}

// Declared returns declared names in declaration order.
func (m *Module) Declared() []string {
	return append([]string(nil), m.order...)
}

// Value returns an exported value.
func (m *Module) Value(name string) (any, bool) {
	v, ok := m.exports[name]
	return v, ok
}
