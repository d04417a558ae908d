package wasmhost

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	scriptext "github.com/wippyai/script-extensions"
	"github.com/wippyai/script-extensions/errors"
)

// Func is a host function with explicit wasm types. Values exported or set as
// globals may also be plain Go funcs, which wazero binds by reflection.
type Func struct {
	Fn      api.GoModuleFunc
	Params  []api.ValueType
	Results []api.ValueType
}

type funcDef struct {
	value any
	name  string
}

// funcTable is an ordered set of host functions destined for one host module.
type funcTable struct {
	index map[string]int
	defs  []funcDef
	mu    sync.Mutex
}

func newFuncTable() *funcTable {
	return &funcTable{index: make(map[string]int)}
}

func (t *funcTable) put(name string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if i, ok := t.index[name]; ok {
		t.defs[i].value = value
		return
	}
	t.index[name] = len(t.defs)
	t.defs = append(t.defs, funcDef{name: name, value: value})
}

func (t *funcTable) get(name string) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.defs[i].value, true
}

func (t *funcTable) snapshot() []funcDef {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]funcDef(nil), t.defs...)
}

func (t *funcTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.defs)
}

// define adds every function of the table to a host module builder.
func (t *funcTable) define(b wazero.HostModuleBuilder) {
	for _, d := range t.snapshot() {
		fb := b.NewFunctionBuilder()
		switch fn := d.value.(type) {
		case Func:
			fb = fb.WithGoModuleFunction(fn.Fn, fn.Params, fn.Results)
		case *Func:
			fb = fb.WithGoModuleFunction(fn.Fn, fn.Params, fn.Results)
		default:
			fb = fb.WithFunc(fn)
		}
		fb.Export(d.name)
	}
}

func checkFunc(phase errors.Phase, owner, name string, value any) error {
	switch fn := value.(type) {
	case Func:
		if fn.Fn != nil {
			return nil
		}
	case *Func:
		if fn != nil && fn.Fn != nil {
			return nil
		}
	default:
		if value != nil && reflect.TypeOf(value).Kind() == reflect.Func && !reflect.ValueOf(value).IsNil() {
			return nil
		}
	}
	return errors.New(phase, errors.KindTypeMismatch).
		Extension(owner).
		GoType(fmt.Sprintf("%T", value)).
		Detail("%q must be a wasmhost.Func or a Go func", name).
		Build()
}

// hostContext is the scriptext.Context of a Host. Its globals become the
// functions of the globals host module.
type hostContext struct {
	globals *globals
	options *scriptext.OptionsStore
	id      string
}

func (c *hostContext) ID() string                       { return c.id }
func (c *hostContext) Globals() scriptext.Globals       { return c.globals }
func (c *hostContext) Options() *scriptext.OptionsStore { return c.options }

type globals struct {
	table  *funcTable
	module string
}

func (g *globals) Set(key string, value any) error {
	if err := checkFunc(errors.PhaseInit, g.module, key, value); err != nil {
		return err
	}
	g.table.put(key, value)
	return nil
}

func (g *globals) Get(key string) (any, bool) {
	return g.table.get(key)
}

// exports collects one module extension's functions.
type exports struct {
	table    *funcTable
	declared map[string]struct{}
	order    []string
	module   string
}

func newExports(module string) *exports {
	return &exports{
		table:    newFuncTable(),
		declared: make(map[string]struct{}),
		module:   module,
	}
}

func (e *exports) Declare(name string) error {
	if name == "" {
		return errors.New(errors.PhaseDeclare, errors.KindInvalidInput).
			Extension(e.module).
			Detail("export name cannot be empty").
			Build()
	}
	if _, ok := e.declared[name]; !ok {
		e.declared[name] = struct{}{}
		e.order = append(e.order, name)
	}
	return nil
}

func (e *exports) Export(name string, value any) error {
	if _, ok := e.declared[name]; !ok {
		return errors.Undeclared(e.module, name)
	}
	if err := checkFunc(errors.PhaseEvaluate, e.module, name, value); err != nil {
		return err
	}
	e.table.put(name, value)
	return nil
}

// complete fails when a declared export was never provided. Host modules
// cannot carry placeholders.
func (e *exports) complete() error {
	for _, name := range e.order {
		if _, ok := e.table.get(name); !ok {
			return errors.New(errors.PhaseEvaluate, errors.KindInvalidInput).
				Extension(e.module).
				Detail("declared export %q was not provided", name).
				Build()
		}
	}
	return nil
}
