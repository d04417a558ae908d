package gojahost

import (
	"github.com/dop251/goja"

	scriptext "github.com/wippyai/script-extensions"
	"github.com/wippyai/script-extensions/errors"
)

// hostContext is the scriptext.Context of one goja runtime.
type hostContext struct {
	globals *globals
	options *scriptext.OptionsStore
	id      string
}

func (c *hostContext) ID() string                       { return c.id }
func (c *hostContext) Globals() scriptext.Globals       { return c.globals }
func (c *hostContext) Options() *scriptext.OptionsStore { return c.options }

// globals writes straight into the runtime's global object.
type globals struct {
	rt *goja.Runtime
}

func (g *globals) Set(key string, value any) error {
	return g.rt.GlobalObject().Set(key, value)
}

func (g *globals) Get(key string) (any, bool) {
	v := g.rt.GlobalObject().Get(key)
	if v == nil || goja.IsUndefined(v) {
		return nil, false
	}
	return v.Export(), true
}

// exports collects one module's declared names and fills its exports object.
type exports struct {
	obj      *goja.Object
	declared map[string]struct{}
	module   string
}

func newExports(rt *goja.Runtime, module string) *exports {
	return &exports{
		obj:      rt.NewObject(),
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
	e.declared[name] = struct{}{}
	return nil
}

func (e *exports) Export(name string, value any) error {
	if _, ok := e.declared[name]; !ok {
		return errors.Undeclared(e.module, name)
	}
	return e.obj.Set(name, value)
}
