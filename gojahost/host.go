// Package gojahost binds extensions to a goja JavaScript runtime.
//
// Registered modules are reachable through the global require function,
// globals land on the runtime's global object and the goja_nodejs console
// and util modules are available as built-ins:
//
//	ld, res, gi, _ := loader.NewBuilder(loader.WithBuiltins(gojahost.BuiltinNames()...)).
//	    With(printer.New("world")).
//	    Build()
//	host, _ := gojahost.New(ld, res)
//	_ = host.Init(gi)
//	v, _ := host.RunString(`require("printer").default.print()`)
//
// A Host owns one goja runtime and is not safe for concurrent use.
package gojahost

import (
	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
	"github.com/dop251/goja_nodejs/util"
	"github.com/google/uuid"
	"go.uber.org/zap"

	scriptext "github.com/wippyai/script-extensions"
	"github.com/wippyai/script-extensions/errors"
	"github.com/wippyai/script-extensions/loader"
)

// BuiltinNames returns the module names the runtime provides on its own.
func BuiltinNames() []string {
	return []string{console.ModuleName, util.ModuleName}
}

// Option configures a Host.
type Option func(*Host)

// WithRuntime hosts extensions in an existing runtime instead of a new one.
func WithRuntime(rt *goja.Runtime) Option {
	return func(h *Host) { h.rt = rt }
}

// WithContextID overrides the generated context id.
func WithContextID(id string) Option {
	return func(h *Host) { h.ctx.id = id }
}

// Host is a goja runtime wired to a Loader and a Resolver.
type Host struct {
	rt       *goja.Runtime
	req      *require.RequireModule
	loader   *loader.Loader
	resolver *loader.Resolver
	ctx      *hostContext
	cache    map[string]goja.Value
	failed   map[string]error
	script   string
}

// New creates a host. Modules are loaded from ld on first require and cached
// for the lifetime of the host.
func New(ld *loader.Loader, res *loader.Resolver, opts ...Option) (*Host, error) {
	h := &Host{
		loader:   ld,
		resolver: res,
		ctx:      &hostContext{options: scriptext.NewOptionsStore()},
		cache:    make(map[string]goja.Value),
		failed:   make(map[string]error),
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.rt == nil {
		h.rt = goja.New()
	}
	h.rt.SetFieldNameMapper(goja.UncapFieldNameMapper())
	h.ctx.globals = &globals{rt: h.rt}

	if h.ctx.id == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, errors.Wrap(errors.PhaseLinking, errors.KindInvalidInput, err, "generate context id")
		}
		h.ctx.id = id.String()
	}

	registry := require.NewRegistry(require.WithLoader(noSources))
	h.req = registry.Enable(h.rt)
	console.Enable(h.rt)

	if err := h.rt.Set("require", h.Require); err != nil {
		return nil, errors.Wrap(errors.PhaseLinking, errors.KindGlobalBinding, err, "install require")
	}

	Logger().Debug("goja host created", zap.String("context", h.ctx.id))
	return h, nil
}

// noSources keeps require away from the filesystem.
func noSources(string) ([]byte, error) {
	return nil, require.ModuleFileDoesNotExistError
}

// Runtime returns the underlying goja runtime.
func (h *Host) Runtime() *goja.Runtime {
	return h.rt
}

// Context returns the host's script context.
func (h *Host) Context() scriptext.Context {
	return h.ctx
}

// Init runs the global initializer against this host's context. It must be
// called before scripts that use extension globals or import modules.
func (h *Host) Init(gi *loader.Initializer) error {
	return gi.Init(h.ctx)
}

// RunString evaluates src.
func (h *Host) RunString(src string) (goja.Value, error) {
	return h.RunScript("", src)
}

// RunScript evaluates src as the script called name. name is the base
// passed to the resolver for imports made while it runs.
func (h *Host) RunScript(name, src string) (goja.Value, error) {
	prev := h.script
	h.script = name
	defer func() { h.script = prev }()

	return h.rt.RunScript(name, src)
}

// Require returns the exports of the module specifier refers to.
// Registered modules are declared and evaluated on first use; built-ins are
// delegated to goja_nodejs. A registered module whose evaluation failed is
// not retried: the loader has already dispensed it, so later requires return
// the first failure.
func (h *Host) Require(specifier string) (goja.Value, error) {
	id, err := h.resolver.Resolve(h.script, specifier)
	if err != nil {
		return nil, err
	}

	if v, ok := h.cache[id]; ok {
		return v, nil
	}
	if err, ok := h.failed[id]; ok {
		return nil, err
	}

	var v goja.Value
	if h.resolver.Has(id) {
		v, err = h.evaluate(id)
		if err != nil {
			h.failed[id] = err
		}
	} else {
		v, err = h.req.Require(id)
	}
	if err != nil {
		return nil, err
	}

	h.cache[id] = v
	return v, nil
}

func (h *Host) evaluate(name string) (goja.Value, error) {
	m, err := h.loader.Load(name)
	if err != nil {
		return nil, err
	}

	exp := newExports(h.rt, name)
	if err := m.Declare(exp); err != nil {
		return nil, err
	}
	if err := m.Evaluate(h.ctx, exp); err != nil {
		return nil, err
	}

	Logger().Debug("module evaluated",
		zap.String("context", h.ctx.id),
		zap.String("extension", name),
		zap.Int("exports", len(exp.declared)))
	return exp.obj, nil
}
