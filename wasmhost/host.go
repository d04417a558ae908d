package wasmhost

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	scriptext "github.com/wippyai/script-extensions"
	"github.com/wippyai/script-extensions/errors"
	"github.com/wippyai/script-extensions/loader"
)

// DefaultGlobalsModule is the import module name globals are exported under.
const DefaultGlobalsModule = "env"

// Option configures a Host.
type Option func(*Host)

// WithGlobalsModule sets the import module name for globals.
func WithGlobalsModule(name string) Option {
	return func(h *Host) { h.globalsModule = name }
}

// WithContextID overrides the generated context id.
func WithContextID(id string) Option {
	return func(h *Host) { h.ctx.id = id }
}

// Host links wasm guests against extension modules in a wazero runtime.
// Thread-safe.
type Host struct {
	rt            wazero.Runtime
	loader        *loader.Loader
	resolver      *loader.Resolver
	ctx           *hostContext
	globalsModule string
	failed        map[string]error
	hostModuleMu  sync.Mutex
}

// New creates a host over rt. The runtime stays owned by the caller.
func New(rt wazero.Runtime, ld *loader.Loader, res *loader.Resolver, opts ...Option) (*Host, error) {
	h := &Host{
		rt:            rt,
		loader:        ld,
		resolver:      res,
		ctx:           &hostContext{options: scriptext.NewOptionsStore()},
		globalsModule: DefaultGlobalsModule,
		failed:        make(map[string]error),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.ctx.globals = &globals{table: newFuncTable(), module: h.globalsModule}

	if h.ctx.id == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, errors.Wrap(errors.PhaseLinking, errors.KindInvalidInput, err, "generate context id")
		}
		h.ctx.id = id.String()
	}

	return h, nil
}

// Runtime returns the wazero runtime.
func (h *Host) Runtime() wazero.Runtime {
	return h.rt
}

// Context returns the host's script context.
func (h *Host) Context() scriptext.Context {
	return h.ctx
}

// GlobalsModule returns the import module name globals are exported under.
func (h *Host) GlobalsModule() string {
	return h.globalsModule
}

// Init runs the global initializer and instantiates the globals host module
// when any globals were set.
func (h *Host) Init(ctx context.Context, gi *loader.Initializer) error {
	if err := gi.Init(h.ctx); err != nil {
		return err
	}

	table := h.ctx.globals.table
	if table.len() == 0 {
		return nil
	}

	h.hostModuleMu.Lock()
	defer h.hostModuleMu.Unlock()

	if h.rt.Module(h.globalsModule) != nil {
		return errors.Instantiation(h.globalsModule,
			errors.InvalidInput(errors.PhaseLinking, "module name already taken in runtime"))
	}

	b := h.rt.NewHostModuleBuilder(h.globalsModule)
	table.define(b)
	if _, err := b.Instantiate(ctx); err != nil {
		return errors.Instantiation(h.globalsModule, err)
	}

	Logger().Debug("globals module instantiated",
		zap.String("context", h.ctx.id),
		zap.String("module", h.globalsModule),
		zap.Int("functions", table.len()))
	return nil
}

// Instantiate compiles wasm and instantiates it as name. Every imported
// module must be the globals module, a registered extension or a module
// already present in the runtime; otherwise an *errors.UnresolvedImportsError
// lists what is missing.
//
// An extension is materialized at most once. If that fails, the loader has
// already dispensed it and every later guest importing it gets the first
// failure again.
func (h *Host) Instantiate(ctx context.Context, wasm []byte, name string) (api.Module, error) {
	compiled, err := h.rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Instantiation(name, err)
	}

	var (
		order   []string
		imports = make(map[string][]string)
	)
	for _, def := range compiled.ImportedFunctions() {
		mod, fn, ok := def.Import()
		if !ok {
			continue
		}
		if _, seen := imports[mod]; !seen {
			order = append(order, mod)
		}
		imports[mod] = append(imports[mod], fn)
	}

	var unresolved []string
	for _, mod := range order {
		hostMod, err := h.link(ctx, name, mod)
		if err != nil {
			_ = compiled.Close(ctx)
			return nil, err
		}
		for _, fn := range imports[mod] {
			if hostMod == nil || hostMod.ExportedFunction(fn) == nil {
				unresolved = append(unresolved, mod+"#"+fn)
			}
		}
	}

	if len(unresolved) > 0 {
		_ = compiled.Close(ctx)
		Logger().Debug("unresolved imports",
			zap.String("module", name),
			zap.Strings("imports", unresolved))
		return nil, errors.NewUnresolvedImportsError(unresolved)
	}

	inst, err := h.rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, errors.Instantiation(name, err)
	}

	Logger().Debug("guest instantiated",
		zap.String("context", h.ctx.id),
		zap.String("module", name),
		zap.Strings("imports", order))
	return inst, nil
}

// link returns the host module satisfying imports from mod, materializing a
// registered extension on first use. A nil module with a nil error means mod
// could not be resolved.
func (h *Host) link(ctx context.Context, base, mod string) (api.Module, error) {
	h.hostModuleMu.Lock()
	defer h.hostModuleMu.Unlock()

	if existing := h.rt.Module(mod); existing != nil {
		return existing, nil
	}
	if mod == h.globalsModule {
		return nil, nil
	}

	id, err := h.resolver.Resolve(base, mod)
	if err != nil || !h.resolver.Has(id) {
		return nil, nil
	}
	if err, ok := h.failed[id]; ok {
		return nil, err
	}

	inst, err := h.materialize(ctx, id, mod)
	if err != nil {
		h.failed[id] = err
		Logger().Debug("extension module failed",
			zap.String("context", h.ctx.id),
			zap.String("extension", id),
			zap.Error(err))
		return nil, err
	}
	return inst, nil
}

// materialize loads, declares and evaluates extension id and instantiates it
// as host module mod. Callers hold hostModuleMu.
func (h *Host) materialize(ctx context.Context, id, mod string) (api.Module, error) {
	m, err := h.loader.Load(id)
	if err != nil {
		return nil, err
	}

	exp := newExports(id)
	if err := m.Declare(exp); err != nil {
		return nil, err
	}
	if err := m.Evaluate(h.ctx, exp); err != nil {
		return nil, err
	}
	if err := exp.complete(); err != nil {
		return nil, err
	}

	b := h.rt.NewHostModuleBuilder(mod)
	exp.table.define(b)
	inst, err := b.Instantiate(ctx)
	if err != nil {
		return nil, errors.Instantiation(mod, err)
	}

	Logger().Debug("extension module instantiated",
		zap.String("context", h.ctx.id),
		zap.String("extension", id),
		zap.Int("functions", exp.table.len()))
	return inst, nil
}
