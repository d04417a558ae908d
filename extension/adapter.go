package extension

import (
	scriptext "github.com/wippyai/script-extensions"
	"github.com/wippyai/script-extensions/errors"
)

// Adapter is an extension with its options type erased. It carries the
// routing metadata the loader needs and the declare/evaluate/bind entry
// points engines call.
type Adapter struct {
	declare  DeclareFunc
	evaluate func(ctx scriptext.Context, exports scriptext.Exports) error
	bind     func(ctx scriptext.Context) error
	name     string
	kind     Kind
	globals  bool
	valid    error
}

func newAdapter[O any](
	name string,
	kind Kind,
	declare DeclareFunc,
	evaluate func(scriptext.Context, scriptext.Exports, O) error,
	globals func(scriptext.Globals, O) error,
	options O,
) *Adapter {
	a := &Adapter{
		name:    name,
		kind:    kind,
		declare: declare,
		globals: globals != nil,
	}

	a.bind = func(ctx scriptext.Context) error {
		store := ctx.Options()
		if store == nil {
			return errors.New(errors.PhaseInit, errors.KindInvalidInput).
				Extension(name).
				Detail("context %q has no options store", ctx.ID()).
				Build()
		}
		if globals != nil {
			if err := globals(ctx.Globals(), options); err != nil {
				return err
			}
		}
		store.Put(name, options)
		return nil
	}

	if evaluate != nil {
		a.evaluate = func(ctx scriptext.Context, exports scriptext.Exports) error {
			opts, err := scriptext.LookupOptions[O](ctx.Options(), name)
			if err != nil {
				return err
			}
			return evaluate(ctx, exports, opts)
		}
	}

	a.valid = a.validate()
	return a
}

func (a *Adapter) validate() error {
	if a.name == "" {
		return errors.InvalidInput(errors.PhaseRegister, "extension name cannot be empty")
	}
	if a.kind == KindModule {
		if a.declare == nil {
			return errors.New(errors.PhaseRegister, errors.KindInvalidInput).
				Extension(a.name).
				Detail("module extension has no Declare function").
				Build()
		}
		if a.evaluate == nil {
			return errors.New(errors.PhaseRegister, errors.KindInvalidInput).
				Extension(a.name).
				Detail("module extension has no Evaluate function").
				Build()
		}
	}
	return nil
}

// Name returns the effective name.
func (a *Adapter) Name() string { return a.name }

// Kind returns the extension variant.
func (a *Adapter) Kind() Kind { return a.kind }

// IsModule reports whether the extension is importable.
func (a *Adapter) IsModule() bool { return a.kind == KindModule }

// HasGlobals reports whether the extension installs globals.
func (a *Adapter) HasGlobals() bool { return a.globals }

// Validate returns the definition error found at adaptation, if any.
func (a *Adapter) Validate() error { return a.valid }

// Declare forwards to the extension's declare function.
func (a *Adapter) Declare(decl scriptext.Declarations) error {
	if a.kind != KindModule || a.declare == nil {
		return errors.Unsupported(errors.PhaseDeclare, a.name, "globals extensions declare no exports")
	}
	return a.declare(decl)
}

// Evaluate reads the extension's options from ctx and forwards to its
// evaluate function.
func (a *Adapter) Evaluate(ctx scriptext.Context, exports scriptext.Exports) error {
	if a.kind != KindModule || a.evaluate == nil {
		return errors.Unsupported(errors.PhaseEvaluate, a.name, "globals extensions have no module")
	}
	return a.evaluate(ctx, exports)
}

// Bind installs the extension's globals into ctx and stores its options.
// Options are stored only when the globals function succeeds. A context
// without an options store is rejected before any global is set.
func (a *Adapter) Bind(ctx scriptext.Context) error {
	return a.bind(ctx)
}
