// Package extension defines the typed extension contract and the Adapter
// that erases an extension's options type for the loader.
//
// An extension is either a Module, which is importable by scripts and may
// also install globals, or a Global, which only installs globals. Both carry
// an options value of any type O:
//
//	ext := extension.Module[Options]{
//	    Name: "printer",
//	    Declare: func(d scriptext.Declarations) error {
//	        return d.Declare("default")
//	    },
//	    Evaluate: func(ctx scriptext.Context, e scriptext.Exports, o Options) error {
//	        return e.Export("default", NewPrinter(o.Target))
//	    },
//	    Options: Options{Target: "world"},
//	}
//
// The options reach Evaluate through the context's OptionsStore, which the
// global initializer seeds. Evaluate fails with errors.ErrOptionsMissing when
// the initializer has not run on that context.
package extension

import (
	scriptext "github.com/wippyai/script-extensions"
)

// Kind discriminates the two extension variants.
type Kind int

const (
	// KindModule extensions export an importable module.
	KindModule Kind = iota
	// KindGlobals extensions only install globals.
	KindGlobals
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindGlobals:
		return "globals"
	default:
		return "unknown"
	}
}

// Extension is implemented only by Module and Global.
type Extension interface {
	// DeclaredName is the name the extension was defined with.
	DeclaredName() string
	Kind() Kind

	adapt(name string) *Adapter
}

// DeclareFunc lists a module's export names.
type DeclareFunc func(decl scriptext.Declarations) error

// Module is an extension exporting an importable module.
type Module[O any] struct {
	Name     string
	Declare  DeclareFunc
	Evaluate func(ctx scriptext.Context, exports scriptext.Exports, options O) error
	// Globals is optional.
	Globals func(globals scriptext.Globals, options O) error
	Options O
}

func (m Module[O]) DeclaredName() string { return m.Name }

func (m Module[O]) Kind() Kind { return KindModule }

func (m Module[O]) adapt(name string) *Adapter {
	return newAdapter(name, KindModule, m.Declare, m.Evaluate, m.Globals, m.Options)
}

// Global is an extension that only installs globals.
type Global[O any] struct {
	Name    string
	Globals func(globals scriptext.Globals, options O) error
	Options O
}

func (g Global[O]) DeclaredName() string { return g.Name }

func (g Global[O]) Kind() Kind { return KindGlobals }

func (g Global[O]) adapt(name string) *Adapter {
	return newAdapter(name, KindGlobals, nil, nil, g.Globals, g.Options)
}

// GlobalsFunc builds an option-less globals extension from a single function.
func GlobalsFunc(name string, fn func(globals scriptext.Globals) error) Global[struct{}] {
	return Global[struct{}]{
		Name: name,
		Globals: func(globals scriptext.Globals, _ struct{}) error {
			return fn(globals)
		},
	}
}

// Adapt erases ext's options type. name overrides the declared name when
// non-empty.
func Adapt(ext Extension, name string) *Adapter {
	if name == "" {
		name = ext.DeclaredName()
	}
	return ext.adapt(name)
}
