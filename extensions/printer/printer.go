// Package printer is a small example extension. It exports a Printer that
// greets a configured target, as an importable module and as a global.
package printer

import (
	"fmt"
	"io"

	scriptext "github.com/wippyai/script-extensions"
	"github.com/wippyai/script-extensions/extension"
)

const (
	// Name is the module name scripts import.
	Name = "printer"
	// GlobalName is both the globals extension name and the global key.
	GlobalName = "global_printer"
	// DefaultTarget is used when no target is configured.
	DefaultTarget = "world"
)

// Options configures a printer extension.
type Options struct {
	Target string `koanf:"target"`
}

func (o Options) target() string {
	if o.Target == "" {
		return DefaultTarget
	}
	return o.Target
}

// Printer greets its target.
type Printer struct {
	target string
}

// NewPrinter creates a printer for target.
func NewPrinter(target string) *Printer {
	return &Printer{target: target}
}

// Print returns "hello <target>".
func (p *Printer) Print() string {
	return "hello " + p.target
}

// New returns the printer module. Its default export is a Printer.
func New(target string) extension.Module[Options] {
	return NewModule(Options{Target: target})
}

// NewModule returns the printer module configured by opts.
func NewModule(opts Options) extension.Module[Options] {
	return extension.Module[Options]{
		Name: Name,
		Declare: func(decl scriptext.Declarations) error {
			return decl.Declare("default")
		},
		Evaluate: func(_ scriptext.Context, exports scriptext.Exports, o Options) error {
			return exports.Export("default", NewPrinter(o.target()))
		},
		Options: opts,
	}
}

// NewWasm returns the printer module for wasm guests. Its "print" export
// takes no arguments and writes the greeting to w.
func NewWasm(opts Options, w io.Writer) extension.Module[Options] {
	return extension.Module[Options]{
		Name: Name,
		Declare: func(decl scriptext.Declarations) error {
			return decl.Declare("print")
		},
		Evaluate: func(_ scriptext.Context, exports scriptext.Exports, o Options) error {
			p := NewPrinter(o.target())
			return exports.Export("print", func() {
				fmt.Fprintln(w, p.Print())
			})
		},
		Options: opts,
	}
}

// NewGlobals returns a globals extension installing a Printer under
// GlobalName.
func NewGlobals(target string) extension.Global[Options] {
	return extension.Global[Options]{
		Name: GlobalName,
		Globals: func(globals scriptext.Globals, o Options) error {
			return globals.Set(GlobalName, NewPrinter(o.target()))
		},
		Options: Options{Target: target},
	}
}
