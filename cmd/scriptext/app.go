package main

import (
	"io"

	"github.com/wippyai/script-extensions/config"
	"github.com/wippyai/script-extensions/extension"
	"github.com/wippyai/script-extensions/extensions/printer"
	"github.com/wippyai/script-extensions/gojahost"
	"github.com/wippyai/script-extensions/loader"
)

// extensionSet lists the bundled extensions with their configured options.
type extensionSet struct {
	printer printer.Options
	global  printer.Options
}

func loadExtensions(cfg *config.Config) (extensionSet, error) {
	set := extensionSet{
		printer: printer.Options{Target: printer.DefaultTarget},
		global:  printer.Options{Target: printer.DefaultTarget},
	}
	if err := cfg.ExtensionOptions(printer.Name, &set.printer); err != nil {
		return set, err
	}
	if err := cfg.ExtensionOptions(printer.GlobalName, &set.global); err != nil {
		return set, err
	}
	return set, nil
}

func newBuilder(cfg *config.Config, builtins []string, exts ...extension.Extension) (loader.Builder, error) {
	opts, err := cfg.BuilderOptions()
	if err != nil {
		return loader.Builder{}, err
	}
	opts = append(opts, loader.WithBuiltins(builtins...))

	b := loader.NewBuilder(opts...)
	for _, ext := range exts {
		b = b.With(ext)
	}
	return b, nil
}

// jsBuilder registers the bundled extensions for the JavaScript host.
func jsBuilder(cfg *config.Config) (loader.Builder, error) {
	set, err := loadExtensions(cfg)
	if err != nil {
		return loader.Builder{}, err
	}
	return newBuilder(cfg, gojahost.BuiltinNames(),
		printer.NewModule(set.printer),
		printer.NewGlobals(set.global.Target),
	)
}

// wasmBuilder registers the bundled extensions for wasm guests. Output of
// the guest-callable printer goes to w.
func wasmBuilder(cfg *config.Config, w io.Writer) (loader.Builder, error) {
	set, err := loadExtensions(cfg)
	if err != nil {
		return loader.Builder{}, err
	}
	return newBuilder(cfg, nil, printer.NewWasm(set.printer, w))
}

// newJSHost builds a fresh registry and an initialized host. Each host needs
// its own registry because loaders dispense every module once.
func newJSHost(cfg *config.Config) (*gojahost.Host, error) {
	b, err := jsBuilder(cfg)
	if err != nil {
		return nil, err
	}

	ld, res, gi, err := b.Build()
	if err != nil {
		return nil, err
	}

	host, err := gojahost.New(ld, res)
	if err != nil {
		return nil, err
	}
	if err := host.Init(gi); err != nil {
		return nil, err
	}
	return host, nil
}
