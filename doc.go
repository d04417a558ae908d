// Package scriptext lets host code register typed extensions with an
// embeddable scripting engine.
//
// An extension bundles optional module exports, optional global bindings and
// an options value. Extensions are registered on a loader.Builder, which
// produces three artifacts for the engine: a module loader, an import
// specifier resolver and a one-shot global initializer.
//
// # Architecture Overview
//
//	scriptext/           Root package with the engine contract and OptionsStore
//	├── extension/       Typed extension definitions and the type-erasing Adapter
//	├── loader/          Builder, Loader, Resolver and Initializer
//	├── errors/          Structured error types
//	├── gojahost/        JavaScript binding (goja)
//	├── wasmhost/        WebAssembly binding (wazero)
//	├── config/          Layered host configuration (koanf)
//	├── extensions/      Example extensions
//	└── cmd/scriptext/   Command line runner
//
// # Quick Start
//
//	ld, res, gi, err := loader.NewBuilder().
//	    With(printer.New("world")).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	host, err := gojahost.New(ld, res)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := host.Init(gi); err != nil {
//	    log.Fatal(err)
//	}
//
//	v, _ := host.RunString(`require("printer").default.print()`)
//	fmt.Println(v) // "hello world"
//
// # Options
//
// Each extension's options travel from registration into the context's
// OptionsStore, keyed by the extension's effective name. The initializer
// writes them; module evaluation reads them. The initializer must therefore
// run before any script in that context.
//
// # Thread Safety
//
// Builder values are immutable. Loader and Resolver are safe for concurrent
// use. Initializer.Init succeeds at most once. A Context belongs to a single
// engine context and must not be shared.
package scriptext
