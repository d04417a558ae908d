// Package loader turns registered extensions into the artifacts an engine
// installs.
//
// # Main Types
//
//   - Builder: immutable, chainable registration of extensions
//   - Loader: dispenses each registered module at most once
//   - Resolver: validates import specifiers against built-ins and module names
//   - Initializer: installs globals and seeds options, once per context
//
// # Thread Safety
//
// Builder values are immutable and may be shared.
// Loader and Resolver are safe for concurrent use.
// Initializer.Init succeeds at most once.
//
// # Duplicate Names
//
// With the default LastWins policy a module registered twice under the same
// name is dispensed from the later registration. Every registration's globals
// still run in order, so the stored options are the later ones too. The
// Reject policy makes Build fail on any repeated name instead.
//
// A module and a globals extension may never share a name under either
// policy: both would store options under it.
//
// # Example
//
//	ld, res, gi, err := loader.NewBuilder(loader.WithBuiltins("console")).
//	    With(printer.New("world")).
//	    WithNamed(printer.New("arnold"), "custom_printer").
//	    Build()
//	if err != nil {
//	    return err
//	}
//	// install ld and res into the engine, then per context:
//	if err := gi.Init(ctx); err != nil {
//	    return err
//	}
package loader
