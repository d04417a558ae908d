// Package wasmhost binds extensions to WebAssembly guests running in wazero.
//
// # Mapping
//
//   - A module extension becomes a host module named after the import module
//     that requested it. Declare lists function names; Evaluate exports a
//     Func or a plain Go func for each of them.
//   - Globals become the functions of one host module, "env" by default,
//     instantiated by Host.Init.
//
// # Import Resolution Order
//
//  1. Modules already present in the runtime (including earlier extensions)
//  2. The globals module
//  3. Registered extensions, via the loader's Resolver
//  4. Error: all remaining imports are reported in one
//     *errors.UnresolvedImportsError
//
// # Example
//
//	rt := wazero.NewRuntime(ctx)
//	defer rt.Close(ctx)
//
//	ld, res, gi, _ := loader.NewBuilder().With(answers).Build()
//	host, _ := wasmhost.New(rt, ld, res)
//	_ = host.Init(ctx, gi)
//	mod, _ := host.Instantiate(ctx, guestWasm, "guest")
//	results, _ := mod.ExportedFunction("run").Call(ctx)
package wasmhost
