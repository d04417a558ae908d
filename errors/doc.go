// Package errors provides structured error types for the script-extensions library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the extension name, the Go type involved, a detail
// message and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEvaluate, errors.KindTypeMismatch).
//		Extension("printer").
//		GoType("string").
//		Detail("options are not printer.Options").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.LoadNotFound("printer")
//	err := errors.ResolutionFailure("./lib", "unregistered-name")
//
// Errors match with errors.Is by Phase and Kind, so the package sentinels
// identify a failure class regardless of its details:
//
//	if errors.Is(err, scripterrors.ErrLoadNotFound) { ... }
package errors
