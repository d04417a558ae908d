package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRegister Phase = "register" // extension registration
	PhaseBuild    Phase = "build"    // artifact construction
	PhaseLoad     Phase = "load"     // module dispensing
	PhaseResolve  Phase = "resolve"  // specifier resolution
	PhaseInit     Phase = "init"     // global initialization
	PhaseDeclare  Phase = "declare"  // export declaration
	PhaseEvaluate Phase = "evaluate" // module evaluation
	PhaseLinking  Phase = "linking"  // engine binding
	PhaseConfig   Phase = "config"   // host configuration
)

// Kind categorizes the error
type Kind string

const (
	KindConflict       Kind = "conflict"
	KindNotFound       Kind = "not_found"
	KindResolution     Kind = "resolution"
	KindOptionsMissing Kind = "options_missing"
	KindGlobalBinding  Kind = "global_binding"
	KindTypeMismatch   Kind = "type_mismatch"
	KindInvalidInput   Kind = "invalid_input"
	KindUnsupported    Kind = "unsupported"
	KindConsumed       Kind = "consumed"
	KindUndeclared     Kind = "undeclared"
	KindMissingImport  Kind = "missing_import"
	KindInstantiation  Kind = "instantiation"
)

// Sentinels for errors.Is. Matching compares Phase and Kind only.
var (
	ErrRegistrationConflict = &Error{Phase: PhaseBuild, Kind: KindConflict}
	ErrLoadNotFound         = &Error{Phase: PhaseLoad, Kind: KindNotFound}
	ErrResolutionFailure    = &Error{Phase: PhaseResolve, Kind: KindResolution}
	ErrOptionsMissing       = &Error{Phase: PhaseEvaluate, Kind: KindOptionsMissing}
	ErrGlobalBindingFailure = &Error{Phase: PhaseInit, Kind: KindGlobalBinding}
	ErrConsumed             = &Error{Phase: PhaseInit, Kind: KindConsumed}
	ErrUndeclaredExport     = &Error{Phase: PhaseEvaluate, Kind: KindUndeclared}
)

// Error is the structured error type used throughout the library
type Error struct {
	Value     any
	Cause     error
	Phase     Phase
	Kind      Kind
	Extension string
	GoType    string
	Detail    string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Extension != "" {
		b.WriteString(" in ")
		b.WriteString(e.Extension)
	}

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Extension sets the extension name
func (b *Builder) Extension(name string) *Builder {
	b.err.Extension = name
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// RegistrationConflict reports a name registered more than once
func RegistrationConflict(name string, count int) *Error {
	return &Error{
		Phase:     PhaseBuild,
		Kind:      KindConflict,
		Extension: name,
		Detail:    fmt.Sprintf("name registered %d times", count),
		Value:     count,
	}
}

// NameClash reports a name shared by a module and a globals extension.
// Both would store options under it.
func NameClash(name string) *Error {
	return &Error{
		Phase:     PhaseBuild,
		Kind:      KindConflict,
		Extension: name,
		Detail:    "name used by both a module and a globals extension",
	}
}

// LoadNotFound reports a module that was never registered or already loaded
func LoadNotFound(name string) *Error {
	return &Error{
		Phase:     PhaseLoad,
		Kind:      KindNotFound,
		Extension: name,
		Detail:    fmt.Sprintf("module %q not registered or already loaded", name),
	}
}

// ResolutionFailure reports a specifier no resolver recognizes
func ResolutionFailure(base, specifier string) *Error {
	detail := fmt.Sprintf("cannot resolve %q", specifier)
	if base != "" {
		detail += fmt.Sprintf(" from %q", base)
	}
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindResolution,
		Detail: detail,
		Value:  specifier,
	}
}

// OptionsMissing reports evaluation without seeded options
func OptionsMissing(name string) *Error {
	return &Error{
		Phase:     PhaseEvaluate,
		Kind:      KindOptionsMissing,
		Extension: name,
		Detail:    "no options in context; run the global initializer first",
	}
}

// GlobalBinding wraps a failure from an extension's globals function
func GlobalBinding(name string, cause error) *Error {
	return &Error{
		Phase:     PhaseInit,
		Kind:      KindGlobalBinding,
		Extension: name,
		Detail:    "install globals",
		Cause:     cause,
	}
}

// Consumed reports a second use of a single-use artifact
func Consumed(what string) *Error {
	return &Error{
		Phase:  PhaseInit,
		Kind:   KindConsumed,
		Detail: fmt.Sprintf("%s already used", what),
	}
}

// Undeclared reports an export that was not declared before evaluation
func Undeclared(module, export string) *Error {
	return &Error{
		Phase:     PhaseEvaluate,
		Kind:      KindUndeclared,
		Extension: module,
		Detail:    fmt.Sprintf("export %q was not declared", export),
		Value:     export,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, name, what string) *Error {
	return &Error{
		Phase:     phase,
		Kind:      KindUnsupported,
		Extension: name,
		Detail:    what,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Instantiation creates an engine instantiation error
func Instantiation(name string, cause error) *Error {
	return &Error{
		Phase:     PhaseLinking,
		Kind:      KindInstantiation,
		Extension: name,
		Detail:    "instantiate module",
		Cause:     cause,
	}
}

// UnresolvedImport represents a single unresolved guest import
type UnresolvedImport struct {
	Module   string // e.g., "printer"
	Function string // e.g., "answer"
}

// UnresolvedImportsError is returned when a guest imports modules that no
// resolver recognizes
type UnresolvedImportsError struct {
	Imports []UnresolvedImport
}

// NewUnresolvedImportsError creates an error from a list of "module#function" strings
func NewUnresolvedImportsError(imports []string) *UnresolvedImportsError {
	result := &UnresolvedImportsError{
		Imports: make([]UnresolvedImport, 0, len(imports)),
	}
	for _, imp := range imports {
		mod, fn := parseImportKey(imp)
		result.Imports = append(result.Imports, UnresolvedImport{
			Module:   mod,
			Function: fn,
		})
	}
	return result
}

func parseImportKey(key string) (module, function string) {
	mod, fn, found := strings.Cut(key, "#")
	if found {
		return mod, fn
	}
	return key, ""
}

func (e *UnresolvedImportsError) Error() string {
	if len(e.Imports) == 0 {
		return "[linking] missing_import: no imports specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "unresolved %d import(s):\n", len(e.Imports))

	// Group by module for cleaner output
	byMod := make(map[string][]string)
	var modOrder []string
	for _, imp := range e.Imports {
		if _, exists := byMod[imp.Module]; !exists {
			modOrder = append(modOrder, imp.Module)
		}
		byMod[imp.Module] = append(byMod[imp.Module], imp.Function)
	}

	for _, mod := range modOrder {
		b.WriteString("\n  ")
		b.WriteString(mod)
		b.WriteString(":\n")
		for _, fn := range byMod[mod] {
			b.WriteString("    - ")
			b.WriteString(fn)
			b.WriteByte('\n')
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type. It also matches
// ErrResolutionFailure, since every entry failed resolution.
func (e *UnresolvedImportsError) Is(target error) bool {
	switch t := target.(type) {
	case *UnresolvedImportsError:
		return true
	case *Error:
		return t.Phase == PhaseResolve && t.Kind == KindResolution
	}
	return false
}

// Modules returns the distinct unresolved module names in first-seen order.
func (e *UnresolvedImportsError) Modules() []string {
	seen := make(map[string]bool)
	var mods []string
	for _, imp := range e.Imports {
		if !seen[imp.Module] {
			seen[imp.Module] = true
			mods = append(mods, imp.Module)
		}
	}
	return mods
}
