package scriptext

// Context is one engine context as seen by extensions.
type Context interface {
	// ID identifies the context in logs.
	ID() string
	Globals() Globals
	Options() *OptionsStore
}

// Globals is the global namespace of a context.
type Globals interface {
	Set(key string, value any) error
	Get(key string) (any, bool)
}

// Declarations collects export names before a module is evaluated.
type Declarations interface {
	Declare(name string) error
}

// Exports receives export values during evaluation.
// Every name must have been declared first.
type Exports interface {
	Export(name string, value any) error
}
