package loader

import (
	"sort"

	"github.com/wippyai/script-extensions/errors"
)

// BaseResolver resolves specifiers the engine knows without registration.
type BaseResolver interface {
	Resolve(base, specifier string) (string, error)
}

// BuiltinResolver recognizes a fixed set of specifiers and resolves each to
// itself.
type BuiltinResolver struct {
	names map[string]struct{}
}

// NewBuiltinResolver creates a resolver for the given built-in names.
func NewBuiltinResolver(names ...string) *BuiltinResolver {
	r := &BuiltinResolver{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		r.names[name] = struct{}{}
	}
	return r
}

// Resolve returns specifier when it is a built-in.
func (r *BuiltinResolver) Resolve(base, specifier string) (string, error) {
	if _, ok := r.names[specifier]; ok {
		return specifier, nil
	}
	return "", errors.ResolutionFailure(base, specifier)
}

// Names returns the built-in names, sorted.
func (r *BuiltinResolver) Names() []string {
	return sortedKeys(r.names)
}

type chainResolver []BaseResolver

func (c chainResolver) Resolve(base, specifier string) (string, error) {
	for _, r := range c {
		if id, err := r.Resolve(base, specifier); err == nil {
			return id, nil
		}
	}
	return "", errors.ResolutionFailure(base, specifier)
}

// Resolver resolves import specifiers: first through its base strategy,
// then against the module names registered at Build.
// Read-only after construction; safe for concurrent use.
type Resolver struct {
	base  BaseResolver
	names map[string]struct{}
}

func newResolver(base BaseResolver, names map[string]struct{}) *Resolver {
	return &Resolver{base: base, names: names}
}

// Resolve returns the canonical module id for specifier imported from base.
// It fails with errors.ErrResolutionFailure when nothing recognizes it.
func (r *Resolver) Resolve(base, specifier string) (string, error) {
	if r.base != nil {
		if id, err := r.base.Resolve(base, specifier); err == nil {
			return id, nil
		}
	}
	if _, ok := r.names[specifier]; ok {
		return specifier, nil
	}
	return "", errors.ResolutionFailure(base, specifier)
}

// Has reports whether name is a registered module.
func (r *Resolver) Has(name string) bool {
	_, ok := r.names[name]
	return ok
}

// Names returns the registered module names, sorted.
func (r *Resolver) Names() []string {
	return sortedKeys(r.names)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
