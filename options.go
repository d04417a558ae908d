package scriptext

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wippyai/script-extensions/errors"
)

// OptionsStore holds extension options for a single context, keyed by the
// extension's effective name.
// Thread-safe.
type OptionsStore struct {
	values map[string]any
	mu     sync.RWMutex
}

// NewOptionsStore creates an empty store. Each context gets its own.
func NewOptionsStore() *OptionsStore {
	return &OptionsStore{
		values: make(map[string]any),
	}
}

// Put stores options under name and reports whether a previous value
// was replaced.
func (s *OptionsStore) Put(name string, options any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, replaced := s.values[name]
	s.values[name] = options
	return replaced
}

// Get returns the raw options stored under name.
func (s *OptionsStore) Get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[name]
	return v, ok
}

// Names returns the stored extension names in sorted order.
func (s *OptionsStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored entries.
func (s *OptionsStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// LookupOptions returns the options stored under name as O.
// It fails with errors.ErrOptionsMissing when nothing was stored, which means
// the initializer has not run on this context.
func LookupOptions[O any](s *OptionsStore, name string) (O, error) {
	var zero O
	if s == nil {
		return zero, errors.OptionsMissing(name)
	}

	raw, ok := s.Get(name)
	if !ok {
		return zero, errors.OptionsMissing(name)
	}

	opts, ok := raw.(O)
	if !ok {
		return zero, errors.New(errors.PhaseEvaluate, errors.KindTypeMismatch).
			Extension(name).
			GoType(fmt.Sprintf("%T", raw)).
			Detail("options are not %T", zero).
			Build()
	}
	return opts, nil
}
