package loader

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	scriptext "github.com/wippyai/script-extensions"
	"github.com/wippyai/script-extensions/errors"
	"github.com/wippyai/script-extensions/extension"
)

// Loader dispenses registered modules. Each module can be loaded once;
// engines are expected to cache the modules they load.
// Thread-safe.
type Loader struct {
	modules map[string]*extension.Adapter
	mu      sync.Mutex
}

func newLoader(modules map[string]*extension.Adapter) *Loader {
	return &Loader{modules: modules}
}

// Load removes the module registered under name and returns it.
// It fails with errors.ErrLoadNotFound when name was never registered or
// was already loaded.
func (l *Loader) Load(name string) (*Module, error) {
	l.mu.Lock()
	a, ok := l.modules[name]
	delete(l.modules, name)
	l.mu.Unlock()

	if !ok {
		return nil, errors.LoadNotFound(name)
	}

	Logger().Debug("module loaded", zap.String("extension", name))
	return &Module{adapter: a}, nil
}

// Pending returns the names that can still be loaded, sorted.
func (l *Loader) Pending() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	names := make([]string, 0, len(l.modules))
	for name := range l.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Module is a dispensed module ready for declaration and evaluation.
type Module struct {
	adapter *extension.Adapter
}

// Name returns the module name.
func (m *Module) Name() string {
	return m.adapter.Name()
}

// Declare lists the module's exports into decl.
func (m *Module) Declare(decl scriptext.Declarations) error {
	return m.adapter.Declare(decl)
}

// Evaluate fills exports using the options stored in ctx.
// It fails with errors.ErrOptionsMissing when ctx was not initialized.
func (m *Module) Evaluate(ctx scriptext.Context, exports scriptext.Exports) error {
	return m.adapter.Evaluate(ctx, exports)
}
