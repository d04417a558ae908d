package loader

import (
	"sync/atomic"

	"go.uber.org/zap"

	scriptext "github.com/wippyai/script-extensions"
	"github.com/wippyai/script-extensions/errors"
	"github.com/wippyai/script-extensions/extension"
)

// Initializer installs every extension's globals and options into a context.
// It MUST run before any script executes in that context, and only once.
type Initializer struct {
	bindings []*extension.Adapter
	used     atomic.Bool
}

func newInitializer(bindings []*extension.Adapter) *Initializer {
	return &Initializer{bindings: bindings}
}

// Init applies the bindings in registration order. The first failing binding
// stops initialization and is returned as errors.ErrGlobalBindingFailure;
// bindings applied before it stay in place. A second call fails with
// errors.ErrConsumed.
func (i *Initializer) Init(ctx scriptext.Context) error {
	if !i.used.CompareAndSwap(false, true) {
		return errors.Consumed("global initializer")
	}

	log := Logger().With(zap.String("context", ctx.ID()))
	for _, b := range i.bindings {
		if err := b.Bind(ctx); err != nil {
			log.Warn("global binding failed",
				zap.String("extension", b.Name()),
				zap.Error(err))
			return errors.GlobalBinding(b.Name(), err)
		}
	}

	log.Debug("globals initialized", zap.Int("bindings", len(i.bindings)))
	return nil
}

// Len returns the number of bindings.
func (i *Initializer) Len() int {
	return len(i.bindings)
}

// Names returns the binding names in application order.
func (i *Initializer) Names() []string {
	names := make([]string, len(i.bindings))
	for j, b := range i.bindings {
		names[j] = b.Name()
	}
	return names
}
