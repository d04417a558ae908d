package loader

import (
	"fmt"
	"slices"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/script-extensions/errors"
	"github.com/wippyai/script-extensions/extension"
)

// ConflictPolicy decides what Build does with module names registered more
// than once.
type ConflictPolicy int

const (
	// LastWins dispenses the latest registration for a duplicated name.
	LastWins ConflictPolicy = iota
	// Reject makes Build fail with errors.ErrRegistrationConflict.
	Reject
)

func (p ConflictPolicy) String() string {
	switch p {
	case LastWins:
		return "last-wins"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("ConflictPolicy(%d)", int(p))
	}
}

// ParseConflictPolicy parses "last-wins" or "reject".
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch s {
	case "", "last-wins":
		return LastWins, nil
	case "reject":
		return Reject, nil
	default:
		return LastWins, errors.InvalidInput(errors.PhaseConfig,
			fmt.Sprintf("unknown conflict policy %q (want last-wins or reject)", s))
	}
}

type settings struct {
	base     BaseResolver
	builtins []string
	policy   ConflictPolicy
}

// Option configures a Builder.
type Option func(*settings)

// WithConflictPolicy sets the duplicate-name policy. Default LastWins.
func WithConflictPolicy(p ConflictPolicy) Option {
	return func(s *settings) { s.policy = p }
}

// WithBaseResolver sets the strategy consulted before registered names.
func WithBaseResolver(r BaseResolver) Option {
	return func(s *settings) { s.base = r }
}

// WithBuiltins adds specifiers resolved as engine built-ins.
func WithBuiltins(names ...string) Option {
	return func(s *settings) { s.builtins = append(s.builtins, names...) }
}

// Builder accumulates extensions. Every method returns a new Builder and
// leaves the receiver unchanged, so partially built registries can be shared
// and extended independently.
type Builder struct {
	adapters []*extension.Adapter
	settings settings
}

// NewBuilder creates an empty builder.
func NewBuilder(opts ...Option) Builder {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	s.builtins = slices.Clip(s.builtins)
	return Builder{settings: s}
}

// With registers ext under its declared name.
func (b Builder) With(ext extension.Extension) Builder {
	return b.WithNamed(ext, "")
}

// WithNamed registers ext under name, or under its declared name when name
// is empty.
func (b Builder) WithNamed(ext extension.Extension, name string) Builder {
	a := extension.Adapt(ext, name)

	Logger().Debug("register extension",
		zap.String("extension", a.Name()),
		zap.Stringer("kind", a.Kind()),
		zap.Bool("globals", a.HasGlobals()))

	next := b
	next.adapters = append(slices.Clip(b.adapters), a)
	return next
}

// Len returns the number of registrations.
func (b Builder) Len() int {
	return len(b.adapters)
}

// Build partitions the registrations into a Loader, a Resolver and an
// Initializer. It fails when a definition is invalid, when a module and a
// globals extension share a name, or, under Reject, when any name is
// registered more than once; all such problems are reported together.
// Build does not modify the builder.
func (b Builder) Build() (*Loader, *Resolver, *Initializer, error) {
	var errs error

	type usage struct {
		count   int
		modules int
	}

	modules := make(map[string]*extension.Adapter)
	uses := make(map[string]*usage)
	var order []string
	bindings := make([]*extension.Adapter, 0, len(b.adapters))

	for _, a := range b.adapters {
		if err := a.Validate(); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		bindings = append(bindings, a)

		name := a.Name()
		u, ok := uses[name]
		if !ok {
			u = &usage{}
			uses[name] = u
			order = append(order, name)
		}
		u.count++

		if !a.IsModule() {
			continue
		}
		u.modules++
		if u.modules > 1 {
			Logger().Debug("module registration replaced",
				zap.String("extension", name),
				zap.Int("registrations", u.modules))
		}
		modules[name] = a
	}

	// Options are stored by name, so a globals extension sharing a module's
	// name would hand the module foreign options. No policy allows that.
	for _, name := range order {
		u := uses[name]
		switch {
		case u.modules > 0 && u.modules < u.count:
			errs = multierr.Append(errs, errors.NameClash(name))
		case u.count > 1 && b.settings.policy == Reject:
			errs = multierr.Append(errs, errors.RegistrationConflict(name, u.count))
		}
	}

	if errs != nil {
		return nil, nil, nil, errs
	}

	names := make(map[string]struct{}, len(modules))
	for name := range modules {
		names[name] = struct{}{}
	}

	Logger().Info("extensions built",
		zap.Int("modules", len(modules)),
		zap.Int("bindings", len(bindings)),
		zap.Stringer("conflicts", b.settings.policy))

	return newLoader(modules),
		newResolver(b.baseResolver(), names),
		newInitializer(bindings),
		nil
}

func (b Builder) baseResolver() BaseResolver {
	switch {
	case b.settings.base == nil:
		return NewBuiltinResolver(b.settings.builtins...)
	case len(b.settings.builtins) == 0:
		return b.settings.base
	default:
		return chainResolver{b.settings.base, NewBuiltinResolver(b.settings.builtins...)}
	}
}
