package loader

import (
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	scriptext "github.com/wippyai/script-extensions"
	"github.com/wippyai/script-extensions/errors"
	"github.com/wippyai/script-extensions/extension"
	"github.com/wippyai/script-extensions/internal/testctx"
)

type targetOptions struct {
	Target string
}

func greetModule(name, target string) extension.Module[targetOptions] {
	return extension.Module[targetOptions]{
		Name: name,
		Declare: func(decl scriptext.Declarations) error {
			return decl.Declare("default")
		},
		Evaluate: func(_ scriptext.Context, exports scriptext.Exports, o targetOptions) error {
			return exports.Export("default", "hello "+o.Target)
		},
		Options: targetOptions{Target: target},
	}
}

func greetGlobal(name, key, target string) extension.Global[targetOptions] {
	return extension.Global[targetOptions]{
		Name: name,
		Globals: func(globals scriptext.Globals, o targetOptions) error {
			return globals.Set(key, "hello "+o.Target)
		},
		Options: targetOptions{Target: target},
	}
}

func evaluate(t *testing.T, ld *Loader, ctx scriptext.Context, name string) any {
	t.Helper()

	m, err := ld.Load(name)
	require.NoError(t, err)

	mod := testctx.NewModule(name)
	require.NoError(t, m.Declare(mod))
	require.NoError(t, m.Evaluate(ctx, mod))

	v, ok := mod.Value("default")
	require.True(t, ok)
	return v
}

func TestBuild_Partition(t *testing.T) {
	ld, res, gi, err := NewBuilder().
		With(greetModule("printer", "john")).
		With(greetGlobal("global_printer", "global_printer", "david")).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"printer"}, ld.Pending())
	assert.Equal(t, []string{"printer"}, res.Names())
	assert.Equal(t, 2, gi.Len())
	assert.Equal(t, []string{"printer", "global_printer"}, gi.Names())
}

func TestBuild_EmptyBuilder(t *testing.T) {
	ld, res, gi, err := NewBuilder().Build()
	require.NoError(t, err)

	assert.Empty(t, ld.Pending())
	assert.Empty(t, res.Names())
	assert.Equal(t, 0, gi.Len())
	require.NoError(t, gi.Init(testctx.New("empty")))
}

func TestLoader_LoadOnce(t *testing.T) {
	ld, _, gi, err := NewBuilder().With(greetModule("printer", "john")).Build()
	require.NoError(t, err)

	ctx := testctx.New("ctx")
	require.NoError(t, gi.Init(ctx))

	assert.Equal(t, "hello john", evaluate(t, ld, ctx, "printer"))
	assert.Empty(t, ld.Pending())

	_, err = ld.Load("printer")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrLoadNotFound)
}

func TestLoader_UnknownName(t *testing.T) {
	ld, _, _, err := NewBuilder().With(greetModule("printer", "john")).Build()
	require.NoError(t, err)

	_, err = ld.Load("nope")
	assert.ErrorIs(t, err, errors.ErrLoadNotFound)
	assert.Equal(t, []string{"printer"}, ld.Pending())
}

func TestLoader_ConcurrentLoad(t *testing.T) {
	ld, _, _, err := NewBuilder().With(greetModule("printer", "john")).Build()
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ld.Load("printer"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestModule_EvaluateWithoutInit(t *testing.T) {
	ld, _, _, err := NewBuilder().With(greetModule("printer", "john")).Build()
	require.NoError(t, err)

	m, err := ld.Load("printer")
	require.NoError(t, err)
	assert.Equal(t, "printer", m.Name())

	mod := testctx.NewModule("printer")
	require.NoError(t, m.Declare(mod))

	err = m.Evaluate(testctx.New("bare"), mod)
	assert.ErrorIs(t, err, errors.ErrOptionsMissing)
}

func TestBuild_NamedOverride(t *testing.T) {
	b := NewBuilder().
		With(greetModule("printer", "john")).
		WithNamed(greetModule("printer", "arnold"), "custom_printer")

	ld, res, gi, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"custom_printer", "printer"}, res.Names())

	ctx := testctx.New("ctx")
	require.NoError(t, gi.Init(ctx))

	assert.Equal(t, "hello john", evaluate(t, ld, ctx, "printer"))
	assert.Equal(t, "hello arnold", evaluate(t, ld, ctx, "custom_printer"))
}

func TestBuild_LastWins(t *testing.T) {
	ld, res, gi, err := NewBuilder().
		With(greetModule("printer", "john")).
		With(greetModule("printer", "arnold")).
		Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"printer"}, res.Names())

	ctx := testctx.New("ctx")
	require.NoError(t, gi.Init(ctx))

	assert.Equal(t, "hello arnold", evaluate(t, ld, ctx, "printer"))
}

func TestBuild_RejectConflicts(t *testing.T) {
	_, _, _, err := NewBuilder(WithConflictPolicy(Reject)).
		With(greetModule("printer", "john")).
		With(greetModule("printer", "arnold")).
		With(greetModule("other", "x")).
		Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRegistrationConflict)
	assert.Contains(t, err.Error(), "printer")
}

func TestBuild_RejectAllowsDistinctNames(t *testing.T) {
	_, res, _, err := NewBuilder(WithConflictPolicy(Reject)).
		With(greetModule("printer", "john")).
		WithNamed(greetModule("printer", "arnold"), "custom_printer").
		Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"custom_printer", "printer"}, res.Names())
}

func TestBuild_ModuleAndGlobalsShareName(t *testing.T) {
	for _, policy := range []ConflictPolicy{LastWins, Reject} {
		t.Run(policy.String(), func(t *testing.T) {
			_, _, _, err := NewBuilder(WithConflictPolicy(policy)).
				With(greetModule("printer", "world")).
				WithNamed(greetGlobal("global_printer", "printer", "evil"), "printer").
				Build()
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrRegistrationConflict)
			assert.Contains(t, err.Error(), "both a module and a globals extension")
		})
	}
}

func TestBuild_RejectDuplicateGlobals(t *testing.T) {
	_, _, _, err := NewBuilder(WithConflictPolicy(Reject)).
		With(greetGlobal("global_printer", "a", "john")).
		With(greetGlobal("global_printer", "b", "david")).
		Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRegistrationConflict)
	assert.Contains(t, err.Error(), "registered 2 times")
}

func TestBuild_LastWinsDuplicateGlobals(t *testing.T) {
	_, _, gi, err := NewBuilder().
		With(greetGlobal("global_printer", "a", "john")).
		With(greetGlobal("global_printer", "b", "david")).
		Build()
	require.NoError(t, err)

	ctx := testctx.New("ctx")
	require.NoError(t, gi.Init(ctx))

	assert.Equal(t, []string{"a", "b"}, ctx.GlobalValues().Writes())
	opts, err := scriptext.LookupOptions[targetOptions](ctx.Options(), "global_printer")
	require.NoError(t, err)
	assert.Equal(t, "david", opts.Target)
}

func TestBuild_CollectsInvalidDefinitions(t *testing.T) {
	broken := extension.Module[targetOptions]{Name: "broken"}

	_, _, _, err := NewBuilder(WithConflictPolicy(Reject)).
		With(broken).
		WithNamed(greetModule("printer", "a"), "").
		With(greetModule("printer", "b")).
		With(greetGlobal("", "k", "v")).
		Build()
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 3)

	var kinds []errors.Kind
	for _, e := range errs {
		var se *errors.Error
		require.True(t, stderrors.As(e, &se))
		kinds = append(kinds, se.Kind)
	}
	assert.Equal(t, []errors.Kind{errors.KindInvalidInput, errors.KindInvalidInput, errors.KindConflict}, kinds)
}

func TestBuilder_Immutable(t *testing.T) {
	base := NewBuilder().With(greetModule("printer", "john"))
	left := base.With(greetModule("left", "l"))
	right := base.With(greetModule("right", "r"))

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, left.Len())
	assert.Equal(t, 2, right.Len())

	_, res, _, err := left.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"left", "printer"}, res.Names())

	_, res, _, err = right.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"printer", "right"}, res.Names())
}

func TestBuilder_BuildRepeatable(t *testing.T) {
	b := NewBuilder().With(greetModule("printer", "john"))

	ld1, _, init1, err := b.Build()
	require.NoError(t, err)
	ld2, _, init2, err := b.Build()
	require.NoError(t, err)

	_, err = ld1.Load("printer")
	require.NoError(t, err)
	assert.Equal(t, []string{"printer"}, ld2.Pending())

	require.NoError(t, init1.Init(testctx.New("a")))
	require.NoError(t, init2.Init(testctx.New("b")))
}

func TestInitializer_Order(t *testing.T) {
	_, _, gi, err := NewBuilder().
		With(greetGlobal("first", "one", "a")).
		With(greetGlobal("second", "two", "b")).
		With(greetGlobal("third", "three", "c")).
		Build()
	require.NoError(t, err)

	ctx := testctx.New("ctx")
	require.NoError(t, gi.Init(ctx))

	assert.Equal(t, []string{"one", "two", "three"}, ctx.GlobalValues().Writes())
	assert.Equal(t, []string{"first", "second", "third"}, ctx.Options().Names())
}

func TestInitializer_GlobalOnly(t *testing.T) {
	ld, res, gi, err := NewBuilder().
		With(greetGlobal("global_printer", "global_printer", "david")).
		Build()
	require.NoError(t, err)
	assert.Empty(t, ld.Pending())
	assert.False(t, res.Has("global_printer"))

	ctx := testctx.New("ctx")
	require.NoError(t, gi.Init(ctx))

	v, ok := ctx.GlobalValues().Get("global_printer")
	require.True(t, ok)
	assert.Equal(t, "hello david", v)

	opts, err := scriptext.LookupOptions[targetOptions](ctx.Options(), "global_printer")
	require.NoError(t, err)
	assert.Equal(t, "david", opts.Target)
}

func TestInitializer_FailFast(t *testing.T) {
	_, _, gi, err := NewBuilder().
		With(greetGlobal("first", "one", "a")).
		With(greetGlobal("second", "locked", "b")).
		With(greetGlobal("third", "three", "c")).
		Build()
	require.NoError(t, err)

	ctx := testctx.New("ctx")
	ctx.GlobalValues().FailOn = "locked"

	err = gi.Init(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrGlobalBindingFailure)
	assert.Contains(t, err.Error(), "second")
	assert.Contains(t, err.Error(), "read-only")

	assert.Equal(t, []string{"one"}, ctx.GlobalValues().Writes())
	assert.Equal(t, []string{"first"}, ctx.Options().Names())
}

type storelessContext struct {
	*testctx.Context
}

func (storelessContext) Options() *scriptext.OptionsStore { return nil }

func TestInitializer_ContextWithoutOptionsStore(t *testing.T) {
	_, _, gi, err := NewBuilder().With(greetModule("printer", "john")).Build()
	require.NoError(t, err)

	err = gi.Init(storelessContext{testctx.New("bare")})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrGlobalBindingFailure)
	assert.Contains(t, err.Error(), "no options store")
}

func TestInitializer_SingleUse(t *testing.T) {
	_, _, gi, err := NewBuilder().With(greetModule("printer", "john")).Build()
	require.NoError(t, err)

	require.NoError(t, gi.Init(testctx.New("a")))

	err = gi.Init(testctx.New("b"))
	assert.ErrorIs(t, err, errors.ErrConsumed)
}

func TestParseConflictPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    ConflictPolicy
		wantErr bool
	}{
		{in: "", want: LastWins},
		{in: "last-wins", want: LastWins},
		{in: "reject", want: Reject},
		{in: "first-wins", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseConflictPolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "ConflictPolicy(9)", ConflictPolicy(9).String())
}
