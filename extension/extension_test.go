package extension

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scriptext "github.com/wippyai/script-extensions"
	"github.com/wippyai/script-extensions/errors"
	"github.com/wippyai/script-extensions/internal/testctx"
)

type greeterOptions struct {
	Greeting string
}

func greeterModule(greeting string) Module[greeterOptions] {
	return Module[greeterOptions]{
		Name: "greeter",
		Declare: func(decl scriptext.Declarations) error {
			return decl.Declare("greeting")
		},
		Evaluate: func(_ scriptext.Context, exports scriptext.Exports, o greeterOptions) error {
			return exports.Export("greeting", o.Greeting)
		},
		Globals: func(globals scriptext.Globals, o greeterOptions) error {
			return globals.Set("GREETING", o.Greeting)
		},
		Options: greeterOptions{Greeting: greeting},
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "module", KindModule.String())
	assert.Equal(t, "globals", KindGlobals.String())
	assert.Equal(t, "unknown", Kind(7).String())
}

func TestAdapt_Name(t *testing.T) {
	ext := greeterModule("hi")

	assert.Equal(t, "greeter", Adapt(ext, "").Name())
	assert.Equal(t, "custom", Adapt(ext, "custom").Name())
	assert.True(t, Adapt(ext, "").IsModule())
	assert.True(t, Adapt(ext, "").HasGlobals())
	assert.Equal(t, KindModule, ext.Kind())
	assert.Equal(t, "greeter", ext.DeclaredName())
}

func TestAdapter_OptionsRoundTrip(t *testing.T) {
	a := Adapt(greeterModule("hello"), "")
	ctx := testctx.New("ctx-1")

	require.NoError(t, a.Bind(ctx))

	v, ok := ctx.GlobalValues().Get("GREETING")
	require.True(t, ok)
	assert.Equal(t, "hello", v)

	mod := testctx.NewModule(a.Name())
	require.NoError(t, a.Declare(mod))
	require.NoError(t, a.Evaluate(ctx, mod))

	got, ok := mod.Value("greeting")
	require.True(t, ok)
	assert.Equal(t, "hello", got)
}

func TestAdapter_EvaluateBeforeBind(t *testing.T) {
	a := Adapt(greeterModule("hello"), "")
	ctx := testctx.New("ctx-1")

	mod := testctx.NewModule(a.Name())
	require.NoError(t, a.Declare(mod))

	err := a.Evaluate(ctx, mod)
	require.ErrorIs(t, err, errors.ErrOptionsMissing)
}

func TestAdapter_EvaluateUsesEffectiveName(t *testing.T) {
	first := Adapt(greeterModule("first"), "a")
	second := Adapt(greeterModule("second"), "b")
	ctx := testctx.New("ctx-1")

	require.NoError(t, first.Bind(ctx))
	require.NoError(t, second.Bind(ctx))

	tests := []struct {
		adapter *Adapter
		want    string
	}{
		{first, "first"},
		{second, "second"},
	}
	for _, tt := range tests {
		mod := testctx.NewModule(tt.adapter.Name())
		require.NoError(t, tt.adapter.Declare(mod))
		require.NoError(t, tt.adapter.Evaluate(ctx, mod))
		got, _ := mod.Value("greeting")
		assert.Equal(t, tt.want, got, "module %s", tt.adapter.Name())
	}
}

func TestAdapter_OptionsTypeMismatch(t *testing.T) {
	a := Adapt(greeterModule("hello"), "")
	ctx := testctx.New("ctx-1")
	ctx.Options().Put("greeter", "not options")

	mod := testctx.NewModule("greeter")
	require.NoError(t, a.Declare(mod))

	err := a.Evaluate(ctx, mod)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindTypeMismatch, e.Kind)
	assert.Equal(t, "string", e.GoType)
}

func TestAdapter_UndeclaredExport(t *testing.T) {
	ext := greeterModule("hello")
	ext.Declare = func(scriptext.Declarations) error { return nil }
	a := Adapt(ext, "")
	ctx := testctx.New("ctx-1")
	require.NoError(t, a.Bind(ctx))

	err := a.Evaluate(ctx, testctx.NewModule("greeter"))
	require.ErrorIs(t, err, errors.ErrUndeclaredExport)
}

func TestAdapter_GlobalsFailureSkipsOptions(t *testing.T) {
	a := Adapt(greeterModule("hello"), "")
	ctx := testctx.New("ctx-1")
	ctx.GlobalValues().FailOn = "GREETING"

	require.Error(t, a.Bind(ctx))
	_, ok := ctx.Options().Get("greeter")
	assert.False(t, ok)
}

type storelessContext struct {
	*testctx.Context
}

func (storelessContext) Options() *scriptext.OptionsStore { return nil }

func TestAdapter_BindWithoutOptionsStore(t *testing.T) {
	a := Adapt(greeterModule("hello"), "")
	ctx := storelessContext{testctx.New("bare")}

	err := a.Bind(ctx)
	require.ErrorIs(t, err, &errors.Error{Phase: errors.PhaseInit, Kind: errors.KindInvalidInput})
	assert.Contains(t, err.Error(), `context "bare" has no options store`)
	assert.Empty(t, ctx.GlobalValues().Writes())
}

func TestGlobal_Adapter(t *testing.T) {
	ext := Global[int]{
		Name: "answer",
		Globals: func(globals scriptext.Globals, n int) error {
			return globals.Set("ANSWER", n)
		},
		Options: 42,
	}
	a := Adapt(ext, "")
	ctx := testctx.New("ctx-1")

	assert.False(t, a.IsModule())
	assert.Equal(t, KindGlobals, a.Kind())
	require.NoError(t, a.Validate())
	require.NoError(t, a.Bind(ctx))

	v, _ := ctx.GlobalValues().Get("ANSWER")
	assert.Equal(t, 42, v)

	opts, err := scriptext.LookupOptions[int](ctx.Options(), "answer")
	require.NoError(t, err)
	assert.Equal(t, 42, opts)

	err = a.Declare(testctx.NewModule("answer"))
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindUnsupported, e.Kind)

	err = a.Evaluate(ctx, testctx.NewModule("answer"))
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindUnsupported, e.Kind)
}

func TestGlobalsFunc(t *testing.T) {
	var called int
	ext := GlobalsFunc("banner", func(globals scriptext.Globals) error {
		called++
		return globals.Set("BANNER", "ready")
	})
	a := Adapt(ext, "")
	ctx := testctx.New("ctx-1")

	require.NoError(t, a.Bind(ctx))
	assert.Equal(t, 1, called)
	v, _ := ctx.GlobalValues().Get("BANNER")
	assert.Equal(t, "ready", v)
}

func TestGlobal_NilGlobalsStillStoresOptions(t *testing.T) {
	a := Adapt(Global[string]{Name: "cfg", Options: "value"}, "")
	ctx := testctx.New("ctx-1")

	require.NoError(t, a.Bind(ctx))
	assert.False(t, a.HasGlobals())
	got, err := scriptext.LookupOptions[string](ctx.Options(), "cfg")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
}

func TestAdapter_Validate(t *testing.T) {
	tests := []struct {
		name string
		ext  Extension
	}{
		{"empty name", Global[int]{}},
		{"missing declare", Module[int]{
			Name:     "m",
			Evaluate: func(scriptext.Context, scriptext.Exports, int) error { return nil },
		}},
		{"missing evaluate", Module[int]{
			Name:    "m",
			Declare: func(scriptext.Declarations) error { return nil },
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Adapt(tt.ext, "").Validate()
			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, errors.KindInvalidInput, e.Kind)
			assert.Equal(t, errors.PhaseRegister, e.Phase)
		})
	}
}

func TestAdapter_OptionsAreCapturedAtAdaptation(t *testing.T) {
	ext := greeterModule("before")
	a := Adapt(ext, "")
	ext.Options.Greeting = "after"

	ctx := testctx.New("ctx-1")
	require.NoError(t, a.Bind(ctx))

	opts, err := scriptext.LookupOptions[greeterOptions](ctx.Options(), "greeter")
	require.NoError(t, err)
	assert.Equal(t, "before", opts.Greeting)
}
