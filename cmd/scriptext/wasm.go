package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/script-extensions/wasmhost"
)

func newWasmCommand(rootOpts *rootOptions) *cobra.Command {
	var (
		funcName string
		args     []string
	)

	cmd := &cobra.Command{
		Use:   "wasm <guest.wasm>",
		Short: "Instantiate a wasm guest and call one of its exports",
		Long: `Instantiate a core WebAssembly module whose imports are served by the
bundled extensions, then call an exported function. Arguments are parsed
according to the function's parameter types.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, posArgs []string) error {
			return runWasm(cmd.Context(), rootOpts, posArgs[0], funcName, args, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&funcName, "func", "f", "run", "exported function to call")
	cmd.Flags().StringArrayVarP(&args, "arg", "a", nil, "function argument (repeatable)")

	return cmd
}

func runWasm(ctx context.Context, opts *rootOptions, path, funcName string, rawArgs []string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	b, err := wasmBuilder(opts.cfg, w)
	if err != nil {
		return err
	}
	ld, res, gi, err := b.Build()
	if err != nil {
		return err
	}

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	host, err := wasmhost.New(rt, ld, res)
	if err != nil {
		return err
	}
	if err := host.Init(ctx, gi); err != nil {
		return err
	}

	mod, err := host.Instantiate(ctx, data, "guest")
	if err != nil {
		return err
	}

	fn := mod.ExportedFunction(funcName)
	if fn == nil {
		return fmt.Errorf("function %q not exported", funcName)
	}

	def := fn.Definition()
	params, err := encodeArgs(def.ParamTypes(), rawArgs)
	if err != nil {
		return fmt.Errorf("call %s: %w", funcName, err)
	}

	results, err := fn.Call(ctx, params...)
	if err != nil {
		return fmt.Errorf("call %s: %w", funcName, err)
	}

	if len(results) > 0 {
		fmt.Fprintln(w, formatResults(def.ResultTypes(), results))
	}
	return nil
}

func encodeArgs(types []api.ValueType, raw []string) ([]uint64, error) {
	if len(raw) != len(types) {
		return nil, fmt.Errorf("want %d argument(s), got %d", len(types), len(raw))
	}

	out := make([]uint64, len(raw))
	for i, s := range raw {
		switch types[i] {
		case api.ValueTypeI32:
			v, err := strconv.ParseInt(s, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			out[i] = api.EncodeI32(int32(v))
		case api.ValueTypeI64:
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			out[i] = api.EncodeI64(v)
		case api.ValueTypeF32:
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			out[i] = api.EncodeF32(float32(v))
		case api.ValueTypeF64:
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			out[i] = api.EncodeF64(v)
		default:
			return nil, fmt.Errorf("argument %d: unsupported type %s", i, api.ValueTypeName(types[i]))
		}
	}
	return out, nil
}

func formatResults(types []api.ValueType, results []uint64) string {
	parts := make([]string, len(results))
	for i, r := range results {
		switch types[i] {
		case api.ValueTypeI32:
			parts[i] = strconv.FormatInt(int64(api.DecodeI32(r)), 10)
		case api.ValueTypeI64:
			parts[i] = strconv.FormatInt(int64(r), 10)
		case api.ValueTypeF32:
			parts[i] = strconv.FormatFloat(float64(api.DecodeF32(r)), 'g', -1, 32)
		case api.ValueTypeF64:
			parts[i] = strconv.FormatFloat(api.DecodeF64(r), 'g', -1, 64)
		default:
			parts[i] = strconv.FormatUint(r, 10)
		}
	}
	return strings.Join(parts, " ")
}
