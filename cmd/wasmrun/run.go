package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wasmrt/wasmcore"
	"github.com/wasmrt/wasmcore/api"
)

func newRunCmd(stdout *os.File, logger *logrus.Logger) *cobra.Command {
	var funcName string
	cmd := &cobra.Command{
		Use:   "run <path> [value:type]...",
		Short: "Instantiate a module and invoke one of its exported functions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			binary, err := readModuleFile(path)
			if err != nil {
				return err
			}

			rt := wasmcore.NewRuntimeWithConfig(wasmcore.NewRuntimeConfig().WithLogger(logger))
			compiled, err := rt.CompileModule(binary)
			if err != nil {
				return fmt.Errorf("compile %s: %w", path, err)
			}
			mod, err := rt.InstantiateModule(compiled, wasmcore.NewModuleConfig().WithName(path))
			if err != nil {
				return fmt.Errorf("instantiate %s: %w", path, err)
			}

			fn := mod.ExportedFunction(funcName)
			if fn == nil {
				return fmt.Errorf("no exported function %q", funcName)
			}

			params, err := parseTypedArgs(args[1:], fn.ParamTypes())
			if err != nil {
				return err
			}

			results, err := fn.Call(params...)
			if err != nil {
				return fmt.Errorf("invoke %s: %w", funcName, err)
			}
			for i, r := range results {
				fmt.Fprintf(stdout, "[%d] %s\n", i, formatResult(r, fn.ResultTypes()[i]))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&funcName, "func", "_start", "exported function to invoke")
	return cmd
}

// readModuleFile rejects .wat input: assembling text format to binary is an
// external-tool boundary this core does not implement.
func readModuleFile(path string) ([]byte, error) {
	if strings.HasSuffix(path, ".wat") {
		return nil, errors.New("external tool required: .wat input needs a WAT-to-binary assembler")
	}
	return os.ReadFile(path)
}

func parseTypedArgs(raw []string, paramTypes []api.ValueType) ([]uint64, error) {
	if len(raw) != len(paramTypes) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(paramTypes), len(raw))
	}
	out := make([]uint64, len(raw))
	for i, a := range raw {
		parts := strings.SplitN(a, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid argument %q: expected value:type", a)
		}
		v, typ := parts[0], parts[1]
		want := api.ValueTypeName(paramTypes[i])
		if typ != want {
			return nil, fmt.Errorf("argument %d: expected type %s, got %s", i, want, typ)
		}
		enc, err := encodeTypedValue(v, typ)
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

func encodeTypedValue(v, typ string) (uint64, error) {
	switch typ {
	case "i32":
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("parse %q as i32: %w", v, err)
		}
		return api.EncodeI32(int32(n)), nil
	case "i64":
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse %q as i64: %w", v, err)
		}
		return uint64(n), nil
	case "f32":
		n, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return 0, fmt.Errorf("parse %q as f32: %w", v, err)
		}
		return api.EncodeF32(float32(n)), nil
	case "f64":
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("parse %q as f64: %w", v, err)
		}
		return api.EncodeF64(n), nil
	default:
		return 0, fmt.Errorf("unknown type %q: supported types i32, i64, f32, f64", typ)
	}
}

func formatResult(raw uint64, t api.ValueType) string {
	switch t {
	case api.ValueTypeI32:
		return strconv.FormatInt(int64(api.DecodeI32(raw)), 10) + " (i32)"
	case api.ValueTypeI64:
		return strconv.FormatInt(int64(raw), 10) + " (i64)"
	case api.ValueTypeF32:
		return strconv.FormatFloat(float64(api.DecodeF32(raw)), 'g', -1, 32) + " (f32)"
	case api.ValueTypeF64:
		return strconv.FormatFloat(api.DecodeF64(raw), 'g', -1, 64) + " (f64)"
	default:
		return strconv.FormatUint(raw, 10)
	}
}
