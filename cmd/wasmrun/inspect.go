package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wasmrt/wasmcore"
	"github.com/wasmrt/wasmcore/api"
)

func newInspectCmd(stdout *os.File) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <path>",
		Short: "Print a module's function imports, exports, and counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			binary, err := readModuleFile(path)
			if err != nil {
				return err
			}
			rt := wasmcore.NewRuntime()
			compiled, err := rt.CompileModule(binary)
			if err != nil {
				return fmt.Errorf("compile %s: %w", path, err)
			}

			imports := compiled.ImportedFunctions()
			if len(imports) == 0 {
				fmt.Fprintln(stdout, "Imports: none")
			} else {
				fmt.Fprintln(stdout, "Imports:")
				for _, imp := range imports {
					fmt.Fprintf(stdout, "  %s.%s (function)\n", imp.Module, imp.Name)
				}
			}

			exports := compiled.Exports()
			if len(exports) == 0 {
				fmt.Fprintln(stdout, "Exports: none")
			} else {
				fmt.Fprintln(stdout, "Exports:")
				for _, exp := range exports {
					fmt.Fprintf(stdout, "  %s (%s)\n", exp.Name, api.ExternTypeName(exp.Kind))
				}
			}

			fmt.Fprintln(stdout, "Counts:")
			fmt.Fprintf(stdout, "  functions: %d\n", compiled.FunctionCount())
			fmt.Fprintf(stdout, "  globals: %d\n", compiled.GlobalCount())
			fmt.Fprintf(stdout, "  memory: %v\n", compiled.HasMemory())
			fmt.Fprintf(stdout, "  table: %v\n", compiled.HasTable())
			return nil
		},
	}
}
