package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wasmrt/wasmcore"
)

func newValidateCmd(stdout *os.File) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>...",
		Short: "Decode and validate one or more modules without instantiating them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := wasmcore.NewRuntime()
			anyInvalid := false
			for _, path := range args {
				binary, err := readModuleFile(path)
				if err != nil {
					fmt.Fprintf(stdout, "INVALID: %s - %v\n", path, err)
					anyInvalid = true
					continue
				}
				if _, err := rt.CompileModule(binary); err != nil {
					fmt.Fprintf(stdout, "INVALID: %s - %v\n", path, err)
					anyInvalid = true
					continue
				}
				fmt.Fprintf(stdout, "VALID: %s\n", path)
			}
			if anyInvalid {
				os.Exit(1)
			}
			return nil
		},
	}
}
