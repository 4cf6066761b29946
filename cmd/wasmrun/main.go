// Command wasmrun is the peripheral run/validate/inspect driver around the
// wasmcore runtime library: a thin cobra CLI, not part of the core's own
// contract (see wasmcore's root package for that).
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	os.Exit(doMain(os.Stdout, os.Stderr, os.Args[1:]))
}

func doMain(stdout, stderr *os.File, args []string) int {
	logger := logrus.New()
	logger.SetOutput(stderr)

	var logLevel string
	root := &cobra.Command{
		Use:           "wasmrun",
		Short:         "Run, validate, and inspect WebAssembly 1.0 (MVP) modules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger.SetLevel(level)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warning", "log level (panic|fatal|error|warn|info|debug|trace)")

	root.AddCommand(newRunCmd(stdout, logger))
	root.AddCommand(newValidateCmd(stdout))
	root.AddCommand(newInspectCmd(stdout))

	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}
