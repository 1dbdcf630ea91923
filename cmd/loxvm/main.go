// Command loxvm runs the assembled-bytecode form of the Lox-family
// execution core: no lexer, parser, or compiler ships in this module, so
// every subcommand here operates on textual ".loxasm" listings via
// pkg/asm rather than on ".lox" source.
package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	traceExecution bool
	logGC          bool
	stressGC       bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "loxvm",
		Short: "Bytecode VM for a small class-based scripting language",
		Long: "loxvm interprets pre-assembled bytecode listings (.loxasm) for a\n" +
			"Lox-family VM: tagged values, a tracing GC, closures, classes, and a\n" +
			"small native FFI surface. Running with no arguments starts a REPL.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd.OutOrStdout())
		},
	}

	root.PersistentFlags().BoolVar(&traceExecution, "trace", false, "trace every executed instruction to stderr")
	root.PersistentFlags().BoolVar(&logGC, "log-gc", false, "log each garbage collection cycle to stderr")
	root.PersistentFlags().BoolVar(&stressGC, "stress-gc", false, "collect before every allocation (slow; exercises GC correctness)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newReplCmd())
	root.AddCommand(newDisassembleCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file.loxasm>",
		Short: "assemble and run a bytecode listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0])
		},
	}
}

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "start an interactive assemble-and-run loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd.OutOrStdout())
		},
	}
}

func newDisassembleCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "disassemble <file.loxasm>",
		Aliases: []string{"disasm"},
		Short:   "assemble a listing and print its disassembly",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return disassembleFile(args[0])
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the loxvm version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "loxvm version %s\n", version)
			return nil
		},
	}
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}
	return string(data), nil
}
