package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/kristofer/loxvm/pkg/asm"
	"github.com/kristofer/loxvm/pkg/vm"
	"github.com/mattn/go-isatty"
)

// runREPL reads one bytecode-mnemonic line at a time, wraps it in a
// throwaway function body, and interprets it against a VM that persists
// across lines — so a `define_global` on one line is visible to a
// `get_global` on the next, the same way clox's REPL shares one vm_t
// across lines even with no persistent AST.
func runREPL(out io.Writer) error {
	machine := newVM()

	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return runPipedREPL(machine, out)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "loxvm> ",
		HistoryFile: historyFilePath(),
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintln(out, "loxvm", version, "- each line is one instruction; Ctrl-D to quit")
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF on Ctrl-D, readline.ErrInterrupt on Ctrl-C
			return nil
		}
		evalREPLLine(machine, line, out)
	}
}

func runPipedREPL(machine *vm.VM, out io.Writer) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		evalREPLLine(machine, line, out)
	}
	return nil
}

func evalREPLLine(machine *vm.VM, line string, out io.Writer) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	src := ".function main 0 0\n" + line + "\nnil\nreturn\n.end\n"
	fn, err := asm.Assemble(src, machine.InternString)
	if err != nil {
		fmt.Fprintln(out, "assemble error:", err)
		return
	}
	if rerr := machine.Interpret(fn); rerr != nil {
		fmt.Fprintln(out, rerr.Error())
	}
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.loxvm_history"
}
