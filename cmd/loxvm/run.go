package main

import (
	"fmt"
	"os"

	"github.com/kristofer/loxvm/pkg/asm"
	"github.com/kristofer/loxvm/pkg/runtime"
	"github.com/kristofer/loxvm/pkg/vm"
	"github.com/pkg/errors"
)

func newVM() *vm.VM {
	return vm.New(vm.Options{
		TraceExecution: traceExecution,
		LogGC:          logGC,
		StressGC:       stressGC,
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
	})
}

func runFile(path string) error {
	src, err := readSource(path)
	if err != nil {
		return err
	}

	machine := newVM()
	fn, err := asm.Assemble(src, machine.InternString)
	if err != nil {
		return errors.Wrapf(err, "assembling %s", path)
	}

	if rerr := machine.Interpret(fn); rerr != nil {
		fmt.Fprintln(os.Stderr, rerr.Error())
		os.Exit(70) // EX_SOFTWARE, matching clox's interpret-failure exit code
	}
	return nil
}

func disassembleFile(path string) error {
	src, err := readSource(path)
	if err != nil {
		return err
	}

	machine := newVM()
	fn, err := asm.Assemble(src, machine.InternString)
	if err != nil {
		return errors.Wrapf(err, "assembling %s", path)
	}

	name := "<script>"
	if fn.Name != nil {
		name = fn.Name.Chars
	}
	runtime.Disassemble(os.Stdout, &fn.Chunk, name)
	return nil
}
