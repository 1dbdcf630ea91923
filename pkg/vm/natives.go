package vm

import (
	"time"

	"github.com/kristofer/loxvm/pkg/runtime"
)

var vmStart = time.Now()

// clockNative returns the number of seconds the process has been
// running, the same wall-clock primitive clox's clockNative exposes via
// C's clock()/CLOCKS_PER_SEC.
func clockNative(args []runtime.Value) (runtime.Value, error) {
	return runtime.NumberVal(time.Since(vmStart).Seconds()), nil
}

// registerNatives installs the VM's built-in FFI surface. Deliberately
// minimal: a wall-clock primitive is the only native a bare interpreter
// core needs to be useful to tests and a REPL; a real embedding adds
// more of its own through defineNative.
func (vm *VM) registerNatives() {
	vm.defineNative("clock", clockNative)
}

// DefineNative exposes defineNative to embedders (the CLI, tests) that
// want to add host callables beyond the built-in set.
func (vm *VM) DefineNative(name string, fn runtime.NativeFn) {
	vm.defineNative(name, fn)
}
