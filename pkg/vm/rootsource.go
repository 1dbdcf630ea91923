package vm

import "github.com/kristofer/loxvm/pkg/runtime"

// RootSource lets an embedder outside this package (a compiler holding
// partially-built functions and constants off the VM's own stack, for
// instance) contribute extra GC roots. clox's compiler-owned roots
// (markCompilerRoots) are the model: values a future front end keeps
// alive during compilation that the VM has no other way to see. loxvm
// ships no compiler, so by default there is nothing to register, but
// the hook point is part of the collector's root-marking pass regardless.
type RootSource interface {
	// MarkRoots is called once per collection; implementations should
	// call back into the VM's exported marking via the passed-in funcs.
	MarkRoots(markValue func(runtime.Value), markObject func(runtime.Obj))
}

// SetRootSource registers src as an additional root provider. Passing
// nil clears it.
func (vm *VM) SetRootSource(src RootSource) {
	vm.rootSource = src
}
