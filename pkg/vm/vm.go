// Package vm implements the stack-based bytecode interpreter: VM state,
// the calling convention, upvalue capture, method dispatch, the tracing
// garbage collector, and the native function surface. Value and object
// representation live in pkg/runtime; this package supplies the
// behavior that operates on them.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/kristofer/loxvm/pkg/runtime"
)

const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// CallFrame is one live activation: the closure it is executing, its
// instruction pointer (an index into the closure's chunk, not a raw
// pointer), and the stack index where its window of locals begins.
type CallFrame struct {
	closure   *runtime.ObjClosure
	ip        int
	slotsBase int
}

// VM is one interpreter instance. Nothing about it is safe for
// concurrent use; per the single-threaded resource model this runtime
// targets, a VM runs one program on one goroutine.
type VM struct {
	stack    []runtime.Value
	stackTop int

	frames     [framesMax]CallFrame
	frameCount int

	globals    runtime.Table
	strings    runtime.Table
	initString *runtime.ObjString

	openUpvalues *runtime.ObjUpvalue

	objects        runtime.Obj
	bytesAllocated int
	nextGC         int
	grayStack      []runtime.Obj

	rootSource RootSource

	options   Options
	SessionID uuid.UUID

	debugger *Debugger
}

// New creates a VM ready to interpret. It registers the built-in
// natives (currently just "clock") the way clox's initVM does.
func New(opts Options) *VM {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	vm := &VM{
		stack:     make([]runtime.Value, stackMax),
		options:   opts,
		SessionID: uuid.New(),
		nextGC:    1024 * 1024,
	}

	vm.initString = vm.internString("init")
	vm.registerNatives()
	return vm
}

// EnableDebugger attaches an interactive debugger to this VM.
func (vm *VM) EnableDebugger() *Debugger {
	if vm.debugger == nil {
		vm.debugger = newDebugger(vm)
	}
	vm.debugger.Enable()
	return vm.debugger
}

// Debugger returns this VM's debugger, if EnableDebugger has been called.
func (vm *VM) Debugger() *Debugger { return vm.debugger }

// Stdout is where `print` and native output go.
func (vm *VM) Stdout() io.Writer { return vm.options.Stdout }

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) push(v runtime.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() runtime.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) runtime.Value {
	return vm.stack[vm.stackTop-1-distance]
}

// runtimeError builds a RuntimeError carrying the current call stack,
// oldest frame first (RuntimeError.Error prints it newest first, as
// clox's own runtimeError walks it), then resets the VM's stack the way
// clox's does on every reported error.
func (vm *VM) runtimeError(format string, args ...any) *RuntimeError {
	frames := make([]StackFrame, 0, vm.frameCount)
	for i := 0; i < vm.frameCount; i++ {
		frame := &vm.frames[i]
		fn := frame.closure.Function
		line := 0
		if idx := frame.ip - 1; idx >= 0 && idx < len(fn.Chunk.Lines) {
			line = fn.Chunk.Lines[idx]
		}
		name := ""
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		frames = append(frames, StackFrame{Name: name, SourceLine: line})
	}

	err := newRuntimeError(fmt.Sprintf(format, args...), frames, vm.SessionID)
	vm.resetStack()
	return err
}
