package vm

import (
	"unsafe"

	"github.com/kristofer/loxvm/pkg/runtime"
)

// addr gives a comparable/orderable address for a stack slot pointer.
// Go defines only ==/!= for pointer types, but the open-upvalues list
// needs to stay ordered by descending stack address, so ordering goes
// through uintptr the way C code compares pointers directly.
func addr(p *runtime.Value) uintptr { return uintptr(unsafe.Pointer(p)) }

// call pushes a new CallFrame for closure, starting execution at its
// first instruction with its argument window already in place on the
// stack (argCount values below the current stack top, receiver/callee
// slot included).
func (vm *VM) call(closure *runtime.ObjClosure, argCount int) *RuntimeError {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}

	if vm.frameCount == framesMax {
		return vm.runtimeError("Stack overflow.")
	}

	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slotsBase = vm.stackTop - argCount - 1
	return nil
}

// callValue implements Lox's single calling convention, dispatched by
// callee's concrete type: a bound method rebinds its receiver into slot
// 0 and calls through; a class constructs a fresh instance and, if one
// exists, calls its "init" method; a closure just calls; a native
// executes synchronously and is never pushed as a CallFrame.
func (vm *VM) callValue(callee runtime.Value, argCount int) *RuntimeError {
	if runtime.IsObj(callee) {
		switch o := runtime.AsObj(callee).(type) {
		case *runtime.ObjBoundMethod:
			vm.stack[vm.stackTop-argCount-1] = o.Receiver
			return vm.call(o.Method, argCount)

		case *runtime.ObjClass:
			instance := vm.newInstance(o)
			vm.stack[vm.stackTop-argCount-1] = runtime.ObjVal(instance)

			if initializer, ok := o.Methods.Get(vm.initString); ok {
				return vm.call(runtime.AsClosure(initializer), argCount)
			} else if argCount != 0 {
				return vm.runtimeError("Expected 0 arguments but got %d.", argCount)
			}
			return nil

		case *runtime.ObjClosure:
			return vm.call(o, argCount)

		case *runtime.ObjNative:
			args := vm.stack[vm.stackTop-argCount : vm.stackTop]
			result, err := o.Fn(args)
			if err != nil {
				return vm.runtimeError("%s", err.Error())
			}
			vm.stackTop -= argCount + 1
			vm.push(result)
			return nil
		}
	}

	return vm.runtimeError("Can only call functions and classes.")
}

func (vm *VM) invokeFromClass(klass *runtime.ObjClass, name *runtime.ObjString, argCount int) *RuntimeError {
	method, ok := klass.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}
	return vm.call(runtime.AsClosure(method), argCount)
}

// invoke fuses OP_GET_PROPERTY and OP_CALL for the common case of a
// direct method call (`obj.method(args)`), skipping the intermediate
// bound-method allocation. A field shadowing a method is still honored:
// if the receiver has a field of that name, it's called like any other
// callable value instead of looking up a method.
func (vm *VM) invoke(name *runtime.ObjString, argCount int) *RuntimeError {
	receiver := vm.peek(argCount)
	if !runtime.IsInstance(receiver) {
		return vm.runtimeError("Only instances have methods.")
	}
	instance := runtime.AsInstance(receiver)

	if value, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = value
		return vm.callValue(value, argCount)
	}

	return vm.invokeFromClass(instance.Class, name, argCount)
}

func (vm *VM) bindMethod(klass *runtime.ObjClass, name *runtime.ObjString) *RuntimeError {
	method, ok := klass.Methods.Get(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Chars)
	}

	bound := vm.newBoundMethod(vm.peek(0), runtime.AsClosure(method))
	vm.pop()
	vm.push(runtime.ObjVal(bound))
	return nil
}

// captureUpvalue returns the open upvalue for the stack slot local,
// reusing an existing one if some other closure already captured the
// same slot, and otherwise inserting a new one into vm.openUpvalues,
// which stays sorted by descending stack address so closeUpvalues can
// stop early.
func (vm *VM) captureUpvalue(local *runtime.Value) *runtime.ObjUpvalue {
	var prev *runtime.ObjUpvalue
	upvalue := vm.openUpvalues

	for upvalue != nil && addr(upvalue.Location) > addr(local) {
		prev = upvalue
		upvalue = upvalue.NextOpen
	}

	if upvalue != nil && upvalue.Location == local {
		return upvalue
	}

	created := vm.newUpvalue(local)
	created.NextOpen = upvalue

	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}

	return created
}

// closeUpvalues closes every open upvalue whose location is at or above
// last, copying the stack value into the upvalue itself so it survives
// the stack slot being reused or popped.
func (vm *VM) closeUpvalues(last *runtime.Value) {
	for vm.openUpvalues != nil && addr(vm.openUpvalues.Location) >= addr(last) {
		upvalue := vm.openUpvalues
		upvalue.Closed = *upvalue.Location
		upvalue.Location = &upvalue.Closed
		vm.openUpvalues = upvalue.NextOpen
	}
}

func (vm *VM) defineMethod(name *runtime.ObjString) {
	method := vm.peek(0)
	klass := runtime.AsClass(vm.peek(1))
	klass.Methods.Set(name, method)
	vm.pop()
}

func (vm *VM) concatenate() {
	b := runtime.AsString(vm.peek(0))
	a := runtime.AsString(vm.peek(1))
	result := vm.internString(a.Chars + b.Chars)
	vm.pop()
	vm.pop()
	vm.push(runtime.ObjVal(result))
}
