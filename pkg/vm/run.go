package vm

import (
	"fmt"

	"github.com/kristofer/loxvm/pkg/runtime"
)

// Interpret runs fn (the top-level script, or any function handed to it
// directly by an embedder — pkg/asm's assembler is the intended source
// since this package has no compiler of its own) to completion. It
// returns the RuntimeError the last `return` did not handle, in the
// same style as a top-level uncaught exception.
func (vm *VM) Interpret(fn *runtime.ObjFunction) *RuntimeError {
	vm.push(runtime.ObjVal(fn))
	closure := vm.newClosure(fn)
	vm.pop()
	vm.push(runtime.ObjVal(closure))

	if err := vm.call(closure, 0); err != nil {
		return err
	}

	return vm.run()
}

func (vm *VM) currentFrame() *CallFrame { return &vm.frames[vm.frameCount-1] }

func (vm *VM) readByte(frame *CallFrame) byte {
	b := frame.closure.Function.Chunk.Code[frame.ip]
	frame.ip++
	return b
}

func (vm *VM) readShort(frame *CallFrame) uint16 {
	hi := frame.closure.Function.Chunk.Code[frame.ip]
	lo := frame.closure.Function.Chunk.Code[frame.ip+1]
	frame.ip += 2
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readConstant(frame *CallFrame) runtime.Value {
	return frame.closure.Function.Chunk.Constants[vm.readByte(frame)]
}

func (vm *VM) readString(frame *CallFrame) *runtime.ObjString {
	return runtime.AsString(vm.readConstant(frame))
}

// run is the interpreter's fetch-decode-execute loop. Every opcode
// handler mutates vm.stack/vm.frames directly rather than returning a
// value, mirroring the original's single flat switch — splitting each
// case into its own method would scatter the peek/pop discipline this
// loop depends on across call boundaries for no benefit.
func (vm *VM) run() *RuntimeError {
	frame := vm.currentFrame()

	for {
		if vm.options.TraceExecution {
			vm.traceStack()
			runtime.DisassembleInstruction(vm.options.Stderr, &frame.closure.Function.Chunk, frame.ip)
		}

		if vm.debugger != nil && vm.debugger.enabled {
			if !vm.debugger.maybePause(frame) {
				return vm.runtimeError("execution aborted by debugger.")
			}
		}

		instruction := runtime.OpCode(vm.readByte(frame))

		switch instruction {
		case runtime.OpConstant:
			vm.push(vm.readConstant(frame))

		case runtime.OpNil:
			vm.push(runtime.NilVal())

		case runtime.OpTrue:
			vm.push(runtime.BoolVal(true))

		case runtime.OpFalse:
			vm.push(runtime.BoolVal(false))

		case runtime.OpPop:
			vm.pop()

		case runtime.OpGetLocal:
			slot := vm.readByte(frame)
			vm.push(vm.stack[frame.slotsBase+int(slot)])

		case runtime.OpSetLocal:
			slot := vm.readByte(frame)
			vm.stack[frame.slotsBase+int(slot)] = vm.peek(0)

		case runtime.OpGetGlobal:
			name := vm.readString(frame)
			value, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.push(value)

		case runtime.OpDefineGlobal:
			name := vm.readString(frame)
			vm.globals.Set(name, vm.peek(0))
			vm.pop()

		case runtime.OpSetGlobal:
			name := vm.readString(frame)
			if vm.globals.Set(name, vm.peek(0)) {
				vm.globals.Delete(name)
				return vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case runtime.OpGetUpvalue:
			slot := vm.readByte(frame)
			vm.push(*frame.closure.Upvalues[slot].Location)

		case runtime.OpSetUpvalue:
			slot := vm.readByte(frame)
			*frame.closure.Upvalues[slot].Location = vm.peek(0)

		case runtime.OpGetProperty:
			if !runtime.IsInstance(vm.peek(0)) {
				return vm.runtimeError("Only instances have properties.")
			}
			instance := runtime.AsInstance(vm.peek(0))
			name := vm.readString(frame)

			if value, ok := instance.Fields.Get(name); ok {
				vm.pop()
				vm.push(value)
				break
			}

			if err := vm.bindMethod(instance.Class, name); err != nil {
				return err
			}

		case runtime.OpSetProperty:
			if !runtime.IsInstance(vm.peek(1)) {
				return vm.runtimeError("Only instances have fields.")
			}
			instance := runtime.AsInstance(vm.peek(1))
			instance.Fields.Set(vm.readString(frame), vm.peek(0))
			value := vm.pop()
			vm.pop()
			vm.push(value)

		case runtime.OpGetSuper:
			name := vm.readString(frame)
			superclass := runtime.AsClass(vm.pop())
			if err := vm.bindMethod(superclass, name); err != nil {
				return err
			}

		case runtime.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(runtime.BoolVal(runtime.Equal(a, b)))

		case runtime.OpGreater:
			if err := vm.binaryNumberOp(func(a, b float64) runtime.Value { return runtime.BoolVal(a > b) }); err != nil {
				return err
			}

		case runtime.OpLess:
			if err := vm.binaryNumberOp(func(a, b float64) runtime.Value { return runtime.BoolVal(a < b) }); err != nil {
				return err
			}

		case runtime.OpAdd:
			if runtime.IsString(vm.peek(0)) && runtime.IsString(vm.peek(1)) {
				vm.concatenate()
			} else if runtime.IsNumber(vm.peek(0)) && runtime.IsNumber(vm.peek(1)) {
				b := runtime.AsNumber(vm.pop())
				a := runtime.AsNumber(vm.pop())
				vm.push(runtime.NumberVal(a + b))
			} else {
				return vm.runtimeError("Operands must be two numbers or two strings.")
			}

		case runtime.OpSubtract:
			if err := vm.binaryNumberOp(func(a, b float64) runtime.Value { return runtime.NumberVal(a - b) }); err != nil {
				return err
			}

		case runtime.OpMultiply:
			if err := vm.binaryNumberOp(func(a, b float64) runtime.Value { return runtime.NumberVal(a * b) }); err != nil {
				return err
			}

		case runtime.OpDivide:
			if err := vm.binaryNumberOp(func(a, b float64) runtime.Value { return runtime.NumberVal(a / b) }); err != nil {
				return err
			}

		case runtime.OpNot:
			vm.push(runtime.BoolVal(runtime.IsFalsey(vm.pop())))

		case runtime.OpNegate:
			if !runtime.IsNumber(vm.peek(0)) {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(runtime.NumberVal(-runtime.AsNumber(vm.pop())))

		case runtime.OpPrint:
			fmt.Fprintln(vm.options.Stdout, vm.pop().String())

		case runtime.OpJump:
			offset := vm.readShort(frame)
			frame.ip += int(offset)

		case runtime.OpJumpIfFalse:
			offset := vm.readShort(frame)
			if runtime.IsFalsey(vm.peek(0)) {
				frame.ip += int(offset)
			}

		case runtime.OpLoop:
			offset := vm.readShort(frame)
			frame.ip -= int(offset)

		case runtime.OpCall:
			argCount := int(vm.readByte(frame))
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
			frame = vm.currentFrame()

		case runtime.OpInvoke:
			method := vm.readString(frame)
			argCount := int(vm.readByte(frame))
			if err := vm.invoke(method, argCount); err != nil {
				return err
			}
			frame = vm.currentFrame()

		case runtime.OpSuperInvoke:
			method := vm.readString(frame)
			argCount := int(vm.readByte(frame))
			superclass := runtime.AsClass(vm.pop())
			if err := vm.invokeFromClass(superclass, method, argCount); err != nil {
				return err
			}
			frame = vm.currentFrame()

		case runtime.OpClosure:
			fn := runtime.AsFunction(vm.readConstant(frame))
			closure := vm.newClosure(fn)
			vm.push(runtime.ObjVal(closure))

			for i := 0; i < closure.Function.UpvalueCount; i++ {
				isLocal := vm.readByte(frame)
				index := vm.readByte(frame)
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(&vm.stack[frame.slotsBase+int(index)])
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}

		case runtime.OpCloseUpvalue:
			vm.closeUpvalues(&vm.stack[vm.stackTop-1])
			vm.pop()

		case runtime.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(&vm.stack[frame.slotsBase])
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}

			vm.stackTop = frame.slotsBase
			vm.push(result)
			frame = vm.currentFrame()

		case runtime.OpClass:
			vm.push(runtime.ObjVal(vm.newClass(vm.readString(frame))))

		case runtime.OpInherit:
			superclassVal := vm.peek(1)
			if !runtime.IsClass(superclassVal) {
				return vm.runtimeError("Superclass must be a class.")
			}
			subclass := runtime.AsClass(vm.peek(0))
			runtime.AsClass(superclassVal).Methods.AddAll(&subclass.Methods)
			vm.pop()

		case runtime.OpMethod:
			vm.defineMethod(vm.readString(frame))

		default:
			return vm.runtimeError("Unknown opcode %d.", instruction)
		}
	}
}

func (vm *VM) binaryNumberOp(op func(a, b float64) runtime.Value) *RuntimeError {
	if !runtime.IsNumber(vm.peek(0)) || !runtime.IsNumber(vm.peek(1)) {
		return vm.runtimeError("Operands must be numbers.")
	}
	b := runtime.AsNumber(vm.pop())
	a := runtime.AsNumber(vm.pop())
	vm.push(op(a, b))
	return nil
}

func (vm *VM) traceStack() {
	fmt.Fprint(vm.options.Stderr, "          ")
	for i := 0; i < vm.stackTop; i++ {
		fmt.Fprintf(vm.options.Stderr, "[ %s ]", vm.stack[i].String())
	}
	fmt.Fprintln(vm.options.Stderr)
}
