package vm

import (
	"fmt"
	"unsafe"

	"github.com/kristofer/loxvm/pkg/runtime"
)

// objSize approximates the heap footprint of o. Go gives no exact
// equivalent of C's sizeof(struct)+payload accounting, but a consistent
// approximation is all the collector's nextGC heuristic needs: what
// matters is that it grows with real allocation and shrinks with real
// collection, not that it matches an OS-level byte count.
func objSize(o runtime.Obj) int {
	switch v := o.(type) {
	case *runtime.ObjString:
		return int(unsafe.Sizeof(*v)) + len(v.Chars)
	case *runtime.ObjFunction:
		return int(unsafe.Sizeof(*v)) + len(v.Chunk.Code) + len(v.Chunk.Constants)*int(unsafe.Sizeof(runtime.Value{}))
	case *runtime.ObjNative:
		return int(unsafe.Sizeof(*v))
	case *runtime.ObjUpvalue:
		return int(unsafe.Sizeof(*v))
	case *runtime.ObjClosure:
		return int(unsafe.Sizeof(*v)) + len(v.Upvalues)*int(unsafe.Sizeof((*runtime.ObjUpvalue)(nil)))
	case *runtime.ObjClass:
		return int(unsafe.Sizeof(*v))
	case *runtime.ObjInstance:
		return int(unsafe.Sizeof(*v))
	case *runtime.ObjBoundMethod:
		return int(unsafe.Sizeof(*v))
	default:
		return 0
	}
}

// trackAlloc records size bytes as newly allocated and triggers a
// collection if that pushes bytesAllocated past nextGC, or
// unconditionally when StressGC is set. This mirrors reallocate's
// bookkeeping without Go ever actually routing allocation through a
// custom allocator.
func (vm *VM) trackAlloc(size int) {
	vm.bytesAllocated += size

	if vm.options.StressGC {
		vm.collectGarbage()
	}
	if vm.bytesAllocated > vm.nextGC {
		vm.collectGarbage()
	}
}

func (vm *VM) registerObject(o runtime.Obj) {
	vm.trackAlloc(objSize(o))
	o.SetNext(vm.objects)
	vm.objects = o
}

// internString returns the canonical *ObjString for s, allocating and
// registering a new one only if the pool doesn't already hold a string
// with identical content. Every ObjString the VM creates goes through
// this path — direct calls to runtime.NewObjString are reserved for this
// function.
// InternString exposes internString to embedders that must construct
// constants sharing identity with the VM's own intern pool — pkg/asm's
// assembler in particular, since Table lookups key on pointer identity.
func (vm *VM) InternString(s string) *runtime.ObjString {
	return vm.internString(s)
}

func (vm *VM) internString(s string) *runtime.ObjString {
	hash := runtime.HashString(s)
	if interned := vm.strings.FindString(s, hash); interned != nil {
		return interned
	}

	str := runtime.NewObjString(s)
	vm.registerObject(str)

	// Keep the new string on the stack while it is added to the pool, as
	// clox does around tableSet. runtime.Table grows with a plain make, so
	// Set itself never triggers a collection here.
	vm.push(runtime.ObjVal(str))
	vm.strings.Set(str, runtime.BoolVal(true))
	vm.pop()

	return str
}

func (vm *VM) newFunction() *runtime.ObjFunction {
	fn := runtime.NewObjFunction()
	vm.registerObject(fn)
	return fn
}

func (vm *VM) newNative(name string, fn runtime.NativeFn) *runtime.ObjNative {
	n := runtime.NewObjNative(name, fn)
	vm.registerObject(n)
	return n
}

func (vm *VM) newUpvalue(slot *runtime.Value) *runtime.ObjUpvalue {
	uv := runtime.NewObjUpvalue(slot)
	vm.registerObject(uv)
	return uv
}

func (vm *VM) newClosure(fn *runtime.ObjFunction) *runtime.ObjClosure {
	cl := runtime.NewObjClosure(fn)
	vm.registerObject(cl)
	return cl
}

func (vm *VM) newClass(name *runtime.ObjString) *runtime.ObjClass {
	cls := runtime.NewObjClass(name)
	vm.registerObject(cls)
	return cls
}

func (vm *VM) newInstance(class *runtime.ObjClass) *runtime.ObjInstance {
	inst := runtime.NewObjInstance(class)
	vm.registerObject(inst)
	return inst
}

func (vm *VM) newBoundMethod(receiver runtime.Value, method *runtime.ObjClosure) *runtime.ObjBoundMethod {
	bound := runtime.NewObjBoundMethod(receiver, method)
	vm.registerObject(bound)
	return bound
}

// defineNative installs a Go function as a global callable, the FFI
// surface embedders add to beyond the built-in "clock".
func (vm *VM) defineNative(name string, fn runtime.NativeFn) {
	str := vm.internString(name)
	vm.push(runtime.ObjVal(str))
	native := vm.newNative(name, fn)
	vm.push(runtime.ObjVal(native))
	vm.globals.Set(str, runtime.ObjVal(native))
	vm.pop()
	vm.pop()
}

// logGC writes a GC debug line tagged with this VM's session id, so
// interleaved output from multiple VM instances (e.g. a test suite that
// builds many of them) can be told apart.
func (vm *VM) logGC(format string, args ...any) {
	if vm.options.LogGC {
		fmt.Fprintf(vm.options.Stderr, "[vm %s] ", vm.SessionID)
		fmt.Fprintf(vm.options.Stderr, format, args...)
	}
}
