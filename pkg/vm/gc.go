package vm

import (
	"github.com/dustin/go-humanize"
	"github.com/kristofer/loxvm/pkg/runtime"
)

const gcHeapGrowFactor = 2

func (vm *VM) markValue(v runtime.Value) {
	if runtime.IsObj(v) {
		vm.markObject(runtime.AsObj(v))
	}
}

// markObject marks o reachable and pushes it onto the gray worklist.
// The worklist grows through plain append rather than trackAlloc:
// growing it through the tracked allocator could itself trigger another
// collection mid-collection, which this collector (like clox's) is not
// reentrant against.
func (vm *VM) markObject(o runtime.Obj) {
	if o == nil || o.IsMarked() {
		return
	}
	vm.logGC("%p mark %s\n", o, o.String())
	o.SetMarked(true)
	vm.grayStack = append(vm.grayStack, o)
}

func (vm *VM) markTable(t *runtime.Table) {
	t.Each(func(key *runtime.ObjString, value runtime.Value) {
		vm.markObject(key)
		vm.markValue(value)
	})
}

func (vm *VM) markArray(values []runtime.Value) {
	for _, v := range values {
		vm.markValue(v)
	}
}

// blackenObject traces every reference object holds and marks them
// gray in turn. A class blackens both its name AND its method table —
// a class with no live reference to its methods would otherwise let the
// collector reclaim closures still callable through every one of its
// instances.
func (vm *VM) blackenObject(object runtime.Obj) {
	vm.logGC("%p blacken %s\n", object, object.String())

	switch o := object.(type) {
	case *runtime.ObjInstance:
		vm.markObject(o.Class)
		vm.markTable(&o.Fields)
	case *runtime.ObjClass:
		vm.markObject(o.Name)
		vm.markTable(&o.Methods)
	case *runtime.ObjClosure:
		vm.markObject(o.Function)
		for _, uv := range o.Upvalues {
			if uv != nil {
				vm.markObject(uv)
			}
		}
	case *runtime.ObjFunction:
		if o.Name != nil {
			vm.markObject(o.Name)
		}
		vm.markArray(o.Chunk.Constants)
	case *runtime.ObjUpvalue:
		vm.markValue(o.Closed)
	case *runtime.ObjBoundMethod:
		vm.markValue(o.Receiver)
		vm.markObject(o.Method)
	case *runtime.ObjNative, *runtime.ObjString:
		// no outgoing references
	}
}

func (vm *VM) freeObject(object runtime.Obj) {
	vm.logGC("%p free type %s\n", object, object.Type())
	vm.bytesAllocated -= objSize(object)
}

func (vm *VM) markRoots() {
	for i := 0; i < vm.stackTop; i++ {
		vm.markValue(vm.stack[i])
	}

	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(vm.frames[i].closure)
	}

	for uv := vm.openUpvalues; uv != nil; uv = uv.NextOpen {
		vm.markObject(uv)
	}

	vm.markTable(&vm.globals)
	// initString is nil for the single collection that can run while
	// New is still interning it under StressGC; a nil *ObjString handed
	// to markObject isn't caught by its nil-interface check, so guard
	// here instead.
	if vm.initString != nil {
		vm.markObject(vm.initString)
	}

	if vm.rootSource != nil {
		vm.rootSource.MarkRoots(vm.markValue, vm.markObject)
	}
}

func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		last := len(vm.grayStack) - 1
		object := vm.grayStack[last]
		vm.grayStack = vm.grayStack[:last]
		vm.blackenObject(object)
	}
}

func (vm *VM) sweep() {
	var prev runtime.Obj
	object := vm.objects

	for object != nil {
		if object.IsMarked() {
			object.SetMarked(false)
			prev = object
			object = object.Next()
			continue
		}

		unreached := object
		object = object.Next()
		if prev != nil {
			prev.SetNext(object)
		} else {
			vm.objects = object
		}
		vm.freeObject(unreached)
	}
}

// collectGarbage runs one full mark-sweep cycle: mark roots, trace
// references to blacken the whole reachable graph, weak-sweep the
// string intern pool (which must happen before the main sweep or every
// interned string would look unreachable and be collected), sweep
// everything else, then retune nextGC.
func (vm *VM) collectGarbage() {
	var before int
	if vm.options.LogGC {
		before = vm.bytesAllocated
		vm.logGC("-- gc begin\n")
	}

	vm.markRoots()
	vm.traceReferences()
	vm.strings.RemoveWhite()
	vm.sweep()

	vm.nextGC = vm.bytesAllocated * gcHeapGrowFactor

	if vm.options.LogGC {
		vm.logGC("-- gc end\n")
		vm.logGC("   collected %s (from %s to %s) next GC at %s\n",
			humanize.Bytes(uint64(before-vm.bytesAllocated)),
			humanize.Bytes(uint64(before)),
			humanize.Bytes(uint64(vm.bytesAllocated)),
			humanize.Bytes(uint64(vm.nextGC)))
	}
}

// CollectGarbage runs a collection on demand, the way a native "gc"
// callable or a test asserting on collector behavior needs to.
func (vm *VM) CollectGarbage() {
	vm.collectGarbage()
}

// HeapStats reports the collector's current bookkeeping: the bytes
// currently counted as allocated and the threshold for the next
// collection.
func (vm *VM) HeapStats() (bytesAllocated, nextGC int) {
	return vm.bytesAllocated, vm.nextGC
}
