// Package runtime holds the value representation and heap object model
// shared by the interpreter: tagged Values, the Obj hierarchy (strings,
// functions, closures, classes, instances, ...), the hash table used for
// globals/fields/methods, and the Chunk bytecode container.
//
// Value, Obj and Table are mutually referential (a Value can hold an Obj,
// an Obj can hold a Table of Values, a Table stores Values keyed by
// *ObjString) the same way they are in the C original this package is
// modeled on. Splitting them across packages would need an import cycle
// Go can't express, so they live together here; the garbage collector's
// behavior (marking, blackening, sweeping) lives separately in pkg/vm,
// operating on the exported types below.
package runtime

// ObjType identifies the concrete variant behind an Obj.
type ObjType int

const (
	ObjTypeString ObjType = iota
	ObjTypeFunction
	ObjTypeNative
	ObjTypeUpvalue
	ObjTypeClosure
	ObjTypeClass
	ObjTypeInstance
	ObjTypeBoundMethod
)

func (t ObjType) String() string {
	switch t {
	case ObjTypeString:
		return "STRING"
	case ObjTypeFunction:
		return "FUNCTION"
	case ObjTypeNative:
		return "NATIVE"
	case ObjTypeUpvalue:
		return "UPVALUE"
	case ObjTypeClosure:
		return "CLOSURE"
	case ObjTypeClass:
		return "CLASS"
	case ObjTypeInstance:
		return "INSTANCE"
	case ObjTypeBoundMethod:
		return "BOUND_METHOD"
	default:
		return "UNKNOWN"
	}
}

// Obj is the common interface every heap object satisfies. The mark bit
// and the intrusive all-objects list link are the only state the
// collector needs that isn't specific to a variant.
type Obj interface {
	Type() ObjType
	IsMarked() bool
	SetMarked(bool)
	Next() Obj
	SetNext(Obj)
	String() string
}

// Header is embedded by every concrete object type and implements the
// bookkeeping half of Obj.
type Header struct {
	typ    ObjType
	marked bool
	next   Obj
}

func (h *Header) Type() ObjType    { return h.typ }
func (h *Header) IsMarked() bool   { return h.marked }
func (h *Header) SetMarked(m bool) { h.marked = m }
func (h *Header) Next() Obj        { return h.next }
func (h *Header) SetNext(o Obj)    { h.next = o }
