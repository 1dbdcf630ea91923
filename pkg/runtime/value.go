package runtime

import (
	"strconv"
)

// ValueType tags which field of a Value is live.
type ValueType int

const (
	ValNil ValueType = iota
	ValBool
	ValNumber
	ValObj
)

// Value is the tagged union every Lox value is represented by: nil,
// bool, number (a double) or a heap Obj reference. It is a plain struct
// rather than an interface so that nil/bool/number values never touch
// the heap and comparisons stay cheap.
type Value struct {
	typ ValueType
	b   bool
	n   float64
	o   Obj
}

func NilVal() Value          { return Value{typ: ValNil} }
func BoolVal(b bool) Value   { return Value{typ: ValBool, b: b} }
func NumberVal(n float64) Value { return Value{typ: ValNumber, n: n} }
func ObjVal(o Obj) Value     { return Value{typ: ValObj, o: o} }

func IsNil(v Value) bool    { return v.typ == ValNil }
func IsBool(v Value) bool   { return v.typ == ValBool }
func IsNumber(v Value) bool { return v.typ == ValNumber }
func IsObj(v Value) bool    { return v.typ == ValObj }

func AsBool(v Value) bool      { return v.b }
func AsNumber(v Value) float64 { return v.n }
func AsObj(v Value) Obj        { return v.o }

func isObjType(v Value, t ObjType) bool { return IsObj(v) && v.o.Type() == t }

func IsString(v Value) bool   { return isObjType(v, ObjTypeString) }
func IsClass(v Value) bool    { return isObjType(v, ObjTypeClass) }
func IsInstance(v Value) bool { return isObjType(v, ObjTypeInstance) }

func AsString(v Value) *ObjString     { return v.o.(*ObjString) }
func AsFunction(v Value) *ObjFunction { return v.o.(*ObjFunction) }
func AsClosure(v Value) *ObjClosure   { return v.o.(*ObjClosure) }
func AsClass(v Value) *ObjClass       { return v.o.(*ObjClass) }
func AsInstance(v Value) *ObjInstance { return v.o.(*ObjInstance) }

// Equal implements Lox equality: nil equals nil, bools and numbers
// compare by value (IEEE-754 comparison via Go's ==, so NaN != NaN), and
// objects compare by reference identity, never by content — two
// distinct instances are never equal even with identical fields, and
// two interned strings with identical content are equal because
// interning guarantees they are the same *ObjString.
func Equal(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case ValNil:
		return true
	case ValBool:
		return a.b == b.b
	case ValNumber:
		return a.n == b.n
	case ValObj:
		return a.o == b.o
	default:
		return false
	}
}

// IsFalsey implements Lox's truthiness rule: nil and false are falsey,
// everything else (including 0 and "") is truthy.
func IsFalsey(v Value) bool {
	return IsNil(v) || (IsBool(v) && !AsBool(v))
}

// String renders v the way OP_PRINT and the "print" statement do.
func (v Value) String() string {
	switch v.typ {
	case ValNil:
		return "nil"
	case ValBool:
		if v.b {
			return "true"
		}
		return "false"
	case ValNumber:
		return strconv.FormatFloat(v.n, 'g', -1, 64)
	case ValObj:
		return v.o.String()
	default:
		return "<invalid value>"
	}
}
