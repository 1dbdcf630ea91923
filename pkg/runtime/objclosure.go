package runtime

// ObjClosure pairs a compiled function with the upvalues it captured at
// the point it was created. Every callable value on the stack except a
// bare native or class is, ultimately, a closure.
type ObjClosure struct {
	Header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func NewObjClosure(fn *ObjFunction) *ObjClosure {
	return &ObjClosure{
		Header:   Header{typ: ObjTypeClosure},
		Function: fn,
		Upvalues: make([]*ObjUpvalue, fn.UpvalueCount),
	}
}

func (c *ObjClosure) String() string { return c.Function.String() }
