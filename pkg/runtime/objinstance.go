package runtime

// ObjInstance is an instance of a class: a back-pointer to its class
// (used for method lookup when a field access misses) plus its own
// field table. A field and a method of the same name may coexist on the
// class/instance pair; field lookup is always tried first, so a field
// shadows a method of the same name.
type ObjInstance struct {
	Header
	Class  *ObjClass
	Fields Table
}

func NewObjInstance(class *ObjClass) *ObjInstance {
	return &ObjInstance{Header: Header{typ: ObjTypeInstance}, Class: class}
}

func (i *ObjInstance) String() string { return i.Class.Name.Chars + " instance" }
