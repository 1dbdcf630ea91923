package runtime

// ObjClass is a class's runtime representation: its name (used in error
// messages and by OP_CLASS/print) and its method table, keyed by method
// name and populated by OP_METHOD, with OP_INHERIT copying a superclass's
// methods down into the subclass's table at class-declaration time.
type ObjClass struct {
	Header
	Name    *ObjString
	Methods Table
}

func NewObjClass(name *ObjString) *ObjClass {
	return &ObjClass{Header: Header{typ: ObjTypeClass}, Name: name}
}

func (c *ObjClass) String() string { return c.Name.Chars }
