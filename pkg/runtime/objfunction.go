package runtime

// ObjFunction is a compiled function body: its arity, the number of
// upvalues its closures must capture, its bytecode, and (for everything
// but the top-level script) its name.
type ObjFunction struct {
	Header
	Arity        int
	UpvalueCount int
	Chunk        Chunk
	Name         *ObjString // nil for the top-level script
}

func NewObjFunction() *ObjFunction {
	return &ObjFunction{Header: Header{typ: ObjTypeFunction}}
}

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return "<fn " + f.Name.Chars + ">"
}

// NativeFn is the signature every native (host-provided) callable must
// implement. It receives its arguments and returns a Value or an error;
// the error becomes a runtime error reported with the calling frame's
// stack trace.
type NativeFn func(args []Value) (Value, error)

// ObjNative wraps a NativeFn so it can be stored in a Value and looked
// up through globals like any other callable.
type ObjNative struct {
	Header
	Name string
	Fn   NativeFn
}

func NewObjNative(name string, fn NativeFn) *ObjNative {
	return &ObjNative{Header: Header{typ: ObjTypeNative}, Name: name, Fn: fn}
}

func (n *ObjNative) String() string { return "<native fn " + n.Name + ">" }
